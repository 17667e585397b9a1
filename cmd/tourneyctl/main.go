package main

import (
	"context"   // Request cancellation
	"errors"    // Error inspection
	"flag"      // Command line flags
	"fmt"       // Output formatting
	"os"        // Process streams and exit codes
	"os/signal" // Ctrl-C cancels the request

	"tournament_system/internal/client" // Client core
	"tournament_system/internal/config" // Custom package for configuration
	"tournament_system/internal/domain" // Domain errors

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

const usage = `usage: tourneyctl [flags] <command> [args]

commands:
  login <email|username>            sign in (password read from -p or stdin)
  register -u NAME -e EMAIL         create a Player account
  logout                            forget the stored session
  whoami                            show the signed-in user
  competitions                      list competitions
  show <competitionID>              competition detail with your registration
  join <competitionID>              register for a competition
  cancel <registrationID>           withdraw a pending or waiting registration
  pay <registrationID> <slip.png>   submit a payment slip
  history [playerID]                registrations of a player (default: you)
  approve <registrationID>          admin: approve a registration
  reject <registrationID>           admin: reject a registration
  pending                           admin: payments awaiting review
  verify <paymentID>                admin: verify or reject a payment
  delete-competition <id>           admin: delete a competition
  delete-user <id>                  admin: delete a user

flags:
`

// Main entry point for the terminal client
func main() {
	cfg := config.LoadConfig() // Load configuration

	fs := flag.NewFlagSet("tourneyctl", flag.ExitOnError)
	apiURL := fs.String("api", cfg.APIBaseURL, "API base URL")
	sessionFile := fs.String("session", cfg.SessionFile, "session file")
	yes := fs.Bool("yes", false, "do not ask before destructive admin actions")
	verbose := fs.Bool("v", false, "log requests")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.WarnLevel)
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	session := client.NewSessionStore(*sessionFile)
	if err := session.Load(); err != nil {
		logrus.Warnf("ignoring unreadable session file: %v", err)
	}
	gw := client.NewGateway(*apiURL, session, nil)
	a := &app{
		gw:  gw,
		mgr: client.NewManager(gw),
		in:  newPrompter(os.Stdin),
		out: os.Stdout,
		yes: *yes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := a.run(ctx, fs.Args()); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// describe renders an error for the terminal
func describe(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return err.Error() + "\nrun tourneyctl -h for help"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "error: " + err.Error() + " (run tourneyctl login)"
	case errors.Is(err, client.ErrBusy):
		return "error: " + err.Error() + ", try again shortly"
	}
	return "error: " + err.Error()
}
