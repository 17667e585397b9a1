package main

import (
	"bufio"          // Line input
	"context"        // Request cancellation
	"errors"         // Sentinel errors
	"flag"           // Per-command flags
	"fmt"            // Output formatting
	"io"             // Streams
	"os"             // Slip files
	"path/filepath"  // Slip file names
	"strconv"        // ID parsing
	"strings"        // Input trimming
	"text/tabwriter" // Column output

	"tournament_system/internal/client" // Client core
	"tournament_system/internal/domain" // Domain models
)

var (
	errUsage   = errors.New("invalid usage")
	errAborted = errors.New("aborted")
)

// app runs one tourneyctl command
type app struct {
	gw  *client.Gateway
	mgr *client.Manager
	in  *prompter
	out io.Writer
	yes bool // Skip confirmations
}

// command is one subcommand
type command func(a *app, ctx context.Context, args []string) error

var commands = map[string]command{
	"login":              (*app).login,
	"register":           (*app).register,
	"logout":             (*app).logout,
	"whoami":             (*app).whoami,
	"competitions":       (*app).competitions,
	"show":               (*app).show,
	"join":               (*app).join,
	"cancel":             (*app).cancel,
	"pay":                (*app).pay,
	"history":            (*app).history,
	"approve":            (*app).approve,
	"reject":             (*app).reject,
	"pending":            (*app).pending,
	"verify":             (*app).verify,
	"delete-competition": (*app).deleteCompetition,
	"delete-user":        (*app).deleteUser,
}

func (a *app) run(ctx context.Context, args []string) error {
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	return cmd(a, ctx, args[1:])
}

// prompter reads answers from the terminal
type prompter struct {
	r *bufio.Reader
}

func newPrompter(r io.Reader) *prompter {
	return &prompter{r: bufio.NewReader(r)}
}

// line returns the next input line without its newline
func (p *prompter) line() (string, error) {
	s, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// confirm asks before a destructive action unless -yes was given
func (a *app) confirm(question string) error {
	if a.yes {
		return nil
	}
	fmt.Fprintf(a.out, "%s [y/N]: ", question)
	answer, err := a.in.line()
	if err != nil {
		return errAborted
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return errAborted
}

// parseID reads a positive numeric argument
func parseID(name, s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number, got %q", errUsage, name, s)
	}
	return uint(id), nil
}

// oneID parses a command taking exactly one ID argument
func oneID(fs *flag.FlagSet, name string, args []string) (uint, error) {
	if err := fs.Parse(args); err != nil {
		return 0, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return 0, fmt.Errorf("%w: %s takes <%s>", errUsage, fs.Name(), name)
	}
	return parseID(name, fs.Arg(0))
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return fmt.Errorf("%w: login [-p PASSWORD] <email|username>", errUsage)
	}
	if *password == "" {
		fmt.Fprint(a.out, "Password: ")
		p, err := a.in.line()
		if err != nil {
			return errAborted
		}
		*password = p
	}
	sess, err := a.gw.Login(ctx, fs.Arg(0), *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", sess.User.Username, sess.User.Role)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlags("register")
	username := fs.String("u", "", "username")
	email := fs.String("e", "", "email")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil || *username == "" || *email == "" {
		return fmt.Errorf("%w: register -u NAME -e EMAIL [-p PASSWORD]", errUsage)
	}
	if *password == "" {
		fmt.Fprint(a.out, "Password: ")
		p, err := a.in.line()
		if err != nil {
			return errAborted
		}
		*password = p
	}
	sess, err := a.gw.Register(ctx, *username, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome %s, you are signed in\n", sess.User.Username)
	return nil
}

func (a *app) logout(_ context.Context, _ []string) error {
	if err := a.gw.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *app) whoami(_ context.Context, _ []string) error {
	sess := a.gw.Session().Current()
	if !sess.Valid() {
		return domain.ErrUnauthenticated
	}
	fmt.Fprintf(a.out, "%d\t%s\t%s\t%s\n", sess.User.ID, sess.User.Username, sess.User.Email, sess.User.Role)
	return nil
}

func (a *app) competitions(ctx context.Context, _ []string) error {
	list, err := a.mgr.Competitions(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDATE\tLOCATION\tSLOTS\tPRIZE")
	for _, c := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Date, c.Location, slots(c.ApprovedCount, c.MaxPlayer, c.IsFull), c.Prize)
	}
	return tw.Flush()
}

// slots renders approved/max, marking full competitions
func slots(approved, limit int, full bool) string {
	if limit == 0 {
		return fmt.Sprintf("%d/-", approved)
	}
	s := fmt.Sprintf("%d/%d", approved, limit)
	if full {
		s += " full"
	}
	return s
}

func (a *app) show(ctx context.Context, args []string) error {
	id, err := oneID(newFlags("show"), "competitionID", args)
	if err != nil {
		return err
	}
	v, err := a.mgr.View(ctx, id)
	if err != nil {
		return err
	}
	c := v.Competition
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", c.Name)
	fmt.Fprintf(tw, "Date:\t%s\n", c.Date)
	fmt.Fprintf(tw, "Location:\t%s\n", c.Location)
	fmt.Fprintf(tw, "Prize:\t%s\n", c.Prize)
	fmt.Fprintf(tw, "Slots:\t%s\n", slots(v.ApprovedCount, c.MaxPlayer, v.IsFull))
	if v.Current != nil {
		fmt.Fprintf(tw, "Your registration:\t#%d %s\n", v.Current.ID, v.Status)
	}
	if len(v.AllowedActions) > 0 {
		names := make([]string, len(v.AllowedActions))
		for i, act := range v.AllowedActions {
			names[i] = string(act)
		}
		fmt.Fprintf(tw, "Actions:\t%s\n", strings.Join(names, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if c.Description != "" {
		fmt.Fprintf(a.out, "\n%s\n", c.Description)
	}
	if len(v.Registrations) > 0 {
		fmt.Fprintln(a.out)
		tw = tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "REG\tPLAYER\tSTATUS\tNOTE")
		for _, r := range v.Registrations {
			player := strconv.FormatUint(uint64(r.UserID), 10)
			if r.User != nil {
				player = r.User.Username
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, player, r.Status, r.Note)
		}
		return tw.Flush()
	}
	return nil
}

func (a *app) join(ctx context.Context, args []string) error {
	id, err := oneID(newFlags("join"), "competitionID", args)
	if err != nil {
		return err
	}
	reg, err := a.mgr.Join(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registration #%d is %s, submit a payment slip with: tourneyctl pay %d <slip>\n", reg.ID, reg.Status, reg.ID)
	return nil
}

func (a *app) cancel(ctx context.Context, args []string) error {
	id, err := oneID(newFlags("cancel"), "registrationID", args)
	if err != nil {
		return err
	}
	reg, err := a.mgr.Cancel(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registration #%d is %s\n", reg.ID, reg.Status)
	return nil
}

func (a *app) pay(ctx context.Context, args []string) error {
	fs := newFlags("pay")
	amount := fs.Float64("amount", 0, "amount transferred")
	method := fs.String("method", domain.DefaultPaymentMethod, "payment method")
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 || fs.NArg() > 2 {
		return fmt.Errorf("%w: pay -amount N [-method M] <registrationID> <slip>", errUsage)
	}
	id, err := parseID("registrationID", fs.Arg(0))
	if err != nil {
		return err
	}
	var slip client.Slip
	if fs.NArg() == 2 {
		f, err := os.Open(fs.Arg(1))
		if err != nil {
			return err
		}
		defer f.Close()
		slip = client.Slip{Filename: filepath.Base(f.Name()), Content: f}
	}
	payment, err := a.mgr.SubmitPayment(ctx, id, slip, *amount, *method)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Payment #%d submitted, awaiting review\n", payment.ID)
	return nil
}

func (a *app) history(ctx context.Context, args []string) error {
	fs := newFlags("history")
	if err := fs.Parse(args); err != nil || fs.NArg() > 1 {
		return fmt.Errorf("%w: history [playerID]", errUsage)
	}
	var playerID uint
	if fs.NArg() == 1 {
		id, err := parseID("playerID", fs.Arg(0))
		if err != nil {
			return err
		}
		playerID = id
	} else {
		sess := a.gw.Session().Current()
		if !sess.Valid() {
			return domain.ErrUnauthenticated
		}
		playerID = sess.User.ID
	}
	regs, err := a.mgr.History(ctx, playerID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REG\tCOMPETITION\tSTATUS\tPAYMENTS\tNOTE")
	for _, r := range regs {
		name := strconv.FormatUint(uint64(r.CompetitionID), 10)
		if r.Competition != nil {
			name = r.Competition.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", r.ID, name, r.Status, len(r.Payments), r.Note)
	}
	return tw.Flush()
}

func (a *app) approve(ctx context.Context, args []string) error {
	return a.setStatus(ctx, "approve", domain.StatusApproved, args)
}

func (a *app) reject(ctx context.Context, args []string) error {
	return a.setStatus(ctx, "reject", domain.StatusRejected, args)
}

func (a *app) setStatus(ctx context.Context, name string, status domain.Status, args []string) error {
	fs := newFlags(name)
	note := fs.String("note", "", "note shown to the player")
	id, err := oneID(fs, "registrationID", args)
	if err != nil {
		return err
	}
	if status == domain.StatusRejected {
		if err := a.confirm(fmt.Sprintf("Reject registration #%d?", id)); err != nil {
			return err
		}
	}
	reg, err := a.mgr.AdminSetStatus(ctx, id, status, *note)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registration #%d is %s\n", reg.ID, reg.Status)
	return nil
}

func (a *app) pending(ctx context.Context, _ []string) error {
	payments, err := a.mgr.PendingPayments(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PAYMENT\tREG\tPLAYER\tCOMPETITION\tAMOUNT\tMETHOD\tSLIP")
	for _, p := range payments {
		player, competition := "-", "-"
		if r := p.Registration; r != nil {
			if r.User != nil {
				player = r.User.Username
			}
			if r.Competition != nil {
				competition = r.Competition.Name
			}
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.2f\t%s\t%s\n", p.ID, p.RegistrationID, player, competition, p.Amount, p.Method, p.SlipImage)
	}
	return tw.Flush()
}

func (a *app) verify(ctx context.Context, args []string) error {
	fs := newFlags("verify")
	status := fs.String("status", string(domain.PaymentVerified), "VERIFIED or REJECTED")
	note := fs.String("note", "", "note shown to the player")
	id, err := oneID(fs, "paymentID", args)
	if err != nil {
		return err
	}
	verdict := domain.PaymentStatus(strings.ToUpper(*status))
	if verdict == domain.PaymentRejected {
		if err := a.confirm(fmt.Sprintf("Reject payment #%d?", id)); err != nil {
			return err
		}
	}
	payment, err := a.mgr.VerifyPayment(ctx, id, verdict, *note)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Payment #%d is %s\n", payment.ID, payment.Status)
	return nil
}

func (a *app) deleteCompetition(ctx context.Context, args []string) error {
	id, err := oneID(newFlags("delete-competition"), "id", args)
	if err != nil {
		return err
	}
	if err := a.confirm(fmt.Sprintf("Delete competition #%d and all its registrations?", id)); err != nil {
		return err
	}
	if err := a.mgr.DeleteCompetition(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Competition #%d deleted\n", id)
	return nil
}

func (a *app) deleteUser(ctx context.Context, args []string) error {
	id, err := oneID(newFlags("delete-user"), "id", args)
	if err != nil {
		return err
	}
	if err := a.confirm(fmt.Sprintf("Delete user #%d and all their registrations?", id)); err != nil {
		return err
	}
	if err := a.mgr.DeleteUser(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User #%d deleted\n", id)
	return nil
}
