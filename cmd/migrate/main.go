package main

import (
	"tournament_system/internal/config" // Custom import path (Config)
	"tournament_system/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	database := db.MustOpen(cfg) // Connect using DB_DRIVER
	if err := db.Migrate(database); err != nil {
		logrus.Fatalf("failed to migrate: %v", err)
	}
	logrus.WithField("driver", cfg.DBDriver).Info("Migration completed")
}
