package db

import (
	"fmt"  // Error formatting
	"time" // Slow query threshold

	"tournament_system/internal/config" // Custom package for configuration

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/driver/postgres"    // Postgres driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM logger configuration
)

// Dialector picks the GORM driver matching cfg.DBDriver
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "", "mysql":
		return mysql.Open(cfg.DSN()), nil
	case "postgres":
		return postgres.Open(cfg.DSN()), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

// NewLogger routes GORM's SQL logging through logrus
func NewLogger() logger.Interface {
	return logger.New(
		logrus.StandardLogger(), // Writer with Printf
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,            // Only warnings and errors
			IgnoreRecordNotFoundError: true,                   // Not found is a normal outcome for lookups
			Colorful:                  false,                  // Logrus formats the line
		},
	)
}

// Open connects to the configured database
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg) // Resolve driver
	if err != nil {
		return nil, err
	}
	return gorm.Open(dialector, &gorm.Config{Logger: NewLogger()})
}

// MustOpen connects to the database or exits
func MustOpen(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	return db
}
