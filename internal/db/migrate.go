package db

import (
	"tournament_system/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// Models lists every table the service owns, in dependency order
var Models = []any{&domain.User{}, &domain.Competition{}, &domain.Registration{}, &domain.Payment{}}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	return db.AutoMigrate(Models...)
}
