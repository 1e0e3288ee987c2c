package database

import (
	"strings"

	"propertydeals-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a GORM DB from DSN. postgres:// URLs go through the pgx driver with
// PreferSimpleProtocol, which avoids 42P05 ("prepared statement already exists") behind
// poolers such as PgBouncer. file: and sqlite: DSNs open a local SQLite database, which is
// what the memory ledger mode and the tests use.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		path := strings.TrimPrefix(dsn, "sqlite:")
		if path == ":memory:" {
			return Open(path)
		}
		return gorm.Open(sqlite.Open(path), cfg)
	case dsn == ":memory:":
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, err
		}
		// every pooled connection would get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	case strings.HasPrefix(dsn, "file:"):
		return gorm.Open(sqlite.Open(dsn), cfg)
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), cfg)
}

// AutoMigrate creates the registry snapshot and ledger journal tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.PropertyRecord{},
		&domain.SyncCursor{},
		&domain.LedgerEvent{},
		&domain.LedgerTransaction{},
	)
}
