// Package store persists ledger records and users with gorm over PostgreSQL or SQLite.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finledger/models"
	"finledger/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database and tunes its connection pool.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.Default
	if !cfg.LogMode {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		if !inMemory(cfg.DSN) {
			if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	maxOpen := max(cfg.MaxOpenConns, 1)
	if cfg.Driver == "sqlite" && inMemory(cfg.DSN) {
		// an in-memory database lives and dies with its connection
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(max(maxOpen/2, 1))
	sqlDB.SetConnMaxLifetime(time.Hour)

	if cfg.Driver == "sqlite" {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		if !inMemory(cfg.DSN) {
			if err := db.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
				return nil, fmt.Errorf("set journal mode: %w", err)
			}
		}
	}
	return db, nil
}

func inMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Migrate creates or updates every table finledger uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Saving{},
		&models.Expense{},
		&models.Investment{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
