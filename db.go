package main

import (
	"fmt"

	"finledger/pkg/config"
	"finledger/pkg/store"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// initDB opens the configured database. Schema migration is controlled by DB_AUTO_MIGRATE
// (default true); a failed migration is logged and startup carries on, so a database user
// without DDL rights can still serve an already migrated schema.
func initDB(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	db, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s database: %w", cfg.Driver, err)
	}
	if cfg.AutoMigrate {
		if err := store.Migrate(db); err != nil {
			log.Warn().Err(err).Msg("migration warning")
		}
	}
	return db, nil
}
