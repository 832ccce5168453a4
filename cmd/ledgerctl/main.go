// Command ledgerctl runs finledger maintenance tasks against the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"finledger/pkg/config"
	"finledger/pkg/store"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&migrateCmd{}, "database")
	subcommands.Register(&createUserCmd{}, "users")
	subcommands.Register(&resetPasswordCmd{}, "users")
	subcommands.Register(&reportCmd{}, "reports")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}

// openDB loads the same configuration as the server and connects to its database.
func openDB() (*config.Config, *gorm.DB, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func failf(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}
