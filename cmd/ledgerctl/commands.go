package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"finledger/models"
	"finledger/pkg/identity"
	"finledger/pkg/ledger"
	"finledger/pkg/store"
	"finledger/process/report"

	"github.com/google/subcommands"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "creates or updates the database schema" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate

  Runs the schema migration for users, refresh tokens, savings, expenses and investments.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, db, err := openDB()
	if err != nil {
		return failf("%v", err)
	}
	defer closeDB(db)
	if err := store.Migrate(db); err != nil {
		return failf("%v", err)
	}
	fmt.Println("migration completed")
	return subcommands.ExitSuccess
}

type createUserCmd struct {
	name     string
	email    string
	password string
}

func (*createUserCmd) Name() string     { return "create-user" }
func (*createUserCmd) Synopsis() string { return "registers a user" }
func (*createUserCmd) Usage() string {
	return `ledgerctl create-user -name <name> -email <email> -password <password>

  Registers a user the same way POST /auth/register does. An existing email is reported and
  left untouched.
`
}
func (c *createUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "display name")
	f.StringVar(&c.email, "email", "", "login email")
	f.StringVar(&c.password, "password", "", "plaintext password (min 6 chars)")
}

func (c *createUserCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" || c.email == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "Error: -name, -email and -password are required.")
		return subcommands.ExitUsageError
	}
	cfg, db, err := openDB()
	if err != nil {
		return failf("%v", err)
	}
	defer closeDB(db)

	id, err := identity.New(db, cfg.JWT).Register(ctx, c.name, c.email, c.password)
	if identity.IsCode(err, identity.CodeAlreadyRegistered) {
		fmt.Printf("user %s already exists\n", c.email)
		return subcommands.ExitSuccess
	}
	if err != nil {
		return failf("create user: %v", err)
	}
	fmt.Printf("created user %s id=%s\n", id.Email, id.UserID)
	return subcommands.ExitSuccess
}

type resetPasswordCmd struct {
	email    string
	password string
}

func (*resetPasswordCmd) Name() string     { return "reset-password" }
func (*resetPasswordCmd) Synopsis() string { return "replaces a user's password and clears lockouts" }
func (*resetPasswordCmd) Usage() string {
	return `ledgerctl reset-password -email <email> -password <password>
`
}
func (c *resetPasswordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "email of the user to reset")
	f.StringVar(&c.password, "password", "", "new plaintext password (min 6 chars)")
}

func (c *resetPasswordCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "Error: -email and -password are required.")
		return subcommands.ExitUsageError
	}
	cfg, db, err := openDB()
	if err != nil {
		return failf("%v", err)
	}
	defer closeDB(db)

	if err := identity.New(db, cfg.JWT).ResetPassword(ctx, c.email, c.password); err != nil {
		return failf("reset password: %v", err)
	}
	fmt.Printf("Password reset for user %s\n", c.email)
	return subcommands.ExitSuccess
}

type reportCmd struct {
	email string
	month string
	list  bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "prints a user's per-currency totals for a month" }
func (*reportCmd) Usage() string {
	return `ledgerctl report -email <email> -month <YYYY-MM> [-list]

  Prints savings, expenses and balance per currency for records dated in the month (UTC).
  With -list, every matching saving and expense is printed as well.
`
}
func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "email of the user to report for")
	f.StringVar(&c.month, "month", "", "month to report (YYYY-MM)")
	f.BoolVar(&c.list, "list", false, "list matching records")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" || c.month == "" {
		fmt.Fprintln(os.Stderr, "Error: -email and -month are required.")
		return subcommands.ExitUsageError
	}
	_, db, err := openDB()
	if err != nil {
		return failf("%v", err)
	}
	defer closeDB(db)

	var user models.User
	if err := db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(c.email))).First(&user).Error; err != nil {
		return failf("user not found: %v", err)
	}
	owner := ledger.Identity{UserID: user.ID, Name: user.Name, Email: user.Email}
	r, err := report.Monthly(ctx, ledger.NewRepository(store.NewRecords(db), nil), owner, c.month)
	if err != nil {
		return failf("%v", err)
	}
	if err := report.Write(os.Stdout, r, c.list); err != nil {
		return failf("%v", err)
	}
	return subcommands.ExitSuccess
}
