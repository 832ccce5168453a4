package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finledger/pkg/config"
	"finledger/pkg/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openTest(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + name + "?mode=memory&cache=shared",
		MaxOpenConns: 4,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func sampleRecord(k ledger.Kind, owner, amount string, date time.Time) ledger.Record {
	r := ledger.Record{
		Kind: k, OwnerID: owner, Amount: decimal.RequireFromString(amount),
		Currency: "USD", Type: "general", Date: date,
		CreatedAt: date, UpdatedAt: date,
	}
	switch k {
	case ledger.KindExpense:
		r.Category = ledger.Discretionary
	case ledger.KindInvestment:
		r.Name = "ETF"
	}
	return r
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestInsertAndFindByOwner(t *testing.T) {
	s := NewRecords(openTest(t))
	ctx := context.Background()
	date := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)

	for _, k := range ledger.Kinds {
		in := sampleRecord(k, "alice", "12.5", date)
		got, err := s.Insert(ctx, in)
		if err != nil {
			t.Fatalf("%s insert: %v", k, err)
		}
		if got.ID == "" || got.Kind != k {
			t.Fatalf("%s insert returned %+v", k, got)
		}

		list, err := s.FindByOwner(ctx, k, "alice")
		if err != nil {
			t.Fatalf("%s find: %v", k, err)
		}
		if len(list) != 1 {
			t.Fatalf("%s find returned %d records", k, len(list))
		}
		r := list[0]
		if r.ID != got.ID || r.Kind != k || r.OwnerID != "alice" {
			t.Fatalf("%s round trip = %+v", k, r)
		}
		if !r.Amount.Equal(decimal.RequireFromString("12.5")) || r.Currency != "USD" || !r.Date.Equal(date) {
			t.Fatalf("%s round trip = %+v", k, r)
		}
		if r.Category != in.Category || r.Name != in.Name {
			t.Fatalf("%s variant fields lost: %+v", k, r)
		}
	}

	other, err := s.FindByOwner(ctx, ledger.KindSaving, "bob")
	if err != nil || len(other) != 0 {
		t.Fatalf("bob sees %d savings (err=%v)", len(other), err)
	}
}

func TestPatchScopedByOwner(t *testing.T) {
	s := NewRecords(openTest(t))
	ctx := context.Background()
	date := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	created, err := s.Insert(ctx, sampleRecord(ledger.KindExpense, "alice", "10", date))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	amount := decimal.RequireFromString("99.99")
	cat := string(ledger.Luxury)
	later := date.Add(time.Hour)
	got, err := s.Patch(ctx, ledger.KindExpense, "alice", created.ID, ledger.Fields{Amount: &amount, Category: &cat}, later)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !got.Amount.Equal(amount) || got.Category != ledger.Luxury || got.Type != "general" {
		t.Fatalf("patched = %+v", got)
	}
	if !got.UpdatedAt.Equal(later) || !got.CreatedAt.Equal(date) {
		t.Fatalf("timestamps = created %v updated %v", got.CreatedAt, got.UpdatedAt)
	}

	if _, err := s.Patch(ctx, ledger.KindExpense, "bob", created.ID, ledger.Fields{Amount: &amount}, later); !errors.Is(err, ledger.ErrNoRecord) {
		t.Fatalf("foreign patch: got %v, want ErrNoRecord", err)
	}
	if _, err := s.Patch(ctx, ledger.KindExpense, "alice", "missing", ledger.Fields{Amount: &amount}, later); !errors.Is(err, ledger.ErrNoRecord) {
		t.Fatalf("missing patch: got %v, want ErrNoRecord", err)
	}
}

func TestRemove(t *testing.T) {
	s := NewRecords(openTest(t))
	ctx := context.Background()
	created, err := s.Insert(ctx, sampleRecord(ledger.KindSaving, "alice", "5", time.Now()))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Remove(ctx, ledger.KindSaving, "bob", created.ID); !errors.Is(err, ledger.ErrNoRecord) {
		t.Fatalf("foreign remove: got %v, want ErrNoRecord", err)
	}
	if err := s.Remove(ctx, ledger.KindSaving, "alice", created.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, ledger.KindSaving, "alice", created.ID); !errors.Is(err, ledger.ErrNoRecord) {
		t.Fatalf("second remove: got %v, want ErrNoRecord", err)
	}
	list, _ := s.FindByOwner(ctx, ledger.KindSaving, "alice")
	if len(list) != 0 {
		t.Fatalf("record survived delete: %+v", list)
	}
}

func TestRepositoryOverStore(t *testing.T) {
	repo := ledger.NewRepository(NewRecords(openTest(t)), nil)
	ctx := ledger.WithIdentity(context.Background(), ledger.Identity{UserID: "alice"})
	amount := decimal.RequireFromString("100")
	cur, typ := "usd", "general"

	created, err := repo.Create(ctx, ledger.KindSaving, ledger.Fields{Amount: &amount, Currency: &cur, Type: &typ})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Currency != "USD" {
		t.Fatalf("currency = %q", created.Currency)
	}
	if err := repo.Delete(ctx, ledger.KindSaving, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, ledger.KindSaving, created.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	var nf *ledger.NotFoundError
	if _, err := repo.Update(ctx, ledger.KindSaving, created.ID, ledger.Fields{Amount: &amount}); !errors.As(err, &nf) {
		t.Fatalf("update deleted: got %v, want NotFoundError", err)
	}
}

func TestAmountKeepsFullPrecision(t *testing.T) {
	s := NewRecords(openTest(t))
	ctx := context.Background()
	date := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)

	for _, k := range ledger.Kinds {
		created, err := s.Insert(ctx, sampleRecord(k, "alice", "12345678901.12345678", date))
		if err != nil {
			t.Fatalf("%s insert: %v", k, err)
		}
		list, err := s.FindByOwner(ctx, k, "alice")
		if err != nil || len(list) != 1 {
			t.Fatalf("%s find: %d records (err=%v)", k, len(list), err)
		}
		if got := list[0].Amount.String(); got != "12345678901.12345678" {
			t.Fatalf("%s stored amount = %s", k, got)
		}

		amount := decimal.RequireFromString("999999999999.99999999")
		got, err := s.Patch(ctx, k, "alice", created.ID, ledger.Fields{Amount: &amount}, date.Add(time.Hour))
		if err != nil {
			t.Fatalf("%s patch: %v", k, err)
		}
		if !got.Amount.Equal(amount) {
			t.Fatalf("%s patched amount = %s", k, got.Amount)
		}
	}
}

func TestOpenEnablesForeignKeys(t *testing.T) {
	db := openTest(t)
	var on int
	if err := db.Raw("PRAGMA foreign_keys").Scan(&on).Error; err != nil {
		t.Fatalf("read pragma: %v", err)
	}
	if on != 1 {
		t.Fatalf("foreign_keys = %d, want 1", on)
	}
}
