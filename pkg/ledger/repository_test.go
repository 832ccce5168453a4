package ledger

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// memStore keeps records in memory, scoped per owner, and returns them in insertion order.
type memStore struct {
	mu      sync.Mutex
	seq     int
	records []Record
	inserts int
	failAll error
}

func (m *memStore) Insert(_ context.Context, r Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return Record{}, m.failAll
	}
	m.inserts++
	m.seq++
	r.ID = strconv.Itoa(m.seq)
	m.records = append(m.records, r)
	return r, nil
}

func (m *memStore) FindByOwner(_ context.Context, k Kind, ownerID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []Record
	for _, r := range m.records {
		if r.Kind == k && r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Patch(_ context.Context, k Kind, ownerID, id string, f Fields, updatedAt time.Time) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.Kind != k || r.OwnerID != ownerID || r.ID != id {
			continue
		}
		if f.Amount != nil {
			r.Amount = *f.Amount
		}
		if f.Currency != nil {
			r.Currency = *f.Currency
		}
		if f.Type != nil {
			r.Type = *f.Type
		}
		if f.Description != nil {
			r.Description = *f.Description
		}
		if f.Date != nil {
			r.Date = *f.Date
		}
		r.UpdatedAt = updatedAt
		m.records[i] = r
		return r, nil
	}
	return Record{}, ErrNoRecord
}

func (m *memStore) Remove(_ context.Context, k Kind, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.Kind == k && r.OwnerID == ownerID && r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return ErrNoRecord
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, e Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func asUser(id string) context.Context {
	return WithIdentity(context.Background(), Identity{UserID: id, Email: id + "@example.com"})
}

func TestCreateRequiresIdentity(t *testing.T) {
	store := &memStore{}
	repo := NewRepository(store, nil)
	_, err := repo.Create(context.Background(), KindSaving, validFields(KindSaving))
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
	if _, err := repo.List(context.Background(), KindSaving); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("list: got %v, want ErrUnauthenticated", err)
	}
	if store.inserts != 0 {
		t.Fatal("store must not be touched without identity")
	}
}

func TestCreateInvalidNeverReachesStore(t *testing.T) {
	store := &memStore{}
	repo := NewRepository(store, nil)
	ctx := asUser("u1")
	for _, k := range Kinds {
		f := validFields(k)
		f.Amount = dec("0")
		var verr *ValidationError
		if _, err := repo.Create(ctx, k, f); !errors.As(err, &verr) {
			t.Fatalf("%s: got %v, want ValidationError", k, err)
		}
	}
	if store.inserts != 0 {
		t.Fatalf("store saw %d inserts, want 0", store.inserts)
	}
}

func TestCreateAndListRoundTrip(t *testing.T) {
	store := &memStore{}
	notes := &recordingNotifier{}
	repo := NewRepository(store, notes)
	fixed := time.Date(2025, 5, 5, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }
	ctx := asUser("u1")

	got, err := repo.Create(ctx, KindExpense, validFields(KindExpense))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ID == "" || got.OwnerID != "u1" || got.Kind != KindExpense {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.Category != Essential || !got.Date.Equal(fixed) || !got.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected record %+v", got)
	}

	list, err := repo.List(ctx, KindExpense)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != got.ID {
		t.Fatalf("list = %+v", list)
	}
	other, err := repo.List(asUser("u2"), KindExpense)
	if err != nil || len(other) != 0 {
		t.Fatalf("other identity sees %d records (err=%v)", len(other), err)
	}
	if len(notes.events) != 1 || notes.events[0].Action != ActionCreated || notes.events[0].RecordID != got.ID {
		t.Fatalf("events = %+v", notes.events)
	}
}

func TestListSortsByDateDescending(t *testing.T) {
	store := &memStore{}
	repo := NewRepository(store, nil)
	ctx := asUser("u1")
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, offset := range []int{3, 1, 7, 1} {
		f := validFields(KindSaving)
		d := base.AddDate(0, 0, offset)
		f.Date = &d
		if _, err := repo.Create(ctx, KindSaving, f); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	list, err := repo.List(ctx, KindSaving)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantIDs := []string{"3", "1", "2", "4"}
	for i, id := range wantIDs {
		if list[i].ID != id {
			t.Fatalf("position %d has id %s, want %s", i, list[i].ID, id)
		}
	}
}

func TestUpdate(t *testing.T) {
	store := &memStore{}
	repo := NewRepository(store, nil)
	ctx := asUser("u1")
	created, err := repo.Create(ctx, KindSaving, validFields(KindSaving))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := repo.Update(ctx, KindSaving, created.ID, Fields{Amount: dec("25.75")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Amount.Equal(decimal.RequireFromString("25.75")) || updated.Currency != "USD" {
		t.Fatalf("updated = %+v", updated)
	}

	var nf *NotFoundError
	if _, err := repo.Update(asUser("u2"), KindSaving, created.ID, Fields{Amount: dec("1")}); !errors.As(err, &nf) {
		t.Fatalf("foreign update: got %v, want NotFoundError", err)
	}
	var verr *ValidationError
	if _, err := repo.Update(ctx, KindSaving, created.ID, Fields{Amount: dec("-3")}); !errors.As(err, &verr) {
		t.Fatalf("negative update: got %v, want ValidationError", err)
	}
}

func TestGet(t *testing.T) {
	repo := NewRepository(&memStore{}, nil)
	ctx := asUser("u1")
	created, err := repo.Create(ctx, KindInvestment, validFields(KindInvestment))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.Get(ctx, KindInvestment, created.ID)
	if err != nil || got.Name != "Index fund" {
		t.Fatalf("get = %+v (err=%v)", got, err)
	}
	var nf *NotFoundError
	if _, err := repo.Get(ctx, KindInvestment, "missing"); !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := NewRepository(&memStore{}, nil)
	ctx := asUser("u1")
	created, err := repo.Create(ctx, KindSaving, validFields(KindSaving))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(ctx, KindSaving, created.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := repo.Delete(ctx, KindSaving, created.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	list, _ := repo.List(ctx, KindSaving)
	if len(list) != 0 {
		t.Fatalf("list after delete = %+v", list)
	}
}

func TestStoreFailureIsWrapped(t *testing.T) {
	boom := errors.New("disk full")
	repo := NewRepository(&memStore{failAll: boom}, nil)
	_, err := repo.Create(asUser("u1"), KindSaving, validFields(KindSaving))
	var serr *StoreError
	if !errors.As(err, &serr) || !errors.Is(err, boom) {
		t.Fatalf("got %v, want StoreError wrapping %v", err, boom)
	}
	if serr.Op != "create saving" {
		t.Fatalf("op = %q", serr.Op)
	}
}

func TestNotifierFailureIsTolerated(t *testing.T) {
	notes := &recordingNotifier{err: errors.New("broker down")}
	repo := NewRepository(&memStore{}, notes)
	if _, err := repo.Create(asUser("u1"), KindSaving, validFields(KindSaving)); err != nil {
		t.Fatalf("create failed because of notifier: %v", err)
	}
	if len(notes.events) != 1 {
		t.Fatalf("events = %d, want 1", len(notes.events))
	}
}

func TestDashboard(t *testing.T) {
	repo := NewRepository(&memStore{}, nil)
	ctx := asUser("u1")
	s := validFields(KindSaving)
	s.Amount = dec("100")
	if _, err := repo.Create(ctx, KindSaving, s); err != nil {
		t.Fatalf("create saving: %v", err)
	}
	e := validFields(KindExpense)
	e.Amount = dec("40")
	yesterday := time.Now().AddDate(0, 0, -1)
	e.Date = &yesterday
	if _, err := repo.Create(ctx, KindExpense, e); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	d, err := repo.Dashboard(ctx, 0)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.Summaries) != 1 || d.Summaries[0].BalanceDisplay != "$60.00" {
		t.Fatalf("summaries = %+v", d.Summaries)
	}
	if len(d.Recent) != 2 {
		t.Fatalf("recent = %+v", d.Recent)
	}
	if d.Recent[0].Label != "Saving - general" || d.Recent[1].Label != "Expense - general" {
		t.Fatalf("labels = %q, %q", d.Recent[0].Label, d.Recent[1].Label)
	}
	if d.Recent[0].Display != "$100.00" {
		t.Fatalf("display = %q", d.Recent[0].Display)
	}

	if _, err := repo.Dashboard(context.Background(), 5); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
}
