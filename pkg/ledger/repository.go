package ledger

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog"
)

// RecordStore persists records. Every lookup and mutation is scoped by owner; ids are assigned
// by the store on Insert. FindByOwner may return records in any order.
type RecordStore interface {
	Insert(ctx context.Context, r Record) (Record, error)
	FindByOwner(ctx context.Context, k Kind, ownerID string) ([]Record, error)
	// Patch applies the present fields and updatedAt, returning the stored record or
	// ErrNoRecord when no record with that id belongs to ownerID.
	Patch(ctx context.Context, k Kind, ownerID, id string, f Fields, updatedAt time.Time) (Record, error)
	Remove(ctx context.Context, k Kind, ownerID, id string) error
}

// Action names a record mutation.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event describes a successful mutation.
type Event struct {
	Action   Action    `json:"action"`
	Kind     Kind      `json:"kind"`
	RecordID string    `json:"record_id"`
	OwnerID  string    `json:"owner_id"`
	At       time.Time `json:"at"`
}

// Notifier is told about mutations after they are stored.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Repository bridges validated records to a RecordStore on behalf of the identity found in the
// request context.
type Repository struct {
	store    RecordStore
	notifier Notifier
	now      func() time.Time
}

// NewRepository returns a repository over store. notifier may be nil.
func NewRepository(store RecordStore, notifier Notifier) *Repository {
	return &Repository{store: store, notifier: notifier, now: time.Now}
}

// Create validates f and stores a new record of kind k owned by the calling identity.
func (r *Repository) Create(ctx context.Context, k Kind, f Fields) (Record, error) {
	owner, ok := IdentityFrom(ctx)
	if !ok {
		return Record{}, ErrUnauthenticated
	}
	now := r.now().UTC()
	f, err := ValidateForCreate(k, f, now)
	if err != nil {
		return Record{}, err
	}
	rec := newRecord(k, f)
	rec.OwnerID = owner.UserID
	rec.CreatedAt = now
	rec.UpdatedAt = now

	stored, err := r.store.Insert(ctx, rec)
	if err != nil {
		return Record{}, &StoreError{Op: "create " + string(k), Err: err}
	}
	r.notify(ctx, ActionCreated, stored.Kind, stored.ID, owner.UserID, now)
	return stored, nil
}

// List returns every record of kind k owned by the calling identity, newest date first.
func (r *Repository) List(ctx context.Context, k Kind) ([]Record, error) {
	owner, ok := IdentityFrom(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	recs, err := r.store.FindByOwner(ctx, k, owner.UserID)
	if err != nil {
		return nil, &StoreError{Op: "list " + string(k), Err: err}
	}
	SortByDateDesc(recs)
	return recs, nil
}

// Get looks a single record up among the caller's records of kind k.
func (r *Repository) Get(ctx context.Context, k Kind, id string) (Record, error) {
	recs, err := r.List(ctx, k)
	if err != nil {
		return Record{}, err
	}
	for _, rec := range recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, &NotFoundError{Kind: k, ID: id}
}

// Update merges the present fields of f into the caller's record id.
func (r *Repository) Update(ctx context.Context, k Kind, id string, f Fields) (Record, error) {
	owner, ok := IdentityFrom(ctx)
	if !ok {
		return Record{}, ErrUnauthenticated
	}
	f, err := ValidateForUpdate(k, f)
	if err != nil {
		return Record{}, err
	}
	now := r.now().UTC()
	rec, err := r.store.Patch(ctx, k, owner.UserID, id, f, now)
	if errors.Is(err, ErrNoRecord) {
		return Record{}, &NotFoundError{Kind: k, ID: id}
	}
	if err != nil {
		return Record{}, &StoreError{Op: "update " + string(k), Err: err}
	}
	r.notify(ctx, ActionUpdated, k, id, owner.UserID, now)
	return rec, nil
}

// Delete removes the caller's record id. Deleting an id that does not exist succeeds.
func (r *Repository) Delete(ctx context.Context, k Kind, id string) error {
	owner, ok := IdentityFrom(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	err := r.store.Remove(ctx, k, owner.UserID, id)
	if err != nil && !errors.Is(err, ErrNoRecord) {
		return &StoreError{Op: "delete " + string(k), Err: err}
	}
	r.notify(ctx, ActionDeleted, k, id, owner.UserID, r.now().UTC())
	return nil
}

func (r *Repository) notify(ctx context.Context, a Action, k Kind, id, owner string, at time.Time) {
	if r.notifier == nil {
		return
	}
	e := Event{Action: a, Kind: k, RecordID: id, OwnerID: owner, At: at}
	if err := r.notifier.Notify(ctx, e); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("action", string(a)).
			Str("kind", string(k)).
			Str("record_id", id).
			Msg("record event not published")
	}
}

// SortByDateDesc orders records newest date first. Records with equal dates keep their
// relative order.
func SortByDateDesc(recs []Record) {
	slices.SortStableFunc(recs, func(a, b Record) int {
		return cmp.Compare(b.Date.UnixNano(), a.Date.UnixNano())
	})
}
