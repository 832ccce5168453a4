package ledger

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when an operation runs without an identity in its context.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrNoRecord is returned by a RecordStore when a scoped mutation matched nothing.
var ErrNoRecord = errors.New("no matching record")

// ValidationError names the first offending field of a field bag.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StoreError wraps a Record Store failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NotFoundError reports a record id absent for the calling identity.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
