package identity

import (
	"errors"
	"strings"
)

// Code is a provider failure reason.
type Code string

const (
	CodeUserNotFound      Code = "user-not-found"
	CodeWrongCredential   Code = "wrong-credential"
	CodeAlreadyRegistered Code = "already-registered"
	CodeWeakCredential    Code = "weak-credential"
	CodeInvalidEmail      Code = "invalid-email"
	CodeRateLimited       Code = "rate-limited"
	CodeInvalidToken      Code = "invalid-token"
)

var messages = map[Code]string{
	CodeUserNotFound:      "user not found",
	CodeWrongCredential:   "wrong password",
	CodeAlreadyRegistered: "email is already registered",
	CodeWeakCredential:    "password is too weak (min 6 characters)",
	CodeInvalidEmail:      "email is not valid",
	CodeRateLimited:       "too many failed attempts, try again later",
	CodeInvalidToken:      "invalid or expired token",
}

// Error is an identity provider failure. Err, when set, is the cause and is never shown to users.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the user-facing text for the code.
func (e *Error) Message() string {
	if m, ok := messages[e.Code]; ok {
		return m
	}
	return "invalid credentials"
}

func fail(c Code, err error) *Error { return &Error{Code: c, Err: err} }

// IsCode reports whether err is an identity Error with code c.
func IsCode(err error, c Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == c
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "UNIQUE constraint") ||
		strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
