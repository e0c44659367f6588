// Package errs defines the structured error type shared across the
// pipeline. Every failure carries a kind for classification, an optional
// upstream HTTP status/body, and the original cause.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindFetch      Kind = "fetch"
	KindEnqueue    Kind = "enqueue"
	KindPublish    Kind = "publish"
	KindNoAsset    Kind = "no_asset"
	KindLedger     Kind = "ledger"
)

// Error is a structured pipeline error.
type Error struct {
	Kind    Kind
	Message string
	Status  int    // upstream HTTP status, 0 when not applicable
	Body    string // upstream response body, empty when not captured
	Err     error  // wrapped cause
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind, so callers can compare against
// sentinel values like errs.New(errs.KindFetch, "").
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind with a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WrapStatus creates an error carrying an upstream HTTP status and body.
func WrapStatus(kind Kind, message string, status int, body string, err error) *Error {
	return &Error{Kind: kind, Message: message, Status: status, Body: body, Err: err}
}

// KindOf returns the kind of err, or empty when err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
