// Package fault defines the stable error taxonomy shared by all domain
// services. Every error that crosses the domain boundary is classified by a
// Kind; the transport layer maps kinds to status codes without inspecting
// messages.
package fault

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Kind is a stable, transport-independent error classification.
type Kind string

const (
	// KindInvalidInput marks malformed or missing caller input.
	KindInvalidInput Kind = "invalid_input"
	// KindNotFound marks a referenced entity that does not exist.
	KindNotFound Kind = "not_found"
	// KindForbidden marks an ownership or role mismatch.
	KindForbidden Kind = "forbidden"
	// KindInsufficientStock marks a failed stock reservation.
	KindInsufficientStock Kind = "insufficient_stock"
	// KindInvalidTransition marks a status-machine guard violation.
	KindInvalidTransition Kind = "invalid_transition"
	// KindConfiguration marks missing seed/reference data. Fatal: a
	// deployment defect, not a user error.
	KindConfiguration Kind = "configuration_error"
	// KindDataIntegrity marks malformed stored data (e.g. an unparseable
	// delivery date). Fatal, like KindConfiguration.
	KindDataIntegrity Kind = "data_integrity_error"
	// KindConflict marks a concurrent transaction conflict. The caller may
	// retry; this engine never retries on its own.
	KindConflict Kind = "conflict"
	// KindInternal is the fallback for unclassified errors.
	KindInternal Kind = "internal"
)

// Error carries a Kind together with a caller-safe message and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(err error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: err}
}

// Invalid builds a KindInvalidInput error.
func Invalid(format string, args ...any) *Error {
	return New(KindInvalidInput, format, args...)
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Forbidden builds a KindForbidden error.
func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

// InsufficientStock builds a KindInsufficientStock error.
func InsufficientStock(format string, args ...any) *Error {
	return New(KindInsufficientStock, format, args...)
}

// InvalidTransition builds a KindInvalidTransition error.
func InvalidTransition(format string, args ...any) *Error {
	return New(KindInvalidTransition, format, args...)
}

// Configuration builds a KindConfiguration error.
func Configuration(format string, args ...any) *Error {
	return New(KindConfiguration, format, args...)
}

// DataIntegrity builds a KindDataIntegrity error.
func DataIntegrity(format string, args ...any) *Error {
	return New(KindDataIntegrity, format, args...)
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// KindOf extracts the Kind from an error chain, defaulting to KindInternal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// Is reports whether the error chain contains a fault of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf returns the caller-safe message for an error chain. Unclassified
// errors get a generic message so internals never leak to the caller.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return "internal error"
}
