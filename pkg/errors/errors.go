// Package errors defines unified error types for fund analysis operations.
// Storage, embedding, and ranking failures are mapped to these standard kinds
// so the HTTP layer can translate them without inspecting component internals.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and the HTTP layer.
type Kind string

const (
	// KindNotFound marks a missing or expired session, analysis, or cache key.
	KindNotFound Kind = "not_found"

	// KindInvalidCriterion marks an unknown ranking criterion name.
	KindInvalidCriterion Kind = "invalid_criterion"

	// KindInvalidInput marks a malformed or incomplete ingested record.
	KindInvalidInput Kind = "invalid_input"

	// KindUpstreamFailure marks a failed collaborator call (embedding model,
	// market data fetch). The originating cause is attached.
	KindUpstreamFailure Kind = "upstream_failure"

	// KindDataIntegrity marks a payload that cannot be stored or read back
	// intact, e.g. a non-serializable cache value.
	KindDataIntegrity Kind = "data_integrity"

	// KindInternal marks everything else.
	KindInternal Kind = "internal_error"
)

// Error is a structured error carrying a kind, a human-readable message,
// and an optional wrapped cause.
type Error struct {
	Kind    Kind   `json:"kind"`
	Op      string `json:"op,omitempty"` // operation that failed, e.g. "cache.set"
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for the error.
func (e *Error) HTTPStatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidCriterion, KindInvalidInput:
		return http.StatusBadRequest
	case KindUpstreamFailure:
		return http.StatusBadGateway
	case KindDataIntegrity:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// NewNotFound creates a not-found error.
func NewNotFound(op, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

// NewInvalidCriterion creates an unknown-criterion error.
func NewInvalidCriterion(op, criterion string) *Error {
	return &Error{
		Kind:    KindInvalidCriterion,
		Op:      op,
		Message: fmt.Sprintf("unknown ranking criterion %q", criterion),
	}
}

// NewInvalidInput creates a malformed-input error.
func NewInvalidInput(op, message string) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Message: message}
}

// NewUpstreamFailure wraps a failed collaborator call.
func NewUpstreamFailure(op, message string, cause error) *Error {
	return &Error{Kind: KindUpstreamFailure, Op: op, Message: message, Err: cause}
}

// NewDataIntegrity wraps a serialization or storage corruption failure.
func NewDataIntegrity(op, message string, cause error) *Error {
	return &Error{Kind: KindDataIntegrity, Op: op, Message: message, Err: cause}
}

// NewInternal wraps an unclassified failure.
func NewInternal(op, message string, cause error) *Error {
	return &Error{Kind: KindInternal, Op: op, Message: message, Err: cause}
}

// As re-exports the standard errors.As so callers need one import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is re-exports the standard errors.Is so callers need one import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// KindOf extracts the Kind from an error chain.
// Returns KindInternal for errors that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether the error chain contains a not-found error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
