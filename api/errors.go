package api

import (
	"errors"
	"fmt"
)

// The error taxonomy for everything the client can fail on. Validation and
// invalid-state errors are detected locally before any network call; conflict,
// auth, not-found and generic API errors map from authority responses; network
// errors wrap transport failures.

// ValidationError is a client-detected bad input (missing selection, end before
// start). It blocks the action before any request is issued.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Message)
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InvalidStateError is a client-detected attempt to act on an entity in the
// wrong state, e.g. deleting a booked slot or starting a second mutation while
// one is in flight.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Message)
}

func NewInvalidStateError(format string, args ...any) error {
	return &InvalidStateError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError is an authority rejection of a mutation that raced another
// (double-booked slot, overlapping schedule range). The affected entity must be
// re-fetched before retrying.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// AuthError is a 401/403 from the authority.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s", e.Message)
}

// NotFoundError is a 404 from the authority.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// APIError is any other non-2xx authority response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NetworkError wraps a transport-level failure (connection refused, timeout).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a client-side ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvalidState reports whether err is a client-side InvalidStateError.
func IsInvalidState(err error) bool {
	var se *InvalidStateError
	return errors.As(err, &se)
}

// IsConflict reports whether err is an authority conflict rejection.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsAuth reports whether err is a 401/403. Callers doing initial or background
// loads treat this as "not yet authenticated" rather than a failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
