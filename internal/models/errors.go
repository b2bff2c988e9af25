package models

import (
	"errors"
	"fmt"
)

// Error taxonomy. Validation errors are recovered locally and surfaced as
// form errors; auth errors trigger a redirect to the login surface;
// transport errors are swallowed at the boundary where they cannot affect
// other sessions. No error is fatal to the process.
var (
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("auth error")
	ErrTransport  = errors.New("transport error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// ValidationError wraps ErrValidation with a user-facing reason.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// AuthError wraps ErrAuth with a reason.
func AuthError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuth, fmt.Sprintf(format, args...))
}

// TransportError wraps ErrTransport around an underlying failure.
func TransportError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrTransport, op, err)
}

// IsValidation reports whether err belongs to the validation class.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsAuth reports whether err belongs to the auth class.
func IsAuth(err error) bool { return errors.Is(err, ErrAuth) }
