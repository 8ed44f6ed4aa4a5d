package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the client packages
var (
	// Session errors
	ErrAuthExpired  = errors.New("authorization expired")
	ErrAuthRejected = errors.New("authentication rejected")
	ErrNoSession    = errors.New("no session")

	// Remote API errors
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrNetwork    = errors.New("network error")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnsupported    = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Retryable reports whether err is a transport or server-side failure that a
// read may be retried on. Mutations are never retried regardless.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork)
}
