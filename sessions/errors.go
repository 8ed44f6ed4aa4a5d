package sessions

import (
	"fmt"

	"github.com/jrsteele09/marketplace-client/apiclient"
	"github.com/jrsteele09/marketplace-client/internal/errors"
)

// AuthError is returned when a sign-in attempt fails. Message is the
// server's explanation when there is one and is safe to show to the user.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AuthError) Unwrap() []error {
	return []error{errors.ErrAuthRejected, e.Err}
}

func newAuthError(op string, err error) *AuthError {
	msg := err.Error()
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message()
	}
	return &AuthError{Op: op, Message: msg, Err: err}
}
