package broker

import (
	"errors"
	"fmt"
)

// ErrBadShape is returned when a broker response decodes but does not carry
// the fields the caller needs. It covers upstream format drift distinctly
// from transport and auth failures.
var ErrBadShape = errors.New("unexpected broker response shape")

// AuthError indicates the broker rejected the session or the credentials.
// Callers treat it as a signal to invalidate the cached session and log in
// again, not as a transport failure.
type AuthError struct {
	Op      string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("broker auth failed during %s: %s", e.Op, e.Message)
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
