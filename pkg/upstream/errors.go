package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Error is returned once a call has failed for good.
type Error struct {
	Service    string
	Method     string
	URL        string
	Attempts   int
	StatusCode int
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s %s: status %d after %d attempt(s)", e.Service, e.Method, e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("%s %s %s: %v after %d attempt(s)", e.Service, e.Method, e.URL, e.Err, e.Attempts)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// statusError marks a non-2xx response inside the retry loop.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// IsTransient reports whether err is worth retrying: connection errors, timeouts and 5xx.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	var ue *Error
	if errors.As(err, &ue) && ue.StatusCode != 0 {
		return ue.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}
