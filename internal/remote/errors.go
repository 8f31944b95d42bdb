package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// TransientError is a remote failure worth retrying: a timeout, a
// rate-limit response, or a server-side error. RetryAfter carries the
// store's retry-after hint when one was given; the sync engine honors
// it verbatim before the next attempt.
type TransientError struct {
	Status     int
	RetryAfter time.Duration
	Err        error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient remote error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient remote error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// APIError is a non-transient remote rejection (auth failure,
// validation error). It is never retried.
type APIError struct {
	Status  int
	Method  string
	URL     string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote API rejected %s %s: status %d: %s", e.Method, e.URL, e.Status, e.Message)
}

// IsTransient reports whether err should be retried with backoff.
// Network timeouts and context deadline expiry count as transient even
// when not wrapped in a TransientError.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// RetryAfterHint extracts the store's retry-after hint from err, if
// any.
func RetryAfterHint(err error) (time.Duration, bool) {
	var te *TransientError
	if errors.As(err, &te) && te.RetryAfter > 0 {
		return te.RetryAfter, true
	}
	return 0, false
}
