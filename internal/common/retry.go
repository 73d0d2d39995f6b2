package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/ledger/internal/service"
)

var (
	// ErrRateLimit indicates that the API rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RemoteError is a failed call to a remote API, classified by HTTP status.
type RemoteError struct {
	Err    error
	Status int
	// RetryAfter is the server's requested wait, zero when it sent none.
	RetryAfter time.Duration
}

// NewRemoteError wraps err with the status and Retry-After hint of the
// response that produced it.
func NewRemoteError(status int, retryAfter time.Duration, err error) *RemoteError {
	return &RemoteError{Err: err, Status: status, RetryAfter: retryAfter}
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("status %d: %v", e.Status, e.Err)
}

// Unwrap exposes ErrRateLimit for 429 and ErrRemoteUnavailable for timeouts
// and server errors, next to the underlying error.
func (e *RemoteError) Unwrap() []error {
	switch {
	case e.Status == http.StatusTooManyRequests:
		return []error{ErrRateLimit, e.Err}
	case e.Status == http.StatusRequestTimeout, e.Status >= http.StatusInternalServerError:
		return []error{ErrRemoteUnavailable, e.Err}
	}
	return []error{e.Err}
}

// Retryable reports whether the same request can succeed later.
// Client errors other than 408 and 429 fail the same way every time.
func (e *RemoteError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests ||
		e.Status == http.StatusRequestTimeout ||
		e.Status >= http.StatusInternalServerError
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return &permanentError{err: err}
}

// IsRetryable reports whether err is a known transient failure: a remote
// error with a retryable status, a rate limit, an unavailable remote or a
// deadline.
func IsRetryable(err error) bool {
	if final(err) {
		return false
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Retryable()
	}
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrRemoteUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

// final reports errors that WithRetry must return at once.
func final(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) || errors.Is(err, context.Canceled) {
		return true
	}
	var remote *RemoteError
	return errors.As(err, &remote) && !remote.Retryable()
}

// WithRetry executes an operation with exponential backoff. Permanent errors,
// remote errors with a non-retryable status and context cancellation stop
// immediately. Errors without a status, such as dropped connections, are
// retried. A Retry-After hint from the server replaces the backoff delay and
// a rate limit without one waits the full MaxDelay.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}

	delay := opts.InitialDelay

	for attempt := 1; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if final(err) {
			var perm *permanentError
			if errors.As(err, &perm) {
				return perm.err
			}
			return err
		}

		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempt, err)
		}

		wait, status := backoff(err, delay, opts.MaxDelay)
		slog.Warn("remote call failed, retrying",
			"op", opts.Operation,
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"status", status,
			"transient", IsRetryable(err),
			"wait", wait,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = min(time.Duration(float64(delay)*opts.Multiplier), opts.MaxDelay)
	}
}

// backoff picks the wait before the next attempt and reports the HTTP
// status behind err, zero when it has none.
func backoff(err error, delay, maxDelay time.Duration) (time.Duration, int) {
	var remote *RemoteError
	if errors.As(err, &remote) && remote.RetryAfter > 0 {
		return min(remote.RetryAfter, maxDelay), remote.Status
	}
	status := 0
	if remote != nil {
		status = remote.Status
	}
	if errors.Is(err, ErrRateLimit) {
		return maxDelay, status
	}
	return delay, status
}
