package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledger/internal/service"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		}, fastRetry(5))
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return errors.New("always")
		}, fastRetry(2))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.Equal(t, 2, calls)
	})

	t.Run("permanent errors stop immediately", func(t *testing.T) {
		calls := 0
		sentinel := errors.New("bad request")
		err := WithRetry(ctx, func() error {
			calls++
			return Permanent(sentinel)
		}, fastRetry(5))
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := WithRetry(cctx, func() error { return errors.New("fail") }, service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDescribe(t *testing.T) {
	assert.Empty(t, Describe(nil))
	assert.Contains(t, Describe(fmt.Errorf("delete 3: %w", ErrCategoryInUse)), "still has transactions")
	assert.Equal(t, "no such record", Describe(fmt.Errorf("category 9: %w", ErrNotFound)))
	assert.Equal(t, "could not save: boom", Describe(NewUserError("could not save", errors.New("boom"))))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("sheets: %w", ErrRateLimit)))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(Permanent(ErrRateLimit)))

	cause := errors.New("boom")
	assert.True(t, IsRetryable(NewRemoteError(http.StatusTooManyRequests, 0, cause)))
	assert.True(t, IsRetryable(NewRemoteError(http.StatusRequestTimeout, 0, cause)))
	assert.True(t, IsRetryable(fmt.Errorf("write: %w", NewRemoteError(http.StatusServiceUnavailable, 0, cause))))
	assert.False(t, IsRetryable(NewRemoteError(http.StatusBadRequest, 0, cause)))
	assert.False(t, IsRetryable(NewRemoteError(http.StatusForbidden, 0, cause)))
}

func TestRemoteErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")

	limited := NewRemoteError(http.StatusTooManyRequests, 0, cause)
	assert.ErrorIs(t, limited, ErrRateLimit)
	assert.ErrorIs(t, limited, cause)

	down := NewRemoteError(http.StatusBadGateway, 0, cause)
	assert.ErrorIs(t, down, ErrRemoteUnavailable)
	assert.NotErrorIs(t, down, ErrRateLimit)

	denied := NewRemoteError(http.StatusForbidden, 0, cause)
	assert.ErrorIs(t, denied, cause)
	assert.NotErrorIs(t, denied, ErrRemoteUnavailable)
	assert.Contains(t, denied.Error(), "status 403")
}

func TestWithRetryRemoteStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("client errors stop immediately", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return NewRemoteError(http.StatusNotFound, 0, errors.New("no such sheet"))
		}, fastRetry(5))
		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, http.StatusNotFound, remote.Status)
		assert.NotErrorIs(t, err, ErrMaxRetries)
		assert.Equal(t, 1, calls)
	})

	t.Run("server errors are retried", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			if calls < 3 {
				return NewRemoteError(http.StatusInternalServerError, 0, errors.New("backend"))
			}
			return nil
		}, fastRetry(5))
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("retry-after replaces the backoff delay", func(t *testing.T) {
		opts := fastRetry(2)
		opts.MaxDelay = time.Second
		calls := 0
		began := time.Now()
		err := WithRetry(ctx, func() error {
			calls++
			if calls == 1 {
				return NewRemoteError(http.StatusTooManyRequests, 50*time.Millisecond, errors.New("slow down"))
			}
			return nil
		}, opts)
		require.NoError(t, err)
		elapsed := time.Since(began)
		assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
		assert.Less(t, elapsed, opts.MaxDelay)
	})
}

func TestBackoff(t *testing.T) {
	hinted := NewRemoteError(http.StatusTooManyRequests, time.Minute, errors.New("slow"))
	wait, status := backoff(hinted, time.Millisecond, 30*time.Second)
	assert.Equal(t, 30*time.Second, wait, "hint is capped at the max delay")
	assert.Equal(t, http.StatusTooManyRequests, status)

	wait, _ = backoff(NewRemoteError(http.StatusTooManyRequests, 0, errors.New("slow")), time.Millisecond, 5*time.Second)
	assert.Equal(t, 5*time.Second, wait)

	wait, status = backoff(errors.New("reset"), 40*time.Millisecond, 5*time.Second)
	assert.Equal(t, 40*time.Millisecond, wait)
	assert.Zero(t, status)
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "debug", "json"))
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))) })

	slog.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	assert.ErrorIs(t, SetupLogger(&buf, "loud", "json"), ErrInvalidConfig)
	assert.ErrorIs(t, SetupLogger(&buf, "info", "xml"), ErrInvalidConfig)
}
