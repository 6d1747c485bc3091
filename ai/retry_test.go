package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond}
}

func TestRetryPolicy_Do(t *testing.T) {
	t.Run("succeeds first try", func(t *testing.T) {
		attempts := 0
		err := testPolicy(3).Do(context.Background(), func(context.Context) error {
			attempts++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("eventual success", func(t *testing.T) {
		attempts := 0
		err := testPolicy(5).Do(context.Background(), func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("temporary error")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error", func(t *testing.T) {
		attempts := 0
		expected := errors.New("persistent error")
		err := testPolicy(3).Do(context.Background(), func(context.Context) error {
			attempts++
			return expected
		})

		assert.Equal(t, expected, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		attempts := 0
		err := testPolicy(10).Do(ctx, func(context.Context) error {
			attempts++
			if attempts == 2 {
				cancel()
			}
			return errors.New("error")
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, attempts)
	})

	t.Run("rejects non-positive attempts", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			attempts := 0
			err := testPolicy(n).Do(context.Background(), func(context.Context) error {
				attempts++
				return nil
			})

			assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
			assert.Equal(t, 0, attempts)
		}
	})
}

func TestRetryPolicy_DoesNotRetryPermanentFailures(t *testing.T) {
	errRejected := errors.New("400 bad request")

	tests := []struct {
		name      string
		err       error
		retryable func(error) bool
	}{
		{name: "provider closed", err: fmt.Errorf("%w: %w", ErrEmbedding, ErrProviderClosed)},
		{name: "canceled", err: context.Canceled},
		{name: "deadline", err: fmt.Errorf("request: %w", context.DeadlineExceeded)},
		{
			name:      "classified as permanent",
			err:       errRejected,
			retryable: func(err error) bool { return !errors.Is(err, errRejected) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPolicy(5)
			p.Retryable = tt.retryable
			attempts := 0
			err := p.Do(context.Background(), func(context.Context) error {
				attempts++
				return tt.err
			})

			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, attempts)
		})
	}
}

func TestRetryPolicy_LogsRetries(t *testing.T) {
	var buf bytes.Buffer
	p := testPolicy(3)
	p.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	attempts := 0
	err := p.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("503 service unavailable")
		}
		return nil
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "attempt=1")
	assert.Contains(t, lines[0], "delay=1ms")
	assert.Contains(t, lines[1], "attempt=2")
	assert.Contains(t, lines[1], "delay=2ms")
}

func TestNewRetryPolicy(t *testing.T) {
	p := NewRetryPolicy(NewConfig(WithRetry(4, time.Second)), nil)
	assert.Equal(t, 4, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
}
