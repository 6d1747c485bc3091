// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RetryPolicy retries an embedding call with exponential backoff. The n-th
// retry waits BaseDelay * 2^(n-1).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Retryable reports whether a failure is worth another attempt.
	// Failures Permanent reports are never retried, whatever Retryable says.
	// Nil retries every other failure.
	Retryable func(error) bool

	// Logger receives one record per retry. Nil means slog.Default().
	Logger *slog.Logger
}

// NewRetryPolicy returns the policy described by config's MaxRetries and
// RetryDelay.
func NewRetryPolicy(config *Config, logger *slog.Logger) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: config.MaxRetries,
		BaseDelay:   config.RetryDelay,
		Logger:      logger,
	}
}

// Permanent reports whether err can never succeed on retry: the caller gave
// up on ctx, or the provider has been closed.
func Permanent(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrProviderClosed)
}

// Do runs op until it succeeds, fails permanently, or MaxAttempts is used up.
// It returns the last error from op, or ctx.Err() if ctx ends while waiting.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	delay := p.BaseDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Debug("embedding call succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if Permanent(err) || (p.Retryable != nil && !p.Retryable(err)) {
			logger.Debug("embedding call failed, not retrying", "attempt", attempt, "err", err)
			return err
		}
		if attempt >= p.MaxAttempts {
			return err
		}

		logger.Warn("embedding call failed, retrying",
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"delay", delay,
			"err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
