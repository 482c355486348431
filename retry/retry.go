package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidMaxAttempts is returned when a Policy allows no attempts.
var ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

// Policy controls how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Delay is the wait between attempts.
	Delay time.Duration
	// Exponential doubles Delay after every failed attempt.
	Exponential bool
	// Logger receives a debug record per failed attempt. Defaults to slog.Default().
	Logger *slog.Logger
}

// Do calls operation until it returns nil or the policy is exhausted.
// It returns the number of attempts started and the last error.
// If ctx is cancelled the context error is returned instead.
func Do(ctx context.Context, policy Policy, operation func(ctx context.Context) error) (int, error) {
	if policy.MaxAttempts <= 0 {
		return 0, ErrInvalidMaxAttempts
	}
	logger := policy.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	delay := policy.Delay
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		// Check context before attempting
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return attempt, nil
		}

		logger.Debug("operation failed", "attempt", attempt, "max_attempts", policy.MaxAttempts, "err", lastErr)

		// Don't sleep after the last attempt
		if attempt == policy.MaxAttempts {
			return attempt, lastErr
		}

		if err := sleep(ctx, delay); err != nil {
			return attempt, err
		}
		if policy.Exponential {
			delay *= 2
		}
	}

	return policy.MaxAttempts, lastErr
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
