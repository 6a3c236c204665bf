package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"gorm.io/gorm"
)

// RetryPolicy controls how store calls are repeated after transient failures.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Backoff is the delay before the second try; it doubles on each further try.
	Backoff time.Duration
}

// do runs fn until it succeeds, fails permanently or runs out of attempts.
// Exhausted attempts surface as an UpstreamStoreError.
func (p RetryPolicy) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if i == attempts {
			break
		}

		delay := p.Backoff << (i - 1)
		slog.Warn("store call failed, retrying", "op", op, "attempt", i, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &apierrors.UpstreamStoreError{Op: op, Attempts: attempts, Err: err}
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
