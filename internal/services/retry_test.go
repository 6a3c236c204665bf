package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"gorm.io/gorm"
)

func TestRetryPolicy_SucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	err := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}.do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicy_Exhausted(t *testing.T) {
	calls := 0
	err := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}.do(context.Background(), "list", func(context.Context) error {
		calls++
		return errors.New("down")
	})

	var storeErr *apierrors.UpstreamStoreError
	assert.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "list", storeErr.Op)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_NotFoundIsNotRetried(t *testing.T) {
	calls := 0
	err := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}.do(context.Background(), "find", func(context.Context) error {
		calls++
		return gorm.ErrRecordNotFound
	})

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryPolicy{Attempts: 5, Backoff: time.Hour}.do(ctx, "find", func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = RetryPolicy{}.do(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("down")
	})

	assert.Equal(t, 1, calls)
}
