package booking

import (
	"context"
	"errors"
	"time"

	schedulerRepo "beautybook/database/repository/scheduler"
	"beautybook/metrics"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 3
	defaultRetryBase   = 25 * time.Millisecond
)

func isRetryable(err error) bool {
	return errors.Is(err, schedulerRepo.ErrCalendarContention) || errors.Is(err, schedulerRepo.ErrStoreUnavailable)
}

// withRetry runs op up to MaxAttempts times with jittered exponential backoff while it fails
// with contention or store unavailability. Any other error is returned as is on first sight.
func (se *DefaultSchedulingEngine) withRetry(ctx context.Context, op string, fn func() error) error {
	maxAttempts := se.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	base := se.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = base
	eb.RandomizationFactor = 0.5
	eb.Multiplier = 2
	eb.MaxInterval = 40 * base
	eb.MaxElapsedTime = 0

	attempts := 0
	operation := func() error {
		attempts++
		err := fn()
		if err == nil || isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		se.logger().Debug("Retrying calendar operation",
			zap.String("op", op), zap.Int("attempt", attempts), zap.Duration("wait", wait), zap.Error(err))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxAttempts-1)), ctx)
	err := backoff.RetryNotify(operation, policy, notify)
	metrics.ObserveCalendarAttempts(attempts)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, schedulerRepo.ErrCalendarContention):
		metrics.IncBookingRejected("persistence_conflict")
		return &PersistenceConflictError{Attempts: attempts, Err: err}
	case errors.Is(err, schedulerRepo.ErrStoreUnavailable),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.IncBookingRejected("store_unavailable")
		return &StoreUnavailableError{Err: err}
	}
	return err
}
