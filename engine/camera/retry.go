package camera

import (
	"context"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/sirupsen/logrus"
)

// RetryPolicy bounds reopen attempts after the first one fails.
type RetryPolicy struct {
	MaxRetries int           // retries after the first attempt (default: 1)
	Delay      time.Duration // backoff before the first retry (default: 500ms)
	MaxDelay   time.Duration // backoff cap (default: 2s)
}

// DefaultRetryPolicy returns the reopen policy: one retry after half a second.
//
// Returns:
//   - RetryPolicy: the default policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 1,
		Delay:      500 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
}

// backoff returns the wait before retry number attempt (1-based): Delay * 2^(attempt-1), capped.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.Delay << uint(attempt-1)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	return d
}

type retryState int

const (
	retryAttempt retryState = iota
	retryWait
	retryDone
	retryFailed
)

// Retry runs fn until it succeeds, the policy's retries are spent, or ctx is cancelled.
//
// Parameters:
//   - ctx: cancels waiting between attempts
//   - name: identifies the operation in logs
//   - policy: the attempt and backoff bounds
//   - fn: the operation
//
// Returns:
//   - int: the number of attempts made
//   - error: nil on success, ctx.Err() on cancellation, otherwise the last error wrapped
func Retry(ctx context.Context, name string, policy RetryPolicy, fn func(ctx context.Context) error) (int, error) {
	log := common.Logger().WithField("op", name)
	attempts := 0
	var lastErr error

	st := retryAttempt
	for {
		switch st {
		case retryAttempt:
			if err := ctx.Err(); err != nil {
				return attempts, err
			}
			attempts++
			lastErr = fn(ctx)
			switch {
			case lastErr == nil:
				st = retryDone
			case attempts > policy.MaxRetries:
				st = retryFailed
			default:
				st = retryWait
			}

		case retryWait:
			delay := policy.backoff(attempts)
			log.WithFields(logrus.Fields{
				"attempt": attempts,
				"delay":   delay,
				"error":   lastErr,
			}).Warn("retrying")
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return attempts, ctx.Err()
			case <-t.C:
				st = retryAttempt
			}

		case retryDone:
			return attempts, nil

		case retryFailed:
			return attempts, fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
		}
	}
}
