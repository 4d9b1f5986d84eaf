package aggregates

import (
	"context"
	"time"

	domainagg "github.com/OpenSundsvall/api-service-case-data/internal/domain/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
)

const DefaultMaxAttempts = 5

// RetryPolicy bounds how often a write that lost its version compare-and-set
// is started again. Only optimistic conflicts are retried; every other error
// ends the write after the attempt that produced it.
type RetryPolicy struct {
	// MaxAttempts counts the first attempt. Values below 1 mean DefaultMaxAttempts.
	MaxAttempts int
	// Backoff is the pause before the second attempt; it doubles per retry
	// up to MaxBackoff. Zero retries immediately.
	Backoff    time.Duration
	MaxBackoff time.Duration
	// Deadline caps the total time spent across attempts. Zero means only
	// the caller's context bounds the retries.
	Deadline time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     10 * time.Millisecond,
		MaxBackoff:  100 * time.Millisecond,
	}
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p RetryPolicy) backoff(retry int) time.Duration {
	if p.Backoff <= 0 {
		return 0
	}
	d := p.Backoff << (retry - 1)
	if p.MaxBackoff > 0 && (d > p.MaxBackoff || d <= 0) {
		d = p.MaxBackoff
	}
	return d
}

// executeWithRetry runs fn through executeWrite until it succeeds, fails
// with anything but an optimistic conflict, or the policy is exhausted. fn
// must reload whatever it mutates, because every attempt is a fresh
// transaction. It returns the number of attempts made.
func executeWithRetry(ctx context.Context, deps BaseDeps, policy RetryPolicy, op string, fn func(dbc dbctx.Context) error) (int, error) {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}
	var deadline time.Time
	if policy.Deadline > 0 {
		deadline = time.Now().Add(policy.Deadline)
	}
	max := policy.maxAttempts()

	for attempt := 1; ; attempt++ {
		err := executeWrite(ctx, deps, op, fn)
		if err == nil {
			return attempt, nil
		}
		if !domainagg.IsCode(err, domainagg.CodeOptimisticConflict) {
			return attempt, err
		}
		if attempt >= max {
			deps.Log.Warn("Optimistic lock retries exhausted", "op", op, "attempts", attempt)
			return attempt, err
		}

		wait := policy.backoff(attempt)
		if !deadline.IsZero() && time.Now().Add(wait).After(deadline) {
			deps.Log.Warn("Optimistic lock retry deadline reached", "op", op, "attempts", attempt)
			return attempt, err
		}
		deps.Hooks.IncRetry(op)
		deps.Log.Debug("Retrying after optimistic lock conflict", "op", op, "attempt", attempt, "wait", wait)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return attempt, err
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return attempt, err
		}
	}
}
