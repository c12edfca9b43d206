package tracker

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/danielolaszy/jassist/internal/logging"
)

// RetryPolicy is a capped exponential backoff for transient tracker errors.
// A zero MaxElapsed disables retries.
type RetryPolicy struct {
	MaxElapsed      time.Duration
	InitialInterval time.Duration
}

// DefaultRetryPolicy retries for up to maxElapsed starting at 500ms.
func DefaultRetryPolicy(maxElapsed time.Duration) RetryPolicy {
	return RetryPolicy{MaxElapsed: maxElapsed, InitialInterval: 500 * time.Millisecond}
}

func (p RetryPolicy) backOff() backoff.BackOff {
	if p.MaxElapsed <= 0 {
		return &backoff.StopBackOff{}
	}
	// BackOff implementations are stateful; always build a fresh one.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = p.MaxElapsed
	if p.InitialInterval > 0 {
		bo.InitialInterval = p.InitialInterval
	}
	return bo
}

// Do runs fn until it succeeds, returns a non-temporary error, the policy
// is exhausted, or ctx is done. The returned error is always an *Error.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	log := logging.With("op", op)
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if IsTemporary(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(p.backOff(), ctx), func(err error, next time.Duration) {
		log.Debug("retrying tracker call", "attempt", attempt, "delay", next, "error", err)
	})
	if err == nil {
		return nil
	}
	if attempt > 1 {
		log.Warn("tracker call failed after retries", "attempts", attempt, "error", err)
	}
	return NewError(op, nil, err)
}
