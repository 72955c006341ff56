package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPollInterval = 5 * time.Minute
	retryBase           = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// freshness reports whether the cache still needs no refresh.
type freshness interface {
	IsFresh() bool
}

// StartPoller launches a background goroutine that checks the cache every
// interval and refreshes it once it goes stale. Failed refreshes are retried
// with exponential backoff. It returns immediately.
func StartPoller(ctx context.Context, log *zap.Logger, fresh freshness, refresh func(context.Context) error, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go poll(ctx, log, fresh, refresh, interval)
}

func poll(ctx context.Context, log *zap.Logger, fresh freshness, refresh func(context.Context) error, interval time.Duration) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		// A cache found fresh counts as a success, whoever refreshed it.
		var err error
		if !fresh.IsFresh() {
			if err = refresh(ctx); err != nil && ctx.Err() != nil {
				return
			}
		}
		var wait time.Duration
		wait, failures = nextWait(err, failures, interval)
		if err != nil {
			log.Warn("refresh failed", zap.Int("failures", failures), zap.Duration("retry_in", wait), zap.Error(err))
		}
		timer.Reset(wait)
	}
}

// nextWait returns the delay before the next check and the updated count of
// consecutive failures.
func nextWait(err error, failures int, interval time.Duration) (time.Duration, int) {
	if err == nil {
		return interval, 0
	}
	return calculateBackoff(failures, retryBase), failures + 1
}

// calculateBackoff doubles base for every consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures < 0 {
		failures = 0
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return min(d, maxBackoff)
}
