// Package retry runs operations with capped exponential backoff.
//
// Only errors classified as transient by domain.IsTransient are retried.
// Validation, auth and not-found failures are returned on the first attempt.
package retry

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

const (
	// DefaultInitialDelay is the wait before the second attempt.
	DefaultInitialDelay = 500 * time.Millisecond

	// DefaultMultiplier grows the delay between attempts.
	DefaultMultiplier = 2.0

	// DefaultMaxDelay caps the delay between attempts.
	DefaultMaxDelay = 8 * time.Second

	// DefaultMaxAttempts is the total number of attempts, first call included.
	DefaultMaxAttempts = domain.DefaultRetryMaxAttempts
)

// Policy describes a backoff schedule.
type Policy struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultPolicy returns the standard provider retry schedule.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultMultiplier,
		MaxDelay:     DefaultMaxDelay,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

// FromSettings builds a policy from user retry settings, filling zero
// values with defaults.
func FromSettings(s domain.RetrySettings) Policy {
	p := DefaultPolicy()
	if s.InitialDelay > 0 {
		p.InitialDelay = s.InitialDelay
	}
	if s.MaxDelay > 0 {
		p.MaxDelay = s.MaxDelay
	}
	if s.MaxAttempts > 0 {
		p.MaxAttempts = s.MaxAttempts
	}
	return p
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= mult
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, returns a non-transient error, the
// attempts run out, or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		err = fn(ctx)
		if err == nil || !domain.IsTransient(err) || attempt == attempts {
			return err
		}

		delay := p.Delay(attempt)
		logger.Debug("retry: attempt %d/%d failed (%v), waiting %s", attempt, attempts, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}
