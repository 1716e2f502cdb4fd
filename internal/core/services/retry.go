package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

// Retry defaults for rate-limited model calls.
const (
	DefaultMaxAttempts       = 3
	DefaultInitialDelay      = 2 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// SleepFunc waits for d, returning early with ctx.Err() if ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy bounds retries of rate-limited model calls.
// Only rate limits are retried; any other error ends the call immediately.
type RetryPolicy struct {
	// MaxAttempts is the number of model calls before giving up (default: 3).
	MaxAttempts int

	// InitialDelay is the wait after the first rate-limited attempt (default: 2s).
	InitialDelay time.Duration

	// Multiplier grows the delay after each attempt (default: 2).
	Multiplier float64

	// Sleep waits between attempts (default: a context-aware timer).
	Sleep SleepFunc
}

// DefaultRetryPolicy returns 3 attempts with delays of 2s, 4s and 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultBackoffMultiplier,
		Sleep:        sleepContext,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultInitialDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultBackoffMultiplier
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

// Delays returns the full back-off schedule, one delay per attempt.
func (p RetryPolicy) Delays() []time.Duration {
	b := p.withDefaults().newBackOff()
	var out []time.Duration
	for d := b.NextBackOff(); d != backoff.Stop; d = b.NextBackOff() {
		out = append(out, d)
	}
	return out
}

// newBackOff builds a jitter-free exponential schedule capped at MaxAttempts delays.
func (p RetryPolicy) newBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialDelay
	exp.Multiplier = p.Multiplier
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	maxInterval := p.InitialDelay
	for i := 1; i < p.MaxAttempts; i++ {
		maxInterval = time.Duration(float64(maxInterval) * p.Multiplier)
	}
	exp.MaxInterval = maxInterval
	b := backoff.WithMaxRetries(exp, uint64(p.MaxAttempts))
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryState is a state of the retry state machine:
// Attempting -> Backoff -> (Attempting | Exhausted), or Attempting -> Succeeded | Failed.
type retryState int

const (
	stateAttempting retryState = iota
	stateBackoff
	stateSucceeded
	stateFailed
	stateExhausted
)

// retrier drives the retry state machine for one logical call.
type retrier struct {
	policy  RetryPolicy
	backoff backoff.BackOff
	state   retryState
	attempt int
	delay   time.Duration
}

func (p RetryPolicy) start() *retrier {
	p = p.withDefaults()
	return &retrier{
		policy:  p,
		backoff: p.newBackOff(),
		state:   stateAttempting,
	}
}

// begin enters a new attempt and returns its 1-based number.
func (r *retrier) begin() int {
	r.attempt++
	r.state = stateAttempting
	return r.attempt
}

// record moves out of Attempting according to the attempt's error.
func (r *retrier) record(err error) retryState {
	switch {
	case err == nil:
		r.state = stateSucceeded
	case !domain.IsRateLimited(err):
		r.state = stateFailed
	default:
		d := r.backoff.NextBackOff()
		if d == backoff.Stop {
			r.state = stateExhausted
			break
		}
		r.delay = d
		r.state = stateBackoff
		logger.Warn("rate limited on attempt %d/%d, retrying in %s", r.attempt, r.policy.MaxAttempts, d)
	}
	return r.state
}

// wait sleeps through Backoff, then moves to Attempting or Exhausted.
func (r *retrier) wait(ctx context.Context) (retryState, error) {
	if err := r.policy.Sleep(ctx, r.delay); err != nil {
		return r.state, err
	}
	if r.attempt >= r.policy.MaxAttempts {
		r.state = stateExhausted
	} else {
		r.state = stateAttempting
	}
	return r.state, nil
}

// retryCall runs a one-shot call under the policy. Exhaustion returns an
// error wrapping domain.ErrRateLimitExhausted.
func retryCall[T any](ctx context.Context, policy RetryPolicy, call func(ctx context.Context) (T, error)) (T, int, error) {
	var zero T
	r := policy.start()
	for {
		attempt := r.begin()
		result, err := call(ctx)
		switch r.record(err) {
		case stateSucceeded:
			return result, attempt, nil
		case stateFailed:
			return zero, attempt, err
		case stateExhausted:
			return zero, attempt, fmt.Errorf("%w after %d attempts: %w", domain.ErrRateLimitExhausted, attempt, err)
		}
		next, werr := r.wait(ctx)
		if werr != nil {
			return zero, attempt, werr
		}
		if next == stateExhausted {
			return zero, attempt, fmt.Errorf("%w after %d attempts: %w", domain.ErrRateLimitExhausted, attempt, err)
		}
	}
}
