// Package retry implements the policy-driven retry engine (SPEC_FULL.md
// §4.K): exponential backoff with optional jitter, bounded max attempts, and
// a retryability classifier. Adapted directly from
// runtime/a2a/retry/retry.go's Config/Do/calculateBackoff shape; the
// network/HTTP-status IsRetryable classifier is replaced by the spec's
// substring-match classifier.
package retry

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Policy configures retry behavior.
type Policy struct {
	// MaxAttempts is the maximum number of attempts, including the first. 0
	// or 1 means no retries.
	MaxAttempts int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// Jitter enables adding a uniform random value in [0, 0.1*capped] on
	// top of the computed backoff.
	Jitter bool
}

// retryableSubstrings is the exact, case-sensitive substring set a failure
// message must contain to be retried.
var retryableSubstrings = []string{"timeout", "timed out", "connection", "temporary"}

// IsRetryable reports whether err's message contains one of the
// case-sensitive substrings the spec fixes as retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range retryableSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// ExhaustedError wraps the last failure once every attempt has been used.
type ExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string { return e.LastErr.Error() }
func (e *ExhaustedError) Unwrap() error { return e.LastErr }

// Do invokes fn until it succeeds, a non-retryable error is returned, or
// attempts are exhausted. Delay is applied between attempts only: no sleep
// before the first attempt, none after the last.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if attempt >= maxAttempts {
			break
		}

		backoff := Backoff(p, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return &ExhaustedError{Attempts: maxAttempts, LastErr: lastErr}
}

// Backoff computes the delay before the attempt-th retry (1-indexed: the
// delay before the first retry is Backoff(p, 1)):
// min(initial * multiplier^(attempt-1), max), plus jitter in [0, 0.1*capped]
// when enabled.
func Backoff(p Policy, attempt int) time.Duration {
	capped := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt-1))
	if capped > float64(p.MaxBackoff) {
		capped = float64(p.MaxBackoff)
	}
	if p.Jitter {
		capped += capped * 0.1 * rand.Float64() //nolint:gosec // jitter doesn't need crypto rand
	}
	return time.Duration(capped)
}
