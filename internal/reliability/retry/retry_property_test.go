package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/paiml/forge-go/internal/reliability/retry"
)

// retryableKeywords is the exact substring set retry.IsRetryable matches on.
var retryableKeywords = []string{"timeout", "timed out", "connection", "temporary"}

// nonRetryableWords share no substring with retryableKeywords.
var nonRetryableWords = []string{"fatal", "denied", "invalid", "forbidden", "unsupported"}

// TestIsRetryableProperty verifies P16 (substring-match retryability)
// holds across generated messages, not just the fixed examples in
// retry_test.go. Grounded directly on
// runtime/a2a/retry/retry_test.go's TestIsRetryableProperty.
func TestIsRetryableProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("nil error is not retryable", prop.ForAll(
		func(_ int) bool {
			return !retry.IsRetryable(nil)
		},
		gen.Int(),
	))

	properties.Property("a message embedding a retryable keyword is retryable", prop.ForAll(
		func(prefix, suffix string, keyword string) bool {
			err := errors.New(prefix + keyword + suffix)
			return retry.IsRetryable(err)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.OneConstOf(retryableKeywords[0], retryableKeywords[1], retryableKeywords[2], retryableKeywords[3]),
	))

	properties.Property("a message built only from non-retryable words is not retryable", prop.ForAll(
		func(a, b string) bool {
			err := errors.New(a + " " + b)
			return !retry.IsRetryable(err)
		},
		gen.OneConstOf(nonRetryableWords[0], nonRetryableWords[1], nonRetryableWords[2]),
		gen.OneConstOf(nonRetryableWords[2], nonRetryableWords[3], nonRetryableWords[4]),
	))

	properties.TestingRun(t)
}

// TestBackoffProperty verifies P15 (backoff bounds) across generated
// attempt numbers and multipliers, not just the fixed examples in
// retry_test.go.
func TestBackoffProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("backoff never exceeds MaxBackoff", prop.ForAll(
		func(attempt int, multiplier float64) bool {
			p := retry.Policy{
				InitialBackoff: time.Millisecond,
				MaxBackoff:     100 * time.Millisecond,
				Multiplier:     multiplier,
			}
			return retry.Backoff(p, attempt) <= p.MaxBackoff
		},
		gen.IntRange(1, 20),
		gen.Float64Range(1.0, 5.0),
	))

	properties.Property("backoff is non-decreasing in attempt, uncapped", prop.ForAll(
		func(attempt int) bool {
			p := retry.Policy{InitialBackoff: time.Millisecond, MaxBackoff: time.Hour, Multiplier: 2}
			return retry.Backoff(p, attempt+1) >= retry.Backoff(p, attempt)
		},
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

// TestRetryExhaustionProperty verifies P17 (exhaustion after exactly
// MaxAttempts calls) across generated policy sizes.
func TestRetryExhaustionProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("a perpetually retryable error exhausts exactly MaxAttempts calls", prop.ForAll(
		func(maxAttempts int) bool {
			calls := 0
			p := retry.Policy{
				MaxAttempts:    maxAttempts,
				InitialBackoff: time.Microsecond,
				MaxBackoff:     time.Millisecond,
				Multiplier:     2,
			}

			err := retry.Do(context.Background(), p, func(_ context.Context) error {
				calls++
				return errors.New("connection reset")
			})

			var exhausted *retry.ExhaustedError
			return errors.As(err, &exhausted) && calls == maxAttempts && exhausted.Attempts == maxAttempts
		},
		gen.IntRange(1, 8),
	))

	properties.Property("a non-retryable error always stops after exactly one call", prop.ForAll(
		func(maxAttempts int) bool {
			calls := 0
			p := retry.Policy{
				MaxAttempts:    maxAttempts,
				InitialBackoff: time.Microsecond,
				MaxBackoff:     time.Millisecond,
				Multiplier:     2,
			}

			err := retry.Do(context.Background(), p, func(_ context.Context) error {
				calls++
				return errors.New("fatal error")
			})

			return err != nil && calls == 1
		},
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
