// Package breaker implements the three-state circuit breaker (SPEC_FULL.md
// §4.J): Closed/Open/HalfOpen with failure/success thresholds and a cooldown
// timeout. Grounded on
// original_source/.../pforge-runtime/src/recovery.rs's CircuitBreaker state
// table, realized atop github.com/sony/gobreaker (a pack dependency carried
// from jordigilh-kubernaut's go.mod) rather than a hand-rolled mutex/atomics
// pair — gobreaker's TwoStepCircuitBreaker gives exactly the
// admit-then-report-outcome shape the middleware chain needs, without
// forcing every caller through a single Execute(func) closure.
package breaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/paiml/forge-go/internal/forgerr"
)

// Config mirrors the manifest-configurable thresholds. Zero values are
// replaced by the spec's defaults in New.
type Config struct {
	// FailureThreshold is the number of consecutive failures in Closed
	// state before transitioning to Open. Default 5.
	FailureThreshold uint32
	// Timeout is the Open-state cooldown before the next admission is
	// allowed through as a HalfOpen trial. Default 60s.
	Timeout time.Duration
	// SuccessThreshold is the number of consecutive successes in HalfOpen
	// state before transitioning to Closed. Default 2.
	SuccessThreshold uint32
}

// State mirrors the spec's three-state vocabulary, independent of
// gobreaker's own State type.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ticketKey carries the per-call "done" callback gobreaker's two-step API
// hands back from Allow, through the context, to Succeed/Fail.
type ticketKey struct{}

// Breaker is a single protected operation's circuit breaker.
type Breaker struct {
	tscb *gobreaker.TwoStepCircuitBreaker
}

// New constructs a Breaker for one named protected operation.
func New(name string, cfg Config) *Breaker {
	failureThreshold := cfg.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = 5
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	successThreshold := cfg.SuccessThreshold
	if successThreshold == 0 {
		successThreshold = 2
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: successThreshold,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
	}

	return &Breaker{tscb: gobreaker.NewTwoStepCircuitBreaker(settings)}
}

// State reports the breaker's current state.
func (b *Breaker) State() State {
	switch b.tscb.State() {
	case gobreaker.StateOpen:
		return Open
	case gobreaker.StateHalfOpen:
		return HalfOpen
	default:
		return Closed
	}
}

// Allow admits or rejects a call. On admission it returns a context
// carrying the admission ticket Succeed/Fail need; on rejection it returns
// the spec's exact message, forgerr.HandlerFailure("Circuit breaker is
// OPEN").
func (b *Breaker) Allow(ctx context.Context) (context.Context, error) {
	done, err := b.tscb.Allow()
	if err != nil {
		return ctx, forgerr.HandlerFailure("Circuit breaker is OPEN")
	}
	return context.WithValue(ctx, ticketKey{}, done), nil
}

// Succeed reports a successful outcome for the call ctx was admitted under.
func (b *Breaker) Succeed(ctx context.Context) {
	if done, ok := ctx.Value(ticketKey{}).(func(bool)); ok {
		done(true)
	}
}

// Fail reports a failed outcome for the call ctx was admitted under.
func (b *Breaker) Fail(ctx context.Context) {
	if done, ok := ctx.Value(ticketKey{}).(func(bool)); ok {
		done(false)
	}
}
