// Package deadline implements the deadline gate (SPEC_FULL.md §4.L): races
// a call against a fixed duration and fails with a Deadline-kind error on
// expiry. Grounded on
// original_source/.../pforge-runtime/src/timeout.rs's with_timeout.
package deadline

import (
	"context"
	"time"

	"github.com/paiml/forge-go/internal/forgerr"
)

// Run races fn against d. If fn has not returned within d, ctx is
// cancelled and Run returns the zero value of T plus
// forgerr.Deadline("Operation timed out after " + d).
func Run[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if d <= 0 {
		return fn(ctx)
	}

	dctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := fn(dctx)
		done <- result{val, err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-dctx.Done():
		return zero, forgerr.Deadline("Operation timed out after " + d.String())
	}
}
