// Package middleware implements the ordered before/after/on_error chain
// wrapped around a dispatch (SPEC_FULL.md §4.I). Grounded on
// original_source/.../pforge-runtime/src/middleware.rs (Chain::execute's
// before-in-order / after-and-on_error-reverse-order semantics), generalized
// the way the teacher's generated endpoint middleware wraps a Goa method
// (features/model/middleware/ratelimit.go).
package middleware

import "context"

// Request/Response are opaque JSON-shaped payloads middlewares may
// transform. any mirrors the loose serde_json::Value the original uses;
// callers typically pass map[string]any.
type Request = any
type Response = any

// Middleware is an optional three-hook interceptor around a dispatch.
// Before may also extend ctx (e.g. to carry an admission ticket through to
// After/OnError) — every middleware after it, and the operation itself, see
// the extended context. Embed NoOp to get no-op defaults for hooks you
// don't need, the way Rust's Middleware trait supplies default method
// bodies.
type Middleware interface {
	Before(ctx context.Context, req Request) (context.Context, Request, error)
	After(ctx context.Context, req Request, resp Response) (Response, error)
	OnError(ctx context.Context, req Request, err error) (Response, error)
}

// NoOp implements Middleware with pass-through hooks. Embed it in a
// middleware that only needs to override one or two phases.
type NoOp struct{}

func (NoOp) Before(ctx context.Context, req Request) (context.Context, Request, error) {
	return ctx, req, nil
}
func (NoOp) After(_ context.Context, _ Request, resp Response) (Response, error) {
	return resp, nil
}
func (NoOp) OnError(_ context.Context, _ Request, err error) (Response, error) {
	return nil, err
}

// Operation is the wrapped dispatch the chain executes between the before
// and after/on_error phases.
type Operation func(ctx context.Context, req Request) (Response, error)

// Chain runs an ordered list of middlewares around an Operation.
type Chain struct {
	middlewares []Middleware
}

// NewChain builds a Chain from an ordered middleware list.
func NewChain(mw ...Middleware) *Chain {
	return &Chain{middlewares: mw}
}

// Add appends a middleware to the end of the chain.
func (c *Chain) Add(m Middleware) {
	c.middlewares = append(c.middlewares, m)
}

// Execute runs the chain around op:
//  1. Before hooks run in insertion order; the first failure short-circuits
//     with that failure (op never runs).
//  2. op runs against the transformed request.
//  3. On success, After hooks run in reverse order.
//  4. On failure (from op or any After hook), OnError hooks run in reverse
//     order; each may recover (terminating propagation) or re-raise
//     (possibly transformed).
func (c *Chain) Execute(ctx context.Context, req Request, op Operation) (Response, error) {
	for _, m := range c.middlewares {
		var err error
		ctx, req, err = m.Before(ctx, req)
		if err != nil {
			// A before-phase failure short-circuits immediately; on_error
			// only runs for failures from the operation or the after phase.
			return nil, err
		}
	}

	resp, err := op(ctx, req)
	if err != nil {
		return c.recover(ctx, req, err)
	}

	for i := len(c.middlewares) - 1; i >= 0; i-- {
		resp, err = c.middlewares[i].After(ctx, req, resp)
		if err != nil {
			return c.recover(ctx, req, err)
		}
	}
	return resp, nil
}

// recover runs the on_error phase in reverse order starting from the
// current failure. The first middleware to return a non-error response
// recovers the chain.
func (c *Chain) recover(ctx context.Context, req Request, err error) (Response, error) {
	current := err
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		resp, recErr := c.middlewares[i].OnError(ctx, req, current)
		if recErr == nil {
			return resp, nil
		}
		current = recErr
	}
	return nil, current
}
