package middleware

import (
	"context"

	"github.com/paiml/forge-go/internal/forgerr"
	"github.com/paiml/forge-go/internal/observability/telemetry"
)

// Logger logs requests/responses/errors for side effect only, never
// transforming the payload. Grounded on LoggingMiddleware.
type Logger struct {
	NoOp
	Tag string
	Log telemetry.Logger
}

func (l Logger) Before(ctx context.Context, req Request) (context.Context, Request, error) {
	l.Log.Info(ctx, l.Tag+" request", "payload", req)
	return ctx, req, nil
}

func (l Logger) After(ctx context.Context, _ Request, resp Response) (Response, error) {
	l.Log.Info(ctx, l.Tag+" response", "payload", resp)
	return resp, nil
}

func (l Logger) OnError(ctx context.Context, _ Request, err error) (Response, error) {
	l.Log.Error(ctx, l.Tag+" error", err)
	return nil, err
}

// RequiredFields fails with HandlerFailure listing the first missing field
// when req is a map missing one of Fields. Grounded on ValidationMiddleware.
type RequiredFields struct {
	NoOp
	Fields []string
}

func (v RequiredFields) Before(ctx context.Context, req Request) (context.Context, Request, error) {
	obj, ok := req.(map[string]any)
	if !ok {
		return ctx, req, nil
	}
	for _, field := range v.Fields {
		if _, present := obj[field]; !present {
			return ctx, nil, forgerr.HandlerFailure("missing required field: " + field)
		}
	}
	return ctx, req, nil
}

// CircuitBreaker is the subset of reliability/breaker.Breaker the recovery
// middleware needs, declared locally to avoid an import cycle. Allow admits
// or rejects the call and returns a context carrying the admission ticket;
// Succeed/Fail report the outcome against that ticket, recovered from the
// context Before handed downstream.
type CircuitBreaker interface {
	Allow(ctx context.Context) (context.Context, error)
	Succeed(ctx context.Context)
	Fail(ctx context.Context)
}

// Recovery rejects admission while the attached breaker is open, and
// reports each call's outcome back to it. Grounded on RecoveryMiddleware.
type Recovery struct {
	NoOp
	Breaker CircuitBreaker
}

func (r Recovery) Before(ctx context.Context, req Request) (context.Context, Request, error) {
	if r.Breaker == nil {
		return ctx, req, nil
	}
	ctx, err := r.Breaker.Allow(ctx)
	if err != nil {
		return ctx, nil, err
	}
	return ctx, req, nil
}

func (r Recovery) After(ctx context.Context, _ Request, resp Response) (Response, error) {
	if r.Breaker != nil {
		r.Breaker.Succeed(ctx)
	}
	return resp, nil
}

func (r Recovery) OnError(ctx context.Context, _ Request, err error) (Response, error) {
	if r.Breaker != nil {
		r.Breaker.Fail(ctx)
	}
	return nil, err
}
