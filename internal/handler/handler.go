// Package handler defines the polymorphic handler contract every
// dispatchable tool implementation satisfies (SPEC_FULL.md §4.D), and the
// JSON-schema compiler used to produce its static input/output descriptors.
// Grounded on original_source/.../pforge-runtime/src/handler.rs, translated
// from Rust's associated-type trait into a Go generic interface.
package handler

import "context"

// Handler is implemented by every concrete tool executor: native, CLI,
// HTTP, and pipeline handlers all satisfy this shape once their Input/Output
// types are fixed. Handle is the single operation; Schema describes Input
// and Output statically so the registry can expose schema introspection
// without invoking the handler.
type Handler[In, Out any] interface {
	Handle(ctx context.Context, in In) (Out, error)
}

// Func adapts a plain function to Handler, mirroring the convenience
// http.HandlerFunc gives net/http handlers.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// Handle implements Handler.
func (f Func[In, Out]) Handle(ctx context.Context, in In) (Out, error) { return f(ctx, in) }

// Schema is a compiled JSON-schema descriptor pair for a handler's Input and
// Output types. Handlers construct their Schema once at registration time;
// the registry stores it alongside the type-erased dispatch closure.
type Schema struct {
	Input  map[string]any
	Output map[string]any
}
