// Package registry is the in-memory dispatch table every tool, once bound to
// a concrete handler, is invoked through (SPEC_FULL.md §4.E). Grounded on
// original_source/.../pforge-runtime/src/registry.rs (FxHashMap<String,
// Arc<dyn HandlerEntry>>, register/dispatch/has_handler) and on
// runtime/toolregistry/provider/provider.go's guarded-map-plus-Options idiom.
// Go has no trait objects, so registration type-erases a generic
// handler.Handler[In, Out] into a byte-in/byte-out closure the registry can
// store uniformly.
package registry

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/paiml/forge-go/internal/forgerr"
	"github.com/paiml/forge-go/internal/handler"
)

type entry struct {
	dispatch func(ctx context.Context, payload []byte) ([]byte, error)
	schema   handler.Schema
}

// Registry holds every tool currently bound to a handler. The zero value is
// ready to use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

func (r *Registry) ensure() map[string]*entry {
	if r.entries == nil {
		r.entries = make(map[string]*entry)
	}
	return r.entries
}

// Register binds name to h. Go methods cannot themselves be generic, so
// registration is a package-level function: it closes over h's concrete
// In/Out types and stores only the erased dispatch closure plus the static
// schema the caller supplies.
func Register[In, Out any](r *Registry, name string, h handler.Handler[In, Out], schema handler.Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensure()[name] = &entry{
		schema: schema,
		dispatch: func(ctx context.Context, payload []byte) ([]byte, error) {
			var in In
			if len(payload) > 0 {
				if err := json.Unmarshal(payload, &in); err != nil {
					return nil, forgerr.Wrap(forgerr.KindSerializationFailure, "decode input for "+name, err)
				}
			}

			out, err := h.Handle(ctx, in)
			if err != nil {
				return nil, err
			}

			encoded, err := json.Marshal(out)
			if err != nil {
				return nil, forgerr.Wrap(forgerr.KindSerializationFailure, "encode output for "+name, err)
			}
			return encoded, nil
		},
	}
}

// Unregister removes name, if present. It is a no-op otherwise.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Has reports whether name is bound to a handler.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Len returns the number of bound tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Dispatch invokes the handler bound to name with payload, a raw JSON
// input, and returns its raw JSON output. A miss surfaces
// forgerr.ToolNotFound(name) (P5); (de)serialization failures surface
// forgerr.KindSerializationFailure; any other error is the handler's own and
// is returned unwrapped.
func (r *Registry) Dispatch(ctx context.Context, name string, payload []byte) ([]byte, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, forgerr.ToolNotFound(name)
	}
	return e.dispatch(ctx, payload)
}

// InputSchema returns the registered input schema descriptor for name.
func (r *Registry) InputSchema(name string) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.schema.Input, true
}

// OutputSchema returns the registered output schema descriptor for name.
func (r *Registry) OutputSchema(name string) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.schema.Output, true
}

// Names returns the set of currently bound tool names in no particular
// order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	return names
}
