// Package resource implements the URI-template resource router
// (SPEC_FULL.md §4.O): registration-order first match plus a per-resource
// capability check. Grounded on
// original_source/.../pforge-runtime/src/resource.rs's ResourceManager,
// reusing internal/uritemplate for template compilation.
package resource

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/paiml/forge-go/internal/config"
	"github.com/paiml/forge-go/internal/forgerr"
	"github.com/paiml/forge-go/internal/uritemplate"
)

// Handler serves the three resource operations. A handler that does not
// support an operation need not implement it meaningfully — the router
// never calls an operation a resource didn't declare in Supports.
type Handler interface {
	Read(ctx context.Context, uri string, params map[string]string) ([]byte, error)
	Write(ctx context.Context, uri string, params map[string]string, content []byte) error
	Subscribe(ctx context.Context, uri string, params map[string]string) error
}

type entry struct {
	template string
	pattern  *regexp.Regexp
	names    []string
	supports map[config.ResourceOperation]bool
	handler  Handler
}

// Router matches URIs against registered templates in registration order.
type Router struct {
	mu        sync.RWMutex
	resources []entry
}

// New constructs an empty router.
func New() *Router {
	return &Router{}
}

// Register compiles def's URI template and adds it to the routing table.
func (r *Router) Register(def config.ResourceDef, handler Handler) error {
	pattern, names, err := uritemplate.Compile(def.URITemplate)
	if err != nil {
		return forgerr.Wrap(forgerr.KindHandlerFailure, "compile resource URI template", err)
	}

	supports := make(map[config.ResourceOperation]bool, len(def.Supports))
	for _, op := range def.Supports {
		supports[op] = true
	}

	r.mu.Lock()
	r.resources = append(r.resources, entry{
		template: def.URITemplate,
		pattern:  pattern,
		names:    names,
		supports: supports,
		handler:  handler,
	})
	r.mu.Unlock()
	return nil
}

func (r *Router) match(uri string) (entry, map[string]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.resources {
		m := e.pattern.FindStringSubmatch(uri)
		if m == nil {
			continue
		}
		params := make(map[string]string, len(e.names))
		for i, name := range e.names {
			params[name] = m[i+1]
		}
		return e, params, true
	}
	return entry{}, nil, false
}

// Read resolves uri to a registered resource and invokes its Read handler.
func (r *Router) Read(ctx context.Context, uri string) ([]byte, error) {
	e, params, ok := r.match(uri)
	if !ok {
		return nil, forgerr.HandlerFailure(fmt.Sprintf("No resource matches URI: %s", uri))
	}
	if !e.supports[config.OpRead] {
		return nil, forgerr.HandlerFailure(fmt.Sprintf("Resource %s does not support read operation", e.template))
	}
	return e.handler.Read(ctx, uri, params)
}

// Write resolves uri to a registered resource and invokes its Write handler.
func (r *Router) Write(ctx context.Context, uri string, content []byte) error {
	e, params, ok := r.match(uri)
	if !ok {
		return forgerr.HandlerFailure(fmt.Sprintf("No resource matches URI: %s", uri))
	}
	if !e.supports[config.OpWrite] {
		return forgerr.HandlerFailure(fmt.Sprintf("Resource %s does not support write operation", e.template))
	}
	return e.handler.Write(ctx, uri, params, content)
}

// Subscribe resolves uri to a registered resource and invokes its Subscribe
// handler.
func (r *Router) Subscribe(ctx context.Context, uri string) error {
	e, params, ok := r.match(uri)
	if !ok {
		return forgerr.HandlerFailure(fmt.Sprintf("No resource matches URI: %s", uri))
	}
	if !e.supports[config.OpSubscribe] {
		return forgerr.HandlerFailure(fmt.Sprintf("Resource %s does not support subscribe operation", e.template))
	}
	return e.handler.Subscribe(ctx, uri, params)
}

// Templates returns the registered URI templates in registration order.
func (r *Router) Templates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.resources))
	for i, e := range r.resources {
		out[i] = e.template
	}
	return out
}
