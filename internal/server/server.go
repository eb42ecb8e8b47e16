// Package server implements the orchestrator (SPEC_FULL.md §4.Q) that turns
// a validated manifest into a running tool server: it builds the dispatch
// registry by binding subprocess/HTTP/pipeline tools to their concrete
// handlers, leaves native tools for host code to register, and then drives
// a Transport until a termination signal arrives. Grounded on
// original_source/.../pforge-runtime/src/server.rs (ForgeServer::new +
// ForgeServer::run), with the wrap-dispatch-in-a-middleware-chain-plus-retry
// idiom adapted from runtime/mcp/server.go's request loop.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paiml/forge-go/internal/config"
	"github.com/paiml/forge-go/internal/forgerr"
	"github.com/paiml/forge-go/internal/handler"
	"github.com/paiml/forge-go/internal/handler/cli"
	"github.com/paiml/forge-go/internal/handler/httpcall"
	"github.com/paiml/forge-go/internal/handler/pipeline"
	"github.com/paiml/forge-go/internal/middleware"
	"github.com/paiml/forge-go/internal/observability/health"
	"github.com/paiml/forge-go/internal/observability/metrics"
	"github.com/paiml/forge-go/internal/observability/telemetry"
	"github.com/paiml/forge-go/internal/registry"
	"github.com/paiml/forge-go/internal/reliability/breaker"
	"github.com/paiml/forge-go/internal/reliability/deadline"
	"github.com/paiml/forge-go/internal/reliability/retry"
	"github.com/paiml/forge-go/internal/transport"
)

// Server binds a manifest's tools to the registry and serves dispatch
// requests over a Transport.
type Server struct {
	manifest config.Manifest
	tools    map[string]config.ToolDef

	// Registry is exposed so host code can register native handlers, by
	// calling RegisterNative, before Run is called.
	Registry *registry.Registry
	Metrics  *metrics.Collector
	Health   *health.Aggregator

	logger      telemetry.Logger
	brk         *breaker.Breaker
	retryPolicy retry.Policy
	chain       *middleware.Chain
}

// Option configures optional Server behavior at construction time.
type Option func(*Server)

// WithLogger replaces the no-op logger every request/response/error is
// reported through.
func WithLogger(l telemetry.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithBreaker attaches a circuit breaker the middleware chain consults
// before every dispatch. Without one, dispatch never trips open.
func WithBreaker(b *breaker.Breaker) Option {
	return func(s *Server) { s.brk = b }
}

// WithRetryPolicy replaces the default no-retry (MaxAttempts: 1) policy
// wrapping every dispatch.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Server) { s.retryPolicy = p }
}

// New builds a Server from a validated manifest: subprocess, HTTP, and
// pipeline tools are bound to their handlers immediately; native tools are
// left unbound for RegisterNative.
func New(m config.Manifest, opts ...Option) (*Server, error) {
	s := &Server{
		manifest:    m,
		tools:       make(map[string]config.ToolDef, len(m.Tools)),
		Registry:    registry.New(),
		Metrics:     metrics.New(),
		Health:      health.New(),
		logger:      telemetry.NewNoopLogger(),
		retryPolicy: retry.Policy{MaxAttempts: 1},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.chain = middleware.NewChain(middleware.Logger{Tag: m.Forge.Name, Log: s.logger})
	if s.brk != nil {
		s.chain.Add(middleware.Recovery{Breaker: s.brk})
	}

	for _, tool := range m.Tools {
		if _, dup := s.tools[tool.Name]; dup {
			return nil, forgerr.HandlerFailure(fmt.Sprintf("duplicate tool name: %s", tool.Name))
		}
		s.tools[tool.Name] = tool
		if err := s.bind(tool); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Server) bind(tool config.ToolDef) error {
	d := deadlineDuration(tool.DeadlineMS)

	switch tool.Type {
	case config.ToolCLI:
		h := cli.Handler{Command: tool.Command, Args: tool.Args, Cwd: tool.Cwd, Env: tool.Env, Deadline: d}
		registry.Register(s.Registry, tool.Name, h, cliSchema())
	case config.ToolHTTP:
		h := withDeadline[httpcall.Input, httpcall.Output](httpcall.Handler{
			Endpoint: tool.Endpoint,
			Method:   tool.Method,
			Headers:  tool.Headers,
			Auth:     tool.Auth,
		}, d)
		registry.Register(s.Registry, tool.Name, h, httpSchema())
	case config.ToolPipeline:
		h := withDeadline[pipeline.Input, pipeline.Output](pipeline.Handler{
			Steps:    tool.Steps,
			Registry: s.Registry,
		}, d)
		registry.Register(s.Registry, tool.Name, h, pipelineSchema())
	case config.ToolNative:
		// Left unbound: host code supplies the implementation via
		// RegisterNative before Run is called.
	default:
		return forgerr.HandlerFailure(fmt.Sprintf("unknown tool type %q for %q", tool.Type, tool.Name))
	}
	return nil
}

// RegisterNative binds name, a manifest-declared native tool, to h. It is a
// package-level function rather than a Server method because Go methods
// cannot themselves be generic. Registering a name that isn't a declared
// native tool fails.
func RegisterNative[In, Out any](s *Server, name string, h handler.Handler[In, Out]) error {
	tool, ok := s.tools[name]
	if !ok {
		return forgerr.HandlerFailure(fmt.Sprintf("tool %q is not declared in the manifest", name))
	}
	if tool.Type != config.ToolNative {
		return forgerr.HandlerFailure(fmt.Sprintf("tool %q is not a native tool", name))
	}

	wrapped := withDeadline[In, Out](h, deadlineDuration(tool.DeadlineMS))
	schema := handler.Schema{Input: tool.Params.JSONSchema(), Output: map[string]any{"type": "object"}}
	registry.Register(s.Registry, name, wrapped, schema)
	return nil
}

// withDeadline wraps h so every invocation races against d, when d is
// positive; d <= 0 means the tool declared no per-tool deadline and h runs
// unmodified.
func withDeadline[In, Out any](h handler.Handler[In, Out], d time.Duration) handler.Handler[In, Out] {
	if d <= 0 {
		return h
	}
	return handler.Func[In, Out](func(ctx context.Context, in In) (Out, error) {
		return deadline.Run(ctx, d, func(ctx context.Context) (Out, error) {
			return h.Handle(ctx, in)
		})
	})
}

func deadlineDuration(ms *int64) time.Duration {
	if ms == nil || *ms <= 0 {
		return 0
	}
	return time.Duration(*ms) * time.Millisecond
}

// Dispatch routes a raw JSON payload to name through the middleware chain
// and the configured retry policy, recording the outcome in Metrics.
func (s *Server) Dispatch(ctx context.Context, name string, payload []byte) ([]byte, error) {
	start := time.Now()

	op := func(ctx context.Context, req middleware.Request) (middleware.Response, error) {
		raw, _ := req.([]byte)
		var out []byte
		err := retry.Do(ctx, s.retryPolicy, func(ctx context.Context) error {
			o, e := s.Registry.Dispatch(ctx, name, raw)
			out = o
			return e
		})
		return out, err
	}

	resp, err := s.chain.Execute(ctx, payload, op)
	s.Metrics.RecordRequest(name, uint64(time.Since(start).Microseconds()), err == nil)
	if err != nil {
		return nil, err
	}
	out, _ := resp.([]byte)
	return out, nil
}

// Request is the wire envelope a Transport frame decodes into: a tool name
// and its raw JSON payload, optionally correlated by an opaque ID a caller
// supplies and gets back unchanged.
type Request struct {
	ID      string          `json:"id,omitempty"`
	Tool    string          `json:"tool"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the wire envelope a dispatch result or failure encodes into.
type Response struct {
	ID     string          `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorPayload   `json:"error,omitempty"`
}

// ErrorPayload is the RPC-boundary rendering of a forgerr.Error: its Kind
// and Message, with the causal chain collapsed into a single string.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Run attaches t and serves frames until ctx is canceled or t.Receive
// returns a non-context error. Each frame is handled concurrently; Run
// waits for in-flight handlers to finish before returning.
func (s *Server) Run(ctx context.Context, t transport.Transport) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		frame, err := t.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		wg.Add(1)
		go func(frame []byte) {
			defer wg.Done()
			resp := s.handleFrame(ctx, frame)
			if sendErr := t.Send(ctx, resp); sendErr != nil {
				s.logger.Error(ctx, "failed to send response", sendErr)
			}
		}(frame)
	}
}

func (s *Server) handleFrame(ctx context.Context, frame []byte) []byte {
	var req Request
	if err := json.Unmarshal(frame, &req); err != nil {
		return encodeError("", forgerr.Wrap(forgerr.KindSerializationFailure, "decode request frame", err))
	}
	if req.ID == "" {
		// A caller that doesn't correlate requests itself still gets a
		// stable ID back, so its own logs can be cross-referenced with
		// the server's.
		req.ID = uuid.NewString()
	}

	result, err := s.Dispatch(ctx, req.Tool, req.Payload)
	if err != nil {
		return encodeError(req.ID, err)
	}
	encoded, err := json.Marshal(Response{ID: req.ID, Result: result})
	if err != nil {
		return encodeError(req.ID, forgerr.Wrap(forgerr.KindSerializationFailure, "encode response", err))
	}
	return encoded
}

func encodeError(id string, err error) []byte {
	kind := "Unknown"
	var fe *forgerr.Error
	if errors.As(err, &fe) {
		kind = fe.Kind.String()
	}
	encoded, marshalErr := json.Marshal(Response{ID: id, Error: &ErrorPayload{Kind: kind, Message: err.Error()}})
	if marshalErr != nil {
		return []byte(`{"error":{"kind":"SerializationFailure","message":"failed to encode error response"}}`)
	}
	return encoded
}

func cliSchema() handler.Schema {
	return handler.Schema{
		Input: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"args": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"env":  map[string]any{"type": "object"},
			},
		},
		Output: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"stdout":    map[string]any{"type": "string"},
				"stderr":    map[string]any{"type": "string"},
				"exit_code": map[string]any{"type": "integer"},
			},
			"required": []string{"stdout", "stderr", "exit_code"},
		},
	}
}

func httpSchema() handler.Schema {
	return handler.Schema{
		Input: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"body":  map[string]any{},
				"query": map[string]any{"type": "object"},
			},
		},
		Output: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status":  map[string]any{"type": "integer"},
				"body":    map[string]any{},
				"headers": map[string]any{"type": "object"},
			},
			"required": []string{"status", "body", "headers"},
		},
	}
}

func pipelineSchema() handler.Schema {
	return handler.Schema{
		Input: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"variables": map[string]any{"type": "object"},
			},
		},
		Output: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"results":   map[string]any{"type": "array"},
				"variables": map[string]any{"type": "object"},
			},
			"required": []string{"results", "variables"},
		},
	}
}
