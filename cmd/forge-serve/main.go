// Command forge-serve is a reference host: it loads a forge manifest,
// registers the native handlers it knows about, and serves dispatch
// requests over stdio until interrupted. Grounded on cmd/demo/main.go's
// register-then-run shape, generalized from an in-process agent runtime to
// a manifest-driven tool server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/paiml/forge-go/internal/config"
	"github.com/paiml/forge-go/internal/handler"
	"github.com/paiml/forge-go/internal/server"
	"github.com/paiml/forge-go/internal/transport"
)

func main() {
	configPath := flag.String("config", "forge.yaml", "path to the forge manifest")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve /metrics and /healthz on this address")
	flag.Parse()

	if err := run(*configPath, *metricsAddr); err != nil {
		fmt.Fprintln(os.Stderr, "forge-serve:", err)
		os.Exit(1)
	}
}

func run(configPath, metricsAddr string) error {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	manifest, err := config.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if err := config.Validate(manifest); err != nil {
		return fmt.Errorf("validate manifest: %w", err)
	}

	s, err := server.New(*manifest)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	registerBuiltinNativeHandlers(s)

	if metricsAddr != "" {
		go serveObservability(metricsAddr, s)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := transport.NewStdio(os.Stdin, os.Stdout)
	defer t.Close()

	if err := s.Run(ctx, t); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// pingInput/pingOutput back the "ping" native handler every generated
// project template declares, so a fresh `forge new` project runs out of the
// box without any host code of its own.
type pingInput struct{}
type pingOutput struct {
	Status string `json:"status"`
}

// registerBuiltinNativeHandlers binds the handful of native tools this host
// binary ships an implementation for. A manifest naming a native tool this
// function doesn't register is left unbound: dispatching it surfaces
// ToolNotFound, exactly as an unrecognized tool name would.
func registerBuiltinNativeHandlers(s *server.Server) {
	_ = server.RegisterNative[pingInput, pingOutput](s, "ping", handler.Func[pingInput, pingOutput](
		func(_ context.Context, _ pingInput) (pingOutput, error) {
			return pingOutput{Status: "ok"}, nil
		},
	))
}

// serveObservability exposes the server's metrics and health rollup over
// plain HTTP, independent of the dispatch transport.
func serveObservability(addr string, s *server.Server) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		text, err := s.Metrics.ExportText()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, text)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.Health.HTTPStatus())
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     s.Health.Overall(),
			"components": s.Health.Components(),
		})
	})

	//nolint:gosec // operator-local debug endpoint, not internet-facing
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintln(os.Stderr, "forge-serve: observability server:", err)
	}
}
