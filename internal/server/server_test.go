package server_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/paiml/forge-go/internal/config"
	"github.com/paiml/forge-go/internal/forgerr"
	"github.com/paiml/forge-go/internal/handler"
	"github.com/paiml/forge-go/internal/handler/cli"
	"github.com/paiml/forge-go/internal/server"
	"github.com/paiml/forge-go/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cliManifest() config.Manifest {
	return config.Manifest{
		Forge: config.ForgeMetadata{Name: "demo", Transport: config.TransportStdio},
		Tools: []config.ToolDef{
			{Type: config.ToolCLI, Name: "echo_it", Command: "echo", Args: []string{"hi"}},
		},
	}
}

func TestBindsCLIToolAndDispatches(t *testing.T) {
	s, err := server.New(cliManifest())
	require.NoError(t, err)
	require.True(t, s.Registry.Has("echo_it"))

	raw, err := s.Dispatch(context.Background(), "echo_it", []byte(`{}`))
	require.NoError(t, err)

	var out cli.Output
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 0, out.ExitCode)
	assert.True(t, strings.Contains(out.Stdout, "hi"))
}

func TestDuplicateToolNameRejected(t *testing.T) {
	m := config.Manifest{
		Forge: config.ForgeMetadata{Name: "demo"},
		Tools: []config.ToolDef{
			{Type: config.ToolCLI, Name: "dup", Command: "echo"},
			{Type: config.ToolCLI, Name: "dup", Command: "echo"},
		},
	}
	_, err := server.New(m)
	require.Error(t, err)
}

type greetIn struct {
	Name string `json:"name"`
}
type greetOut struct {
	Message string `json:"message"`
}

func nativeManifest() config.Manifest {
	return config.Manifest{
		Forge: config.ForgeMetadata{Name: "demo"},
		Tools: []config.ToolDef{
			{
				Type: config.ToolNative,
				Name: "greet",
				Params: config.ParamSchema{
					"name": config.ParamType{Kind: config.KindString, Required: true},
				},
			},
		},
	}
}

func TestRegisterNativeBindsAndDispatches(t *testing.T) {
	s, err := server.New(nativeManifest())
	require.NoError(t, err)
	assert.False(t, s.Registry.Has("greet"))

	err = server.RegisterNative[greetIn, greetOut](s, "greet", handler.Func[greetIn, greetOut](
		func(_ context.Context, in greetIn) (greetOut, error) {
			return greetOut{Message: "hello " + in.Name}, nil
		},
	))
	require.NoError(t, err)
	assert.True(t, s.Registry.Has("greet"))

	raw, err := s.Dispatch(context.Background(), "greet", []byte(`{"name":"Ada"}`))
	require.NoError(t, err)

	var out greetOut
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "hello Ada", out.Message)
}

func TestRegisterNativeRejectsUndeclaredTool(t *testing.T) {
	s, err := server.New(nativeManifest())
	require.NoError(t, err)

	err = server.RegisterNative[greetIn, greetOut](s, "not_declared", handler.Func[greetIn, greetOut](
		func(_ context.Context, in greetIn) (greetOut, error) { return greetOut{}, nil },
	))
	require.Error(t, err)

	var fe *forgerr.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, forgerr.KindHandlerFailure, fe.Kind)
}

func TestRegisterNativeRejectsNonNativeTool(t *testing.T) {
	s, err := server.New(cliManifest())
	require.NoError(t, err)

	err = server.RegisterNative[greetIn, greetOut](s, "echo_it", handler.Func[greetIn, greetOut](
		func(_ context.Context, in greetIn) (greetOut, error) { return greetOut{}, nil },
	))
	require.Error(t, err)
}

func TestDispatchUnknownToolFails(t *testing.T) {
	s, err := server.New(cliManifest())
	require.NoError(t, err)

	_, err = s.Dispatch(context.Background(), "missing", []byte(`{}`))
	require.Error(t, err)
	var fe *forgerr.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, forgerr.KindToolNotFound, fe.Kind)
}

func TestRunServesRequestsOverInMemoryTransport(t *testing.T) {
	s, err := server.New(nativeManifest())
	require.NoError(t, err)
	require.NoError(t, server.RegisterNative[greetIn, greetOut](s, "greet", handler.Func[greetIn, greetOut](
		func(_ context.Context, in greetIn) (greetOut, error) {
			return greetOut{Message: "hi " + in.Name}, nil
		},
	)))

	host, client := transport.NewInMemoryPair()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, host) }()

	reqFrame, err := json.Marshal(server.Request{ID: "1", Tool: "greet", Payload: json.RawMessage(`{"name":"Ada"}`)})
	require.NoError(t, err)
	require.NoError(t, client.Send(ctx, reqFrame))

	respFrame, err := client.Receive(ctx)
	require.NoError(t, err)

	var resp server.Response
	require.NoError(t, json.Unmarshal(respFrame, &resp))
	assert.Equal(t, "1", resp.ID)
	assert.Nil(t, resp.Error)

	var out greetOut
	require.NoError(t, json.Unmarshal(resp.Result, &out))
	assert.Equal(t, "hi Ada", out.Message)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestRunReportsUnknownToolAsWireError(t *testing.T) {
	s, err := server.New(cliManifest())
	require.NoError(t, err)

	host, client := transport.NewInMemoryPair()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = s.Run(ctx, host) }()

	reqFrame, err := json.Marshal(server.Request{ID: "2", Tool: "missing"})
	require.NoError(t, err)
	require.NoError(t, client.Send(ctx, reqFrame))

	respFrame, err := client.Receive(ctx)
	require.NoError(t, err)

	var resp server.Response
	require.NoError(t, json.Unmarshal(respFrame, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ToolNotFound", resp.Error.Kind)
}
