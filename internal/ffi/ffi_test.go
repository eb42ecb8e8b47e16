package ffi

import (
	"context"
	"testing"

	"github.com/paiml/forge-go/internal/config"
	"github.com/paiml/forge-go/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManifest() config.Manifest {
	return config.Manifest{
		Forge: config.ForgeMetadata{Name: "demo"},
		Tools: []config.ToolDef{
			{Type: config.ToolCLI, Name: "echo_it", Command: "echo", Args: []string{"hi"}},
		},
	}
}

func TestDispatchBeforeBindFails(t *testing.T) {
	mu.Lock()
	srv = nil
	mu.Unlock()

	_, code, message := dispatch(context.Background(), "echo_it", nil)
	assert.Equal(t, codeNotBound, code)
	assert.Contains(t, message, "no server bound")
}

func TestDispatchRoutesThroughBoundServer(t *testing.T) {
	s, err := server.New(testManifest())
	require.NoError(t, err)
	Bind(s)
	t.Cleanup(func() { Bind(nil) })

	data, code, message := dispatch(context.Background(), "echo_it", []byte(`{}`))
	require.Equal(t, codeSuccess, code)
	require.Empty(t, message)
	assert.Contains(t, string(data), "hi")
}

func TestDispatchRejectsInvalidUTF8Name(t *testing.T) {
	s, err := server.New(testManifest())
	require.NoError(t, err)
	Bind(s)
	t.Cleanup(func() { Bind(nil) })

	_, code, message := dispatch(context.Background(), string([]byte{0xff, 0xfe}), nil)
	assert.Equal(t, codeInvalidUTF8, code)
	assert.Contains(t, message, "UTF-8")
}

func TestDispatchUnknownToolReportsHandlerFailureCode(t *testing.T) {
	s, err := server.New(testManifest())
	require.NoError(t, err)
	Bind(s)
	t.Cleanup(func() { Bind(nil) })

	_, code, _ := dispatch(context.Background(), "missing", nil)
	assert.Equal(t, codeHandlerFailure, code)
}
