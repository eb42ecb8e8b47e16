package config_test

import (
	"os"
	"testing"

	"github.com/paiml/forge-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDemoManifest(t *testing.T) {
	data, err := os.ReadFile("testdata/demo.yaml")
	require.NoError(t, err)

	m, err := config.Parse(data)
	require.NoError(t, err)
	require.NoError(t, config.Validate(m))

	assert.Equal(t, "demo", m.Forge.Name)
	assert.Equal(t, "0.1.0", m.Forge.Version)
	assert.Equal(t, config.TransportStdio, m.Forge.Transport)
	assert.Len(t, m.Tools, 2)
}

// P1: round-trip preserves forge.name, forge.version, and tool count.
func TestRoundTripPreservesCoreFields(t *testing.T) {
	data, err := os.ReadFile("testdata/demo.yaml")
	require.NoError(t, err)

	m1, err := config.Parse(data)
	require.NoError(t, err)

	encoded, err := config.Encode(m1)
	require.NoError(t, err)

	m2, err := config.Parse(encoded)
	require.NoError(t, err)

	assert.Equal(t, m1.Forge.Name, m2.Forge.Name)
	assert.Equal(t, m1.Forge.Version, m2.Forge.Version)
	assert.Len(t, m2.Tools, len(m1.Tools))
}

// P2: validate fails iff two tools share a name.
func TestDuplicateToolNameFails(t *testing.T) {
	m := &config.Manifest{
		Forge: config.ForgeMetadata{Name: "s", Version: "1"},
		Tools: []config.ToolDef{
			{Type: config.ToolCLI, Name: "dup", Command: "echo"},
			{Type: config.ToolCLI, Name: "dup", Command: "echo"},
		},
	}
	err := config.Validate(m)
	require.Error(t, err)
	var dupErr *config.DuplicateToolNameError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "dup", dupErr.Name)
}

// P3: a native tool with a handler path lacking "::" fails validation.
func TestNativeHandlerPathMustContainSeparator(t *testing.T) {
	m := &config.Manifest{
		Forge: config.ForgeMetadata{Name: "s", Version: "1"},
		Tools: []config.ToolDef{
			{Type: config.ToolNative, Name: "bad", Handler: &config.HandlerRef{Path: "nosep"}},
		},
	}
	err := config.Validate(m)
	require.Error(t, err)
	var pathErr *config.InvalidHandlerPathError
	require.ErrorAs(t, err, &pathErr)
}

// P4: every loaded tool name satisfies ^[a-z0-9_-]{1,50}$.
func TestToolNamingPattern(t *testing.T) {
	bad := &config.Manifest{
		Forge: config.ForgeMetadata{Name: "s", Version: "1"},
		Tools: []config.ToolDef{
			{Type: config.ToolCLI, Name: "Bad Name!", Command: "echo"},
		},
	}
	err := config.Validate(bad)
	require.Error(t, err)
	var valErr *config.ValidationError
	require.ErrorAs(t, err, &valErr)
}

// S3: two tools named "dup" fails DuplicateToolName("dup").
func TestScenarioS3(t *testing.T) {
	data := []byte(`
forge: {name: s, version: "1"}
tools:
  - {type: cli, name: dup, description: "", command: echo, args: []}
  - {type: cli, name: dup, description: "", command: echo, args: []}
`)
	m, err := config.Parse(data)
	require.NoError(t, err)
	err = config.Validate(m)
	var dupErr *config.DuplicateToolNameError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "dup", dupErr.Name)
}

func TestUnknownTopLevelKeyRejected(t *testing.T) {
	data := []byte(`
forge: {name: s, version: "1"}
bogus: true
`)
	_, err := config.Parse(data)
	require.Error(t, err)
	var parseErr *config.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestPipelineForwardReferenceAllowed(t *testing.T) {
	data := []byte(`
forge: {name: s, version: "1"}
tools:
  - type: pipeline
    name: runner
    description: ""
    steps:
      - {tool: later, error_policy: fail_fast}
  - type: cli
    name: later
    description: ""
    command: echo
`)
	m, err := config.Parse(data)
	require.NoError(t, err)
	require.NoError(t, config.Validate(m))
}

func TestPipelineUnknownReferenceRejected(t *testing.T) {
	data := []byte(`
forge: {name: s, version: "1"}
tools:
  - type: pipeline
    name: runner
    description: ""
    steps:
      - {tool: ghost, error_policy: fail_fast}
`)
	m, err := config.Parse(data)
	require.NoError(t, err)
	err = config.Validate(m)
	require.Error(t, err)
}

func TestBareAndRecordParamForms(t *testing.T) {
	data := []byte(`
forge: {name: s, version: "1"}
tools:
  - type: native
    name: t
    description: ""
    handler: {path: "h::f"}
    params:
      bare_field: string
      record_field: {type: integer, required: true, description: "x"}
`)
	m, err := config.Parse(data)
	require.NoError(t, err)
	require.NoError(t, config.Validate(m))

	params := m.Tools[0].Params
	assert.True(t, params["bare_field"].Required)
	assert.Equal(t, config.KindString, params["bare_field"].Kind)
	assert.True(t, params["record_field"].Required)
	assert.Equal(t, config.KindInteger, params["record_field"].Kind)
}
