// Package config holds the typed manifest representation and its loader.
// Types mirror the forge YAML manifest exactly (see SPEC_FULL.md §3/§6):
// server metadata, tool variants, resources, prompts, and optional state
// binding. Parser-facing fields reject unknown keys.
package config

import "fmt"

// Transport selects the wire transport a server advertises. The core never
// drives a transport itself (see SPEC_FULL.md §6) — this is metadata only.
type Transport string

// Supported transport kinds.
const (
	TransportStdio     Transport = "stdio"
	TransportSSE       Transport = "sse"
	TransportWebSocket Transport = "websocket"
)

// Optimization selects the build profile a server was produced for.
type Optimization string

// Supported optimization levels.
const (
	OptimizationDebug   Optimization = "debug"
	OptimizationRelease Optimization = "release"
)

// ForgeMetadata is the manifest's `forge:` block.
type ForgeMetadata struct {
	Name         string       `yaml:"name"`
	Version      string       `yaml:"version"`
	Transport    Transport    `yaml:"transport"`
	Optimization Optimization `yaml:"optimization"`
}

// ToolType discriminates the four tool variants.
type ToolType string

// Supported tool discriminators, matching the manifest's `type:` field.
const (
	ToolNative   ToolType = "native"
	ToolCLI      ToolType = "cli"
	ToolHTTP     ToolType = "http"
	ToolPipeline ToolType = "pipeline"
)

// ErrorPolicy selects how a pipeline reacts to a failing step.
type ErrorPolicy string

// Supported error policies.
const (
	ErrorPolicyFailFast ErrorPolicy = "fail_fast"
	ErrorPolicyContinue ErrorPolicy = "continue"
)

// HandlerRef identifies a native handler by its symbolic path, a
// "::"-delimited sequence of segments resolved by host code at registration
// time (e.g. "handlers::greet").
type HandlerRef struct {
	Path string `yaml:"path"`
}

// HTTPMethod enumerates the methods an HTTP tool may issue.
type HTTPMethod string

// Supported HTTP methods.
const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodDelete HTTPMethod = "DELETE"
	MethodPatch  HTTPMethod = "PATCH"
)

// AuthKind discriminates the HTTP auth schemes a tool may declare.
type AuthKind string

// Supported auth kinds.
const (
	AuthBearer  AuthKind = "bearer"
	AuthBasic   AuthKind = "basic"
	AuthAPIKey  AuthKind = "api_key"
)

// Auth is the `auth:` block of an HTTP tool definition.
type Auth struct {
	Type     AuthKind `yaml:"type"`
	Token    string   `yaml:"token,omitempty"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Key      string   `yaml:"key,omitempty"`
	Header   string   `yaml:"header,omitempty"`
}

// PipelineStep is one step of a Pipeline tool.
type PipelineStep struct {
	Tool        string         `yaml:"tool"`
	Input       map[string]any `yaml:"input,omitempty"`
	OutputVar   string         `yaml:"output_var,omitempty"`
	Condition   string         `yaml:"condition,omitempty"`
	ErrorPolicy ErrorPolicy    `yaml:"error_policy"`
}

// ToolDef is the discriminated union of the four tool variants. Only the
// fields relevant to Type are normally populated. Parse rejects a tool whose
// Type is missing or not one of the four; Validate checks the selected
// variant's required fields. Fields of another variant are not rejected.
type ToolDef struct {
	Type        ToolType `yaml:"type"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`

	// Native fields.
	Handler     *HandlerRef `yaml:"handler,omitempty"`
	Params      ParamSchema `yaml:"params,omitempty"`
	DeadlineMS  *int64      `yaml:"deadline_ms,omitempty"`

	// CLI (subprocess) fields.
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Cwd     string            `yaml:"cwd,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Stream  bool              `yaml:"stream,omitempty"`

	// HTTP fields.
	Endpoint string            `yaml:"endpoint,omitempty"`
	Method   HTTPMethod        `yaml:"method,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
	Auth     *Auth             `yaml:"auth,omitempty"`

	// Pipeline fields.
	Steps []PipelineStep `yaml:"steps,omitempty"`
}

// ResourceOperation is one capability a resource may support.
type ResourceOperation string

// Supported resource operations.
const (
	OpRead      ResourceOperation = "read"
	OpWrite     ResourceOperation = "write"
	OpSubscribe ResourceOperation = "subscribe"
)

// ResourceDef declares a URI-template-addressable resource.
type ResourceDef struct {
	URITemplate string              `yaml:"uri_template"`
	Handler     HandlerRef          `yaml:"handler"`
	Supports    []ResourceOperation `yaml:"supports,omitempty"`
}

// PromptDef declares a named, argument-templated prompt.
type PromptDef struct {
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Template    string                 `yaml:"template"`
	Arguments   map[string]ParamType   `yaml:"arguments,omitempty"`
}

// StateBackend selects a state store implementation.
type StateBackend string

// Supported state backends.
const (
	StateMemory     StateBackend = "memory"
	StatePersistent StateBackend = "persistent"
)

// StateDef is the manifest's optional `state:` binding.
type StateDef struct {
	Backend StateBackend   `yaml:"backend"`
	Path    string         `yaml:"path,omitempty"`
	Options map[string]any `yaml:"options,omitempty"`
}

// Manifest is the full, validated snapshot of a forge YAML manifest. It is
// immutable after Validate succeeds.
type Manifest struct {
	Forge     ForgeMetadata `yaml:"forge"`
	Tools     []ToolDef     `yaml:"tools,omitempty"`
	Resources []ResourceDef `yaml:"resources,omitempty"`
	Prompts   []PromptDef   `yaml:"prompts,omitempty"`
	State     *StateDef     `yaml:"state,omitempty"`
}

// applyDefaults fills in the manifest-level defaults spec.md §4.B specifies:
// transport=stdio, optimization=debug, error_policy=fail_fast per pipeline
// step, required=false for record-form params (handled in params.go).
func (m *Manifest) applyDefaults() {
	if m.Forge.Transport == "" {
		m.Forge.Transport = TransportStdio
	}
	if m.Forge.Optimization == "" {
		m.Forge.Optimization = OptimizationDebug
	}
	for i := range m.Tools {
		if m.Tools[i].Type == ToolPipeline {
			for j := range m.Tools[i].Steps {
				if m.Tools[i].Steps[j].ErrorPolicy == "" {
					m.Tools[i].Steps[j].ErrorPolicy = ErrorPolicyFailFast
				}
			}
		}
	}
}

func (k ToolType) valid() bool {
	switch k {
	case ToolNative, ToolCLI, ToolHTTP, ToolPipeline:
		return true
	default:
		return false
	}
}

func (k AuthKind) valid() bool {
	switch k {
	case AuthBearer, AuthBasic, AuthAPIKey:
		return true
	default:
		return false
	}
}

func (k HTTPMethod) valid() bool {
	switch k {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch:
		return true
	default:
		return false
	}
}

func fmtUnknownType(t ToolType) error {
	return fmt.Errorf("unknown tool type %q", string(t))
}
