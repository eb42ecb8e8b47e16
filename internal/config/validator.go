package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/paiml/forge-go/internal/uritemplate"
)

// DuplicateToolNameError is returned when I1 (tool-name uniqueness) is
// violated.
type DuplicateToolNameError struct{ Name string }

func (e *DuplicateToolNameError) Error() string {
	return fmt.Sprintf("duplicate tool name: %s", e.Name)
}

// InvalidHandlerPathError is returned when I2 (native handler path shape) is
// violated.
type InvalidHandlerPathError struct{ Path string }

func (e *InvalidHandlerPathError) Error() string {
	return fmt.Sprintf("invalid handler path: %q (expected form segment::...::segment)", e.Path)
}

// ValidationError wraps any other structural violation (P4's naming
// pattern, a missing per-variant field, an unresolved pipeline reference, an
// uncompilable resource template).
type ValidationError struct{ Detail string }

func (e *ValidationError) Error() string { return "validation error: " + e.Detail }

// toolNamePattern is P4: every loaded tool name must satisfy this pattern.
var toolNamePattern = regexp.MustCompile(`^[a-z0-9_-]{1,50}$`)

// Validate enforces invariants I1–I4 against a parsed Manifest (I5 is
// checked at render time, see below). It never
// mutates the manifest; on success the manifest is considered frozen and
// safe to hand to the server orchestrator.
func Validate(m *Manifest) error {
	if m == nil {
		return &ValidationError{Detail: "nil manifest"}
	}

	seen := make(map[string]struct{}, len(m.Tools))
	for _, t := range m.Tools {
		if !toolNamePattern.MatchString(t.Name) {
			return &ValidationError{Detail: fmt.Sprintf("tool name %q does not match ^[a-z0-9_-]{1,50}$", t.Name)}
		}
		if _, dup := seen[t.Name]; dup {
			return &DuplicateToolNameError{Name: t.Name}
		}
		seen[t.Name] = struct{}{}
	}

	for _, t := range m.Tools {
		if err := validateVariant(t); err != nil {
			return err
		}
	}

	for _, t := range m.Tools {
		if t.Type != ToolPipeline {
			continue
		}
		for _, step := range t.Steps {
			if _, ok := seen[step.Tool]; !ok {
				return &ValidationError{Detail: fmt.Sprintf(
					"pipeline %q step references unknown tool %q", t.Name, step.Tool)}
			}
		}
	}

	for _, r := range m.Resources {
		if _, _, err := uritemplate.Compile(r.URITemplate); err != nil {
			return &ValidationError{Detail: fmt.Sprintf("resource %q: %v", r.URITemplate, err)}
		}
	}

	// Required prompt arguments (I5) are enforced at render time by
	// internal/prompt, not at load time — a manifest may declare a prompt
	// before any caller ever supplies its arguments.

	return nil
}

func validateVariant(t ToolDef) error {
	switch t.Type {
	case ToolNative:
		if t.Handler == nil || strings.TrimSpace(t.Handler.Path) == "" {
			return &InvalidHandlerPathError{Path: ""}
		}
		if !strings.Contains(t.Handler.Path, "::") {
			return &InvalidHandlerPathError{Path: t.Handler.Path}
		}
	case ToolCLI:
		if t.Command == "" {
			return &ValidationError{Detail: fmt.Sprintf("cli tool %q missing command", t.Name)}
		}
	case ToolHTTP:
		if t.Endpoint == "" {
			return &ValidationError{Detail: fmt.Sprintf("http tool %q missing endpoint", t.Name)}
		}
		if !t.Method.valid() {
			return &ValidationError{Detail: fmt.Sprintf("http tool %q has invalid method %q", t.Name, t.Method)}
		}
		if t.Auth != nil && !t.Auth.Type.valid() {
			return &ValidationError{Detail: fmt.Sprintf("http tool %q has invalid auth type %q", t.Name, t.Auth.Type)}
		}
	case ToolPipeline:
		if len(t.Steps) == 0 {
			return &ValidationError{Detail: fmt.Sprintf("pipeline %q has no steps", t.Name)}
		}
		for _, s := range t.Steps {
			if s.Tool == "" {
				return &ValidationError{Detail: fmt.Sprintf("pipeline %q has a step with no tool", t.Name)}
			}
			if s.ErrorPolicy != ErrorPolicyFailFast && s.ErrorPolicy != ErrorPolicyContinue {
				return &ValidationError{Detail: fmt.Sprintf(
					"pipeline %q step %q has invalid error_policy %q", t.Name, s.Tool, s.ErrorPolicy)}
			}
		}
	}
	return nil
}
