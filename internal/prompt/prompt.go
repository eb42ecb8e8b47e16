// Package prompt implements the prompt-template renderer (SPEC_FULL.md
// §4.N): register once, render with required-argument enforcement and
// canonical stringification of {{name}} holes. Grounded on
// original_source/.../pforge-runtime/src/prompt.rs's PromptManager.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/paiml/forge-go/internal/config"
	"github.com/paiml/forge-go/internal/forgerr"
)

type entry struct {
	description string
	template    string
	arguments   map[string]config.ParamType
}

// Manager holds the registered prompt definitions for one server instance.
type Manager struct {
	mu      sync.RWMutex
	prompts map[string]entry
}

// New constructs an empty prompt manager.
func New() *Manager {
	return &Manager{prompts: make(map[string]entry)}
}

// Register adds a prompt definition. It fails if the name is already
// registered.
func (m *Manager) Register(def config.PromptDef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.prompts[def.Name]; exists {
		return forgerr.HandlerFailure(fmt.Sprintf("Prompt '%s' already registered", def.Name))
	}
	m.prompts[def.Name] = entry{
		description: def.Description,
		template:    def.Template,
		arguments:   def.Arguments,
	}
	return nil
}

// Render validates required arguments, substitutes every resolvable
// {{name}} hole, and fails if any hole remains unresolved.
func (m *Manager) Render(name string, args map[string]any) (string, error) {
	m.mu.RLock()
	e, ok := m.prompts[name]
	m.mu.RUnlock()
	if !ok {
		return "", forgerr.HandlerFailure(fmt.Sprintf("Prompt '%s' not found", name))
	}

	if err := validateRequired(e.arguments, args); err != nil {
		return "", err
	}

	return interpolate(e.template, args)
}

func validateRequired(arguments map[string]config.ParamType, args map[string]any) error {
	// Deterministic iteration order keeps the first-missing-argument error
	// message stable across runs.
	names := make([]string, 0, len(arguments))
	for name := range arguments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !arguments[name].Required {
			continue
		}
		if _, present := args[name]; !present {
			return forgerr.HandlerFailure(fmt.Sprintf("Required argument '%s' not provided", name))
		}
	}
	return nil
}

func interpolate(template string, args map[string]any) (string, error) {
	result := template
	for key, value := range args {
		placeholder := "{{" + key + "}}"
		replacement, err := stringify(value)
		if err != nil {
			return "", forgerr.Wrap(forgerr.KindSerializationFailure, "render prompt argument", err)
		}
		result = strings.ReplaceAll(result, placeholder, replacement)
	}

	if unresolved := unresolvedHoles(result); len(unresolved) > 0 {
		return "", forgerr.HandlerFailure("Unresolved template variables: " + strings.Join(unresolved, ", "))
	}
	return result, nil
}

func stringify(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

func unresolvedHoles(s string) []string {
	var names []string
	rest := s
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			break
		}
		rest = rest[start+2:]
		end := strings.Index(rest, "}}")
		if end < 0 {
			break
		}
		names = append(names, rest[:end])
		rest = rest[end+2:]
	}
	return names
}
