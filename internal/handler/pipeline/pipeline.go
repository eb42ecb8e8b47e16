// Package pipeline implements the multi-step orchestrator (SPEC_FULL.md
// §4.H): a sequence of named tool invocations sharing a variable store, with
// condition-gated skipping, template interpolation, and per-step error
// policy. Grounded directly on
// original_source/.../pforge-runtime/src/handlers/pipeline.rs, with the
// step-sequencing/result-record idiom matching
// re-cinq-wave/internal/pipeline/executor.go.
package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/paiml/forge-go/internal/config"
	"github.com/paiml/forge-go/internal/forgerr"
)

// maxDepth bounds pipeline-calling-pipeline recursion. The manifest format
// has no cycle detection at load time (I3 allows forward references and
// explicitly defers cycle handling to runtime); this guard is what actually
// prevents an accidental or malicious self-referencing pipeline from
// recursing forever.
const maxDepth = 32

type depthKey struct{}

func depthFrom(ctx context.Context) int {
	if d, ok := ctx.Value(depthKey{}).(int); ok {
		return d
	}
	return 0
}

// Dispatcher is the subset of registry.Registry the pipeline runner needs:
// dispatching a named step's raw JSON payload. Declared locally to avoid an
// import cycle with internal/registry.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, payload []byte) ([]byte, error)
}

// Handler runs a fixed, manifest-declared sequence of steps against a
// shared registry.
type Handler struct {
	Steps    []config.PipelineStep
	Registry Dispatcher
}

// Input is the pipeline's starting variable store.
type Input struct {
	Variables map[string]any `json:"variables,omitempty"`
}

// Output is the pipeline's final result: the ordered per-step record list
// and the final variable store.
type Output struct {
	Results   []StepResult   `json:"results"`
	Variables map[string]any `json:"variables"`
}

// StepResult records one step's outcome. Skipped steps (condition false)
// produce no StepResult at all.
type StepResult struct {
	Tool    string `json:"tool"`
	Success bool   `json:"success"`
	Output  any    `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handle implements handler.Handler[Input, Output].
func (h Handler) Handle(ctx context.Context, in Input) (Output, error) {
	depth := depthFrom(ctx)
	if depth >= maxDepth {
		return Output{}, forgerr.New(forgerr.KindHandlerFailure, "pipeline recursion depth exceeded")
	}
	ctx = context.WithValue(ctx, depthKey{}, depth+1)

	variables := map[string]any{}
	for k, v := range in.Variables {
		variables[k] = v
	}
	results := make([]StepResult, 0, len(h.Steps))

	for _, step := range h.Steps {
		if step.Condition != "" && !evaluateCondition(step.Condition, variables) {
			continue
		}

		var stepInput any = map[string]any{}
		if step.Input != nil {
			stepInput = interpolate(step.Input, variables)
		}

		payload, err := json.Marshal(stepInput)
		if err != nil {
			return Output{}, forgerr.Wrap(forgerr.KindSerializationFailure, "encode step input for "+step.Tool, err)
		}

		raw, err := h.Registry.Dispatch(ctx, step.Tool, payload)
		if err != nil {
			result := StepResult{Tool: step.Tool, Success: false, Error: err.Error()}
			if step.ErrorPolicy == config.ErrorPolicyFailFast {
				results = append(results, result)
				return Output{Results: results, Variables: variables}, err
			}
			results = append(results, result)
			continue
		}

		var output any
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &output); err != nil {
				return Output{}, forgerr.Wrap(forgerr.KindSerializationFailure, "decode step output for "+step.Tool, err)
			}
		}
		if step.OutputVar != "" {
			variables[step.OutputVar] = output
		}
		results = append(results, StepResult{Tool: step.Tool, Success: true, Output: output})
	}

	return Output{Results: results, Variables: variables}, nil
}

// evaluateCondition implements the minimal grammar: bare name = present,
// leading "!" = absent.
func evaluateCondition(condition string, variables map[string]any) bool {
	if name, negated := strings.CutPrefix(condition, "!"); negated {
		_, present := variables[name]
		return !present
	}
	_, present := variables[condition]
	return present
}

// interpolate deep-copies template, substituting "{{name}}" holes in string
// leaves with the string form of variables[name]. Holes whose variable is
// missing, or whose variable isn't itself a string, are left intact.
// Arrays and objects are traversed recursively; non-string, non-composite
// leaves pass through unchanged.
func interpolate(template any, variables map[string]any) any {
	switch v := template.(type) {
	case string:
		result := v
		for name, value := range variables {
			s, ok := value.(string)
			if !ok {
				continue
			}
			result = strings.ReplaceAll(result, "{{"+name+"}}", s)
		}
		return result
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = interpolate(val, variables)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = interpolate(val, variables)
		}
		return out
	default:
		return v
	}
}
