package prompt_test

import (
	"testing"

	"github.com/paiml/forge-go/internal/config"
	"github.com/paiml/forge-go/internal/forgerr"
	"github.com/paiml/forge-go/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func greetingDef() config.PromptDef {
	return config.PromptDef{
		Name:        "greeting",
		Description: "greets someone",
		Template:    "Hello {{name}}!",
		Arguments: map[string]config.ParamType{
			"name": {Kind: config.KindString, Required: true},
		},
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	m := prompt.New()
	require.NoError(t, m.Register(greetingDef()))

	err := m.Register(greetingDef())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRenderUnknownPromptFails(t *testing.T) {
	m := prompt.New()
	_, err := m.Render("missing", nil)
	require.Error(t, err)
	var fe *forgerr.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, forgerr.KindHandlerFailure, fe.Kind)
}

// S6: "Hello {{name}}!" with required name, rendered with
// {name:"Alice", age:30} -> "Hello Alice!"; rendered with {} ->
// HandlerFailure("Required argument ...").
func TestScenarioS6RendersWithExtraArgs(t *testing.T) {
	m := prompt.New()
	require.NoError(t, m.Register(greetingDef()))

	out, err := m.Render("greeting", map[string]any{"name": "Alice", "age": float64(30)})
	require.NoError(t, err)
	assert.Equal(t, "Hello Alice!", out)
}

func TestScenarioS6MissingRequiredArgument(t *testing.T) {
	m := prompt.New()
	require.NoError(t, m.Register(greetingDef()))

	_, err := m.Render("greeting", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Required argument 'name' not provided")
}

func TestUnresolvedHolesReported(t *testing.T) {
	m := prompt.New()
	require.NoError(t, m.Register(config.PromptDef{
		Name:     "multi",
		Template: "Hello {{name}}, welcome to {{place}}.",
	}))

	_, err := m.Render("multi", map[string]any{"name": "Alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unresolved template variables: place")
}

func TestCanonicalStringification(t *testing.T) {
	m := prompt.New()
	require.NoError(t, m.Register(config.PromptDef{
		Name:     "types",
		Template: "str={{s}} num={{n}} bool={{b}} null={{z}} arr={{a}}",
	}))

	out, err := m.Render("types", map[string]any{
		"s": "x",
		"n": float64(42),
		"b": true,
		"z": nil,
		"a": []any{float64(1), float64(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, "str=x num=42 bool=true null= arr=[1,2]", out)
}
