package config

import "gopkg.in/yaml.v3"

// SimpleKind is a bare primitive parameter kind.
type SimpleKind string

// Supported primitive kinds.
const (
	KindString  SimpleKind = "string"
	KindInteger SimpleKind = "integer"
	KindFloat   SimpleKind = "float"
	KindBoolean SimpleKind = "boolean"
	KindArray   SimpleKind = "array"
	KindObject  SimpleKind = "object"
)

func (k SimpleKind) valid() bool {
	switch k {
	case KindString, KindInteger, KindFloat, KindBoolean, KindArray, KindObject:
		return true
	default:
		return false
	}
}

// Validation carries the optional numeric/pattern/length bounds a record-form
// parameter may declare.
type Validation struct {
	Min       *float64 `yaml:"min,omitempty"`
	Max       *float64 `yaml:"max,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty"`
	MinLength *int     `yaml:"min_length,omitempty"`
	MaxLength *int     `yaml:"max_length,omitempty"`
}

// ParamType is a parameter schema entry: either a bare primitive kind
// (implicitly required) or a record with required/default/description/
// validation. Decoded via a custom UnmarshalYAML since YAML gives us no
// native sum-type support.
type ParamType struct {
	Kind        SimpleKind
	Required    bool
	Default     any
	Description string
	Validation  *Validation

	// bare records whether this entry was written as a scalar string
	// ("name: string") rather than a mapping ("name: {type: string, ...}").
	// Bare entries are implicitly required per spec.md §3.
	bare bool
}

// UnmarshalYAML implements the bare-scalar-or-record duality: try a plain
// scalar string first, then fall back to the record form.
func (p *ParamType) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var kind SimpleKind
		if err := value.Decode(&kind); err != nil {
			return err
		}
		if !kind.valid() {
			return errUnknownParamKind(string(kind))
		}
		*p = ParamType{Kind: kind, Required: true, bare: true}
		return nil
	}

	var record struct {
		Type        SimpleKind  `yaml:"type"`
		Required    bool        `yaml:"required"`
		Default     any         `yaml:"default"`
		Description string      `yaml:"description"`
		Validation  *Validation `yaml:"validation"`
	}
	if err := value.Decode(&record); err != nil {
		return err
	}
	if !record.Type.valid() {
		return errUnknownParamKind(string(record.Type))
	}
	*p = ParamType{
		Kind:        record.Type,
		Required:    record.Required,
		Default:     record.Default,
		Description: record.Description,
		Validation:  record.Validation,
	}
	return nil
}

// MarshalYAML writes the entry back in the form UnmarshalYAML reads: a bare
// scalar for bare entries, otherwise a record keyed by "type".
func (p ParamType) MarshalYAML() (any, error) {
	if p.bare {
		return string(p.Kind), nil
	}
	return struct {
		Type        SimpleKind  `yaml:"type"`
		Required    bool        `yaml:"required,omitempty"`
		Default     any         `yaml:"default,omitempty"`
		Description string      `yaml:"description,omitempty"`
		Validation  *Validation `yaml:"validation,omitempty"`
	}{p.Kind, p.Required, p.Default, p.Description, p.Validation}, nil
}

// ParamSchema is the keyed collection of parameter entries that make up a
// native tool's input schema.
type ParamSchema map[string]ParamType

func errUnknownParamKind(kind string) error {
	return &paramKindError{kind: kind}
}

type paramKindError struct{ kind string }

func (e *paramKindError) Error() string {
	return "unknown parameter kind: " + e.kind
}
