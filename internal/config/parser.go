package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseError is returned when a manifest document fails to decode, either
// because of malformed YAML or because it carries unknown top-level keys.
type ParseError struct {
	Detail string
}

func (e *ParseError) Error() string { return "parse error: " + e.Detail }

// rawManifest mirrors Manifest but rejects unknown top-level keys per
// SPEC_FULL.md §6 ("Unknown keys at the top level reject with ParseError").
type rawManifest struct {
	Forge     ForgeMetadata `yaml:"forge"`
	Tools     []ToolDef     `yaml:"tools"`
	Resources []ResourceDef `yaml:"resources"`
	Prompts   []PromptDef   `yaml:"prompts"`
	State     *StateDef     `yaml:"state"`
}

// Parse decodes a forge YAML manifest into a Manifest, applying the
// manifest-level defaults (transport=stdio, optimization=debug,
// error_policy=fail_fast). It does not validate cross-references (I1–I5);
// call Validate for that. Parse never returns a partially populated
// manifest: on any error the returned *Manifest is nil.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw rawManifest
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{Detail: err.Error()}
	}
	if raw.Forge.Name == "" {
		return nil, &ParseError{Detail: "forge.name is required"}
	}
	if raw.Forge.Version == "" {
		return nil, &ParseError{Detail: "forge.version is required"}
	}
	for i, t := range raw.Tools {
		if err := checkVariantShape(t); err != nil {
			return nil, &ParseError{Detail: fmt.Sprintf("tools[%d] (%s): %v", i, t.Name, err)}
		}
	}

	m := &Manifest{
		Forge:     raw.Forge,
		Tools:     raw.Tools,
		Resources: raw.Resources,
		Prompts:   raw.Prompts,
		State:     raw.State,
	}
	m.applyDefaults()
	return m, nil
}

// checkVariantShape rejects a tool definition whose Type discriminator
// doesn't resolve to one of the four known variants. Per-variant *required*
// field presence (e.g. a CLI tool must carry a command) is left to Validate,
// which produces a richer ValidationError; this only guards against a typo'd
// or missing `type` key producing a silently-empty tool.
func checkVariantShape(t ToolDef) error {
	if t.Name == "" {
		return fmt.Errorf("missing name")
	}
	if !t.Type.valid() {
		return fmtUnknownType(t.Type)
	}
	return nil
}
