package handler

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// CompileSchema turns a schema descriptor map into a compiled
// jsonschema.Schema that ValidateJSON can check a raw JSON payload against.
// The registry stores descriptors uncompiled, and its dispatch path calls
// neither CompileSchema nor ValidateJSON: payloads are not validated against
// the registered descriptors.
func CompileSchema(name string, descriptor map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(descriptor)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema %s: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	resourceURL := "mem://forge/" + name + ".json"
	if err := c.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", name, err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return compiled, nil
}

// ValidateJSON validates raw JSON bytes against a compiled schema. A nil
// schema always validates.
func ValidateJSON(schema *jsonschema.Schema, raw []byte) error {
	if schema == nil {
		return nil
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return schema.Validate(doc)
}

// emptyObjectDescriptor is the canonical "empty object" schema (P6). A native
// tool bound through server.RegisterNative carries exactly this descriptor as
// its Output schema, since the manifest declares no output shape for native
// tools.
var emptyObjectDescriptor = map[string]any{"type": "object"}

// IsEmptyObjectSchema reports whether a descriptor is indistinguishable from
// the trivial empty-object schema.
func IsEmptyObjectSchema(descriptor map[string]any) bool {
	if len(descriptor) != len(emptyObjectDescriptor) {
		return false
	}
	for k, v := range emptyObjectDescriptor {
		if descriptor[k] != v {
			return false
		}
	}
	return true
}
