package config

// JSONSchema renders a ParamSchema as a draft-2020-12 JSON-schema descriptor
// map, the form internal/handler.CompileSchema and the registry's schema
// introspection (§4.E) expect. Only the subset of keywords the manifest
// format actually exposes is emitted.
func (ps ParamSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(ps))
	var required []string

	for name, p := range ps {
		props[name] = p.jsonSchema()
		if p.Required {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (p ParamType) jsonSchema() map[string]any {
	s := map[string]any{"type": jsonType(p.Kind)}
	if p.Description != "" {
		s["description"] = p.Description
	}
	if p.Default != nil {
		s["default"] = p.Default
	}
	if v := p.Validation; v != nil {
		if v.Min != nil {
			s["minimum"] = *v.Min
		}
		if v.Max != nil {
			s["maximum"] = *v.Max
		}
		if v.Pattern != "" {
			s["pattern"] = v.Pattern
		}
		if v.MinLength != nil {
			s["minLength"] = *v.MinLength
		}
		if v.MaxLength != nil {
			s["maxLength"] = *v.MaxLength
		}
	}
	return s
}

func jsonType(k SimpleKind) string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "string"
	}
}
