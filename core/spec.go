package core

import "sort"

// Param describes a single tool parameter.
type Param struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// ToolSpec advertises a callable capability to the model backend: a unique
// name, a human-readable description and a parameter schema. Specs are
// immutable after registry construction.
type ToolSpec struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Parameters  map[string]Param `json:"parameters"`
}

// JSONSchema renders the parameter schema as a JSON-Schema object suitable
// for schema validation and for provider tool definitions. Unknown argument
// keys are rejected so that extra fields surface as validation errors.
func (s ToolSpec) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Parameters))
	required := make([]string, 0, len(s.Parameters))

	for name, p := range s.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[name] = prop
		if p.Required {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		sort.Strings(required)
		schema["required"] = required
	}

	return schema
}
