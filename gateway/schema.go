package gateway

import (
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/seoscope/searchconsole-mcp/mcp"
)

// emptyObjectSchema is the schema for tools that take no arguments.
func emptyObjectSchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           map[string]mcp.SchemaProperty{},
		AdditionalProperties: true,
	}
}

// reflectInputSchema reflects a Go argument struct into the simplified MCP
// input schema. Unknown fields are tolerated at runtime, so the schema leaves
// additionalProperties open.
func reflectInputSchema[A any]() mcp.ToolInputSchema {
	// Fieldless structs short-circuit: the reflector cannot expand a struct
	// that contributes no definition.
	if t := reflect.TypeFor[A](); t.Kind() == reflect.Struct && t.NumField() == 0 {
		return emptyObjectSchema()
	}

	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(new(A))

	if s == nil || s.Type != "object" {
		return emptyObjectSchema()
	}

	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}

	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: true,
	}
}

// toProperty recursively maps a jsonschema node to the simplified property
// shape.
func toProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Default != nil {
		p.Default = s.Default
	}
	if s.Type == "array" && s.Items != nil {
		item := toProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toProperty(el.Value)
		}
		p.Properties = m
		if len(s.Required) > 0 {
			p.Required = append(p.Required, s.Required...)
		}
	}
	return p
}
