package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/brizzai/netcall/internal/params"
	"github.com/getkin/kin-openapi/openapi3"
)

// ErrNoResponseSchema is returned when an operation declares no success
// body schema.
var ErrNoResponseSchema = errors.New("operation has no response schema")

// maxSchemaDepth bounds inlining of recursive component schemas
const maxSchemaDepth = 16

// ResponseSchema returns the success body schema of operation id as a
// standalone JSON Schema document with references inlined.
func (p *SwaggerParser) ResponseSchema(id string) ([]byte, error) {
	op, err := p.Operation(id)
	if err != nil {
		return nil, err
	}

	content := successContent(op.operation)
	media := content.Get(mediaJSON)
	if media == nil {
		for _, m := range content {
			media = m
			break
		}
	}
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrNoResponseSchema)
	}

	return json.Marshal(jsonSchema(media.Schema, 0))
}

// jsonSchema converts an OpenAPI schema into a JSON Schema map
func jsonSchema(schema *openapi3.SchemaRef, depth int) map[string]any {
	out := make(map[string]any)
	if schema == nil || schema.Value == nil || depth > maxSchemaDepth {
		return out
	}
	s := schema.Value

	if s.Type != nil && len(s.Type.Slice()) > 0 {
		types := append([]string{}, s.Type.Slice()...)
		if s.Nullable {
			types = append(types, "null")
		}
		if len(types) == 1 {
			out["type"] = types[0]
		} else {
			out["type"] = types
		}
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}

	if s.Type != nil {
		switch {
		case s.Type.Includes(openapi3.TypeString):
			if s.MaxLength != nil {
				out["maxLength"] = *s.MaxLength
			}
			if s.MinLength != 0 {
				out["minLength"] = s.MinLength
			}
			if s.Pattern != "" {
				out["pattern"] = s.Pattern
			}
		case s.Type.Includes(openapi3.TypeNumber) || s.Type.Includes(openapi3.TypeInteger):
			if s.Max != nil {
				out["maximum"] = *s.Max
			}
			if s.Min != nil {
				out["minimum"] = *s.Min
			}
			if s.MultipleOf != nil {
				out["multipleOf"] = *s.MultipleOf
			}
		}
	}

	if s.Items != nil {
		out["items"] = jsonSchema(s.Items, depth+1)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = jsonSchema(prop, depth+1)
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.AdditionalProperties.Has != nil && !*s.AdditionalProperties.Has {
		out["additionalProperties"] = false
	} else if s.AdditionalProperties.Schema != nil {
		out["additionalProperties"] = jsonSchema(s.AdditionalProperties.Schema, depth+1)
	}

	for key, list := range map[string]openapi3.SchemaRefs{"allOf": s.AllOf, "anyOf": s.AnyOf, "oneOf": s.OneOf} {
		if len(list) == 0 {
			continue
		}
		converted := make([]any, 0, len(list))
		for _, item := range list {
			converted = append(converted, jsonSchema(item, depth+1))
		}
		out[key] = converted
	}

	return out
}

// Coerce converts a raw command line value for parameter name of operation
// id into a typed value, using the parameter or request body property
// schema. Values that do not parse as the declared type stay strings.
func (p *SwaggerParser) Coerce(id, name, raw string) params.Value {
	op, err := p.Operation(id)
	if err != nil {
		return params.String(raw)
	}
	return coerceValue(parameterSchema(op, name), raw)
}

func parameterSchema(op *Operation, name string) *openapi3.Schema {
	for _, param := range op.operation.Parameters {
		if param != nil && param.Value != nil && param.Value.Name == name && param.Value.Schema != nil {
			return param.Value.Schema.Value
		}
	}
	body, _ := getFirstBodySchema(op.operation)
	if body == nil || body.Value == nil {
		return nil
	}
	if prop, ok := body.Value.Properties[name]; ok && prop != nil {
		return prop.Value
	}
	return nil
}

func coerceValue(schema *openapi3.Schema, raw string) params.Value {
	if schema == nil || schema.Type == nil {
		return params.String(raw)
	}

	switch {
	case schema.Type.Includes(openapi3.TypeInteger):
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return params.Int(i)
		}
	case schema.Type.Includes(openapi3.TypeNumber):
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return params.Float(f)
		}
	case schema.Type.Includes(openapi3.TypeBoolean):
		if b, err := strconv.ParseBool(raw); err == nil {
			return params.Bool(b)
		}
	case schema.Type.Includes(openapi3.TypeObject) || schema.Type.Includes(openapi3.TypeArray):
		var v params.Value
		if err := json.Unmarshal([]byte(raw), &v); err == nil && v.Valid() {
			return v
		}
	}
	return params.String(raw)
}

// getFirstBodySchema returns the request body schema, merging properties
// when several media types are declared
func getFirstBodySchema(operation *openapi3.Operation) (*openapi3.SchemaRef, bool) {
	if operation == nil || operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return nil, false
	}
	content := operation.RequestBody.Value.Content

	if len(content) == 0 {
		return nil, false
	}

	if len(content) == 1 {
		for _, mediaType := range content {
			return mediaType.Schema, operation.RequestBody.Value.Required
		}
	}

	merged := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: make(openapi3.Schemas),
		},
	}
	for _, mediaType := range content {
		if mediaType.Schema != nil && mediaType.Schema.Value != nil {
			for propName, propSchema := range mediaType.Schema.Value.Properties {
				merged.Value.Properties[propName] = propSchema
			}
		}
	}

	return merged, operation.RequestBody.Value.Required
}
