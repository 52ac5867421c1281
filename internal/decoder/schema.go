package decoder

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/brizzai/netcall/internal/neterror"
	"github.com/xeipuuv/gojsonschema"
)

const schemaRoot = "(root)"

// Schema validates bodies against a JSON Schema before unmarshaling them.
// Use it when the contract lives in a schema document rather than in the Go
// type.
type Schema struct {
	schema *gojsonschema.Schema
}

// NewSchema compiles a JSON Schema document.
func NewSchema(document []byte) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// NewSchemaFile compiles the JSON Schema stored at path.
func NewSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return NewSchema(data)
}

func (s *Schema) Decode(data []byte, v any) error {
	if !json.Valid(data) {
		var probe any
		return corrupted(json.Unmarshal(data, &probe))
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return neterror.NewDecodeError(neterror.DataCorrupted, "", err.Error())
	}
	if !result.Valid() {
		return schemaError(result.Errors()[0])
	}

	if err := json.Unmarshal(data, v); err != nil {
		return translate(err)
	}
	return nil
}

func schemaError(re gojsonschema.ResultError) error {
	path := schemaPath(re.Field())
	switch re.Type() {
	case "required":
		// Some releases already include the property in the context
		property, _ := re.Details()["property"].(string)
		if property != "" && path != property && !strings.HasSuffix(path, "."+property) {
			path = neterror.JoinPath(path, property)
		}
		return neterror.NewDecodeError(neterror.KeyNotFound, path, re.Description())
	case "invalid_type":
		if given, _ := re.Details()["given"].(string); given == "null" {
			return neterror.NewDecodeError(neterror.ValueNotFound, path, re.Description())
		}
		return neterror.NewDecodeError(neterror.TypeMismatch, path, re.Description())
	default:
		return neterror.NewDecodeError(neterror.DataCorrupted, path, re.Description())
	}
}

func schemaPath(field string) string {
	if field == schemaRoot {
		return ""
	}
	return strings.TrimPrefix(field, schemaRoot+".")
}
