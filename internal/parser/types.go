package parser

import (
	"io"

	"github.com/brizzai/netcall/internal/params"
	"github.com/brizzai/netcall/internal/request"
	"github.com/getkin/kin-openapi/openapi3"
)

// Operation is one callable OpenAPI operation
type Operation struct {
	ID          string
	Method      request.HTTPMethod
	Path        string
	Description string
	ContentType request.ContentType

	PathParams   []string
	QueryParams  []string
	HeaderParams []string

	operation *openapi3.Operation
}

// Parser handles parsing of Swagger/OpenAPI specifications
type Parser interface {
	// Init parses a Swagger/OpenAPI specification from a file, narrowed by an
	// optional selection file
	Init(openAPISpec string, selectionFile string) error
	// ParseReader parses a Swagger/OpenAPI specification from a reader
	ParseReader(reader io.Reader) error
	// Operations returns the parsed operations ordered by path and method
	Operations() []*Operation
	// Endpoint builds a request descriptor for an operation
	Endpoint(id string, baseURL string, values *params.Map, opts ...request.Option) (*request.Endpoint, error)
	// ResponseSchema returns the JSON Schema of the operation's success body
	ResponseSchema(id string) ([]byte, error)
	// Coerce types a raw command line value using the operation's schemas
	Coerce(id, name, raw string) params.Value
}

// SwaggerParser parses Swagger specifications into operations
type SwaggerParser struct {
	doc        *openapi3.T
	operations []*Operation
	adjuster   *Adjuster
}
