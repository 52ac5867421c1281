package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/brizzai/netcall/internal/logger"
	"github.com/brizzai/netcall/internal/params"
	"github.com/brizzai/netcall/internal/request"
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Package parser turns OpenAPI/Swagger definitions into request descriptors.

const (
	mediaFormData       = "multipart/form-data"
	mediaFormURLEncoded = "application/x-www-form-urlencoded"
	mediaJSON           = "application/json"
)

// NewSwaggerParser creates a new SwaggerParser instance
func NewSwaggerParser(adjuster *Adjuster) *SwaggerParser {
	if adjuster == nil {
		adjuster = NewAdjuster()
	}
	return &SwaggerParser{
		operations: make([]*Operation, 0),
		adjuster:   adjuster,
	}
}

// Operations returns the parsed operations
func (p *SwaggerParser) Operations() []*Operation {
	return p.operations
}

// Operation looks an operation up by id
func (p *SwaggerParser) Operation(id string) (*Operation, error) {
	for _, op := range p.operations {
		if op.ID == id {
			return op, nil
		}
	}
	return nil, fmt.Errorf("unknown operation %q", id)
}

// Init parses a Swagger/OpenAPI specification from a file
func (p *SwaggerParser) Init(openAPISpec string, selectionFile string) error {
	data, err := os.ReadFile(openAPISpec)
	if err != nil {
		return fmt.Errorf("failed to read spec file: %w", err)
	}
	if err := p.adjuster.Load(selectionFile); err != nil {
		return fmt.Errorf("failed to load selection file: %w", err)
	}

	if err := p.detectAndParseOpenAPI(data); err != nil {
		return err
	}

	return p.processOperations()
}

// ParseReader parses a Swagger/OpenAPI specification from a reader
func (p *SwaggerParser) ParseReader(reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read swagger spec: %w", err)
	}

	if err := p.detectAndParseOpenAPI(data); err != nil {
		return err
	}

	return p.processOperations()
}

// detectAndParseOpenAPI parses data as either OpenAPI 2.0 or 3.x, in JSON
// or YAML form
func (p *SwaggerParser) detectAndParseOpenAPI(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		if yamlErr := yaml.Unmarshal(data, &raw); yamlErr != nil {
			return fmt.Errorf("invalid OpenAPI document: %w", yamlErr)
		}
	}
	if raw == nil {
		return fmt.Errorf("failed to parse OpenAPI spec: document is empty")
	}

	swaggerVersion, hasSwagger := raw["swagger"]
	openapiVersion, hasOpenAPI := raw["openapi"]

	if !hasSwagger && !hasOpenAPI {
		return fmt.Errorf("document is missing 'swagger' or 'openapi' version field")
	}

	if hasSwagger {
		doc, err := p.convertOpenAPI2to3(raw, swaggerVersion)
		if err != nil {
			return err
		}
		p.doc = doc
		return nil
	}

	if ver, ok := openapiVersion.(string); !ok || !strings.HasPrefix(ver, "3.") {
		return fmt.Errorf("unsupported OpenAPI version: %v", openapiVersion)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		logger.Error("Failed to parse OpenAPI 3 spec", zap.Error(err))
		return fmt.Errorf("failed to parse OpenAPI spec: %w", err)
	}

	logger.Debug("Parsed OpenAPI 3 spec", zap.String("version", doc.OpenAPI))
	p.doc = doc
	return nil
}

// convertOpenAPI2to3 converts an OpenAPI 2.0 specification to OpenAPI 3.0
func (p *SwaggerParser) convertOpenAPI2to3(raw map[string]any, swaggerVersion any) (*openapi3.T, error) {
	data, err := json.Marshal(stringKeys(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI 2.0 spec: %w", err)
	}

	var swagger2Doc openapi2.T
	if err := json.Unmarshal(data, &swagger2Doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI 2.0 spec: %w", err)
	}

	if swagger2Doc.Swagger != "2.0" {
		return nil, fmt.Errorf("unsupported Swagger version: %v", swaggerVersion)
	}

	logger.Debug("Detected OpenAPI 2.0 spec, converting to OpenAPI 3.0")
	doc, err := openapi2conv.ToV3(&swagger2Doc)
	if err != nil {
		logger.Error("Failed to convert OpenAPI 2.0 to 3.0", zap.Error(err))
		return nil, fmt.Errorf("failed to convert OpenAPI 2.0 to 3.0: %w", err)
	}
	return doc, nil
}

// stringKeys rewrites the map[any]any values YAML produces for mappings
// with non-string keys, such as unquoted response codes.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = stringKeys(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = stringKeys(item)
		}
		return out
	default:
		return v
	}
}

// processOperations collects the selected operations in path order
func (p *SwaggerParser) processOperations() error {
	p.operations = p.operations[:0]
	if p.doc.Paths == nil {
		return nil
	}

	pathItems := p.doc.Paths.Map()
	paths := make([]string, 0, len(pathItems))
	for path := range pathItems {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	seen := make(map[string]string)
	for _, path := range paths {
		pathItem := pathItems[path]
		httpMethods := []struct {
			Method    request.HTTPMethod
			Operation *openapi3.Operation
		}{
			{request.MethodGet, pathItem.Get},
			{request.MethodPost, pathItem.Post},
			{request.MethodPut, pathItem.Put},
			{request.MethodDelete, pathItem.Delete},
		}
		if pathItem.Patch != nil {
			logger.Debug("Skipping unsupported method", zap.String("path", path), zap.String("method", "PATCH"))
		}

		for _, httpMethod := range httpMethods {
			if httpMethod.Operation == nil || !p.adjuster.Selected(path, string(httpMethod.Method)) {
				continue
			}
			op := p.createOperation(path, httpMethod.Method, pathItem, httpMethod.Operation)
			if prev, ok := seen[op.ID]; ok {
				return fmt.Errorf("duplicate operation id %q on %s and %s %s", op.ID, prev, op.Method, op.Path)
			}
			seen[op.ID] = string(op.Method) + " " + op.Path
			p.operations = append(p.operations, op)
		}
	}

	return nil
}

// createOperation collects what Endpoint needs from a path and operation
func (p *SwaggerParser) createOperation(path string, method request.HTTPMethod, item *openapi3.PathItem, operation *openapi3.Operation) *Operation {
	op := &Operation{
		ID:          operation.OperationID,
		Method:      method,
		Path:        path,
		ContentType: requestContentType(operation),
		operation:   operation,
	}
	if op.ID == "" {
		op.ID = generateID(method, path)
	}

	var desc string
	if operation.Description != "" {
		desc = operation.Description
	} else if operation.Summary != "" {
		desc = operation.Summary
	}
	op.Description = p.adjuster.Description(path, string(method), desc)

	for _, param := range mergeParameters(item.Parameters, operation.Parameters) {
		switch param.In {
		case openapi3.ParameterInPath:
			op.PathParams = append(op.PathParams, param.Name)
		case openapi3.ParameterInQuery:
			op.QueryParams = append(op.QueryParams, param.Name)
		case openapi3.ParameterInHeader:
			op.HeaderParams = append(op.HeaderParams, param.Name)
		}
	}
	// Placeholders without a declared parameter still need a value
	for _, name := range extractPathParams(path) {
		if !contains(op.PathParams, name) {
			op.PathParams = append(op.PathParams, name)
		}
	}

	return op
}

// generateID derives an id like get_api_users_id from method and path
func generateID(method request.HTTPMethod, path string) string {
	path = strings.TrimPrefix(path, "/")
	path = strings.ReplaceAll(path, "/", "_")
	path = strings.ReplaceAll(path, "{", "")
	path = strings.ReplaceAll(path, "}", "")
	return strings.ToLower(fmt.Sprintf("%s_%s", method, path))
}

// mergeParameters lets operation parameters override path item ones with
// the same name and location
func mergeParameters(common, specific openapi3.Parameters) []*openapi3.Parameter {
	var out []*openapi3.Parameter
	index := make(map[string]int)
	for _, list := range []openapi3.Parameters{common, specific} {
		for _, ref := range list {
			if ref == nil || ref.Value == nil {
				continue
			}
			key := ref.Value.In + ":" + ref.Value.Name
			if i, ok := index[key]; ok {
				out[i] = ref.Value
				continue
			}
			index[key] = len(out)
			out = append(out, ref.Value)
		}
	}
	return out
}

// requestContentType picks the body encoding from the request body media
// types, preferring multipart, then url-encoded, then JSON
func requestContentType(operation *openapi3.Operation) request.ContentType {
	if operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return request.JSON
	}
	content := operation.RequestBody.Value.Content
	switch {
	case content.Get(mediaFormData) != nil:
		return request.FormData("")
	case content.Get(mediaFormURLEncoded) != nil:
		return request.FormURLEncoded
	default:
		return request.JSON
	}
}

// extractPathParams extracts path parameters from a URL path
func extractPathParams(path string) []string {
	var names []string
	parts := strings.Split(path, "/")
	for _, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			names = append(names, strings.TrimSuffix(strings.TrimPrefix(part, "{"), "}"))
		}
	}
	return names
}

// Endpoint builds a descriptor for the operation id. Path placeholders,
// header parameters and, for body methods, query parameters are taken out
// of values; what remains becomes the descriptor's parameters. baseURL
// overrides the document's first server.
func (p *SwaggerParser) Endpoint(id string, baseURL string, values *params.Map, opts ...request.Option) (*request.Endpoint, error) {
	op, err := p.Operation(id)
	if err != nil {
		return nil, err
	}

	base, err := p.serverURL(baseURL)
	if err != nil {
		return nil, err
	}

	remaining := values.Clone()
	path := op.Path
	for _, name := range op.PathParams {
		s, err := take(remaining, name)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, fmt.Errorf("missing path parameter %q for %s", name, op.ID)
		}
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(*s))
	}

	headers := make(map[string]string)
	for _, name := range op.HeaderParams {
		s, err := take(remaining, name)
		if err != nil {
			return nil, err
		}
		if s != nil {
			headers[name] = *s
		}
	}
	if accept := acceptType(op.operation); accept != "" {
		headers["Accept"] = accept
	}

	// Body methods cannot carry parameters in the query, so declared query
	// parameters ride in the path
	if op.Method.CarriesBody() {
		query := url.Values{}
		for _, name := range op.QueryParams {
			s, err := take(remaining, name)
			if err != nil {
				return nil, err
			}
			if s != nil {
				query.Set(name, *s)
			}
		}
		if len(query) > 0 {
			path += "?" + query.Encode()
		}
	}

	contentType := op.ContentType
	if contentType.IsFormData() {
		contentType = request.FormData("")
	}

	endpointOpts := []request.Option{
		request.WithScheme(base.Scheme),
		request.WithMethod(op.Method),
		request.WithHeaders(headers),
		request.WithParams(remaining),
		request.WithContentType(contentType),
	}
	endpointOpts = append(endpointOpts, opts...)

	return request.New(base.Host, strings.TrimSuffix(base.Path, "/")+path, endpointOpts...), nil
}

// take removes key from m and returns its string form, or nil when absent
func take(m *params.Map, key string) (*string, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, nil
	}
	m.Delete(key)
	s, ok := params.Stringify(v)
	if !ok {
		return nil, fmt.Errorf("parameter %q has no string form", key)
	}
	return &s, nil
}

// serverURL resolves the base URL, substituting server variable defaults
func (p *SwaggerParser) serverURL(override string) (*url.URL, error) {
	raw := override
	if raw == "" && p.doc != nil && len(p.doc.Servers) > 0 {
		server := p.doc.Servers[0]
		raw = server.URL
		for name, variable := range server.Variables {
			if variable != nil {
				raw = strings.ReplaceAll(raw, "{"+name+"}", variable.Default)
			}
		}
	}
	if raw == "" {
		return nil, fmt.Errorf("document declares no server, a base URL is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server URL %q has no host, a base URL is required", raw)
	}
	if u.Scheme == "" {
		u.Scheme = request.DefaultScheme
	}
	return u, nil
}

// acceptType returns the media type of the first success response,
// preferring JSON
func acceptType(operation *openapi3.Operation) string {
	content := successContent(operation)
	if len(content) == 0 {
		return ""
	}
	if content.Get(mediaJSON) != nil {
		return mediaJSON
	}
	types := make([]string, 0, len(content))
	for mediaType := range content {
		types = append(types, mediaType)
	}
	sort.Strings(types)
	return types[0]
}

// successContent returns the content of the lowest 2xx response that has
// any, falling back to the default response
func successContent(operation *openapi3.Operation) openapi3.Content {
	if operation == nil || operation.Responses == nil {
		return nil
	}
	responses := operation.Responses.Map()
	codes := make([]string, 0, len(responses))
	for code := range responses {
		if strings.HasPrefix(code, "2") {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	codes = append(codes, "default")

	for _, code := range codes {
		response := responses[code]
		if response != nil && response.Value != nil && len(response.Value.Content) > 0 {
			return response.Value.Content
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
