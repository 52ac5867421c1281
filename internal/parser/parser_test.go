package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brizzai/netcall/internal/params"
	"github.com/brizzai/netcall/internal/request"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstore = `
openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
servers:
  - url: https://{region}.example.com/v1
    variables:
      region:
        default: eu
paths:
  /pets:
    get:
      operationId: listPets
      summary: List pets
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
    post:
      operationId: createPet
      parameters:
        - name: dry_run
          in: query
          schema:
            type: boolean
        - name: X-Request-Id
          in: header
          schema:
            type: string
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        "201":
          description: created
  /pets/{petId}:
    parameters:
      - name: petId
        in: path
        required: true
        schema:
          type: integer
    get:
      description: Fetch one pet
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
    delete:
      operationId: deletePet
      responses:
        "204":
          description: gone
    patch:
      operationId: patchPet
      responses:
        "200":
          description: ok
  /pets/{petId}/photo:
    put:
      operationId: uploadPhoto
      requestBody:
        content:
          multipart/form-data:
            schema:
              type: object
              properties:
                caption:
                  type: string
      responses:
        "200":
          description: ok
  /login:
    post:
      operationId: login
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema:
              type: object
              properties:
                remember:
                  type: boolean
      responses:
        "204":
          description: ok
components:
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        id:
          type: integer
          minimum: 1
        name:
          type: string
        tag:
          type: string
          nullable: true
        meta:
          type: object
`

func newPetstore(t *testing.T) *SwaggerParser {
	t.Helper()
	p := NewSwaggerParser(NewAdjuster())
	require.NoError(t, p.ParseReader(strings.NewReader(petstore)))
	return p
}

func TestExtractPathParams(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected []string
	}{
		{name: "empty path", path: "", expected: nil},
		{name: "path with no params", path: "/api/users", expected: nil},
		{name: "path with one param", path: "/api/users/{id}", expected: []string{"id"}},
		{name: "path with multiple params", path: "/api/users/{id}/posts/{postId}", expected: []string{"id", "postId"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractPathParams(tt.path))
		})
	}
}

func TestSwaggerParser_Operations(t *testing.T) {
	p := newPetstore(t)

	type summary struct {
		ID     string
		Method request.HTTPMethod
		Path   string
		Desc   string
	}
	var got []summary
	for _, op := range p.Operations() {
		got = append(got, summary{op.ID, op.Method, op.Path, op.Description})
	}

	want := []summary{
		{"login", request.MethodPost, "/login", ""},
		{"listPets", request.MethodGet, "/pets", "List pets"},
		{"createPet", request.MethodPost, "/pets", ""},
		{"get_pets_petid", request.MethodGet, "/pets/{petId}", "Fetch one pet"},
		{"deletePet", request.MethodDelete, "/pets/{petId}", ""},
		{"uploadPhoto", request.MethodPut, "/pets/{petId}/photo", ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestSwaggerParser_ContentTypes(t *testing.T) {
	p := newPetstore(t)

	tests := []struct {
		id    string
		check func(request.ContentType) bool
	}{
		{id: "listPets", check: request.ContentType.IsJSON},
		{id: "createPet", check: request.ContentType.IsJSON},
		{id: "uploadPhoto", check: request.ContentType.IsFormData},
		{id: "login", check: request.ContentType.IsFormURLEncoded},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			op, err := p.Operation(tt.id)
			require.NoError(t, err)
			assert.True(t, tt.check(op.ContentType), op.ContentType.Value())
		})
	}
}

func TestSwaggerParser_Endpoint(t *testing.T) {
	p := newPetstore(t)

	t.Run("GET with path and query values", func(t *testing.T) {
		values := params.NewMap().Set("petId", params.Int(42)).Set("expand", params.String("owner"))
		e, err := p.Endpoint("get_pets_petid", "", values)
		require.NoError(t, err)

		assert.Equal(t, "https", e.Scheme())
		assert.Equal(t, "eu.example.com", e.Host())
		assert.Equal(t, "/v1/pets/42", e.Path())
		assert.Equal(t, request.MethodGet, e.Method())
		assert.Equal(t, []string{"expand"}, e.Parameters().Keys())
		assert.Equal(t, "application/json", e.Headers()["Accept"])

		// the caller's map is left alone
		assert.Equal(t, 2, values.Len())
	})

	t.Run("POST moves query and header values out of the body", func(t *testing.T) {
		values := params.NewMap().
			Set("id", params.Int(1)).
			Set("dry_run", params.Bool(true)).
			Set("X-Request-Id", params.String("abc")).
			Set("name", params.String("Rex"))
		e, err := p.Endpoint("createPet", "http://localhost:8080/api/", values)
		require.NoError(t, err)

		assert.Equal(t, "http", e.Scheme())
		assert.Equal(t, "localhost:8080", e.Host())
		assert.Equal(t, "/api/pets?dry_run=true", e.Path())
		assert.Equal(t, "abc", e.Headers()["X-Request-Id"])
		assert.Equal(t, []string{"id", "name"}, e.Parameters().Keys())
	})

	t.Run("Path values are escaped", func(t *testing.T) {
		e, err := p.Endpoint("deletePet", "", params.NewMap().Set("petId", params.String("a/b c")))
		require.NoError(t, err)
		assert.Equal(t, "/v1/pets/a%2Fb%20c", e.Path())
		assert.Equal(t, request.MethodDelete, e.Method())
	})

	t.Run("Multipart gets a fresh boundary", func(t *testing.T) {
		values := params.NewMap().Set("petId", params.Int(1))
		a, err := p.Endpoint("uploadPhoto", "", values)
		require.NoError(t, err)
		b, err := p.Endpoint("uploadPhoto", "", values)
		require.NoError(t, err)

		assert.True(t, a.ContentType().IsFormData())
		assert.NotEqual(t, a.ContentType().Boundary(), b.ContentType().Boundary())
	})

	t.Run("Options apply last", func(t *testing.T) {
		e, err := p.Endpoint("listPets", "", nil, request.WithHeader("Accept", "text/plain"))
		require.NoError(t, err)
		assert.Equal(t, "text/plain", e.Headers()["Accept"])
		assert.Equal(t, 0, e.Parameters().Len())
	})
}

func TestSwaggerParser_EndpointErrors(t *testing.T) {
	p := newPetstore(t)

	tests := []struct {
		name    string
		id      string
		baseURL string
		values  *params.Map
		wantErr string
	}{
		{name: "Unknown Operation", id: "nope", wantErr: `unknown operation "nope"`},
		{name: "Missing Path Value", id: "deletePet", wantErr: `missing path parameter "petId"`},
		{name: "Path Value Without String Form", id: "deletePet", values: params.NewMap().Set("petId", params.Value{}), wantErr: `"petId" has no string form`},
		{name: "Base URL Without Host", id: "listPets", baseURL: "/relative", wantErr: "has no host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Endpoint(tt.id, tt.baseURL, tt.values)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSwaggerParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "Malformed", doc: "{not: [valid"},
		{name: "No Version", doc: `{"info": {"title": "x"}}`},
		{name: "Unsupported OpenAPI", doc: `{"openapi": "4.0.0"}`},
		{name: "Unsupported Swagger", doc: `{"swagger": "1.2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewSwaggerParser(nil)
			assert.Error(t, p.ParseReader(strings.NewReader(tt.doc)))
		})
	}
}

func TestSwaggerParser_Swagger2(t *testing.T) {
	doc := `
swagger: "2.0"
info:
  title: Legacy
  version: "1"
host: legacy.example.com
basePath: /api
schemes: [http]
paths:
  /items/{id}:
    get:
      operationId: getItem
      parameters:
        - name: id
          in: path
          required: true
          type: string
      responses:
        200:
          description: ok
`
	p := NewSwaggerParser(nil)
	require.NoError(t, p.ParseReader(strings.NewReader(doc)))
	require.Len(t, p.Operations(), 1)

	e, err := p.Endpoint("getItem", "", params.NewMap().Set("id", params.String("x1")))
	require.NoError(t, err)
	assert.Equal(t, "http", e.Scheme())
	assert.Equal(t, "legacy.example.com", e.Host())
	assert.Equal(t, "/api/items/x1", e.Path())
}

func TestSwaggerParser_InitWithSelection(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "petstore.yaml")
	selectionPath := filepath.Join(dir, "selection.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(petstore), 0o600))
	require.NoError(t, os.WriteFile(selectionPath, []byte(`
routes:
  - path: /pets
    methods: [GET]
descriptions:
  - path: /pets
    updates:
      - method: GET
        new_description: Every pet in the store
`), 0o600))

	p := NewSwaggerParser(NewAdjuster())
	require.NoError(t, p.Init(specPath, selectionPath))
	require.Len(t, p.Operations(), 1)
	assert.Equal(t, "listPets", p.Operations()[0].ID)
	assert.Equal(t, "Every pet in the store", p.Operations()[0].Description)

	assert.Error(t, NewSwaggerParser(nil).Init(filepath.Join(dir, "missing.yaml"), ""))
}

func TestSwaggerParser_DuplicateIDs(t *testing.T) {
	doc := `{"openapi":"3.0.0","info":{"title":"x","version":"1"},"paths":{
		"/a":{"get":{"operationId":"same","responses":{"200":{"description":"ok"}}}},
		"/b":{"get":{"operationId":"same","responses":{"200":{"description":"ok"}}}}}}`

	err := NewSwaggerParser(nil).ParseReader(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate operation id "same"`)
}

func TestSwaggerParser_Coerce(t *testing.T) {
	p := newPetstore(t)

	tests := []struct {
		name string
		id   string
		key  string
		raw  string
		want params.Kind
	}{
		{name: "Integer Query", id: "listPets", key: "limit", raw: "10", want: params.KindInt},
		{name: "Not An Integer", id: "listPets", key: "limit", raw: "ten", want: params.KindString},
		{name: "Boolean Query", id: "createPet", key: "dry_run", raw: "true", want: params.KindBool},
		{name: "Body Property", id: "createPet", key: "id", raw: "7", want: params.KindInt},
		{name: "Object Property", id: "createPet", key: "meta", raw: `{"a":1}`, want: params.KindMap},
		{name: "Undeclared", id: "createPet", key: "other", raw: "7", want: params.KindString},
		{name: "Unknown Operation", id: "nope", key: "limit", raw: "7", want: params.KindString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Coerce(tt.id, tt.key, tt.raw).Kind())
		})
	}
}

func TestSwaggerParser_ResponseSchema(t *testing.T) {
	p := newPetstore(t)

	doc, err := p.ResponseSchema("listPets")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["id", "name"],
			"properties": {
				"id": {"type": "integer", "minimum": 1},
				"name": {"type": "string"},
				"tag": {"type": ["string", "null"]},
				"meta": {"type": "object"}
			}
		}
	}`, string(doc))

	_, err = p.ResponseSchema("deletePet")
	assert.True(t, errors.Is(err, ErrNoResponseSchema))
}
