package tests

import (
	"context"
	"io"
	"math"
	"net/http"
	"testing"

	"github.com/brizzai/netcall/internal/config"
	"github.com/brizzai/netcall/internal/neterror"
	"github.com/brizzai/netcall/internal/params"
	"github.com/brizzai/netcall/internal/request"
	"github.com/brizzai/netcall/internal/requester"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAuthManager struct {
	applyAuthFunc func(*http.Request) error
}

func (m *mockAuthManager) ApplyAuth(req *http.Request) error {
	return m.applyAuthFunc(req)
}

func readBody(t *testing.T, req *http.Request) string {
	t.Helper()
	if req.Body == nil {
		return ""
	}
	data, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	return string(data)
}

func TestHTTPRequestBuilder_BuildRequest(t *testing.T) {
	tests := []struct {
		name         string
		descriptor   request.Descriptor
		clientConfig *config.ClientConfig
		authManager  requester.AuthManager
		wantErr      error
		checkRequest func(t *testing.T, req *requester.Request)
	}{
		{
			name: "GET Request With Query",
			descriptor: request.New("api.example.com", "/search",
				request.WithParam("query", params.String("go lang")),
				request.WithParam("page", params.Int(2)),
			),
			authManager: &mockAuthManager{
				applyAuthFunc: func(req *http.Request) error {
					req.Header.Set("Authorization", "Bearer test-token")
					return nil
				},
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "https://api.example.com/search?page=2&query=go+lang", req.HTTPRequest.URL.String())
				assert.Equal(t, "GET", req.HTTPRequest.Method)
				assert.Equal(t, "Bearer test-token", req.HTTPRequest.Header.Get("Authorization"))
				assert.Empty(t, req.HTTPRequest.Header.Get("Content-Type"))
				assert.Empty(t, readBody(t, req.HTTPRequest))
			},
		},
		{
			name: "DELETE Request Omits Unconvertible Params",
			descriptor: request.New("api.example.com", "items/7",
				request.WithMethod(request.MethodDelete),
				request.WithParam("force", params.Bool(true)),
				request.WithParam("handle", params.FromAny(struct{}{})),
				request.WithParam("ratios", params.List(params.Float(math.NaN()))),
				request.WithParam("tags", params.List(params.String("a"), params.Int(1))),
			),
			checkRequest: func(t *testing.T, req *requester.Request) {
				q := req.HTTPRequest.URL.Query()
				assert.Equal(t, "/items/7", req.HTTPRequest.URL.Path)
				assert.Equal(t, "true", q.Get("force"))
				assert.Equal(t, `["a",1]`, q.Get("tags"))
				assert.False(t, q.Has("handle"))
				assert.False(t, q.Has("ratios"))
				assert.Nil(t, req.Body)
			},
		},
		{
			name: "POST Request With JSON Body",
			descriptor: request.New("api.example.com", "/users",
				request.WithMethod(request.MethodPost),
				request.WithParam("name", params.String("test")),
				request.WithParam("age", params.Int(30)),
			),
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "https://api.example.com/users", req.HTTPRequest.URL.String())
				assert.Equal(t, "application/json", req.HTTPRequest.Header.Get("Content-Type"))
				assert.JSONEq(t, `{"name":"test","age":30}`, readBody(t, req.HTTPRequest))
			},
		},
		{
			name: "POST Request Without Params Has No Body",
			descriptor: request.New("api.example.com", "/ping",
				request.WithMethod(request.MethodPost),
			),
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Empty(t, req.HTTPRequest.Header.Get("Content-Type"))
				assert.Nil(t, req.Body)
			},
		},
		{
			name: "PUT Request With Form Body",
			descriptor: request.New("api.example.com", "/submit",
				request.WithMethod(request.MethodPut),
				request.WithContentType(request.FormURLEncoded),
				request.WithParam("name", params.String("John")),
				request.WithParam("age", params.Int(30)),
			),
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "application/x-www-form-urlencoded", req.HTTPRequest.Header.Get("Content-Type"))
				assert.Equal(t, "name=John&age=30", readBody(t, req.HTTPRequest))
			},
		},
		{
			name: "Multipart With Files Only Has No Body",
			descriptor: request.New("api.example.com", "/upload",
				request.WithMethod(request.MethodPost),
				request.WithContentType(request.FormData("boundary123")),
				request.WithFiles(request.NewFile("file", "a.txt", request.MimePlainText, []byte("hello"))),
			),
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Empty(t, req.HTTPRequest.Header.Get("Content-Type"))
				assert.Nil(t, req.Body)
			},
		},
		{
			name: "Header Precedence",
			descriptor: request.New("api.example.com", "/users",
				request.WithMethod(request.MethodPost),
				request.WithParam("name", params.String("test")),
				request.WithHeader("Content-Type", "application/vnd.custom+json"),
				request.WithHeader("X-Shared", "descriptor"),
			),
			clientConfig: &config.ClientConfig{
				Headers: map[string]string{"X-Shared": "config", "X-Client": "netcall"},
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "application/vnd.custom+json", req.HTTPRequest.Header.Get("Content-Type"))
				assert.Equal(t, "descriptor", req.HTTPRequest.Header.Get("X-Shared"))
				assert.Equal(t, "netcall", req.HTTPRequest.Header.Get("X-Client"))
			},
		},
		{
			name:       "Missing Host",
			descriptor: request.New("", "/users"),
			wantErr:    neterror.ErrInvalidURL,
		},
		{
			name:       "Malformed Host",
			descriptor: request.New("exa mple.com:port", "/users"),
			wantErr:    neterror.ErrInvalidURL,
		},
		{
			name: "Invalid JSON Parameter",
			descriptor: request.New("api.example.com", "/users",
				request.WithMethod(request.MethodPost),
				request.WithParam("score", params.Float(math.Inf(1))),
			),
			wantErr: neterror.ErrInvalidParameterSerialization,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := requester.NewHTTPRequestBuilder(requester.HTTPRequestBuilderParams{
				ClientConfig: tt.clientConfig,
				AuthManager:  tt.authManager,
			})

			req, err := builder.BuildRequest(context.Background(), tt.descriptor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.checkRequest(t, req)
		})
	}
}
