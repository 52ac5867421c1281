package tests

import (
	"net/http"
	"testing"

	"github.com/brizzai/netcall/internal/config"
	"github.com/brizzai/netcall/internal/requester"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAuthManager_ApplyAuth(t *testing.T) {
	tests := []struct {
		name       string
		authType   config.AuthType
		authConfig map[string]string
		wantErr    bool
		checkAuth  func(t *testing.T, req *http.Request)
	}{
		{
			name:       "No Auth",
			authType:   config.AuthTypeNone,
			authConfig: map[string]string{},
			checkAuth: func(t *testing.T, req *http.Request) {
				assert.Empty(t, req.Header.Get("Authorization"))
			},
		},
		{
			name:     "Basic Auth",
			authType: config.AuthTypeBasic,
			authConfig: map[string]string{
				"username": "testuser",
				"password": "testpass",
			},
			checkAuth: func(t *testing.T, req *http.Request) {
				username, password, ok := req.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "testuser", username)
				assert.Equal(t, "testpass", password)
			},
		},
		{
			name:       "Bearer Auth",
			authType:   config.AuthTypeBearer,
			authConfig: map[string]string{"token": "test-token"},
			checkAuth: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
			},
		},
		{
			name:     "API Key Auth",
			authType: config.AuthTypeAPIKey,
			authConfig: map[string]string{
				"key":    "test-key",
				"header": "X-Custom-Key",
			},
			checkAuth: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "test-key", req.Header.Get("X-Custom-Key"))
			},
		},
		{
			name:       "API Key Default Header",
			authType:   config.AuthTypeAPIKey,
			authConfig: map[string]string{"key": "test-key"},
			checkAuth: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "test-key", req.Header.Get("X-API-Key"))
			},
		},
		{
			name:       "Invalid Auth Type",
			authType:   "invalid",
			authConfig: map[string]string{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := requester.NewHTTPAuthManager(&config.ClientConfig{
				AuthType:   tt.authType,
				AuthConfig: tt.authConfig,
			})

			req := &http.Request{Header: make(http.Header)}
			err := manager.ApplyAuth(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			tt.checkAuth(t, req)
		})
	}
}

func TestHTTPAuthManager_NilConfig(t *testing.T) {
	manager := requester.NewHTTPAuthManager(nil)
	req := &http.Request{Header: make(http.Header)}

	require.NoError(t, manager.ApplyAuth(req))
	assert.Empty(t, req.Header)
}
