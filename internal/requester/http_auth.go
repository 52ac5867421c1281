package requester

import (
	"fmt"
	"net/http"

	"github.com/brizzai/netcall/internal/config"
)

// AuthManager attaches static credentials to a request
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// HTTPAuthManager applies the credentials from the client configuration
type HTTPAuthManager struct {
	authType   config.AuthType
	authConfig map[string]string
}

// NewHTTPAuthManager creates a new HTTPAuthManager
func NewHTTPAuthManager(cfg *config.ClientConfig) *HTTPAuthManager {
	if cfg == nil {
		return &HTTPAuthManager{authType: config.AuthTypeNone}
	}
	return &HTTPAuthManager{
		authType:   cfg.AuthType,
		authConfig: cfg.AuthConfig,
	}
}

// ApplyAuth adds authentication headers to the request
func (a *HTTPAuthManager) ApplyAuth(req *http.Request) error {
	switch a.authType {
	case config.AuthTypeNone, "":
		return nil
	case config.AuthTypeBasic:
		req.SetBasicAuth(a.authConfig["username"], a.authConfig["password"])
	case config.AuthTypeBearer:
		req.Header.Set("Authorization", "Bearer "+a.authConfig["token"])
	case config.AuthTypeAPIKey:
		header := a.authConfig["header"]
		if header == "" {
			header = "X-API-Key"
		}
		req.Header.Set(header, a.authConfig["key"])
	default:
		return fmt.Errorf("unsupported auth type: %s", a.authType)
	}
	return nil
}
