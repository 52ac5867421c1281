package requester

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/brizzai/netcall/internal/config"
	"github.com/brizzai/netcall/internal/logger"
	"github.com/brizzai/netcall/internal/neterror"
	"github.com/brizzai/netcall/internal/params"
	"github.com/brizzai/netcall/internal/request"
	"github.com/brizzai/netcall/internal/serializer"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// HTTPRequestBuilderParams holds the parameters for creating an HTTPRequestBuilder
type HTTPRequestBuilderParams struct {
	fx.In
	ClientConfig *config.ClientConfig `optional:"true"`
	AuthManager  AuthManager          `optional:"true"`
}

// HTTPRequestBuilder turns descriptors into *http.Request values
type HTTPRequestBuilder struct {
	clientCfg *config.ClientConfig
	authMgr   AuthManager
}

// NewHTTPRequestBuilder creates a new HTTPRequestBuilder
func NewHTTPRequestBuilder(params HTTPRequestBuilderParams) *HTTPRequestBuilder {
	return &HTTPRequestBuilder{
		clientCfg: params.ClientConfig,
		authMgr:   params.AuthManager,
	}
}

// BuildRequest builds the request described by d. GET and DELETE carry
// parameters in the query; POST and PUT carry them in a body encoded for
// the descriptor's content type.
func (b *HTTPRequestBuilder) BuildRequest(ctx context.Context, d request.Descriptor) (*Request, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil descriptor", neterror.ErrInvalidURL)
	}

	u, err := buildURL(d)
	if err != nil {
		return nil, err
	}

	method := d.Method()
	if method == "" {
		method = request.MethodGet
	}

	if method.CarriesQuery() && d.Parameters().Len() > 0 {
		q := u.Query()
		for key, values := range serializer.QueryValues(d.Parameters(), logOmitted) {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body []byte
	var contentType string
	if method.CarriesBody() && d.Parameters().Len() > 0 {
		ct := d.ContentType()
		body, err = serializer.ForContentType(ct, serializer.WithOmitHook(logOmitted)).
			Serialize(d.Parameters(), d.Files())
		if err != nil {
			return nil, err
		}
		contentType = ct.Value()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, string(method), u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", neterror.ErrInvalidURL, err)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if b.clientCfg != nil {
		for key, value := range b.clientCfg.Headers {
			httpReq.Header.Set(key, value)
		}
	}
	if b.authMgr != nil {
		if err := b.authMgr.ApplyAuth(httpReq); err != nil {
			return nil, fmt.Errorf("failed to apply authentication: %w", err)
		}
	}
	// Descriptor headers go last and win over everything above
	for key, value := range d.Headers() {
		httpReq.Header.Set(key, value)
	}

	return &Request{
		URL:         u.String(),
		Method:      string(method),
		Body:        body,
		Headers:     httpReq.Header,
		ContentType: contentType,
		HTTPRequest: httpReq,
	}, nil
}

func buildURL(d request.Descriptor) (*url.URL, error) {
	scheme := d.Scheme()
	if scheme == "" {
		scheme = request.DefaultScheme
	}
	host := strings.TrimSuffix(d.Host(), "/")
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", neterror.ErrInvalidURL)
	}

	raw := scheme + "://" + host + "/" + strings.TrimPrefix(d.Path(), "/")
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", neterror.ErrInvalidURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", neterror.ErrInvalidURL, raw)
	}
	return u, nil
}

func logOmitted(key string, v params.Value) {
	logger.Warn("parameter omitted, it has no string form",
		zap.String("key", key),
		zap.Stringer("kind", v.Kind()),
	)
}
