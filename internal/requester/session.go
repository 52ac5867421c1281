package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brizzai/netcall/internal/config"
	"github.com/brizzai/netcall/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Session sends one request and returns the raw response. Implementations
// must be safe for concurrent use. Transport errors are returned as is.
type Session interface {
	Send(ctx context.Context, req *http.Request) (*Response, error)
}

// SessionFunc adapts a function to the Session interface
type SessionFunc func(ctx context.Context, req *http.Request) (*Response, error)

func (f SessionFunc) Send(ctx context.Context, req *http.Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPSession is a Session backed by an *http.Client
type HTTPSession struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPSession creates a session using the client timeout and rate limit
// from cfg
func NewHTTPSession(cfg *config.ClientConfig) *HTTPSession {
	timeout := 30 * time.Second
	if cfg != nil && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	s := &HTTPSession{
		client: &http.Client{
			Timeout: timeout,
		},
	}
	if cfg != nil && cfg.RateLimit > 0 {
		s.SetRateLimit(cfg.RateLimit, cfg.RateBurst)
	}
	return s
}

// NewHTTPSessionWithClient wraps an existing client
func NewHTTPSessionWithClient(client *http.Client) *HTTPSession {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPSession{client: client}
}

// SetTimeout sets the timeout for the HTTP client
func (s *HTTPSession) SetTimeout(timeout time.Duration) {
	s.client.Timeout = timeout
}

// SetRateLimit limits the session to perSecond requests with the given
// burst. A burst below one is raised to one.
func (s *HTTPSession) SetRateLimit(perSecond float64, burst int) {
	if burst < 1 {
		burst = 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (s *HTTPSession) Send(ctx context.Context, req *http.Request) (*Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := s.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Debug("failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}, nil
}
