package requester

import (
	"context"
	"errors"

	"github.com/brizzai/netcall/internal/decoder"
	"github.com/brizzai/netcall/internal/logger"
	"github.com/brizzai/netcall/internal/neterror"
	"github.com/brizzai/netcall/internal/request"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Executor builds, sends and validates one request per call. It holds no
// per-call state, so one Executor may serve concurrent calls as long as its
// Session can.
type Executor struct {
	session Session
	builder *HTTPRequestBuilder
}

type ExecutorParams struct {
	fx.In

	Session Session
	Builder *HTTPRequestBuilder `optional:"true"`
}

// NewExecutor creates an Executor. Without a builder, requests carry only
// descriptor headers.
func NewExecutor(params ExecutorParams) *Executor {
	builder := params.Builder
	if builder == nil {
		builder = NewHTTPRequestBuilder(HTTPRequestBuilderParams{})
	}
	return &Executor{
		session: params.Session,
		builder: builder,
	}
}

// Do performs the request described by d and returns the raw response when
// its status is 2xx. Session errors are returned unwrapped. POST and PUT
// requests carry a body only when d has parameters; files alone send none.
func (e *Executor) Do(ctx context.Context, d request.Descriptor) (*Response, error) {
	req, err := e.builder.BuildRequest(ctx, d)
	if err != nil {
		logger.Error("failed to build request", zap.Error(err))
		return nil, err
	}
	logger.Debug("sending request",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Int("body_bytes", len(req.Body)),
	)

	resp, err := e.session.Send(ctx, req.HTTPRequest)
	if err != nil {
		logger.Error("failed to execute request", zap.String("url", req.URL), zap.Error(err))
		return nil, err
	}

	if resp == nil || resp.StatusCode < 100 || resp.StatusCode > 999 {
		logger.Error("invalid response", zap.String("url", req.URL))
		return nil, neterror.ErrInvalidResponse
	}
	if !resp.Success() {
		logger.Info("unexpected status code",
			zap.String("url", req.URL),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &neterror.StatusCodeError{Code: resp.StatusCode, Body: resp.Body}
	}

	logger.Debug("received response",
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode),
		zap.Int("body_bytes", len(resp.Body)),
	)
	return resp, nil
}

// Perform runs Do and decodes the body into R with the descriptor's
// decoder. An empty body yields the zero R when R can be nil.
func Perform[R any](ctx context.Context, e *Executor, d request.Descriptor) (R, error) {
	resp, err := e.Do(ctx, d)
	if err != nil {
		var zero R
		return zero, err
	}

	result, err := decoder.Decode[R](resp.Body, d.Decoder())
	if err != nil {
		var de *neterror.DecodeError
		if errors.As(err, &de) {
			logger.Warn("failed to decode response", zap.String("path", de.Path), zap.String("reason", de.Message))
		}
		return result, err
	}
	return result, nil
}
