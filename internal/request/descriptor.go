package request

import (
	"github.com/brizzai/netcall/internal/decoder"
	"github.com/brizzai/netcall/internal/params"
)

const DefaultScheme = "https"

// Descriptor is implemented once per endpoint. Endpoint provides the
// defaults and is usually embedded or built with New.
type Descriptor interface {
	Scheme() string
	Host() string
	Path() string
	Method() HTTPMethod
	Headers() map[string]string
	Parameters() *params.Map
	ContentType() ContentType
	Files() []File
	// Decoder is the strategy used to decode the response body.
	Decoder() decoder.Strategy
}

// Endpoint is a Descriptor value. Build it with New; the zero value is not
// usable because it has no host.
type Endpoint struct {
	scheme      string
	host        string
	path        string
	method      HTTPMethod
	headers     map[string]string
	parameters  *params.Map
	contentType ContentType
	files       []File
	decoder     decoder.Strategy
}

// Option customizes an Endpoint built by New.
type Option func(*Endpoint)

// New returns an Endpoint for host and path with defaults: https, GET, no
// headers, no parameters, JSON content and strict JSON decoding.
func New(host, path string, opts ...Option) *Endpoint {
	e := &Endpoint{
		scheme:      DefaultScheme,
		host:        host,
		path:        path,
		method:      MethodGet,
		headers:     map[string]string{},
		parameters:  params.NewMap(),
		contentType: JSON,
		decoder:     decoder.JSON{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithScheme(scheme string) Option {
	return func(e *Endpoint) { e.scheme = scheme }
}

func WithMethod(m HTTPMethod) Option {
	return func(e *Endpoint) { e.method = m }
}

func WithHeader(key, value string) Option {
	return func(e *Endpoint) { e.headers[key] = value }
}

func WithHeaders(headers map[string]string) Option {
	return func(e *Endpoint) {
		for k, v := range headers {
			e.headers[k] = v
		}
	}
}

// WithParam appends a parameter, replacing an earlier one with the same key.
func WithParam(key string, v params.Value) Option {
	return func(e *Endpoint) { e.parameters.Set(key, v) }
}

// WithParams replaces all parameters.
func WithParams(m *params.Map) Option {
	return func(e *Endpoint) {
		if m == nil {
			m = params.NewMap()
		}
		e.parameters = m
	}
}

func WithContentType(ct ContentType) Option {
	return func(e *Endpoint) { e.contentType = ct }
}

func WithFiles(files ...File) Option {
	return func(e *Endpoint) { e.files = append(e.files, files...) }
}

func WithDecoder(s decoder.Strategy) Option {
	return func(e *Endpoint) {
		if s != nil {
			e.decoder = s
		}
	}
}

func (e *Endpoint) Scheme() string             { return e.scheme }
func (e *Endpoint) Host() string               { return e.host }
func (e *Endpoint) Path() string               { return e.path }
func (e *Endpoint) Method() HTTPMethod         { return e.method }
func (e *Endpoint) Headers() map[string]string { return e.headers }
func (e *Endpoint) Parameters() *params.Map    { return e.parameters }
func (e *Endpoint) ContentType() ContentType   { return e.contentType }
func (e *Endpoint) Files() []File              { return e.files }
func (e *Endpoint) Decoder() decoder.Strategy  { return e.decoder }
