// Package serializer encodes request parameters into a body for one of the
// supported content types.
package serializer

import (
	"github.com/brizzai/netcall/internal/params"
	"github.com/brizzai/netcall/internal/request"
)

// Serializer encodes parameters, and for multipart also files, into a body.
type Serializer interface {
	Serialize(p *params.Map, files []request.File) ([]byte, error)
}

// OmitFunc is called for every parameter left out of a form body because it
// has no string form. key is the flattened key.
type OmitFunc func(key string, v params.Value)

type options struct {
	onOmit OmitFunc
}

type Option func(*options)

// WithOmitHook reports entries that are silently omitted.
func WithOmitHook(fn OmitFunc) Option {
	return func(o *options) { o.onOmit = fn }
}

func (o options) omit(key string, v params.Value) {
	if o.onOmit != nil {
		o.onOmit(key, v)
	}
}

// ForContentType returns the serializer for ct.
func ForContentType(ct request.ContentType, opts ...Option) Serializer {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case ct.IsFormURLEncoded():
		return &FormURLEncoded{opts: o}
	case ct.IsFormData():
		return &FormData{Boundary: ct.Boundary(), opts: o}
	default:
		return &JSON{}
	}
}
