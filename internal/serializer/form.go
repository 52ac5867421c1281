package serializer

import (
	"net/url"
	"strings"

	"github.com/brizzai/netcall/internal/params"
	"github.com/brizzai/netcall/internal/request"
)

// FormURLEncoded encodes parameters as key=value pairs joined by '&', in
// insertion order. Files are ignored.
type FormURLEncoded struct {
	opts options
}

func (s *FormURLEncoded) Serialize(p *params.Map, _ []request.File) ([]byte, error) {
	var b strings.Builder
	p.Range(func(key string, v params.Value) bool {
		str, ok := params.Stringify(v)
		if !ok {
			s.opts.omit(key, v)
			return true
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(str))
		return true
	})
	return []byte(b.String()), nil
}

// QueryValues converts parameters to URL query values, skipping the ones
// without a string form.
func QueryValues(p *params.Map, onOmit OmitFunc) url.Values {
	o := options{onOmit: onOmit}
	q := url.Values{}
	p.Range(func(key string, v params.Value) bool {
		if str, ok := params.Stringify(v); ok {
			q.Add(key, str)
		} else {
			o.omit(key, v)
		}
		return true
	})
	return q
}
