package serializer

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/brizzai/netcall/internal/neterror"
	"github.com/brizzai/netcall/internal/params"
	"github.com/brizzai/netcall/internal/request"
)

// FormData encodes a multipart/form-data body: one part per parameter, then
// one part per file, then the closing boundary.
//
// Nested maps are flattened with bracket notation, so {"user": {"name": "x"}}
// becomes the field "user[name]". Lists and values without a string form are
// omitted.
type FormData struct {
	Boundary string
	opts     options
}

type field struct {
	key   string
	value string
}

func (s *FormData) Serialize(p *params.Map, files []request.File) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.SetBoundary(s.Boundary); err != nil {
		return nil, fmt.Errorf("%w: %v", neterror.ErrInvalidParameterSerialization, err)
	}

	delimiter := []byte("--" + s.Boundary)
	for _, f := range s.flatten(p, "") {
		if hasLineBreak(f.key) {
			return nil, fmt.Errorf("%w: line break in field name %q", neterror.ErrInvalidParameterSerialization, f.key)
		}
		if bytes.Contains([]byte(f.value), delimiter) {
			return nil, fmt.Errorf("%w: boundary found in field %s", neterror.ErrInvalidParameterSerialization, f.key)
		}
		if err := writer.WriteField(f.key, f.value); err != nil {
			return nil, fmt.Errorf("%w: failed to write form field: %v", neterror.ErrInvalidParameterSerialization, err)
		}
	}

	for _, file := range files {
		if hasLineBreak(file.Name()) || hasLineBreak(file.FileName()) {
			return nil, fmt.Errorf("%w: line break in file name %q", neterror.ErrInvalidParameterSerialization, file.FileName())
		}
		if bytes.Contains(file.Data(), delimiter) {
			return nil, fmt.Errorf("%w: boundary found in file %s", neterror.ErrInvalidParameterSerialization, file.FileName())
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(file.Name()), escapeQuotes(file.FileName())))
		h.Set("Content-Type", file.MimeType().String())
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create form file: %v", neterror.ErrInvalidParameterSerialization, err)
		}
		if _, err := part.Write(file.Data()); err != nil {
			return nil, fmt.Errorf("%w: failed to write file: %v", neterror.ErrInvalidParameterSerialization, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: failed to close multipart writer: %v", neterror.ErrInvalidParameterSerialization, err)
	}
	return body.Bytes(), nil
}

func (s *FormData) flatten(p *params.Map, prefix string) []field {
	var out []field
	p.Range(func(key string, v params.Value) bool {
		full := key
		if prefix != "" {
			full = prefix + "[" + key + "]"
		}
		switch v.Kind() {
		case params.KindMap:
			out = append(out, s.flatten(v.AsMap(), full)...)
		case params.KindString, params.KindInt, params.KindFloat, params.KindBool:
			str, _ := params.Stringify(v)
			out = append(out, field{key: full, value: str})
		default:
			s.opts.omit(full, v)
		}
		return true
	})
	return out
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// hasLineBreak reports whether s would split a part header line.
func hasLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
