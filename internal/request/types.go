// Package request describes endpoints: where a call goes, what it sends and
// how its response is decoded.
package request

import (
	"mime"
	"strings"

	"github.com/google/uuid"
)

// HTTPMethod is the verb of a request.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodDelete HTTPMethod = "DELETE"
)

// ParseMethod accepts a method name in any case.
func ParseMethod(s string) (HTTPMethod, bool) {
	switch m := HTTPMethod(strings.ToUpper(strings.TrimSpace(s))); m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return m, true
	}
	return "", false
}

// CarriesQuery reports whether parameters travel in the URL query.
func (m HTTPMethod) CarriesQuery() bool {
	return m == MethodGet || m == MethodDelete
}

// CarriesBody reports whether parameters travel in the request body.
func (m HTTPMethod) CarriesBody() bool {
	return m == MethodPost || m == MethodPut
}

type contentKind int

const (
	kindJSON contentKind = iota
	kindFormURLEncoded
	kindFormData
)

// ContentType selects how body parameters are encoded. The zero value is
// JSON.
type ContentType struct {
	kind     contentKind
	boundary string
}

var (
	JSON           = ContentType{kind: kindJSON}
	FormURLEncoded = ContentType{kind: kindFormURLEncoded}
)

// FormData returns the multipart content type delimited by boundary. An
// empty boundary is replaced by a generated one.
func FormData(boundary string) ContentType {
	if boundary == "" {
		boundary = "Boundary-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return ContentType{kind: kindFormData, boundary: boundary}
}

func (c ContentType) IsJSON() bool           { return c.kind == kindJSON }
func (c ContentType) IsFormURLEncoded() bool { return c.kind == kindFormURLEncoded }
func (c ContentType) IsFormData() bool       { return c.kind == kindFormData }

// Boundary is empty unless c is multipart.
func (c ContentType) Boundary() string { return c.boundary }

// Value is the Content-Type header value.
func (c ContentType) Value() string {
	switch c.kind {
	case kindFormURLEncoded:
		return string(MimeFormURLEncoded)
	case kindFormData:
		return mime.FormatMediaType("multipart/form-data", map[string]string{"boundary": c.boundary})
	default:
		return string(MimeJSON)
	}
}

func (c ContentType) String() string { return c.Value() }

// MimeType identifies the format of a file attachment. Values outside the
// constants below are allowed as custom types.
type MimeType string

const (
	MimeJPEG           MimeType = "image/jpeg"
	MimePNG            MimeType = "image/png"
	MimeGIF            MimeType = "image/gif"
	MimePDF            MimeType = "application/pdf"
	MimePlainText      MimeType = "text/plain"
	MimeJSON           MimeType = "application/json"
	MimeXML            MimeType = "application/xml"
	MimeFormURLEncoded MimeType = "application/x-www-form-urlencoded"
	MimeHTML           MimeType = "text/html"
	MimeCSS            MimeType = "text/css"
	MimeJavaScript     MimeType = "application/javascript"
	MimeOctetStream    MimeType = "application/octet-stream"
)

func (m MimeType) String() string {
	if m == "" {
		return string(MimeOctetStream)
	}
	return string(m)
}

// File is an attachment sent as one part of a multipart body.
type File struct {
	name     string
	fileName string
	mimeType MimeType
	data     []byte
}

// NewFile copies data so later changes by the caller do not leak into the
// request.
func NewFile(name, fileName string, mimeType MimeType, data []byte) File {
	return File{
		name:     name,
		fileName: fileName,
		mimeType: mimeType,
		data:     append([]byte(nil), data...),
	}
}

func (f File) Name() string       { return f.name }
func (f File) FileName() string   { return f.fileName }
func (f File) MimeType() MimeType { return f.mimeType }
func (f File) Data() []byte       { return f.data }
