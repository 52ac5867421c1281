package requester

import (
	"net/http"
)

// Request represents a fully built HTTP request
type Request struct {
	URL         string
	Method      string
	Body        []byte
	Headers     http.Header
	ContentType string
	HTTPRequest *http.Request // The request handed to the session
}

// Response is what a session returns for one call
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Success reports whether the status code is in the 2xx range
func (r *Response) Success() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}
