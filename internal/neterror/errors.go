// Package neterror defines the failures reported by the requester. Every
// failure is terminal for the call that produced it; errors coming from the
// underlying transport are never wrapped in one of these.
package neterror

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL indicates the request URL could not be built.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidResponse indicates the session returned something that is
	// not a usable HTTP response.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrInvalidParameterSerialization indicates the request body could not
	// be encoded.
	ErrInvalidParameterSerialization = errors.New("invalid parameter serialization")
	// ErrEmptyResponse indicates an empty body for a result type that must
	// be present.
	ErrEmptyResponse = errors.New("empty response")
)

// StatusCodeError reports a response whose status is outside 200-299.
type StatusCodeError struct {
	Code int
	Body []byte
}

func (e *StatusCodeError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.Code)
}

// MismatchKind categorizes a decode failure.
type MismatchKind string

const (
	TypeMismatch  MismatchKind = "Type mismatch"
	ValueNotFound MismatchKind = "Value not found"
	KeyNotFound   MismatchKind = "Key not found"
	DataCorrupted MismatchKind = "Data corrupted"
	// Unknown is used for failures that carry no structural context.
	Unknown MismatchKind = ""
)

// DecodeError reports a body that could not be decoded into the expected
// result. Message is the full human readable diagnostic.
type DecodeError struct {
	Kind    MismatchKind
	Path    string
	Message string
}

// NewDecodeError builds a DecodeError whose message names the path and the
// mismatch category.
func NewDecodeError(kind MismatchKind, path, detail string) *DecodeError {
	var msg string
	switch kind {
	case Unknown:
		msg = detail
	case KeyNotFound:
		msg = fmt.Sprintf("Key '%s' not found at '%s': %s", lastSegment(path), path, detail)
	default:
		msg = fmt.Sprintf("%s at '%s': %s", kind, path, detail)
	}
	return &DecodeError{Kind: kind, Path: path, Message: msg}
}

func (e *DecodeError) Error() string {
	return "decode error: " + e.Message
}

// IsStatusCode reports whether err is a StatusCodeError with the given code.
func IsStatusCode(err error, code int) bool {
	var e *StatusCodeError
	return errors.As(err, &e) && e.Code == code
}

// IsDecodeError reports whether err is a DecodeError.
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// JoinPath appends segment to a dot-joined path.
func JoinPath(path, segment string) string {
	if path == "" {
		return segment
	}
	return path + "." + segment
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return path
}
