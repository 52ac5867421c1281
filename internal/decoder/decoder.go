// Package decoder turns response bodies into typed results and describes
// structural failures with the path and category of the mismatch.
package decoder

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/brizzai/netcall/internal/neterror"
)

// Strategy decodes a non-empty body into v, which is always a non-nil
// pointer. Structural failures should be returned as *neterror.DecodeError.
type Strategy interface {
	Decode(data []byte, v any) error
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(data []byte, v any) error

func (f StrategyFunc) Decode(data []byte, v any) error { return f(data, v) }

// Decode decodes data into a value of type R using s, or strict JSON when s
// is nil.
//
// An empty body yields the zero value when R can be nil (pointer, map,
// slice, interface) and neterror.ErrEmptyResponse otherwise. Every other
// failure is reported as a *neterror.DecodeError.
func Decode[R any](data []byte, s Strategy) (R, error) {
	var out R
	if len(data) == 0 {
		if Nillable(reflect.TypeOf((*R)(nil)).Elem()) {
			return out, nil
		}
		return out, neterror.ErrEmptyResponse
	}

	if s == nil {
		s = JSON{}
	}
	if err := s.Decode(data, &out); err != nil {
		var de *neterror.DecodeError
		if errors.As(err, &de) {
			return out, de
		}
		return out, neterror.NewDecodeError(neterror.Unknown, "", err.Error())
	}
	return out, nil
}

// Nillable reports whether the zero value of t is nil.
func Nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return true
	}
	return false
}

// Bytes copies the body verbatim into a *[]byte or *string.
type Bytes struct{}

func (Bytes) Decode(data []byte, v any) error {
	switch out := v.(type) {
	case *[]byte:
		*out = append([]byte(nil), data...)
	case *string:
		*out = string(data)
	default:
		return fmt.Errorf("raw body cannot be decoded into %T", v)
	}
	return nil
}
