package decoder

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/brizzai/netcall/internal/neterror"
)

var (
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// JSON decodes bodies with encoding/json after checking the document
// against the shape of the target type.
//
// Struct fields are required unless their type can be nil or their json
// tag carries omitempty or omitzero. Types with their own UnmarshalJSON or
// UnmarshalText are trusted and not inspected.
type JSON struct{}

func (JSON) Decode(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", v)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return corrupted(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return neterror.NewDecodeError(neterror.DataCorrupted, "", "unexpected data after top-level value")
	}

	if err := checkShape(rv.Type().Elem(), doc, ""); err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return translate(err)
	}
	return nil
}

func corrupted(err error) error {
	var syn *json.SyntaxError
	switch {
	case errors.As(err, &syn):
		return neterror.NewDecodeError(neterror.DataCorrupted, "", fmt.Sprintf("%s (offset %d)", syn.Error(), syn.Offset))
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return neterror.NewDecodeError(neterror.DataCorrupted, "", "unexpected end of JSON input")
	default:
		return neterror.NewDecodeError(neterror.DataCorrupted, "", err.Error())
	}
}

func translate(err error) error {
	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) {
		return neterror.NewDecodeError(neterror.TypeMismatch, typ.Field,
			fmt.Sprintf("expected %s but found %s", typ.Type, typ.Value))
	}
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return corrupted(err)
	}
	return neterror.NewDecodeError(neterror.Unknown, "", err.Error())
}

func checkShape(t reflect.Type, v any, path string) error {
	if v == nil {
		if Nillable(t) {
			return nil
		}
		return neterror.NewDecodeError(neterror.ValueNotFound, path,
			fmt.Sprintf("expected %s value but found null", t))
	}
	for {
		if customDecoding(t) {
			return nil
		}
		if t.Kind() != reflect.Pointer {
			break
		}
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Interface:
		return nil
	case reflect.Struct:
		obj, ok := v.(map[string]any)
		if !ok {
			return mismatch(t, v, path)
		}
		return checkStruct(t, obj, path)
	case reflect.Map:
		obj, ok := v.(map[string]any)
		if !ok {
			return mismatch(t, v, path)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := checkShape(t.Elem(), obj[k], neterror.JoinPath(path, k)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			if _, ok := v.(string); ok {
				return nil
			}
		}
		arr, ok := v.([]any)
		if !ok {
			return mismatch(t, v, path)
		}
		for i, e := range arr {
			if err := checkShape(t.Elem(), e, neterror.JoinPath(path, strconv.Itoa(i))); err != nil {
				return err
			}
		}
		return nil
	case reflect.String:
		if _, ok := v.(string); !ok {
			return mismatch(t, v, path)
		}
	case reflect.Bool:
		if _, ok := v.(bool); !ok {
			return mismatch(t, v, path)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.(json.Number)
		if !ok {
			return mismatch(t, v, path)
		}
		if _, err := strconv.ParseInt(n.String(), 10, t.Bits()); err != nil {
			return neterror.NewDecodeError(neterror.TypeMismatch, path,
				fmt.Sprintf("number %s does not fit in %s", n, t))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := v.(json.Number)
		if !ok {
			return mismatch(t, v, path)
		}
		if _, err := strconv.ParseUint(n.String(), 10, t.Bits()); err != nil {
			return neterror.NewDecodeError(neterror.TypeMismatch, path,
				fmt.Sprintf("number %s does not fit in %s", n, t))
		}
	case reflect.Float32, reflect.Float64:
		if _, ok := v.(json.Number); !ok {
			return mismatch(t, v, path)
		}
	}
	return nil
}

func checkStruct(t reflect.Type, obj map[string]any, path string) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, opts := parseTag(f.Tag.Get("json"))
		if name == "-" && opts == "" {
			continue
		}

		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if err := checkStruct(ft, obj, path); err != nil {
					return err
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}

		fieldPath := neterror.JoinPath(path, name)
		val, ok := lookup(obj, name)
		if !ok {
			if hasOption(opts, "omitempty") || hasOption(opts, "omitzero") || Nillable(f.Type) {
				continue
			}
			return neterror.NewDecodeError(neterror.KeyNotFound, fieldPath,
				fmt.Sprintf("no value associated with key %q", name))
		}
		if hasOption(opts, "string") {
			continue
		}
		if err := checkShape(f.Type, val, fieldPath); err != nil {
			return err
		}
	}
	return nil
}

// lookup matches keys the way encoding/json does: exact first, then case
// insensitive.
func lookup(obj map[string]any, name string) (any, bool) {
	if v, ok := obj[name]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func customDecoding(t reflect.Type) bool {
	if t.Implements(jsonUnmarshalerType) || t.Implements(textUnmarshalerType) {
		return true
	}
	if t.Kind() != reflect.Pointer {
		pt := reflect.PointerTo(t)
		return pt.Implements(jsonUnmarshalerType) || pt.Implements(textUnmarshalerType)
	}
	return false
}

func mismatch(t reflect.Type, v any, path string) error {
	return neterror.NewDecodeError(neterror.TypeMismatch, path,
		fmt.Sprintf("expected %s but found %s", t, jsonKind(v)))
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func parseTag(tag string) (string, string) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, opts
}

func hasOption(opts, option string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == option {
			return true
		}
	}
	return false
}
