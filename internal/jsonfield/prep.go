package jsonfield

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"
)

// PrepLookup normalizes a filter operand for the named lookup. On jsonb
// fields:
//
//   - jcontains: non-strings are encoded to JSON text (the operator wants
//     a jsonb operand);
//   - jhas_any, jhas_all: a single value or any slice becomes []string, a
//     map becomes its sorted keys and nil is a *LookupTypeError;
//   - jhas: strings pass, integers become their decimal form, anything else
//     is a *LookupTypeError.
//
// json fields and other lookups return value unchanged.
func (f *Field) PrepLookup(lookup string, value any) (any, error) {
	if f.kind != KindJSONB {
		return value, nil
	}
	switch lookup {
	case "jcontains":
		if s, ok := value.(string); ok {
			return s, nil
		}
		return f.encodeOperand(value)
	case "jhas_any", "jhas_all":
		return stringList(lookup, value)
	case "jhas":
		return hasKey(value)
	}
	return value, nil
}

func hasKey(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	if n, ok := value.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
	} else if rv := reflect.ValueOf(value); rv.CanUint() {
		return strconv.FormatUint(rv.Uint(), 10), nil
	} else if rv.CanInt() {
		return strconv.FormatInt(rv.Int(), 10), nil
	}
	return "", &LookupTypeError{Lookup: "jhas", Want: "a string or integer", Got: value}
}

// stringList spells list elements the way JSON does (null, true), since
// they name object keys.
func stringList(lookup string, value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, &LookupTypeError{Lookup: lookup, Want: "a key or a list of keys", Got: value}
	case string:
		return []string{v}, nil
	case []byte:
		return []string{string(v)}, nil
	case []string:
		return slices.Clone(v), nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]string, rv.Len())
		for i := range out {
			out[i] = stringify(rv.Index(i).Interface())
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, &LookupTypeError{Lookup: lookup, Want: "a map with string keys", Got: value}
		}
		out := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			out = append(out, k.String())
		}
		slices.Sort(out)
		return out, nil
	}
	return []string{stringify(value)}, nil
}

func stringify(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
