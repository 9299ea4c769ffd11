package jsonfield

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/lib/pq"
)

// Lookup renders a filter predicate. value has already been through
// Field.PrepLookup.
type Lookup interface {
	Name() string
	SQL(f *Field, args *Args, lhs string, value any) (string, error)
}

func builtinLookups(kind Kind) []Lookup {
	if kind == KindJSONB {
		return []Lookup{
			exactLookup{},
			arrayLengthLookup{fn: "jsonb_array_length"},
			containsLookup{},
			hasLookup{},
			hasManyLookup{name: "jhas_any", op: "?|"},
			hasManyLookup{name: "jhas_all", op: "?&"},
		}
	}
	return []Lookup{
		exactLookup{},
		arrayLengthLookup{fn: "json_array_length"},
	}
}

// exactLookup compares JSON values. json has no equality operator, so json
// columns compare their text form.
type exactLookup struct{}

func (exactLookup) Name() string { return "exact" }

func (exactLookup) SQL(f *Field, args *Args, lhs string, value any) (string, error) {
	if value == nil {
		return lhs + " IS NULL", nil
	}
	operand, err := f.encodeOperand(value)
	if err != nil {
		return "", err
	}
	p := args.Add(operand)
	if f.kind == KindJSONB {
		return fmt.Sprintf("%s = %s::jsonb", lhs, p), nil
	}
	return fmt.Sprintf("%s::text = %s::text", lhs, p), nil
}

type arrayLengthLookup struct {
	fn string
}

func (arrayLengthLookup) Name() string { return "array_length" }

func (l arrayLengthLookup) SQL(_ *Field, args *Args, lhs string, value any) (string, error) {
	n, ok := toInt64(value)
	if !ok {
		return "", &LookupTypeError{Lookup: "array_length", Want: "an integer", Got: value}
	}
	return fmt.Sprintf("%s(%s) = %s", l.fn, lhs, args.Add(n)), nil
}

type containsLookup struct{}

func (containsLookup) Name() string { return "jcontains" }

func (containsLookup) SQL(f *Field, args *Args, lhs string, value any) (string, error) {
	operand, ok := value.(string)
	if !ok {
		var err error
		if operand, err = f.encodeOperand(value); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s @> %s::jsonb", lhs, args.Add(operand)), nil
}

type hasLookup struct{}

func (hasLookup) Name() string { return "jhas" }

func (hasLookup) SQL(_ *Field, args *Args, lhs string, value any) (string, error) {
	key, ok := value.(string)
	if !ok {
		return "", &LookupTypeError{Lookup: "jhas", Want: "a string or integer", Got: value}
	}
	return fmt.Sprintf("%s ? %s", lhs, args.Add(key)), nil
}

type hasManyLookup struct {
	name string
	op   string
}

func (l hasManyLookup) Name() string { return l.name }

func (l hasManyLookup) SQL(_ *Field, args *Args, lhs string, value any) (string, error) {
	keys, ok := value.([]string)
	if !ok {
		var err error
		if keys, err = stringList(l.name, value); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s %s %s::text[]", lhs, l.op, args.Add(pq.Array(keys))), nil
}

// encodeOperand renders value as JSON text with the field's options.
// json.RawMessage is taken as already encoded.
func (f *Field) encodeOperand(value any) (string, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return string(raw), nil
	}
	data, err := f.codec.Encode(value, f.options)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func toInt64(v any) (int64, bool) {
	if n, ok := v.(json.Number); ok {
		i, err := n.Int64()
		return i, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}
