// Package jsonfield describes PostgreSQL json and jsonb columns: which column
// type to emit for a server, how values cross the driver boundary, and how
// filter expressions on them compile to SQL.
package jsonfield

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/alfredjeanlab/pgjson/internal/jsoncodec"
)

// Kind selects the PostgreSQL column type.
type Kind int

const (
	KindJSON Kind = iota
	KindJSONB
)

var (
	minJSON  = version.Must(version.NewVersion("9.2"))
	minJSONB = version.Must(version.NewVersion("9.4"))
)

func (k Kind) String() string {
	if k == KindJSONB {
		return "jsonb"
	}
	return "json"
}

// MinVersion is the oldest server release supporting the column type.
func (k Kind) MinVersion() *version.Version {
	if k == KindJSONB {
		return minJSONB
	}
	return minJSON
}

// Class is the stable name used when field definitions are frozen.
func (k Kind) Class() string {
	if k == KindJSONB {
		return "pgjson.JSONBField"
	}
	return "pgjson.JSONField"
}

// Field describes one json or jsonb column. Fields are configured at
// construction and are safe for concurrent use afterwards, except for
// RegisterLookup and RegisterTransform which belong to setup code.
type Field struct {
	kind       Kind
	codec      *jsoncodec.Codec
	null       bool
	blank      bool
	strict     bool
	options    jsoncodec.Options
	def        any
	prep       func(any) (any, error)
	lookups    map[string]Lookup
	transforms map[string]Transform
}

// Option configures a Field.
type Option func(*Field)

// WithNull allows SQL NULL in the column; nil values are then written as NULL
// instead of the JSON literal null.
func WithNull(null bool) Option {
	return func(f *Field) { f.null = null }
}

// WithBlank marks empty input as acceptable in forms.
func WithBlank(blank bool) Option {
	return func(f *Field) { f.blank = blank }
}

// WithOptions sets the serialization options used whenever this field's
// values are encoded.
func WithOptions(o jsoncodec.Options) Option {
	return func(f *Field) { f.options = o }
}

// WithDefault sets the default value. A function taking no arguments and
// returning one value, such as func() any or func() map[string]any, is
// called for every default; maps and slices are copied.
func WithDefault(v any) Option {
	return func(f *Field) { f.def = v }
}

// WithPrep installs a hook run on every value before it is written.
func WithPrep(fn func(any) (any, error)) Option {
	return func(f *Field) { f.prep = fn }
}

// WithStrictDecode makes FromDB fail on malformed stored text instead of
// returning it unchanged.
func WithStrictDecode(strict bool) Option {
	return func(f *Field) { f.strict = strict }
}

// NewJSON returns a descriptor for a json column. A nil codec means
// jsoncodec.Default().
func NewJSON(c *jsoncodec.Codec, opts ...Option) *Field {
	return newField(KindJSON, c, opts)
}

// NewJSONB returns a descriptor for a jsonb column.
func NewJSONB(c *jsoncodec.Codec, opts ...Option) *Field {
	return newField(KindJSONB, c, opts)
}

// New returns a descriptor of the given kind.
func New(kind Kind, c *jsoncodec.Codec, opts ...Option) *Field {
	return newField(kind, c, opts)
}

func newField(kind Kind, c *jsoncodec.Codec, opts []Option) *Field {
	if c == nil {
		c = jsoncodec.Default()
	}
	f := &Field{
		kind:       kind,
		codec:      c,
		lookups:    make(map[string]Lookup),
		transforms: make(map[string]Transform),
	}
	for _, l := range builtinLookups(kind) {
		f.lookups[l.Name()] = l
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Field) Kind() Kind                 { return f.kind }
func (f *Field) Codec() *jsoncodec.Codec    { return f.codec }
func (f *Field) Null() bool                 { return f.null }
func (f *Field) Blank() bool                { return f.blank }
func (f *Field) StrictDecode() bool         { return f.strict }
func (f *Field) Options() jsoncodec.Options { return f.options }

// DBType returns the column type after checking that the server supports it.
func (f *Field) DBType(ctx context.Context, vs VersionSource) (string, error) {
	have, err := vs.ServerVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve server version: %w", err)
	}
	need := f.kind.MinVersion()
	if have.LessThan(need) {
		return "", &VersionError{Type: f.kind.String(), Have: have, Need: need}
	}
	return f.kind.String(), nil
}

// FromDB converts a value read from the driver. Text is decoded as JSON;
// text that does not parse is returned as a string unless the field decodes
// strictly. Anything else is returned unchanged.
func (f *Field) FromDB(raw any) (any, error) {
	var text []byte
	switch v := raw.(type) {
	case string:
		text = []byte(v)
	case []byte:
		text = v
	default:
		return raw, nil
	}
	v, err := f.codec.Decode(text)
	if err != nil {
		if f.strict {
			return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
		}
		return string(text), nil
	}
	return v, nil
}

// Scan returns a sql.Scanner storing FromDB's result in dst.
func (f *Field) Scan(dst *any) sql.Scanner {
	return &fieldScanner{field: f, dst: dst}
}

type fieldScanner struct {
	field *Field
	dst   *any
}

func (s *fieldScanner) Scan(src any) error {
	v, err := s.field.FromDB(src)
	if err != nil {
		return err
	}
	*s.dst = v
	return nil
}

// PrepValue runs the field's prep hook.
func (f *Field) PrepValue(v any) (any, error) {
	if f.prep == nil {
		return v, nil
	}
	return f.prep(v)
}

// ToDB converts v into the value sent to the driver: NULL for nil on
// nullable fields, JSON text otherwise.
func (f *Field) ToDB(v any) (driver.Value, error) {
	v, err := f.PrepValue(v)
	if err != nil {
		return nil, err
	}
	if f.null && isNil(v) {
		return nil, nil
	}
	return jsoncodec.Adapt(v, f.codec, f.options).Value()
}

// ValueToString encodes v with the field's options, for serializers and
// exports.
func (f *Field) ValueToString(v any) (string, error) {
	v, err := f.PrepValue(v)
	if err != nil {
		return "", err
	}
	data, err := f.codec.Encode(v, f.options)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// HasDefault reports whether a default was configured.
func (f *Field) HasDefault() bool {
	return f.def != nil
}

// Default returns a fresh default value.
func (f *Field) Default() any {
	switch d := f.def.(type) {
	case nil:
		return nil
	case func() any:
		return d()
	case map[string]any:
		return maps.Clone(d)
	case []any:
		return slices.Clone(d)
	}
	if rv := reflect.ValueOf(f.def); rv.Kind() == reflect.Func {
		if t := rv.Type(); t.NumIn() == 0 && t.NumOut() == 1 {
			return rv.Call(nil)[0].Interface()
		}
	}
	return f.def
}

var keyTransformPattern = regexp.MustCompile(`^at_\w+`)

// Transform resolves name to a registered transform or, for at_<key>, to a
// KeyTransform on <key>.
func (f *Field) Transform(name string) (Transform, bool) {
	if t, ok := f.transforms[name]; ok {
		return t, true
	}
	if !keyTransformPattern.MatchString(name) {
		return nil, false
	}
	_, key, _ := strings.Cut(name, "_")
	return KeyTransform{Key: key}, true
}

// RegisterTransform adds a named transform.
func (f *Field) RegisterTransform(name string, t Transform) {
	f.transforms[name] = t
}

// Lookup returns the lookup registered under name.
func (f *Field) Lookup(name string) (Lookup, bool) {
	l, ok := f.lookups[name]
	return l, ok
}

// RegisterLookup adds or replaces a lookup.
func (f *Field) RegisterLookup(l Lookup) {
	f.lookups[l.Name()] = l
}

// LookupNames returns the registered lookup names, sorted.
func (f *Field) LookupNames() []string {
	return slices.Sorted(maps.Keys(f.lookups))
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Introspection is what the schema freezer needs to recognize a field class
// and to leave out attributes that match the class defaults.
type Introspection struct {
	ClassPattern string
	Blank        bool
	Null         bool
}

// Introspection returns the freeze rule for the kind.
func (k Kind) Introspection() Introspection {
	if k == KindJSONB {
		return Introspection{ClassPattern: `^pgjson\.JSONBField$`, Blank: true}
	}
	return Introspection{ClassPattern: `^pgjson\.JSONField$`, Blank: true}
}

// Deconstruction is the portable description of a field. Options is nil
// unless the field sets any.
type Deconstruction struct {
	Name    string
	Class   string
	Null    bool
	Blank   bool
	Options *jsoncodec.Options
}

// Deconstruct describes f as the column name.
func (f *Field) Deconstruct(name string) Deconstruction {
	d := Deconstruction{
		Name:  name,
		Class: f.kind.Class(),
		Null:  f.null,
		Blank: f.blank,
	}
	if !f.options.IsZero() {
		o := f.options
		d.Options = &o
	}
	return d
}
