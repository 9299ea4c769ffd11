// Package schema freezes JSON field definitions into portable TOML
// descriptions and turns them back into fields and DDL.
package schema

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/pgjson/internal/jsoncodec"
	"github.com/alfredjeanlab/pgjson/internal/jsonfield"
)

// ErrUnknownClass is returned by Thaw for classes no rule recognizes.
var ErrUnknownClass = errors.New("unknown field class")

// Rule recognizes one field class and carries the attribute values that are
// left out of frozen descriptions.
type Rule struct {
	Kind    jsonfield.Kind
	Pattern *regexp.Regexp
	Blank   bool
	Null    bool
}

var rules = func() []Rule {
	var out []Rule
	for _, k := range []jsonfield.Kind{jsonfield.KindJSON, jsonfield.KindJSONB} {
		in := k.Introspection()
		out = append(out, Rule{
			Kind:    k,
			Pattern: regexp.MustCompile(in.ClassPattern),
			Blank:   in.Blank,
			Null:    in.Null,
		})
	}
	return out
}()

// Rules returns the introspection rules for the json and jsonb classes.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

func ruleFor(class string) (Rule, bool) {
	for _, r := range rules {
		if r.Pattern.MatchString(class) {
			return r, true
		}
	}
	return Rule{}, false
}

// FrozenField is the frozen form of one column. Attributes equal to the
// class defaults are nil.
type FrozenField struct {
	Name    string             `toml:"name" json:"name"`
	Class   string             `toml:"class" json:"class"`
	Null    *bool              `toml:"null,omitempty" json:"null,omitempty"`
	Blank   *bool              `toml:"blank,omitempty" json:"blank,omitempty"`
	Options *jsoncodec.Options `toml:"options,omitempty" json:"options,omitempty"`
}

// FrozenModel groups the frozen fields of one table.
type FrozenModel struct {
	Table  string        `toml:"table" json:"table"`
	Fields []FrozenField `toml:"fields" json:"fields"`
}

// File is the top level of a frozen schema file.
type File struct {
	Models []FrozenModel `toml:"model"`
}

// Freeze describes f under name, omitting attributes that match the class
// defaults.
func Freeze(name string, f *jsonfield.Field) FrozenField {
	d := f.Deconstruct(name)
	ff := FrozenField{Name: d.Name, Class: d.Class, Options: d.Options}
	r, _ := ruleFor(d.Class)
	if d.Null != r.Null {
		ff.Null = boolPtr(d.Null)
	}
	if d.Blank != r.Blank {
		ff.Blank = boolPtr(d.Blank)
	}
	return ff
}

// Thaw rebuilds a field from its frozen form. Absent attributes take the
// class defaults; extra options are applied last.
func Thaw(ff FrozenField, c *jsoncodec.Codec, extra ...jsonfield.Option) (*jsonfield.Field, error) {
	r, ok := ruleFor(ff.Class)
	if !ok {
		return nil, fmt.Errorf("thaw %s: %w %q", ff.Name, ErrUnknownClass, ff.Class)
	}
	null, blank := r.Null, r.Blank
	if ff.Null != nil {
		null = *ff.Null
	}
	if ff.Blank != nil {
		blank = *ff.Blank
	}
	opts := []jsonfield.Option{jsonfield.WithNull(null), jsonfield.WithBlank(blank)}
	if ff.Options != nil {
		opts = append(opts, jsonfield.WithOptions(*ff.Options))
	}
	opts = append(opts, extra...)
	return jsonfield.New(r.Kind, c, opts...), nil
}

// EncodeTOML writes models as a frozen schema file.
func EncodeTOML(w io.Writer, models []FrozenModel) error {
	return toml.NewEncoder(w).Encode(File{Models: models})
}

// DecodeTOML reads a frozen schema file.
func DecodeTOML(r io.Reader) ([]FrozenModel, error) {
	var f File
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return f.Models, nil
}

// WriteFile freezes models into path.
func WriteFile(path string, models []FrozenModel) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := EncodeTOML(f, models); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile loads a frozen schema file.
func ReadFile(path string) ([]FrozenModel, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return f.Models, nil
}

func boolPtr(b bool) *bool { return &b }
