package jsonfield

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/pgjson/internal/jsoncodec"
)

// PathSeparator joins the column, transforms and lookup in a condition path.
const PathSeparator = "__"

// Args collects positional query arguments. Placeholders continue from
// offset so compiled predicates can be appended to an existing query.
type Args struct {
	values []any
	offset int
}

// NewArgs returns an Args whose first placeholder is $offset+1.
func NewArgs(offset int) *Args {
	return &Args{offset: offset}
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(a.offset+len(a.values))
}

func (a *Args) Values() []any { return a.values }

// Len returns the number of placeholders allocated so far, offset included.
func (a *Args) Len() int { return a.offset + len(a.values) }

// Condition filters on a JSON column. Path is column[__transform...][__lookup],
// for example data__at_owner__at_name or data__jhas.
type Condition struct {
	Path  string
	Value any
}

var operandCodec = func() *jsoncodec.Codec {
	c, err := jsoncodec.New(jsoncodec.DefaultEncoder, true)
	if err != nil {
		panic(err)
	}
	return c
}()

// ParseCondition parses "path=value". The value is read as JSON, numbers as
// json.Number; text that is not JSON is taken as a string.
func ParseCondition(expr string) (Condition, error) {
	path, raw, ok := strings.Cut(expr, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return Condition{}, fmt.Errorf("parse condition %q: want path=value", expr)
	}
	v, err := operandCodec.Decode([]byte(raw))
	if err != nil {
		v = raw
	}
	return Condition{Path: path, Value: v}, nil
}

// Compile renders conds as SQL predicates, one per condition, binding all
// operands through args. fields maps column names to their descriptors and
// doubles as the column whitelist.
func Compile(fields map[string]*Field, conds []Condition, args *Args) ([]string, error) {
	preds := make([]string, 0, len(conds))
	for _, c := range conds {
		pred, err := compileOne(fields, c, args)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", c.Path, err)
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

func compileOne(fields map[string]*Field, c Condition, args *Args) (string, error) {
	parts := strings.Split(c.Path, PathSeparator)
	column := parts[0]
	f, ok := fields[column]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownField, column)
	}

	lhs := column
	lookup := "exact"
	rest := parts[1:]
	for i, name := range rest {
		if i == len(rest)-1 {
			if _, ok := f.Lookup(name); ok {
				lookup = name
				break
			}
		}
		t, ok := f.Transform(name)
		if !ok {
			return "", fmt.Errorf("%w %q on %s", ErrUnknownLookup, name, f.kind)
		}
		lhs = t.SQL(args, lhs)
	}

	l, _ := f.Lookup(lookup)
	if l == nil {
		return "", fmt.Errorf("%w %q on %s", ErrUnknownLookup, lookup, f.kind)
	}
	value, err := f.PrepLookup(lookup, c.Value)
	if err != nil {
		return "", err
	}
	return l.SQL(f, args, lhs, value)
}

// IsQueryError reports whether err came from a malformed filter rather than
// from the database.
func IsQueryError(err error) bool {
	return errors.Is(err, ErrUnknownLookup) ||
		errors.Is(err, ErrUnknownField) ||
		errors.Is(err, ErrInvalidLookupValue)
}
