package jsoncodec

import (
	"bytes"
	"encoding/json"
)

// Default separators, matching the layout PostgreSQL's own json output uses
// for keys and the one most JSON tooling emits by default.
const (
	DefaultItemSeparator = ", "
	DefaultKeySeparator  = ": "
)

// Options controls how a single value is serialized. The zero value produces
// single-line output with DefaultItemSeparator and DefaultKeySeparator and no
// HTML escaping.
type Options struct {
	Prefix        string `toml:"prefix,omitempty" json:"prefix,omitempty"`
	Indent        string `toml:"indent,omitempty" json:"indent,omitempty"`
	EscapeHTML    bool   `toml:"escape_html,omitempty" json:"escape_html,omitempty"`
	ItemSeparator string `toml:"item_separator,omitempty" json:"item_separator,omitempty"`
	KeySeparator  string `toml:"key_separator,omitempty" json:"key_separator,omitempty"`
}

// IsZero reports whether o carries no settings.
func (o Options) IsZero() bool {
	return o == Options{}
}

func (o Options) separators() (item, key string) {
	item, key = o.ItemSeparator, o.KeySeparator
	if item == "" {
		item = DefaultItemSeparator
	}
	if key == "" {
		key = DefaultKeySeparator
	}
	return item, key
}

// layout rewrites compact JSON according to o.
func (o Options) layout(compact []byte) ([]byte, error) {
	if o.Indent != "" || o.Prefix != "" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, compact, o.Prefix, o.Indent); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	item, key := o.separators()
	if item == "," && key == ":" {
		return compact, nil
	}
	return reseparate(compact, item, key), nil
}

// reseparate replaces the structural ',' and ':' of compact JSON with item
// and key. Bytes inside string literals are copied unchanged.
func reseparate(compact []byte, item, key string) []byte {
	out := make([]byte, 0, len(compact)+len(compact)/4)
	inString, escaped := false, false
	for _, c := range compact {
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			out = append(out, c)
		case ',':
			out = append(out, item...)
		case ':':
			out = append(out, key...)
		default:
			out = append(out, c)
		}
	}
	return out
}
