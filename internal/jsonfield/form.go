package jsonfield

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/alfredjeanlab/pgjson/internal/jsoncodec"
)

var textareaTmpl = template.Must(template.New("textarea").Parse(
	`<textarea name="{{.Name}}" rows="10" cols="40"{{if .Required}} required{{end}}>{{.Value}}</textarea>`))

// FormField edits a JSON value as free text.
type FormField struct {
	Label    string
	HelpText string
	Required bool
	Codec    *jsoncodec.Codec
	Options  jsoncodec.Options
}

// FormField returns the form field for f. Blank fields are optional.
func (f *Field) FormField() *FormField {
	opts := f.options
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	return &FormField{
		Required: !f.blank,
		Codec:    f.codec,
		Options:  opts,
	}
}

// PrepareValue returns the text shown for v: strings verbatim, anything else
// pretty-printed JSON.
func (ff *FormField) PrepareValue(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	c := ff.Codec
	if c == nil {
		c = jsoncodec.Default()
	}
	opts := ff.Options
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	data, err := c.Encode(v, opts)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Clean trims s. Empty input fails with ErrRequired on required fields; the
// text is otherwise not validated.
func (ff *FormField) Clean(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" && ff.Required {
		return "", ErrRequired
	}
	return s, nil
}

// Render returns an escaped textarea holding v.
func (ff *FormField) Render(name string, v any) (template.HTML, error) {
	text, err := ff.PrepareValue(v)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = textareaTmpl.Execute(&buf, struct {
		Name     string
		Value    string
		Required bool
	}{name, text, ff.Required})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
