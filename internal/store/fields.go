package store

import (
	"fmt"

	"github.com/alfredjeanlab/pgjson/internal/jsoncodec"
	"github.com/alfredjeanlab/pgjson/internal/jsonfield"
	"github.com/alfredjeanlab/pgjson/internal/schema"
)

// Table is the name of the documents table.
const Table = "documents"

// Fields describes the JSON columns of the documents table.
type Fields struct {
	Data *jsonfield.Field // jsonb NOT NULL
	Meta *jsonfield.Field // json, nullable
}

// emptyObject is the default for documents created without data.
func emptyObject() any { return map[string]any{} }

// NewFields builds the column descriptors for the documents table.
func NewFields(c *jsoncodec.Codec, strict bool) Fields {
	return Fields{
		Data: jsonfield.NewJSONB(c,
			jsonfield.WithStrictDecode(strict),
			jsonfield.WithDefault(emptyObject),
		),
		Meta: jsonfield.NewJSON(c,
			jsonfield.WithNull(true),
			jsonfield.WithBlank(true),
			jsonfield.WithStrictDecode(strict),
		),
	}
}

// Map returns the fields keyed by column name, as jsonfield.Compile expects.
func (f Fields) Map() map[string]*jsonfield.Field {
	return map[string]*jsonfield.Field{"data": f.Data, "meta": f.Meta}
}

// Columns returns the fields in table order.
func (f Fields) Columns() []schema.Column {
	return []schema.Column{{Name: "data", Field: f.Data}, {Name: "meta", Field: f.Meta}}
}

// Field returns the descriptor for column.
func (f Fields) Field(column string) (*jsonfield.Field, bool) {
	fd, ok := f.Map()[column]
	return fd, ok
}

// FieldsFromModels thaws the documents table out of a frozen schema. The
// column kinds must match the migrations: data jsonb NOT NULL, meta json.
// Frozen schemas carry no defaults, so data gets the same empty object
// default as NewFields.
func FieldsFromModels(models []schema.FrozenModel, c *jsoncodec.Codec, strict bool) (Fields, error) {
	for _, m := range models {
		if m.Table != Table {
			continue
		}
		var f Fields
		for _, ff := range m.Fields {
			opts := []jsonfield.Option{jsonfield.WithStrictDecode(strict)}
			if ff.Name == "data" {
				opts = append(opts, jsonfield.WithDefault(emptyObject))
			}
			fd, err := schema.Thaw(ff, c, opts...)
			if err != nil {
				return Fields{}, fmt.Errorf("thaw %s: %w", m.Table, err)
			}
			switch ff.Name {
			case "data":
				f.Data = fd
			case "meta":
				f.Meta = fd
			default:
				return Fields{}, fmt.Errorf("%w: unknown column %q", ErrSchemaMismatch, ff.Name)
			}
		}
		switch {
		case f.Data == nil || f.Meta == nil:
			return Fields{}, fmt.Errorf("%w: data and meta are both required", ErrSchemaMismatch)
		case f.Data.Kind() != jsonfield.KindJSONB || f.Data.Null():
			return Fields{}, fmt.Errorf("%w: data must be a non-null jsonb field", ErrSchemaMismatch)
		case f.Meta.Kind() != jsonfield.KindJSON:
			return Fields{}, fmt.Errorf("%w: meta must be a json field", ErrSchemaMismatch)
		}
		return f, nil
	}
	return Fields{}, fmt.Errorf("%w: no model for table %q", ErrSchemaMismatch, Table)
}
