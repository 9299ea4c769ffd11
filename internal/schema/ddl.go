package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/pgjson/internal/jsoncodec"
	"github.com/alfredjeanlab/pgjson/internal/jsonfield"
)

// Column names a JSON field in a table.
type Column struct {
	Name  string
	Field *jsonfield.Field
}

// ColumnDDL returns the definition of a single column, e.g. "data" jsonb NOT NULL.
func ColumnDDL(ctx context.Context, vs jsonfield.VersionSource, col Column) (string, error) {
	typ, err := col.Field.DBType(ctx, vs)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", col.Name, err)
	}
	def := pq.QuoteIdentifier(col.Name) + " " + typ
	if !col.Field.Null() {
		def += " NOT NULL"
	}
	return def, nil
}

// CreateTable returns a CREATE TABLE statement for cols. Every column type
// is checked against the server first, so unsupported types fail here.
func CreateTable(ctx context.Context, vs jsonfield.VersionSource, table string, cols []Column) (string, error) {
	defs := make([]string, 0, len(cols))
	for _, col := range cols {
		def, err := ColumnDDL(ctx, vs, col)
		if err != nil {
			return "", err
		}
		defs = append(defs, "    "+def)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", pq.QuoteIdentifier(table), strings.Join(defs, ",\n")), nil
}

// FreezeModel freezes every column of table.
func FreezeModel(table string, cols []Column) FrozenModel {
	m := FrozenModel{Table: table}
	for _, col := range cols {
		m.Fields = append(m.Fields, Freeze(col.Name, col.Field))
	}
	return m
}

// ThawModel rebuilds the columns of a frozen model.
func ThawModel(m FrozenModel, c *jsoncodec.Codec, extra ...jsonfield.Option) ([]Column, error) {
	cols := make([]Column, 0, len(m.Fields))
	for _, ff := range m.Fields {
		f, err := Thaw(ff, c, extra...)
		if err != nil {
			return nil, fmt.Errorf("thaw %s: %w", m.Table, err)
		}
		cols = append(cols, Column{Name: ff.Name, Field: f})
	}
	return cols, nil
}
