package postgres

import (
	"database/sql"

	"github.com/alfredjeanlab/pgjson/internal/model"
	"github.com/alfredjeanlab/pgjson/internal/store"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanDocument scans a single row into a model.Document.
// The row must contain columns in the order defined by documentColumns.
func scanDocument(row scannable, f store.Fields) (*model.Document, error) {
	var d model.Document
	var createdBy sql.NullString

	err := row.Scan(
		&d.ID,
		&d.Collection,
		f.Data.Scan(&d.Data),
		f.Meta.Scan(&d.Meta),
		&createdBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.CreatedBy = createdBy.String
	return &d, nil
}

// scanDocumentWithTotal scans a row that has a leading total_count column
// followed by the standard document columns. Used by queryListDocuments with
// COUNT(*) OVER().
func scanDocumentWithTotal(row scannable, f store.Fields) (*model.Document, int, error) {
	var total int
	var d model.Document
	var createdBy sql.NullString

	err := row.Scan(
		&total,
		&d.ID,
		&d.Collection,
		f.Data.Scan(&d.Data),
		f.Meta.Scan(&d.Meta),
		&createdBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, 0, err
	}
	d.CreatedBy = createdBy.String
	return &d, total, nil
}
