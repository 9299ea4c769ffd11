package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/alfredjeanlab/pgjson/internal/jsonfield"
	"github.com/alfredjeanlab/pgjson/internal/model"
	"github.com/alfredjeanlab/pgjson/internal/store"
)

// documentColumns is the column list used for SELECT statements on the documents table.
const documentColumns = `id, collection, data, meta, created_by, created_at, updated_at`

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateDocument(ctx context.Context, db executor, f store.Fields, d *model.Document) error {
	data, err := f.Data.ToDB(d.Data)
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}
	meta, err := f.Meta.ToDB(d.Meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO documents (
			id, collection, data, meta, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`,
		d.ID,
		d.Collection,
		data,
		meta,
		d.CreatedBy,
		d.CreatedAt,
		d.UpdatedAt,
	)
	return mapError(err)
}

func queryGetDocument(ctx context.Context, db executor, f store.Fields, id string) (*model.Document, error) {
	row := db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	return scanDocument(row, f)
}

func queryListDocuments(ctx context.Context, db executor, f store.Fields, filter model.DocumentFilter) ([]*model.Document, int, error) {
	var whereClauses []string
	args := jsonfield.NewArgs(0)

	if filter.Collection != "" {
		whereClauses = append(whereClauses, "collection = "+args.Add(filter.Collection))
	}

	preds, err := jsonfield.Compile(f.Map(), filter.Where, args)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	whereClauses = append(whereClauses, preds...)

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + documentColumns + " FROM documents" + whereSQL + " ORDER BY " + parseSortClause(filter.Sort)

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + args.Add(filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + args.Add(filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args.Values()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*model.Document
	var total int
	for rows.Next() {
		d, t, err := scanDocumentWithTotal(rows, f)
		if err != nil {
			return nil, 0, fmt.Errorf("scan documents: %w", err)
		}
		total = t
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan documents: %w", err)
	}

	return docs, total, nil
}

func queryUpdateDocument(ctx context.Context, db executor, f store.Fields, d *model.Document) error {
	data, err := f.Data.ToDB(d.Data)
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}
	meta, err := f.Meta.ToDB(d.Meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	return db.QueryRowContext(ctx, `
		UPDATE documents SET
			collection = $2,
			data = $3,
			meta = $4,
			updated_at = NOW()
		WHERE id = $1
		RETURNING created_by, created_at, updated_at`,
		d.ID,
		d.Collection,
		data,
		meta,
	).Scan(&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
}

func queryDeleteDocument(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// parseSortClause converts a sort string like "-updated_at" into a SQL ORDER
// BY clause. Only whitelisted columns are accepted.
func parseSortClause(sort string) string {
	if sort == "" {
		return "created_at DESC"
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"id": true, "collection": true, "created_at": true, "updated_at": true,
	}
	if !allowed[col] {
		return "created_at DESC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// mapError translates driver errors for either driver into store errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrConflict, pqErr.Constraint)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
