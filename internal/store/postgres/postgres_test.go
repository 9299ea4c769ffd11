package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/alfredjeanlab/pgjson/internal/jsoncodec"
	"github.com/alfredjeanlab/pgjson/internal/jsonfield"
	"github.com/alfredjeanlab/pgjson/internal/model"
	"github.com/alfredjeanlab/pgjson/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func testFields() store.Fields {
	return store.NewFields(jsoncodec.Default(), false)
}

// documentColumnNames is the column list for scanDocument results.
var documentColumnNames = []string{"id", "collection", "data", "meta", "created_by", "created_at", "updated_at"}

// documentWithTotalColumns is the column list for queryListDocuments results.
var documentWithTotalColumns = append([]string{"total_count"}, documentColumnNames...)

func TestParseSortClause(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{"", "created_at DESC"},
		{"collection", "collection ASC"},
		{"-updated_at", "updated_at DESC"},
		{"data", "created_at DESC"},
		{"-evil_column", "created_at DESC"},
	} {
		if got := parseSortClause(tc.input); got != tc.want {
			t.Errorf("parseSortClause(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestQueryCreateDocument(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	doc := &model.Document{
		ID: "doc-1", Collection: "orders",
		Data:      map[string]any{"total": 3, "tags": []any{"a"}},
		CreatedBy: "alice", CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("doc-1", "orders", `{"tags": ["a"], "total": 3}`, nil, "alice", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCreateDocument(context.Background(), db, testFields(), doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryCreateDocument_DefaultsTimestamps(t *testing.T) {
	db, mock := newMockDB(t)
	doc := &model.Document{ID: "doc-2", Collection: "orders", Data: "x", Meta: map[string]any{"v": 1}}
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("doc-2", "orders", `"x"`, `{"v": 1}`, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCreateDocument(context.Background(), db, testFields(), doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.CreatedAt.IsZero() || !doc.UpdatedAt.Equal(doc.CreatedAt) {
		t.Errorf("timestamps not defaulted: created=%v updated=%v", doc.CreatedAt, doc.UpdatedAt)
	}
}

func TestQueryCreateDocument_Conflict(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"pq", &pq.Error{Code: "23505", Constraint: "documents_pkey"}},
		{"pgx", &pgconn.PgError{Code: "23505", ConstraintName: "documents_pkey"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec("INSERT INTO documents").WillReturnError(tc.err)

			err := queryCreateDocument(context.Background(), db, testFields(), &model.Document{ID: "doc-1", Collection: "c", Data: 1})
			if !errors.Is(err, store.ErrConflict) {
				t.Fatalf("expected store.ErrConflict, got %v", err)
			}
		})
	}
}

func TestQueryGetDocument(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(documentColumnNames).AddRow(
		"doc-1", "orders", []byte(`{"owner": {"name": "bob"}}`), nil, nil, now, now,
	)
	mock.ExpectQuery("SELECT .+ FROM documents WHERE id = \\$1").WithArgs("doc-1").WillReturnRows(rows)

	doc, err := queryGetDocument(context.Background(), db, testFields(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"owner": map[string]any{"name": "bob"}}
	if doc.ID != "doc-1" || !reflect.DeepEqual(doc.Data, want) {
		t.Fatalf("got id=%q data=%#v", doc.ID, doc.Data)
	}
	if doc.Meta != nil {
		t.Errorf("Meta = %#v, want nil for SQL NULL", doc.Meta)
	}
}

func TestQueryGetDocument_MalformedStoredText(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(documentColumnNames).AddRow(
		"doc-1", "legacy", "{a:1}", "not json either", "", now, now,
	)
	mock.ExpectQuery("SELECT .+ FROM documents WHERE id = \\$1").WithArgs("doc-1").WillReturnRows(rows)

	doc, err := queryGetDocument(context.Background(), db, testFields(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Data != "{a:1}" || doc.Meta != "not json either" {
		t.Errorf("got data=%#v meta=%#v, want raw text", doc.Data, doc.Meta)
	}
}

func TestQueryGetDocument_StrictDecode(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(documentColumnNames).AddRow("doc-1", "legacy", "{a:1}", nil, "", now, now)
	mock.ExpectQuery("SELECT .+ FROM documents WHERE id = \\$1").WithArgs("doc-1").WillReturnRows(rows)

	_, err := queryGetDocument(context.Background(), db, store.NewFields(nil, true), "doc-1")
	if !errors.Is(err, jsonfield.ErrMalformedJSON) {
		t.Fatalf("expected ErrMalformedJSON, got %v", err)
	}
}

func TestQueryGetDocument_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM documents WHERE id = \\$1").WithArgs("nonexistent").WillReturnError(sql.ErrNoRows)

	_, err := queryGetDocument(context.Background(), db, testFields(), "nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryUpdateDocument(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	doc := &model.Document{ID: "doc-1", Collection: "orders", Data: []any{1, 2}}
	mock.ExpectQuery("UPDATE documents SET").
		WithArgs("doc-1", "orders", "[1, 2]", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_by", "created_at", "updated_at"}).AddRow("alice", now, now))

	if err := queryUpdateDocument(context.Background(), db, testFields(), doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.CreatedBy != "alice" || !doc.UpdatedAt.Equal(now) {
		t.Errorf("returned columns not applied: %+v", doc)
	}
}

func TestQueryUpdateDocument_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	doc := &model.Document{ID: "nonexistent", Collection: "orders", Data: 1}
	mock.ExpectQuery("UPDATE documents SET").
		WithArgs("nonexistent", "orders", "1", nil).
		WillReturnError(sql.ErrNoRows)

	if err := queryUpdateDocument(context.Background(), db, testFields(), doc); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryDeleteDocument(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM documents WHERE id = \\$1").WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryDeleteDocument(context.Background(), db, "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryDeleteDocument_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM documents WHERE id = \\$1").WithArgs("nonexistent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryDeleteDocument(context.Background(), db, "nonexistent"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryListDocuments(t *testing.T) {
	now := time.Now().UTC()

	for _, tc := range []struct {
		name     string
		filter   model.DocumentFilter
		queryPat string
		args     []driver.Value
	}{
		{
			name:     "NoFilter",
			filter:   model.DocumentFilter{},
			queryPat: "SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ FROM documents ORDER BY created_at DESC",
		},
		{
			name:     "Collection",
			filter:   model.DocumentFilter{Collection: "orders"},
			queryPat: "SELECT .+ FROM documents WHERE collection = \\$1 ORDER BY",
			args:     []driver.Value{"orders"},
		},
		{
			name: "KeyExact",
			filter: model.DocumentFilter{Where: []jsonfield.Condition{
				{Path: "data__at_owner", Value: "bob"},
			}},
			queryPat: "SELECT .+ FROM documents WHERE \\(data -> \\$1::text\\) = \\$2::jsonb ORDER BY",
			args:     []driver.Value{"owner", `"bob"`},
		},
		{
			name: "CollectionAndContains",
			filter: model.DocumentFilter{Collection: "orders", Where: []jsonfield.Condition{
				{Path: "data__jcontains", Value: map[string]any{"paid": true}},
			}},
			queryPat: "SELECT .+ FROM documents WHERE collection = \\$1 AND data @> \\$2::jsonb ORDER BY",
			args:     []driver.Value{"orders", `{"paid": true}`},
		},
		{
			name: "HasAny",
			filter: model.DocumentFilter{Where: []jsonfield.Condition{
				{Path: "data__jhas_any", Value: []any{"a", "b"}},
			}},
			queryPat: "SELECT .+ FROM documents WHERE data \\?\\| \\$1::text\\[\\] ORDER BY",
			args:     []driver.Value{`{"a","b"}`},
		},
		{
			name: "MetaArrayLength",
			filter: model.DocumentFilter{Where: []jsonfield.Condition{
				{Path: "meta__at_items__array_length", Value: 2},
			}},
			queryPat: "SELECT .+ FROM documents WHERE json_array_length\\(\\(meta -> \\$1::text\\)\\) = \\$2 ORDER BY",
			args:     []driver.Value{"items", int64(2)},
		},
		{
			name:     "SortLimitOffset",
			filter:   model.DocumentFilter{Collection: "orders", Sort: "-updated_at", Limit: 10, Offset: 20},
			queryPat: "SELECT .+ FROM documents WHERE collection = \\$1 ORDER BY updated_at DESC LIMIT \\$2 OFFSET \\$3",
			args:     []driver.Value{"orders", 10, 20},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			rows := sqlmock.NewRows(documentWithTotalColumns).
				AddRow(2, "doc-1", "orders", `{"a": 1}`, nil, "", now, now).
				AddRow(2, "doc-2", "orders", `[1, 2]`, `{"v": 1}`, "", now, now)
			q := mock.ExpectQuery(tc.queryPat)
			if len(tc.args) > 0 {
				q = q.WithArgs(tc.args...)
			}
			q.WillReturnRows(rows)

			docs, total, err := queryListDocuments(context.Background(), db, testFields(), tc.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(docs) != 2 || total != 2 {
				t.Fatalf("got %d docs, total %d; want 2, 2", len(docs), total)
			}
			if !reflect.DeepEqual(docs[1].Meta, map[string]any{"v": float64(1)}) {
				t.Errorf("docs[1].Meta = %#v", docs[1].Meta)
			}
		})
	}
}

func TestQueryListDocuments_InvalidFilter(t *testing.T) {
	db, _ := newMockDB(t)
	for _, tc := range []struct {
		name string
		cond jsonfield.Condition
		want error
	}{
		{"unknown lookup", jsonfield.Condition{Path: "meta__jhas", Value: "a"}, jsonfield.ErrUnknownLookup},
		{"bad has operand", jsonfield.Condition{Path: "data__jhas", Value: 3.5}, jsonfield.ErrInvalidLookupValue},
		{"unknown column", jsonfield.Condition{Path: "collection", Value: "x"}, jsonfield.ErrUnknownField},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := queryListDocuments(context.Background(), db, testFields(),
				model.DocumentFilter{Where: []jsonfield.Condition{tc.cond}})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRunInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db, fields: testFields()}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM documents WHERE id = \\$1").WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.DeleteDocument(context.Background(), "doc-1")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunInTransaction_Rollback(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db, fields: testFields()}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM documents WHERE id = \\$1").WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.DeleteDocument(context.Background(), "missing")
	})
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestNew_UnsupportedServer(t *testing.T) {
	db, mock := newMockDB(t)
	// 9.3 has json but not jsonb; the data column is checked first.
	mock.ExpectQuery("SHOW server_version_num").
		WillReturnRows(sqlmock.NewRows([]string{"server_version_num"}).AddRow("90312"))

	_, err := New(context.Background(), db, testFields())
	var verr *jsonfield.VersionError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *jsonfield.VersionError, got %v", err)
	}
	if verr.Type != "jsonb" {
		t.Errorf("VersionError.Type = %q, want jsonb", verr.Type)
	}
}
