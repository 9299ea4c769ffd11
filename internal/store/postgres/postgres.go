// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hashicorp/go-version"

	"github.com/alfredjeanlab/pgjson/internal/jsonfield"
	"github.com/alfredjeanlab/pgjson/internal/model"
	"github.com/alfredjeanlab/pgjson/internal/pgdriver"
	"github.com/alfredjeanlab/pgjson/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db     *sql.DB
	fields store.Fields
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// Open connects to databaseURL through the named driver and calls New. The
// store owns the connection.
func Open(ctx context.Context, driverName, databaseURL string, fields store.Fields) (*PostgresStore, error) {
	db, err := pgdriver.OpenContext(ctx, driverName, databaseURL, fields.Data.Codec())
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, db, fields)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New checks that the server supports the configured column types, runs any
// pending migrations and returns a store using db.
func New(ctx context.Context, db *sql.DB, fields store.Fields) (*PostgresStore, error) {
	vs := jsonfield.DBVersion{DB: db}
	for _, col := range fields.Columns() {
		if _, err := col.Field.DBType(ctx, vs); err != nil {
			return nil, fmt.Errorf("check column %s: %w", col.Name, err)
		}
	}

	if err := runMigrations(db, false); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db, fields: fields}, nil
}

// Migrate applies (or, with down set, reverts) the embedded migrations.
func Migrate(db *sql.DB, down bool) error {
	return runMigrations(db, down)
}

func runMigrations(db *sql.DB, down bool) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	apply := m.Up
	if down {
		apply = m.Down
	}
	if err := apply(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Fields returns the column descriptors the store reads and writes with.
func (s *PostgresStore) Fields() store.Fields {
	return s.fields
}

// ServerVersion implements jsonfield.VersionSource.
func (s *PostgresStore) ServerVersion(ctx context.Context) (*version.Version, error) {
	return jsonfield.DBVersion{DB: s.db}.ServerVersion(ctx)
}

// DB returns the underlying handle.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	return queryCreateDocument(ctx, s.db, s.fields, doc)
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	return queryGetDocument(ctx, s.db, s.fields, id)
}

func (s *PostgresStore) ListDocuments(ctx context.Context, filter model.DocumentFilter) ([]*model.Document, int, error) {
	return queryListDocuments(ctx, s.db, s.fields, filter)
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	return queryUpdateDocument(ctx, s.db, s.fields, doc)
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, id string) error {
	return queryDeleteDocument(ctx, s.db, id)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx, fields: s.fields}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx     *sql.Tx
	fields store.Fields
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	return queryCreateDocument(ctx, s.tx, s.fields, doc)
}

func (s *txStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	return queryGetDocument(ctx, s.tx, s.fields, id)
}

func (s *txStore) ListDocuments(ctx context.Context, filter model.DocumentFilter) ([]*model.Document, int, error) {
	return queryListDocuments(ctx, s.tx, s.fields, filter)
}

func (s *txStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	return queryUpdateDocument(ctx, s.tx, s.fields, doc)
}

func (s *txStore) DeleteDocument(ctx context.Context, id string) error {
	return queryDeleteDocument(ctx, s.tx, id)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
