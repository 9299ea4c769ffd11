package store

import (
	"context"

	"github.com/alfredjeanlab/pgjson/internal/model"
)

// Store defines the persistence interface for documents.
type Store interface {
	CreateDocument(ctx context.Context, doc *model.Document) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	ListDocuments(ctx context.Context, filter model.DocumentFilter) ([]*model.Document, int, error) // returns documents, total count, error
	UpdateDocument(ctx context.Context, doc *model.Document) error
	DeleteDocument(ctx context.Context, id string) error

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
