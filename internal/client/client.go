// Package client provides a transport-agnostic interface for the document
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"encoding/json"

	"github.com/alfredjeanlab/pgjson/internal/model"
	"github.com/alfredjeanlab/pgjson/internal/schema"
)

// DocumentsClient is the interface the pgj CLI commands use to talk to the
// document server.
type DocumentsClient interface {
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*model.Document, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	ListDocuments(ctx context.Context, req *ListDocumentsRequest) (*ListDocumentsResponse, error)
	UpdateDocument(ctx context.Context, id string, req *UpdateDocumentRequest) (*model.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// GetForm returns the HTML edit form for a document.
	GetForm(ctx context.Context, id string) (string, error)
	GetSchema(ctx context.Context) (*SchemaResponse, error)

	Health(ctx context.Context) (string, error)
	Close() error
}

// CreateDocumentRequest holds parameters for creating a document. Data and
// Meta are sent verbatim.
type CreateDocumentRequest struct {
	ID         string          `json:"id,omitempty"`
	Collection string          `json:"collection"`
	Data       json.RawMessage `json:"data,omitempty"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	CreatedBy  string          `json:"created_by,omitempty"`
}

// ListDocumentsRequest holds parameters for listing documents. Each Where
// entry is a path=value condition such as "data__at_owner=bob".
type ListDocumentsRequest struct {
	Collection string
	Where      []string
	Sort       string
	Limit      int
	Offset     int
}

// ListDocumentsResponse is the response from ListDocuments.
type ListDocumentsResponse struct {
	Documents []*model.Document `json:"documents"`
	Total     int               `json:"total"`
}

// UpdateDocumentRequest holds the parts of a document to replace. Empty
// fields are left alone; Meta set to "null" clears meta.
type UpdateDocumentRequest struct {
	Collection string          `json:"collection,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Meta       json.RawMessage `json:"meta,omitempty"`
}

// SchemaResponse describes the server's documents table.
type SchemaResponse struct {
	Table   string              `json:"table"`
	DDL     string              `json:"ddl,omitempty"`
	Model   schema.FrozenModel  `json:"model"`
	Lookups map[string][]string `json:"lookups"`
}
