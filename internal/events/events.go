// Package events carries document change notifications.
package events

import (
	"context"

	"github.com/alfredjeanlab/pgjson/internal/model"
)

// Event topic constants
const (
	TopicDocumentCreated = "pgjson.document.created"
	TopicDocumentUpdated = "pgjson.document.updated"
	TopicDocumentDeleted = "pgjson.document.deleted"

	// TopicAll matches every topic above.
	TopicAll = "pgjson.>"
)

// Event types

type DocumentCreated struct {
	Document *model.Document `json:"document"`
}

type DocumentUpdated struct {
	Document *model.Document `json:"document"`
	Previous any             `json:"previous,omitempty"` // data before the update
	// PreviousCollection is set when the update moved the document.
	PreviousCollection string `json:"previous_collection,omitempty"`
}

type DocumentDeleted struct {
	DocumentID string `json:"document_id"`
	Collection string `json:"collection,omitempty"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
