// Package server exposes the document store over HTTP.
package server

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/pgjson/internal/events"
	"github.com/alfredjeanlab/pgjson/internal/jsonfield"
	"github.com/alfredjeanlab/pgjson/internal/store"
)

// DocumentServer serves documents from a store and announces changes on the
// event bus and the SSE stream.
type DocumentServer struct {
	store     store.Store
	fields    store.Fields
	versions  jsonfield.VersionSource
	publisher events.Publisher
	feed      *changeFeed
}

// NewDocumentServer returns a DocumentServer backed by the given store,
// column descriptors and publisher.
func NewDocumentServer(s store.Store, fields store.Fields, p events.Publisher) *DocumentServer {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	return &DocumentServer{
		store:     s,
		fields:    fields,
		publisher: p,
		feed:      newChangeFeed(),
	}
}

// WithVersionSource sets where GET /v1/schema learns the server version
// used to render column DDL. Without one the DDL is omitted.
func (s *DocumentServer) WithVersionSource(vs jsonfield.VersionSource) *DocumentServer {
	s.versions = vs
	return s
}

// recordAndPublish publishes an event to the bus and to the change feed.
// Failures are logged and never fail the caller.
func (s *DocumentServer) recordAndPublish(ctx context.Context, topic, docID string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "document_id", docID, "error", err)
	}
	s.broadcastEvent(topic, docID, event)
}

// inputError indicates invalid user input. Handlers map it to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
