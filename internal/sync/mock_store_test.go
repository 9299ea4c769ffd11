package sync

import (
	"context"
	"database/sql"
	"sort"

	"github.com/alfredjeanlab/pgjson/internal/model"
	"github.com/alfredjeanlab/pgjson/internal/store"
)

// mockStore is a minimal in-memory store for sync tests.
type mockStore struct {
	docs    map[string]*model.Document
	listErr error
}

func newMockStore() *mockStore {
	return &mockStore{docs: make(map[string]*model.Document)}
}

func (m *mockStore) CreateDocument(_ context.Context, doc *model.Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockStore) GetDocument(_ context.Context, id string) (*model.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

func (m *mockStore) ListDocuments(_ context.Context, _ model.DocumentFilter) ([]*model.Document, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var result []*model.Document
	for _, d := range m.docs {
		result = append(result, d)
	}
	// Reverse order so the exporter's own sort is exercised.
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result, len(result), nil
}

func (m *mockStore) UpdateDocument(_ context.Context, doc *model.Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockStore) DeleteDocument(_ context.Context, id string) error {
	delete(m.docs, id)
	return nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error {
	return nil
}
