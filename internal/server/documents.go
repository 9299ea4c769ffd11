package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alfredjeanlab/pgjson/internal/events"
	"github.com/alfredjeanlab/pgjson/internal/idgen"
	"github.com/alfredjeanlab/pgjson/internal/jsonfield"
	"github.com/alfredjeanlab/pgjson/internal/model"
	"github.com/alfredjeanlab/pgjson/internal/store"
)

// documentInput is the body of POST and PUT /v1/documents. Data and Meta
// stay raw so the column's codec decodes them.
type documentInput struct {
	ID         string          `json:"id,omitempty"`
	Collection string          `json:"collection"`
	Data       json.RawMessage `json:"data"`
	Meta       json.RawMessage `json:"meta"`
	CreatedBy  string          `json:"created_by"`
}

// decodeColumn decodes raw with the field's codec. The second result is
// false when raw is absent.
func decodeColumn(f *jsonfield.Field, raw json.RawMessage) (any, bool, error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	v, err := f.Codec().Decode(raw)
	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}

func (s *DocumentServer) createDocument(ctx context.Context, in documentInput) (*model.Document, error) {
	id := in.ID
	if id == "" {
		var err error
		if id, err = idgen.Generate(); err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}
	} else if !idgen.Valid(id) {
		return nil, inputError(fmt.Sprintf("invalid id %q", id))
	}

	data, ok, err := decodeColumn(s.fields.Data, in.Data)
	if err != nil {
		return nil, inputError("data: " + err.Error())
	}
	if !ok && s.fields.Data.HasDefault() {
		data = s.fields.Data.Default()
	}
	meta, _, err := decodeColumn(s.fields.Meta, in.Meta)
	if err != nil {
		return nil, inputError("meta: " + err.Error())
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:         id,
		Collection: in.Collection,
		Data:       data,
		Meta:       meta,
		CreatedBy:  in.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := model.ValidateDocument(doc); err != nil {
		return nil, err
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicDocumentCreated, doc.ID, events.DocumentCreated{Document: doc})
	return doc, nil
}

// updateDocument replaces the parts of a document present in in. A JSON
// null meta clears it; an absent one keeps it.
func (s *DocumentServer) updateDocument(ctx context.Context, id string, in documentInput) (*model.Document, error) {
	var (
		doc          *model.Document
		previous     any
		previousColl string
	)
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		doc, err = tx.GetDocument(ctx, id)
		if err != nil {
			return err
		}
		previous, previousColl = doc.Data, doc.Collection

		if in.Collection != "" {
			doc.Collection = in.Collection
		}
		if data, ok, err := decodeColumn(s.fields.Data, in.Data); err != nil {
			return inputError("data: " + err.Error())
		} else if ok {
			doc.Data = data
		}
		if meta, ok, err := decodeColumn(s.fields.Meta, in.Meta); err != nil {
			return inputError("meta: " + err.Error())
		} else if ok {
			doc.Meta = meta
		}
		doc.UpdatedAt = time.Now().UTC()

		if err := model.ValidateDocument(doc); err != nil {
			return err
		}
		return tx.UpdateDocument(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	if previousColl == doc.Collection {
		previousColl = ""
	}
	s.recordAndPublish(ctx, events.TopicDocumentUpdated, doc.ID, events.DocumentUpdated{Document: doc, Previous: previous, PreviousCollection: previousColl})
	return doc, nil
}

func (s *DocumentServer) deleteDocument(ctx context.Context, id string) error {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.recordAndPublish(ctx, events.TopicDocumentDeleted, id, events.DocumentDeleted{DocumentID: id, Collection: doc.Collection})
	return nil
}
