package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/pgjson/internal/model"
	"github.com/alfredjeanlab/pgjson/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	DocumentCount int       `json:"document_count"`
	Encoder       string    `json:"encoder"`
}

// record is one exported document. Data and Meta hold the column text as
// the field serializes it, so field options survive the export.
type record struct {
	Type       string    `json:"type"`
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	Data       string    `json:"data"`
	Meta       *string   `json:"meta,omitempty"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ExportJSONL writes every document in the store as JSONL to w, sorted by ID.
func ExportJSONL(ctx context.Context, s store.Store, fields store.Fields, w io.Writer) error {
	docs, _, err := s.ListDocuments(ctx, model.DocumentFilter{Sort: "created_at"})
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:       "1",
		Type:          "header",
		Timestamp:     time.Now().UTC(),
		DocumentCount: len(docs),
		Encoder:       fields.Data.Codec().EncoderName(),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, d := range docs {
		rec, err := toRecord(fields, d)
		if err != nil {
			return fmt.Errorf("serialize document %s: %w", d.ID, err)
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode document %s: %w", d.ID, err)
		}
	}

	return nil
}

func toRecord(fields store.Fields, d *model.Document) (record, error) {
	data, err := fields.Data.ValueToString(d.Data)
	if err != nil {
		return record{}, fmt.Errorf("data: %w", err)
	}
	rec := record{
		Type:       "document",
		ID:         d.ID,
		Collection: d.Collection,
		Data:       data,
		CreatedBy:  d.CreatedBy,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.Meta != nil {
		meta, err := fields.Meta.ValueToString(d.Meta)
		if err != nil {
			return record{}, fmt.Errorf("meta: %w", err)
		}
		rec.Meta = &meta
	}
	return rec, nil
}
