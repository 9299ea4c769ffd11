package model

import "github.com/alfredjeanlab/pgjson/internal/jsonfield"

// DocumentFilter holds criteria for querying documents.
type DocumentFilter struct {
	Collection string                `json:"collection,omitempty"`
	Where      []jsonfield.Condition `json:"where,omitempty"` // e.g. data__at_owner=alice, data__jhas=tags
	Sort       string                `json:"sort,omitempty"`  // e.g. "-updated_at"; prefix "-" = descending
	Limit      int                   `json:"limit,omitempty"`
	Offset     int                   `json:"offset,omitempty"`
}
