package model

import "time"

// Document is a JSON value stored in a named collection.
type Document struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	Data       any       `json:"data"`
	Meta       any       `json:"meta,omitempty"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
