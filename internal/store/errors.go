package store

import "errors"

var (
	// ErrConflict is returned when a document with the same ID already exists.
	ErrConflict = errors.New("document already exists")

	// ErrSchemaMismatch is returned when a frozen schema does not describe
	// the documents table the migrations create.
	ErrSchemaMismatch = errors.New("schema does not match the documents table")
)
