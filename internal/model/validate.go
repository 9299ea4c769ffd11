package model

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

var collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_.-]*$`)

// MaxCollectionLength bounds collection names.
const MaxCollectionLength = 64

// ValidateDocument checks a Document for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the document is valid.
func ValidateDocument(d *Document) error {
	var ve ValidationError

	switch {
	case d.Collection == "":
		ve.Errors = append(ve.Errors, FieldError{Field: "collection", Message: "is required"})
	case len(d.Collection) > MaxCollectionLength:
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "collection",
			Message: fmt.Sprintf("must be %d characters or fewer", MaxCollectionLength),
		})
	case !collectionPattern.MatchString(d.Collection):
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "collection",
			Message: fmt.Sprintf("invalid value %q (lowercase letters, digits, '_', '.', '-')", d.Collection),
		})
	}

	if d.Data == nil {
		ve.Errors = append(ve.Errors, FieldError{Field: "data", Message: "is required"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
