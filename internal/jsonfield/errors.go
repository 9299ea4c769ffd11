package jsonfield

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-version"
)

var (
	// ErrUnsupportedServer is wrapped by VersionError.
	ErrUnsupportedServer = errors.New("unsupported postgresql server version")

	// ErrInvalidLookupValue is wrapped by LookupTypeError.
	ErrInvalidLookupValue = errors.New("invalid lookup value")

	// ErrUnknownLookup is returned when a filter path ends in a name that is
	// neither a registered lookup nor a transform.
	ErrUnknownLookup = errors.New("unsupported lookup")

	// ErrUnknownField is returned when a filter path names a column that has
	// no field descriptor.
	ErrUnknownField = errors.New("unknown json field")

	// ErrMalformedJSON is returned by FromDB on fields with strict decoding.
	ErrMalformedJSON = errors.New("malformed json")

	// ErrRequired is returned by FormField.Clean for empty required input.
	ErrRequired = errors.New("this field is required")
)

// VersionError reports a column type the connected server cannot store.
type VersionError struct {
	Type string
	Have *version.Version
	Need *version.Version
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("postgresql >= %s is required for %s columns (server is %s)",
		e.Need.Original(), e.Type, e.Have.Original())
}

func (e *VersionError) Unwrap() error {
	return ErrUnsupportedServer
}

// LookupTypeError reports a lookup operand of a type the operator cannot
// accept.
type LookupTypeError struct {
	Lookup string
	Want   string
	Got    any
}

func (e *LookupTypeError) Error() string {
	return fmt.Sprintf("%s lookup requires %s, got %T", e.Lookup, e.Want, e.Got)
}

func (e *LookupTypeError) Unwrap() error {
	return ErrInvalidLookupValue
}
