// Package jsoncodec converts Go values to and from the text representation
// PostgreSQL expects for json and jsonb columns.
package jsoncodec

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrTrailingData is returned by Decode when the input holds more than one
// JSON value.
var ErrTrailingData = errors.New("trailing data after json value")

// Codec pairs an encoder with the decoding settings used on read. A Codec is
// immutable and safe for concurrent use.
type Codec struct {
	encoder   Encoder
	useNumber bool
}

// New resolves the named encoder and returns a Codec using it. When
// useNumber is set, decoded numbers are json.Number instead of float64.
func New(encoder string, useNumber bool) (*Codec, error) {
	enc, err := Lookup(encoder)
	if err != nil {
		return nil, err
	}
	return &Codec{encoder: enc, useNumber: useNumber}, nil
}

// Default returns a Codec using DefaultEncoder.
func Default() *Codec {
	c, err := New(DefaultEncoder, false)
	if err != nil {
		panic(err)
	}
	return c
}

// EncoderName returns the name of the configured encoder.
func (c *Codec) EncoderName() string {
	return c.encoder.Name
}

// UseNumber reports whether decoded numbers are kept as json.Number.
func (c *Codec) UseNumber() bool {
	return c.useNumber
}

// Encode serializes v with the configured encoder.
func (c *Codec) Encode(v any, o Options) ([]byte, error) {
	data, err := c.encoder.Encode(v, o)
	if err != nil {
		return nil, fmt.Errorf("encode json (%s): %w", c.encoder.Name, err)
	}
	return data, nil
}

// Decode parses exactly one JSON value from data.
func (c *Codec) Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if c.useNumber {
		dec.UseNumber()
	}
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	return v, nil
}

// Marshal encodes v with default Options. Together with Unmarshal it forms
// the function pair handed to drivers that accept custom JSON codecs.
func (c *Codec) Marshal(v any) ([]byte, error) {
	return c.Encode(v, Options{})
}

// Unmarshal decodes data into dst.
func (c *Codec) Unmarshal(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if c.useNumber {
		dec.UseNumber()
	}
	return dec.Decode(dst)
}

// Adapter wraps a value so that it is sent to the database as JSON text.
type Adapter struct {
	adapted any
	codec   *Codec
	opts    Options
}

// Compile-time check that Adapter implements driver.Valuer.
var _ driver.Valuer = (*Adapter)(nil)

// Adapt wraps v for writing with c and o. A nil codec means Default().
func Adapt(v any, c *Codec, o Options) *Adapter {
	if c == nil {
		c = Default()
	}
	return &Adapter{adapted: v, codec: c, opts: o}
}

// Adapted returns the wrapped value.
func (a *Adapter) Adapted() any {
	return a.adapted
}

// Value implements driver.Valuer. json.RawMessage values are sent as-is.
func (a *Adapter) Value() (driver.Value, error) {
	if raw, ok := a.adapted.(json.RawMessage); ok {
		return string(raw), nil
	}
	data, err := a.codec.Encode(a.adapted, a.opts)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
