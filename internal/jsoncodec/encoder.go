package jsoncodec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/cockroachdb/apd/v2"
	gojson "github.com/goccy/go-json"
)

// DefaultEncoder is the encoder used when none is configured.
const DefaultEncoder = "standard"

// ErrUnknownEncoder is returned by Lookup for names missing from the registry.
var ErrUnknownEncoder = errors.New("unknown json encoder")

// EncodeFunc serializes v to JSON text laid out according to o.
type EncodeFunc func(v any, o Options) ([]byte, error)

// Encoder is a named EncodeFunc.
type Encoder struct {
	Name   string
	Encode EncodeFunc
}

var encoders = map[string]EncodeFunc{
	"standard": encodeStandard,
	"stdlib":   encodeStdlib,
	"goccy":    encodeGoccy,
}

// Lookup resolves an encoder by name.
func Lookup(name string) (Encoder, error) {
	if name == "" {
		name = DefaultEncoder
	}
	fn, ok := encoders[name]
	if !ok {
		return Encoder{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownEncoder, name, EncoderNames())
	}
	return Encoder{Name: name, Encode: fn}, nil
}

// EncoderNames returns the registered encoder names in sorted order.
func EncoderNames() []string {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func encodeStdlib(v any, o Options) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(o.EscapeHTML)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return o.layout(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

func encodeGoccy(v any, o Options) ([]byte, error) {
	var buf bytes.Buffer
	enc := gojson.NewEncoder(&buf)
	enc.SetEscapeHTML(o.EscapeHTML)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return o.layout(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// encodeStandard understands dates, times, durations and decimals on top of
// encoding/json.
func encodeStandard(v any, o Options) ([]byte, error) {
	return encodeStdlib(normalize(v), o)
}

// normalize rewrites the values encoding/json would render differently from
// the standard encoder. Only generic containers are walked; structs keep
// their own marshaling.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case time.Time:
		return FormatTime(x)
	case *time.Time:
		if x == nil {
			return nil
		}
		return FormatTime(*x)
	case time.Duration:
		return FormatDuration(x)
	case apd.Decimal:
		return x.String()
	case *apd.Decimal:
		if x == nil {
			return nil
		}
		return x.String()
	case big.Float:
		return x.Text('f', -1)
	case *big.Float:
		if x == nil {
			return nil
		}
		return x.Text('f', -1)
	}
	return v
}

// FormatTime renders t as ISO-8601 truncated to milliseconds, using "Z" for
// UTC.
func FormatTime(t time.Time) string {
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05Z07:00")
	}
	return t.Format("2006-01-02T15:04:05.000Z07:00")
}

// FormatDuration renders d as an ISO-8601 duration with a day component,
// e.g. "P1DT02H03M04.500000S".
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	micros := d / time.Microsecond

	frac := ""
	if micros != 0 {
		frac = fmt.Sprintf(".%06d", micros)
	}
	return fmt.Sprintf("%sP%dDT%02dH%02dM%02d%sS", sign, days, hours, minutes, seconds, frac)
}
