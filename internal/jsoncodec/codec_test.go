package jsoncodec

import (
	"encoding/json"
	"errors"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v2"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"", "standard", "stdlib", "goccy"} {
		enc, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) error: %v", name, err)
		}
		if enc.Encode == nil {
			t.Errorf("Lookup(%q) returned nil Encode", name)
		}
	}
	if enc, _ := Lookup(""); enc.Name != DefaultEncoder {
		t.Errorf("Lookup(\"\").Name = %q, want %q", enc.Name, DefaultEncoder)
	}

	_, err := Lookup("fastest")
	if !errors.Is(err, ErrUnknownEncoder) {
		t.Errorf("Lookup(unknown) error = %v, want ErrUnknownEncoder", err)
	}
}

func TestEncodeSeparators(t *testing.T) {
	c := Default()
	for _, tc := range []struct {
		name string
		in   any
		opts Options
		want string
	}{
		{"DefaultObject", map[string]any{"a": 1}, Options{}, `{"a": 1}`},
		{"DefaultArray", []any{1, "x", nil}, Options{}, `[1, "x", null]`},
		{"StringKeepsPunctuation", map[string]any{"k": "a, b: c \"q\""}, Options{}, `{"k": "a, b: c \"q\""}`},
		{"Compact", map[string]any{"a": 1, "b": 2}, Options{ItemSeparator: ",", KeySeparator: ":"}, `{"a":1,"b":2}`},
		{"Indent", map[string]any{"a": 1}, Options{Indent: "  "}, "{\n  \"a\": 1\n}"},
		{"NoEscapeHTML", "<b>", Options{}, `"<b>"`},
		{"EscapeHTML", "<b>", Options{EscapeHTML: true}, `"\u003cb\u003e"`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Encode(tc.in, tc.opts)
			if err != nil {
				t.Fatalf("Encode error: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("Encode = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEncodersAgree(t *testing.T) {
	in := map[string]any{"list": []any{1, 2.5, "three"}, "nested": map[string]any{"ok": true}}
	var outputs []string
	for _, name := range EncoderNames() {
		c, err := New(name, false)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		data, err := c.Encode(in, Options{})
		if err != nil {
			t.Fatalf("%s: Encode error: %v", name, err)
		}
		outputs = append(outputs, string(data))
	}
	for i := 1; i < len(outputs); i++ {
		if outputs[i] != outputs[0] {
			t.Errorf("encoder outputs differ:\n%s\n%s", outputs[0], outputs[i])
		}
	}
}

func TestStandardEncoderTypes(t *testing.T) {
	c := Default()
	ts := time.Date(2024, 3, 5, 14, 30, 15, 123456789, time.UTC)
	dec, _, err := apd.NewFromString("12.50")
	if err != nil {
		t.Fatalf("apd: %v", err)
	}
	in := map[string]any{
		"at":      ts,
		"whole":   time.Date(2024, 3, 5, 14, 30, 15, 0, time.FixedZone("", 2*3600)),
		"took":    26*time.Hour + 3*time.Minute + 4*time.Second + 500*time.Millisecond,
		"price":   dec,
		"ratio":   big.NewFloat(0.25),
		"history": []any{ts},
	}
	data, err := c.Encode(in, Options{ItemSeparator: ",", KeySeparator: ":"})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	want := `{"at":"2024-03-05T14:30:15.123Z","history":["2024-03-05T14:30:15.123Z"],` +
		`"price":"12.50","ratio":"0.25","took":"P1DT02H03M04.500000S","whole":"2024-03-05T14:30:15+02:00"}`
	if string(data) != want {
		t.Errorf("Encode =\n%s\nwant\n%s", data, want)
	}
}

func TestFormatDuration(t *testing.T) {
	for _, tc := range []struct {
		in   time.Duration
		want string
	}{
		{0, "P0DT00H00M00S"},
		{90 * time.Second, "P0DT00H01M30S"},
		{-(48*time.Hour + time.Microsecond), "-P2DT00H00M00.000001S"},
	} {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	c := Default()
	for _, v := range []any{
		map[string]any{"a": float64(1), "b": []any{"x", true, nil}},
		[]any{float64(1), float64(2), map[string]any{}},
		"plain",
		float64(3.5),
		true,
		nil,
	} {
		data, err := c.Encode(v, Options{})
		if err != nil {
			t.Fatalf("Encode(%v): %v", v, err)
		}
		got, err := c.Decode(data)
		if err != nil {
			t.Fatalf("Decode(%s): %v", data, err)
		}
		if !reflect.DeepEqual(got, v) {
			t.Errorf("round trip of %#v = %#v", v, got)
		}
	}
}

func TestDecode(t *testing.T) {
	c := Default()
	if _, err := c.Decode([]byte(`{a:1}`)); err == nil {
		t.Error("Decode(malformed) should fail")
	}
	if _, err := c.Decode([]byte(`{"a":1} {"b":2}`)); !errors.Is(err, ErrTrailingData) {
		t.Errorf("Decode(two values) error = %v, want ErrTrailingData", err)
	}
	if _, err := c.Decode([]byte("{\"a\":1}\n  ")); err != nil {
		t.Errorf("Decode(trailing whitespace) error: %v", err)
	}

	num, err := New("standard", true)
	if err != nil {
		t.Fatal(err)
	}
	got, err := num.Decode([]byte(`{"big":12345678901234567890}`))
	if err != nil {
		t.Fatal(err)
	}
	if n := got.(map[string]any)["big"]; n != json.Number("12345678901234567890") {
		t.Errorf("UseNumber decode = %#v", n)
	}
}

func TestAdapter(t *testing.T) {
	a := Adapt(map[string]any{"a": 1}, nil, Options{})
	v, err := a.Value()
	if err != nil {
		t.Fatalf("Value error: %v", err)
	}
	if v != `{"a": 1}` {
		t.Errorf("Value = %v, want %q", v, `{"a": 1}`)
	}
	if !reflect.DeepEqual(a.Adapted(), map[string]any{"a": 1}) {
		t.Errorf("Adapted = %v", a.Adapted())
	}

	raw := Adapt(json.RawMessage(`{"pre":"encoded"}`), nil, Options{})
	if v, _ := raw.Value(); v != `{"pre":"encoded"}` {
		t.Errorf("raw Value = %v", v)
	}

	bad := Adapt(make(chan int), nil, Options{})
	if _, err := bad.Value(); err == nil {
		t.Error("Value of unsupported type should fail")
	}
}

func TestCodecMarshalUnmarshal(t *testing.T) {
	c := Default()
	data, err := c.Marshal([]any{"a", 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["a", 1]` {
		t.Errorf("Marshal = %s", data)
	}
	var dst []string
	if err := c.Unmarshal([]byte(`["x","y"]`), &dst); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(dst, []string{"x", "y"}) {
		t.Errorf("Unmarshal = %v", dst)
	}
}
