package schema

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/alfredjeanlab/pgjson/internal/jsoncodec"
	"github.com/alfredjeanlab/pgjson/internal/jsonfield"
)

func TestRules(t *testing.T) {
	rs := Rules()
	if len(rs) != 2 {
		t.Fatalf("Rules() returned %d rules, want 2", len(rs))
	}
	for _, tc := range []struct {
		class string
		kind  jsonfield.Kind
		ok    bool
	}{
		{"pgjson.JSONField", jsonfield.KindJSON, true},
		{"pgjson.JSONBField", jsonfield.KindJSONB, true},
		{"pgjson.JSONFieldX", 0, false},
		{"other.pgjson.JSONField", 0, false},
	} {
		r, ok := ruleFor(tc.class)
		if ok != tc.ok {
			t.Errorf("ruleFor(%q) ok = %v, want %v", tc.class, ok, tc.ok)
			continue
		}
		if ok && (r.Kind != tc.kind || !r.Blank || r.Null) {
			t.Errorf("ruleFor(%q) = %+v", tc.class, r)
		}
	}
}

func TestFreezeOmitsDefaults(t *testing.T) {
	// blank=true, null=false are the class defaults.
	ff := Freeze("data", jsonfield.NewJSONB(nil, jsonfield.WithBlank(true)))
	if ff.Null != nil || ff.Blank != nil || ff.Options != nil {
		t.Errorf("Freeze = %+v, want only name and class", ff)
	}
	if ff.Class != "pgjson.JSONBField" {
		t.Errorf("Class = %q", ff.Class)
	}

	ff = Freeze("meta", jsonfield.NewJSON(nil, jsonfield.WithNull(true)))
	if ff.Null == nil || !*ff.Null {
		t.Errorf("Freeze null = %v, want true", ff.Null)
	}
	if ff.Blank == nil || *ff.Blank {
		t.Errorf("Freeze blank = %v, want false", ff.Blank)
	}
}

func TestThawAppliesDefaults(t *testing.T) {
	f, err := Thaw(FrozenField{Name: "data", Class: "pgjson.JSONBField"}, nil)
	if err != nil {
		t.Fatalf("Thaw: %v", err)
	}
	if f.Kind() != jsonfield.KindJSONB || !f.Blank() || f.Null() {
		t.Errorf("Thaw = kind %s blank %v null %v", f.Kind(), f.Blank(), f.Null())
	}

	_, err = Thaw(FrozenField{Name: "x", Class: "pgjson.HStoreField"}, nil)
	if !errors.Is(err, ErrUnknownClass) {
		t.Errorf("Thaw unknown class error = %v, want ErrUnknownClass", err)
	}
}

func TestFreezeThawRoundTrip(t *testing.T) {
	opts := jsoncodec.Options{Indent: "  ", EscapeHTML: true}
	cols := []Column{
		{Name: "data", Field: jsonfield.NewJSONB(nil, jsonfield.WithOptions(opts))},
		{Name: "meta", Field: jsonfield.NewJSON(nil, jsonfield.WithNull(true), jsonfield.WithBlank(true))},
	}
	m := FreezeModel("documents", cols)

	var buf bytes.Buffer
	if err := EncodeTOML(&buf, []FrozenModel{m}); err != nil {
		t.Fatalf("EncodeTOML: %v", err)
	}
	if !strings.Contains(buf.String(), `class = "pgjson.JSONBField"`) {
		t.Errorf("encoded TOML missing class:\n%s", buf.String())
	}

	models, err := DecodeTOML(&buf)
	if err != nil {
		t.Fatalf("DecodeTOML: %v", err)
	}
	if len(models) != 1 || !reflect.DeepEqual(models[0], m) {
		t.Fatalf("DecodeTOML = %+v, want %+v", models, m)
	}

	thawed, err := ThawModel(models[0], nil)
	if err != nil {
		t.Fatalf("ThawModel: %v", err)
	}
	for i, col := range thawed {
		orig := cols[i].Field
		if col.Name != cols[i].Name || col.Field.Kind() != orig.Kind() ||
			col.Field.Null() != orig.Null() || col.Field.Blank() != orig.Blank() ||
			col.Field.Options() != orig.Options() {
			t.Errorf("column %d thawed as %s %+v, want %s %+v", i, col.Name, col.Field.Deconstruct(col.Name), cols[i].Name, orig.Deconstruct(cols[i].Name))
		}
	}
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.toml")
	m := FreezeModel("t", []Column{{Name: "j", Field: jsonfield.NewJSON(nil)}})
	if err := WriteFile(path, []FrozenModel{m}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !reflect.DeepEqual(got, []FrozenModel{m}) {
		t.Errorf("ReadFile = %+v, want %+v", got, m)
	}
}

func TestWriteFileReportsWriteErrors(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	m := FreezeModel("t", []Column{{Name: "j", Field: jsonfield.NewJSON(nil)}})
	if err := WriteFile("/dev/full", []FrozenModel{m}); err == nil {
		t.Error("WriteFile(/dev/full) succeeded, want error")
	}
	if err := WriteFile(t.TempDir(), []FrozenModel{m}); err == nil {
		t.Error("WriteFile(dir) succeeded, want error")
	}
}

func TestCreateTable(t *testing.T) {
	cols := []Column{
		{Name: "data", Field: jsonfield.NewJSONB(nil)},
		{Name: "meta", Field: jsonfield.NewJSON(nil, jsonfield.WithNull(true))},
	}
	ddl, err := CreateTable(context.Background(), jsonfield.StaticVersion("9.6.0"), "documents", cols)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	want := "CREATE TABLE \"documents\" (\n    \"data\" jsonb NOT NULL,\n    \"meta\" json\n)"
	if ddl != want {
		t.Errorf("CreateTable =\n%s\nwant\n%s", ddl, want)
	}

	_, err = CreateTable(context.Background(), jsonfield.StaticVersion("9.3.0"), "documents", cols)
	if !errors.Is(err, jsonfield.ErrUnsupportedServer) {
		t.Errorf("CreateTable on 9.3 error = %v, want ErrUnsupportedServer", err)
	}
}
