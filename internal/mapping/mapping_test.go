package mapping

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/pkg/models"
)

func field(path, typ string) models.Field {
	return models.Field{Value: path, Label: path, Type: typ}
}

// TestFieldsObjectNeverEmitted verifies object entries only yield their leaves.
func TestFieldsObjectNeverEmitted(t *testing.T) {
	raw := []byte(`{"properties":{"user":{"properties":{"name":{"type":"text"},"age":{"type":"integer"}}}}}`)

	got, err := Fields(raw, 7)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	want := []models.Field{field("user.name", "text"), field("user.age", "integer")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

// TestFieldsPreservesDeclarationOrder verifies depth-first output in mapping order.
func TestFieldsPreservesDeclarationOrder(t *testing.T) {
	raw := []byte(`{"properties":{
		"zeta":{"type":"keyword"},
		"alpha":{"type":"nested","properties":{"b":{"type":"long"},"a":{"type":"long"}}},
		"mid":{"type":"text","fields":{"raw":{"type":"keyword"},"en":{"type":"text"}}}
	}}`)

	got, err := Fields(raw, 8)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	want := []models.Field{
		field("zeta", "keyword"),
		field("alpha.b", "long"),
		field("alpha.a", "long"),
		field("mid", "text"),
		field("mid.raw", "keyword"),
		field("mid.en", "text"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

// TestFieldsLegacyTypes verifies pre-7 mappings are read per type.
func TestFieldsLegacyTypes(t *testing.T) {
	raw := []byte(`{"doc":{"properties":{"title":{"type":"text"}}},"comment":{"properties":{"body":{"type":"text"}}}}`)

	got, err := Fields(raw, 6)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	want := []models.Field{field("title", "text"), field("body", "text")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	names, err := TypeNames(raw, 6)
	if err != nil {
		t.Fatalf("TypeNames: %v", err)
	}
	if diff := cmp.Diff([]string{"doc", "comment"}, names); diff != "" {
		t.Errorf("type names mismatch (-want +got):\n%s", diff)
	}
}

// TestParseCompatibilityWrapper verifies a 7.x mapping that still carries a type key.
func TestParseCompatibilityWrapper(t *testing.T) {
	raw := []byte(`{"_doc":{"properties":{"status":{"type":"keyword"}}}}`)

	m, err := Parse(raw, 7)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Shape != ShapeLegacyTyped {
		t.Errorf("expected legacy-typed shape, got %s", m.Shape)
	}
	if diff := cmp.Diff([]models.Field{field("status", "keyword")}, m.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	names, _ := TypeNames(raw, 7)
	if diff := cmp.Diff([]string{"_doc"}, names); diff != "" {
		t.Errorf("type names mismatch (-want +got):\n%s", diff)
	}
}

// TestTypeNamesTypeless verifies typeless mappings report the default type.
func TestTypeNamesTypeless(t *testing.T) {
	raw := []byte(`{"dynamic":"strict","properties":{"a":{"type":"long"}}}`)
	for _, major := range []int{7, 8} {
		names, err := TypeNames(raw, major)
		if err != nil {
			t.Fatalf("TypeNames(%d): %v", major, err)
		}
		if diff := cmp.Diff([]string{DefaultTypeName}, names); diff != "" {
			t.Errorf("major %d: type names mismatch (-want +got):\n%s", major, diff)
		}
	}
}

// TestFieldsSkipsMalformedEntries verifies one bad entry does not abort the walk.
func TestFieldsSkipsMalformedEntries(t *testing.T) {
	raw := []byte(`{"properties":{"bad":"text","empty":{},"ok":{"type":"date"},"obj":{"type":"object"}}}`)

	got, err := Fields(raw, 7)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if diff := cmp.Diff([]models.Field{field("ok", "date")}, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

// TestParseUnrecognized verifies a non-object mapping fails loudly.
func TestParseUnrecognized(t *testing.T) {
	m, err := Parse([]byte(`["not","a","mapping"]`), 7)
	if err == nil {
		t.Fatal("expected error for array mapping")
	}
	if m.Shape != ShapeUnrecognized {
		t.Errorf("expected unrecognized shape, got %s", m.Shape)
	}
	if cerrors.CodeOf(err) != cerrors.CodeFormat {
		t.Errorf("expected format error, got %v", cerrors.CodeOf(err))
	}
}

// TestParseEmpty verifies an index without mappings has no fields.
func TestParseEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", "{}"} {
		got, err := Fields([]byte(raw), 7)
		if err != nil {
			t.Fatalf("Fields(%q): %v", raw, err)
		}
		if len(got) != 0 {
			t.Errorf("Fields(%q) = %v, want none", raw, got)
		}
	}
}

// TestIndexFields verifies fields are read from a GET _mapping response.
func TestIndexFields(t *testing.T) {
	resp := []byte(`{"logs-1":{"mappings":{"properties":{"msg":{"type":"text"}}}}}`)

	got, err := IndexFields(resp, "logs-1", 8)
	if err != nil {
		t.Fatalf("IndexFields: %v", err)
	}
	if diff := cmp.Diff([]models.Field{field("msg", "text")}, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	if _, err := IndexFields(resp, "other", 8); err == nil {
		t.Error("expected error for missing index")
	}
}
