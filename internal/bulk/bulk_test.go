package bulk

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	cerrors "github.com/canonica-labs/esql/internal/errors"
)

func int64p(v int64) *int64 { return &v }

func sampleActions() []Action {
	return []Action{
		{Verb: VerbIndex, Index: "logs", ID: "1", Document: map[string]any{"msg": "hello"}},
		{Verb: VerbCreate, Index: "logs", Document: json.RawMessage("{\n  \"msg\": \"multi\",\n  \"n\": 9007199254740993\n}")},
		{Verb: VerbUpdate, Index: "logs", ID: "2", Doc: map[string]any{"msg": "patched"}, DocAsUpsert: true},
		{Verb: VerbDelete, Index: "logs", ID: "3", Routing: "r1", Version: int64p(7), VersionType: "external"},
	}
}

// TestSerializeLineCount verifies 2n-d lines and one trailing newline.
func TestSerializeLineCount(t *testing.T) {
	actions := sampleActions()
	body, err := Serialize(actions, Options{})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !strings.HasSuffix(body, "\n") || strings.HasSuffix(body, "\n\n") {
		t.Fatalf("body must end with exactly one newline: %q", body)
	}
	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	if want := 2*len(actions) - 1; len(lines) != want {
		t.Fatalf("expected %d lines, got %d:\n%s", want, len(lines), body)
	}
}

// TestSerializeExactBody verifies metadata ordering and payload shapes.
func TestSerializeExactBody(t *testing.T) {
	body, err := Serialize(sampleActions(), Options{})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := strings.Join([]string{
		`{"index":{"_index":"logs","_id":"1"}}`,
		`{"msg":"hello"}`,
		`{"create":{"_index":"logs"}}`,
		`{"msg":"multi","n":9007199254740993}`,
		`{"update":{"_index":"logs","_id":"2"}}`,
		`{"doc":{"msg":"patched"},"doc_as_upsert":true}`,
		`{"delete":{"_index":"logs","_id":"3","routing":"r1","version":7,"version_type":"external"}}`,
	}, "\n") + "\n"
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

// TestSerializeLegacyType verifies _type is only added when supplied.
func TestSerializeLegacyType(t *testing.T) {
	actions := []Action{{Verb: VerbDelete, Index: "i", ID: "1"}}

	withType, err := Serialize(actions, Options{LegacyType: "doc"})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if withType != `{"delete":{"_index":"i","_id":"1","_type":"doc"}}`+"\n" {
		t.Errorf("unexpected legacy body %q", withType)
	}

	without, _ := Serialize(actions, Options{})
	if strings.Contains(without, "_type") {
		t.Errorf("_type must be absent without a legacy type: %q", without)
	}
}

// TestSerializeUpdateScript verifies the script payload and the upsert flag default.
func TestSerializeUpdateScript(t *testing.T) {
	body, err := Serialize([]Action{{
		Verb:   VerbUpdate,
		Index:  "i",
		ID:     "1",
		Script: &Script{Source: "ctx._source.n += params.by", Params: map[string]any{"by": 2}},
	}}, Options{})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	if lines[1] != `{"script":{"source":"ctx._source.n += params.by","params":{"by":2}}}` {
		t.Errorf("unexpected update payload %s", lines[1])
	}
}

// TestSerializeRejectsBadInput verifies caller errors are reported, not sent.
func TestSerializeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		actions []Action
	}{
		{"empty", nil},
		{"unknown verb", []Action{{Verb: "upsert", Index: "i"}}},
		{"index without document", []Action{{Verb: VerbIndex, Index: "i"}}},
		{"update without payload", []Action{{Verb: VerbUpdate, Index: "i", ID: "1"}}},
		{"delete without index", []Action{{Verb: VerbDelete, ID: "1"}}},
		{"index without index", []Action{{Verb: VerbIndex, Index: "i", Document: map[string]any{}}, {Verb: VerbIndex, Document: map[string]any{"a": 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Serialize(tt.actions, Options{}); !cerrors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	_, err := Serialize([]Action{{Verb: VerbIndex, Index: "i", Document: json.RawMessage("{broken")}}, Options{})
	if cerrors.CodeOf(err) != cerrors.CodeFormat {
		t.Errorf("expected format error for broken document, got %v", err)
	}
}

// TestParseRoundTrip verifies each line pair reconstructs verb and index.
func TestParseRoundTrip(t *testing.T) {
	actions := sampleActions()
	body, err := Serialize(actions, Options{})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	parsed, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed) != len(actions) {
		t.Fatalf("expected %d actions, got %d", len(actions), len(parsed))
	}
	for i := range actions {
		if parsed[i].Verb != actions[i].Verb || parsed[i].Index != actions[i].Index || parsed[i].ID != actions[i].ID {
			t.Errorf("action %d: got %s %s/%s, want %s %s/%s", i,
				parsed[i].Verb, parsed[i].Index, parsed[i].ID,
				actions[i].Verb, actions[i].Index, actions[i].ID)
		}
	}
	if string(parsed[1].Document.(json.RawMessage)) != `{"msg":"multi","n":9007199254740993}` {
		t.Errorf("document not preserved: %s", parsed[1].Document)
	}
	if !parsed[2].DocAsUpsert {
		t.Error("doc_as_upsert lost")
	}
	if parsed[3].Version == nil || *parsed[3].Version != 7 {
		t.Error("version lost")
	}

	again, err := Serialize(parsed, Options{})
	if err != nil {
		t.Fatalf("Serialize(parsed): %v", err)
	}
	if again != body {
		t.Errorf("re-serialized body differs:\n%s\nvs\n%s", again, body)
	}
}

// TestParseMissingDataLine verifies truncated bodies are format errors.
func TestParseMissingDataLine(t *testing.T) {
	_, err := Parse(`{"index":{"_index":"i"}}` + "\n")
	if cerrors.CodeOf(err) != cerrors.CodeFormat {
		t.Errorf("expected format error, got %v", err)
	}
}

// TestLoadActions verifies YAML action files.
func TestLoadActions(t *testing.T) {
	src := `
- action: index
  index: logs
  id: "1"
  document:
    msg: hello
    tags: [a, b]
- action: delete
  index: logs
  id: "2"
`
	actions, err := LoadActions(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadActions: %v", err)
	}
	body, err := Serialize(actions, Options{})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := `{"index":{"_index":"logs","_id":"1"}}` + "\n" +
		`{"msg":"hello","tags":["a","b"]}` + "\n" +
		`{"delete":{"_index":"logs","_id":"2"}}` + "\n"
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

// TestResponseFailures verifies failed items are reported with their verb.
func TestResponseFailures(t *testing.T) {
	resp, err := DecodeResponse(`{"took":3,"errors":true,"items":[
		{"index":{"_index":"i","_id":"1","status":201,"result":"created"}},
		{"delete":{"_index":"i","_id":"2","status":404,"error":{"type":"not_found","reason":"missing"}}}
	]}`)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	failures := resp.Failures()
	if len(failures) != 1 {
		t.Fatalf("expected one failure, got %d", len(failures))
	}
	if failures[0].Verb != VerbDelete || failures[0].ID != "2" || failures[0].Status != 404 {
		t.Errorf("unexpected failure %+v", failures[0])
	}
}

// TestRequestOptionsParams verifies only set parameters are sent.
func TestRequestOptionsParams(t *testing.T) {
	refresh := true
	got := RequestOptions{Refresh: &refresh, Pipeline: "p", LegacyType: "doc"}.Params().Encode()
	if got != "pipeline=p&refresh=true" {
		t.Errorf("params = %q", got)
	}
}
