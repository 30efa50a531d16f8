package query

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	cerrors "github.com/canonica-labs/esql/internal/errors"
)

// TestBuildQueryAllOperators verifies each form operator compiles to its clause.
func TestBuildQueryAllOperators(t *testing.T) {
	tests := []struct {
		op   Operator
		want Document
	}{
		{OpMatch, Document{"match": Document{"f": "v"}}},
		{OpTerm, Document{"term": Document{"f": "v"}}},
		{OpExists, Document{"exists": Document{"field": "f"}}},
		{OpMissing, Document{"bool": Document{"must_not": Document{"exists": Document{"field": "f"}}}}},
		{OpWildcard, Document{"wildcard": Document{"f": "v"}}},
		{OpRangeLT, Document{"range": Document{"f": Document{"lt": "v"}}}},
		{OpRangeLTE, Document{"range": Document{"f": Document{"lte": "v"}}}},
		{OpRangeGT, Document{"range": Document{"f": Document{"gt": "v"}}}},
		{OpRangeGTE, Document{"range": Document{"f": Document{"gte": "v"}}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			got, err := BuildQuery([]ConditionItem{{Clause: ClauseMust, Field: "text:f", Operator: tt.op, Value: "v", Enabled: true}})
			if err != nil {
				t.Fatalf("BuildQuery: %v", err)
			}
			want := Document{"bool": Document{"must": []any{tt.want}}}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("query mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestBuildQueryTermsSplits verifies terms values are comma split and trimmed.
func TestBuildQueryTermsSplits(t *testing.T) {
	got, err := BuildQuery([]ConditionItem{{Clause: ClauseShould, Field: "tag", Operator: OpTerms, Value: "a, b ,c", Enabled: true}})
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	want := Document{"bool": Document{"should": []any{Document{"terms": Document{"tag": []any{"a", "b", "c"}}}}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

// TestBuildQueryTotality verifies enabled items always populate a bool group
// and disabled-only input compiles to match_all.
func TestBuildQueryTotality(t *testing.T) {
	empty, err := BuildQuery(nil)
	if err != nil {
		t.Fatalf("BuildQuery(nil): %v", err)
	}
	if diff := cmp.Diff(MatchAll(), empty); diff != "" {
		t.Errorf("empty input (-want +got):\n%s", diff)
	}

	disabled := []ConditionItem{
		{Clause: ClauseMust, Field: "a", Operator: OpTerm, Value: "1"},
		{Clause: ClauseMustNot, Field: "b", Operator: OpExists},
	}
	got, err := BuildQuery(disabled)
	if err != nil {
		t.Fatalf("BuildQuery(disabled): %v", err)
	}
	if diff := cmp.Diff(MatchAll(), got); diff != "" {
		t.Errorf("disabled input (-want +got):\n%s", diff)
	}

	disabled[1].Enabled = true
	got, err = BuildQuery(disabled)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	b, ok := got["bool"].(Document)
	if !ok {
		t.Fatalf("expected bool query, got %v", got)
	}
	if _, ok := b["must"]; ok {
		t.Error("disabled must item leaked into the query")
	}
	if len(b["must_not"].([]any)) != 1 {
		t.Errorf("expected one must_not clause, got %v", b["must_not"])
	}
}

// TestBuildQueryRejectsUnknownOperator verifies unknown operators are not dropped silently.
func TestBuildQueryRejectsUnknownOperator(t *testing.T) {
	_, err := BuildQuery([]ConditionItem{{Clause: ClauseMust, Field: "a", Operator: "fuzzy", Enabled: true}})
	if !cerrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// TestBuildBrowserQuery verifies symbolic operators and value types.
func TestBuildBrowserQuery(t *testing.T) {
	got, err := BuildBrowserQuery(BrowserConditions{
		Must: []BrowserCondition{
			{Field: "age", Operator: ">=", Value: "18", ValueType: ValueNumber},
			{Field: "active", Operator: "=", Value: "true", ValueType: ValueBoolean},
			{Field: "name", Operator: "like", Value: "jo"},
			{Field: "code", Operator: "like", Value: "A%1"},
		},
		Should: []BrowserCondition{
			{Field: "tag", Operator: "in", Value: "x,y"},
		},
		MustNot: []BrowserCondition{
			{Field: "state", Operator: "!=", Value: "closed"},
			{Field: "deleted_at", Operator: "missing"},
		},
	})
	if err != nil {
		t.Fatalf("BuildBrowserQuery: %v", err)
	}
	want := Document{"bool": Document{
		"must": []any{
			Document{"range": Document{"age": Document{"gte": json.Number("18")}}},
			Document{"term": Document{"active": true}},
			Document{"wildcard": Document{"name": "*jo*"}},
			Document{"wildcard": Document{"code": "A*1"}},
		},
		"should": []any{
			Document{"terms": Document{"tag": []any{"x", "y"}}},
		},
		"must_not": []any{
			Document{"bool": Document{"must_not": Document{"term": Document{"state": "closed"}}}},
			Document{"bool": Document{"must_not": Document{"exists": Document{"field": "deleted_at"}}}},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

// TestBuildBrowserQueryDefaultsToTerm verifies unknown operators fall back to term.
func TestBuildBrowserQueryDefaultsToTerm(t *testing.T) {
	got, err := BuildBrowserQuery(BrowserConditions{Must: []BrowserCondition{{Field: "a", Operator: "~", Value: "x"}}})
	if err != nil {
		t.Fatalf("BuildBrowserQuery: %v", err)
	}
	want := Document{"bool": Document{"must": []any{Document{"term": Document{"a": "x"}}}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

// TestBuildBrowserQueryBadNumber verifies number values are checked.
func TestBuildBrowserQueryBadNumber(t *testing.T) {
	_, err := BuildBrowserQuery(BrowserConditions{Must: []BrowserCondition{{Field: "a", Operator: "=", Value: "ten", ValueType: ValueNumber}}})
	if !cerrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// TestBuildSortKeepsOrder verifies sort precedence follows input order.
func TestBuildSortKeepsOrder(t *testing.T) {
	got, err := BuildSort([]OrderItem{
		{Field: "b", Direction: Desc, Enabled: true},
		{Field: "skip", Direction: Asc},
		{Field: "a", Enabled: true},
	})
	if err != nil {
		t.Fatalf("BuildSort: %v", err)
	}
	want := []Document{
		{"b": Document{"order": "desc"}},
		{"a": Document{"order": "asc"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sort mismatch (-want +got):\n%s", diff)
	}
}

// TestFormSearchBody verifies paging and track_total_hits per version.
func TestFormSearchBody(t *testing.T) {
	s := FormSearch{
		Index:          "logs",
		Page:           Page{Num: 3, Size: 20},
		TrackTotalHits: TrackTotalHits{Mode: TrackTotalHitsTrue},
	}

	body, err := s.Body(7)
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if body.From != 40 || body.Size != 20 {
		t.Errorf("expected from=40 size=20, got from=%d size=%d", body.From, body.Size)
	}
	if body.TrackTotalHits != true {
		t.Errorf("expected track_total_hits=true, got %v", body.TrackTotalHits)
	}
	if body.Source != nil {
		t.Error("form search must not set _source")
	}

	legacy, err := s.Body(6)
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if legacy.TrackTotalHits != nil {
		t.Errorf("expected no track_total_hits before 7, got %v", legacy.TrackTotalHits)
	}

	s.TrackTotalHits = TrackTotalHits{Mode: TrackTotalHitsCustom, Value: 50000}
	custom, _ := s.Body(8)
	if custom.TrackTotalHits != int64(50000) {
		t.Errorf("expected custom cap 50000, got %v", custom.TrackTotalHits)
	}
}

// TestSearchBodyWireShape verifies the encoded key order and the false setting.
func TestSearchBodyWireShape(t *testing.T) {
	s := BrowserSearch{
		Page:           Page{Num: 1, Size: 10},
		Order:          []OrderItem{{Field: "ts", Direction: Desc}},
		TrackTotalHits: TrackTotalHits{Mode: TrackTotalHitsFalse},
	}
	body, err := s.Body(8)
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"query":{"match_all":{}},"from":0,"size":10,"sort":[{"ts":{"order":"desc"}}],"track_total_hits":false,"_source":true}`
	if string(raw) != want {
		t.Errorf("body = %s\nwant   %s", raw, want)
	}
}

// TestPageValidate verifies page numbers below 1 are rejected.
func TestPageValidate(t *testing.T) {
	if _, err := (FormSearch{Page: Page{Num: 0, Size: 10}}).Body(7); !cerrors.IsValidation(err) {
		t.Errorf("expected validation error for page 0, got %v", err)
	}
	if _, err := (FormSearch{Page: Page{Num: 1, Size: 0}}).Body(7); !cerrors.IsValidation(err) {
		t.Errorf("expected validation error for size 0, got %v", err)
	}
}

// TestParseTrackTotalHits verifies mode parsing.
func TestParseTrackTotalHits(t *testing.T) {
	got, err := ParseTrackTotalHits("Custom", 100)
	if err != nil {
		t.Fatalf("ParseTrackTotalHits: %v", err)
	}
	if got.Mode != TrackTotalHitsCustom || got.Value != 100 {
		t.Errorf("unexpected setting %+v", got)
	}
	if _, err := ParseTrackTotalHits("sometimes", 0); err == nil {
		t.Error("expected error for unknown mode")
	}
}
