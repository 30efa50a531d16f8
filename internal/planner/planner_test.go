package planner

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/jsonx"
	"github.com/canonica-labs/esql/internal/query"
	"github.com/canonica-labs/esql/internal/table"
)

func bodyJSON(t *testing.T, p *Plan) string {
	t.Helper()
	s, err := jsonx.MarshalString(p.Body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return s
}

// TestPlanner_Defaults verifies paging falls back to the configured defaults.
func TestPlanner_Defaults(t *testing.T) {
	p := NewPlanner(Defaults{})
	plan, err := p.Plan("SELECT * FROM users", 7)
	if err != nil {
		t.Fatalf("expected plan, got error: %v", err)
	}
	if plan.Index != "users" {
		t.Errorf("expected index users, got %s", plan.Index)
	}
	want := `{"query":{"match_all":{}},"from":0,"size":20,"track_total_hits":true}`
	if got := bodyJSON(t, plan); got != want {
		t.Errorf("body mismatch\nwant %s\ngot  %s", want, got)
	}
}

// TestPlanner_LimitOffsetOverride verifies LIMIT and OFFSET override paging.
func TestPlanner_LimitOffsetOverride(t *testing.T) {
	p := NewPlanner(Defaults{PageSize: 50})
	plan, err := p.Plan("SELECT name FROM users WHERE age > 30 ORDER BY age DESC LIMIT 5 OFFSET 10", 6)
	if err != nil {
		t.Fatalf("expected plan, got error: %v", err)
	}
	want := `{"query":{"range":{"age":{"gt":30}}},"from":10,"size":5,"sort":[{"age":{"order":"desc"}}]}`
	if got := bodyJSON(t, plan); got != want {
		t.Errorf("body mismatch\nwant %s\ngot  %s", want, got)
	}
}

// TestPlanner_CustomTrackTotalHits verifies the configured cap is sent on 7+.
func TestPlanner_CustomTrackTotalHits(t *testing.T) {
	p := NewPlanner(Defaults{TrackTotalHits: query.TrackTotalHits{Mode: query.TrackTotalHitsCustom, Value: 1000}})
	plan, err := p.Plan("SELECT * FROM logs", 8)
	if err != nil {
		t.Fatalf("expected plan, got error: %v", err)
	}
	if plan.Body.TrackTotalHits != int64(1000) {
		t.Errorf("expected track_total_hits 1000, got %v", plan.Body.TrackTotalHits)
	}
}

// TestPlanner_ParseError verifies parse failures surface unchanged.
func TestPlanner_ParseError(t *testing.T) {
	_, err := NewPlanner(Defaults{}).Plan("SELECT FROM", 7)
	if cerrors.CodeOf(err) != cerrors.CodeParse {
		t.Errorf("expected parse error, got %v", err)
	}
}

// TestPlan_Project verifies the select list is applied to the hits.
func TestPlan_Project(t *testing.T) {
	plan, err := NewPlanner(Defaults{}).Plan("SELECT CONCAT(first, ' ', last) AS full, age FROM users", 7)
	if err != nil {
		t.Fatalf("expected plan, got error: %v", err)
	}
	res, err := table.FromResponse(`{"hits":{"total":{"value":1,"relation":"eq"},"hits":[
		{"_id":"1","_index":"users","_source":{"first":"Ada","last":"Lovelace","age":36}}]}}`)
	if err != nil {
		t.Fatalf("FromResponse: %v", err)
	}
	out, err := plan.Project(res)
	if err != nil {
		t.Fatalf("expected projection, got error: %v", err)
	}
	if diff := cmp.Diff([]string{"full", "age"}, out.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if len(out.Rows) != 1 || out.Rows[0]["full"] != "Ada Lovelace" {
		t.Errorf("unexpected rows %v", out.Rows)
	}
	if out.Total.Value != 1 {
		t.Errorf("expected total 1, got %d", out.Total.Value)
	}
}

// TestPlanner_Explain verifies the explanation names the request.
func TestPlanner_Explain(t *testing.T) {
	text, err := NewPlanner(Defaults{}).Explain("SELECT name FROM users WHERE name = 'ada'", 7)
	if err != nil {
		t.Fatalf("expected explanation, got error: %v", err)
	}
	for _, want := range []string{"Index: users", "POST /users/_search", `{"term":{"name":"ada"}}`, "Columns: name"} {
		if !strings.Contains(text, want) {
			t.Errorf("explanation missing %q:\n%s", want, text)
		}
	}
}
