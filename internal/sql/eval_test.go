package sql

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/canonica-labs/esql/internal/table"
)

// TestEvaluate_Concat verifies arguments are stringified and nulls skipped.
func TestEvaluate_Concat(t *testing.T) {
	row := table.Record{"first": "Ada", "last": "Lovelace", "age": json.Number("36"), "nick": nil}
	expr := FunctionCall{Name: FuncConcat, Args: []Expr{
		Identifier{Name: "first"}, StringLiteral{Value: " "}, Identifier{Name: "last"},
		StringLiteral{Value: "/"}, Identifier{Name: "age"}, Identifier{Name: "nick"}, Identifier{Name: "missing"},
	}}
	got, err := Evaluate(expr, row)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != "Ada Lovelace/36" {
		t.Errorf("expected 'Ada Lovelace/36', got %v", got)
	}
}

// TestEvaluate_DateFormat verifies the accepted date inputs.
func TestEvaluate_DateFormat(t *testing.T) {
	tests := []struct {
		value  any
		layout string
		want   any
	}{
		{json.Number("0"), "", "1970-01-01 00:00:00"},
		{"1700000000000", "%Y/%m/%d", "2023/11/14"},
		{"2024-03-05T10:20:30Z", "", "2024-03-05 10:20:30"},
		{"2024-03-05T10:20:30.123+02:00", "%H:%M", "10:20"},
		{"2024-03-05 10:20:30", "%d.%m.%Y", "05.03.2024"},
		{"2024-03-05", "%Y", "2024"},
		{"not a date", "", "not a date"},
		{nil, "", nil},
		{true, "", true},
	}
	for _, tt := range tests {
		args := []Expr{Identifier{Name: "ts"}}
		if tt.layout != "" {
			args = append(args, StringLiteral{Value: tt.layout})
		}
		got, err := Evaluate(FunctionCall{Name: FuncDateFormat, Args: args}, table.Record{"ts": tt.value})
		if err != nil {
			t.Errorf("%v: unexpected error %v", tt.value, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DATE_FORMAT(%v, %q): got %v, want %v", tt.value, tt.layout, got, tt.want)
		}
	}
}

// TestProject verifies aliases, expansion of * and column order.
func TestProject(t *testing.T) {
	res, err := table.FromResponse(`{"hits":{"hits":[{"_id":"1","_index":"u","_source":{"a":"x","b":{"c":1}}}]}}`)
	if err != nil {
		t.Fatalf("FromResponse: %v", err)
	}
	q, err := ParseSQL("SELECT a AS first, CONCAT(a, '-', b.c), * FROM u")
	if err != nil {
		t.Fatalf("ParseSQL: %v", err)
	}

	fields, rows, err := Project(q.Select, res)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	wantFields := []string{"first", "CONCAT(a, '-', b.c)", "_type", "_score", "_index", "a", "b.c"}
	if diff := cmp.Diff(wantFields, fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["first"] != "x" || rows[0]["CONCAT(a, '-', b.c)"] != "x-1" || rows[0]["b.c"] != json.Number("1") {
		t.Errorf("unexpected row %v", rows[0])
	}
}
