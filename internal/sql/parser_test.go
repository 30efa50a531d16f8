package sql

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/query"
)

// TestParser_SelectStar verifies the minimal statement.
func TestParser_SelectStar(t *testing.T) {
	q, err := NewParser().Parse("SELECT * FROM users")
	if err != nil {
		t.Fatalf("expected valid query to parse, got error: %v", err)
	}
	if !q.IsStar() {
		t.Errorf("expected a single * item, got %+v", q.Select)
	}
	if q.From != "users" {
		t.Errorf("expected from 'users', got %q", q.From)
	}
	if q.Where != nil || q.Limit != nil || q.Offset != nil || len(q.OrderBy) != 0 {
		t.Errorf("expected no optional clauses, got %+v", q)
	}
}

// TestParser_FullStatement verifies every clause in one statement.
func TestParser_FullStatement(t *testing.T) {
	sql := `SELECT a, b AS c, CONCAT(first, ' ', last) AS full
FROM logs-2024
WHERE a = 1 AND (b != 'x' OR c.d >= 2.5)
ORDER BY a DESC, b
LIMIT 10 OFFSET 5;`
	// logs-2024 is not an identifier; quote it.
	sql = strings.Replace(sql, "logs-2024", "`logs-2024`", 1)

	q, err := NewParser().Parse(sql)
	if err != nil {
		t.Fatalf("expected valid query to parse, got error: %v", err)
	}

	wantSelect := []SelectItem{
		{Expr: Identifier{Name: "a"}, Alias: "a"},
		{Expr: Identifier{Name: "b"}, Alias: "c"},
		{Expr: FunctionCall{Name: FuncConcat, Args: []Expr{
			Identifier{Name: "first"}, StringLiteral{Value: " "}, Identifier{Name: "last"},
		}}, Alias: "full"},
	}
	if diff := cmp.Diff(wantSelect, q.Select); diff != "" {
		t.Errorf("select mismatch (-want +got):\n%s", diff)
	}
	if q.From != "logs-2024" {
		t.Errorf("expected from 'logs-2024', got %q", q.From)
	}

	wantWhere := LogicalOp{
		Op:   And,
		Left: BinaryOp{Left: Identifier{Name: "a"}, Op: OpEq, Right: NumberLiteral{Text: "1"}},
		Right: Paren{Inner: LogicalOp{
			Op:    Or,
			Left:  BinaryOp{Left: Identifier{Name: "b"}, Op: OpNe, Right: StringLiteral{Value: "x"}},
			Right: BinaryOp{Left: Identifier{Name: "c.d"}, Op: OpGte, Right: NumberLiteral{Text: "2.5"}},
		}},
	}
	if diff := cmp.Diff(Condition(wantWhere), q.Where); diff != "" {
		t.Errorf("where mismatch (-want +got):\n%s", diff)
	}

	wantOrder := []OrderItem{{Field: "a", Direction: query.Desc}, {Field: "b", Direction: query.Asc}}
	if diff := cmp.Diff(wantOrder, q.OrderBy); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if q.Limit == nil || *q.Limit != 10 || q.Offset == nil || *q.Offset != 5 {
		t.Errorf("expected LIMIT 10 OFFSET 5, got %v %v", q.Limit, q.Offset)
	}
}

// TestParser_DefaultAliases verifies unaliased items are named after their text.
func TestParser_DefaultAliases(t *testing.T) {
	q, err := ParseSQL("SELECT name, DATE_FORMAT(ts, '%Y'), * FROM idx")
	if err != nil {
		t.Fatalf("ParseSQL: %v", err)
	}
	got := []string{q.Select[0].Alias, q.Select[1].Alias, q.Select[2].Alias}
	want := []string{"name", "DATE_FORMAT(ts, '%Y')", "*"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("alias mismatch (-want +got):\n%s", diff)
	}
}

// TestParser_ConditionForms verifies the non-comparison predicates.
func TestParser_ConditionForms(t *testing.T) {
	tests := []struct {
		where string
		want  Condition
	}{
		{"a IS NULL", IsNull{Expr: Identifier{Name: "a"}}},
		{"a IS NOT NULL", IsNull{Expr: Identifier{Name: "a"}, Not: true}},
		{"a LIKE '%x%'", Like{Expr: Identifier{Name: "a"}, Pattern: "%x%"}},
		{"a NOT LIKE 'x%'", Like{Expr: Identifier{Name: "a"}, Pattern: "x%", Not: true}},
		{"a <> 3", BinaryOp{Left: Identifier{Name: "a"}, Op: OpNe, Right: NumberLiteral{Text: "3"}}},
		{"a TERM 'x'", BinaryOp{Left: Identifier{Name: "a"}, Op: OpTerm, Right: StringLiteral{Value: "x"}}},
		{"a MATCH 'quick fox'", BinaryOp{Left: Identifier{Name: "a"}, Op: OpMatch, Right: StringLiteral{Value: "quick fox"}}},
		{"a < -4", BinaryOp{Left: Identifier{Name: "a"}, Op: OpLt, Right: NumberLiteral{Text: "-4"}}},
	}
	for _, tt := range tests {
		q, err := ParseSQL("SELECT * FROM t WHERE " + tt.where)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.where, err)
			continue
		}
		if diff := cmp.Diff(tt.want, q.Where); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", tt.where, diff)
		}
	}
}

// TestParser_LeftAssociative verifies AND and OR chains nest to the left.
func TestParser_LeftAssociative(t *testing.T) {
	q, err := ParseSQL("SELECT * FROM t WHERE a = 1 OR b = 2 OR c = 3")
	if err != nil {
		t.Fatalf("ParseSQL: %v", err)
	}
	top, ok := q.Where.(LogicalOp)
	if !ok || top.Op != Or {
		t.Fatalf("expected top-level OR, got %#v", q.Where)
	}
	if _, ok := top.Left.(LogicalOp); !ok {
		t.Errorf("expected nested OR on the left, got %#v", top.Left)
	}
	if _, ok := top.Right.(BinaryOp); !ok {
		t.Errorf("expected comparison on the right, got %#v", top.Right)
	}
}

// TestParser_AndBindsTighter verifies AND groups before OR.
func TestParser_AndBindsTighter(t *testing.T) {
	q, err := ParseSQL("SELECT * FROM t WHERE a = 1 OR b = 2 AND c = 3")
	if err != nil {
		t.Fatalf("ParseSQL: %v", err)
	}
	top := q.Where.(LogicalOp)
	right, ok := top.Right.(LogicalOp)
	if top.Op != Or || !ok || right.Op != And {
		t.Errorf("expected a OR (b AND c), got %s", q.Where)
	}
}

// TestParser_Comments verifies both comment styles are skipped.
func TestParser_Comments(t *testing.T) {
	q, err := ParseSQL("-- top\nSELECT * // all\nFROM t")
	if err != nil {
		t.Fatalf("ParseSQL: %v", err)
	}
	if q.From != "t" {
		t.Errorf("expected from 't', got %q", q.From)
	}
}

// TestParser_RejectsInvalid verifies malformed statements fail with a parse error.
func TestParser_RejectsInvalid(t *testing.T) {
	for _, sql := range []string{
		"",
		"SELECT FROM t",
		"SELECT * t",
		"SELECT * FROM",
		"SELECT * FROM t WHERE",
		"SELECT * FROM t WHERE a",
		"SELECT * FROM t WHERE a = ",
		"SELECT * FROM t WHERE (a = 1",
		"SELECT * FROM t LIMIT x",
		"SELECT * FROM t LIMIT 1.5",
		"SELECT * FROM t extra",
		"SELECT * FROM t WHERE a NOT = 1",
		"SELECT * FROM t WHERE a = 'open",
		"SELECT UPPER(a) FROM t",
		"SELECT DATE_FORMAT() FROM t",
		"SELECT DATE_FORMAT(a, 'b', 'c') FROM t",
		"SELECT CONCAT() FROM t",
		"SELECT # FROM t",
	} {
		_, err := NewParser().Parse(sql)
		if err == nil {
			t.Errorf("%q: expected error, got nil", sql)
			continue
		}
		if _, ok := err.(*cerrors.ErrParse); !ok {
			t.Errorf("%q: expected ErrParse, got %T: %v", sql, err, err)
		}
	}
}

// TestParser_ErrorPosition verifies the reported line and column.
func TestParser_ErrorPosition(t *testing.T) {
	_, err := ParseSQL("SELECT *\nFROM t\nWHERE a ~ 1")
	pe, ok := err.(*cerrors.ErrParse)
	if !ok {
		t.Fatalf("expected ErrParse, got %T: %v", err, err)
	}
	if pe.Line != 3 || pe.Column != 9 {
		t.Errorf("expected line 3 column 9, got line %d column %d", pe.Line, pe.Column)
	}
}

// TestParser_KeywordsAreCaseSensitive verifies lower case keywords are rejected
// with a hint.
func TestParser_KeywordsAreCaseSensitive(t *testing.T) {
	_, err := NewParser().Parse("select * from t")
	pe, ok := err.(*cerrors.ErrParse)
	if !ok {
		t.Fatalf("expected ErrParse, got %T: %v", err, err)
	}
	if !strings.Contains(pe.Suggestion, "SELECT") {
		t.Errorf("expected a case hint, got %q", pe.Suggestion)
	}
}

// TestParser_DiagnosesUnsupportedSQL verifies standard SQL outside the
// grammar is explained.
func TestParser_DiagnosesUnsupportedSQL(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"SELECT a FROM t JOIN u ON t.id = u.id", "JOIN"},
		{"SELECT a, COUNT(*) FROM t GROUP BY a", "GROUP BY"},
		{"SELECT COUNT(*) FROM t", "aggregate"},
		{"SELECT DISTINCT a FROM t", "DISTINCT"},
		{"SELECT a FROM t WHERE a IN (SELECT b FROM u)", "subqueries"},
		{"DELETE FROM t WHERE a = 1", "only SELECT"},
	}
	for _, tt := range tests {
		_, err := NewParser().Parse(tt.sql)
		pe, ok := err.(*cerrors.ErrParse)
		if !ok {
			t.Errorf("%q: expected ErrParse, got %T: %v", tt.sql, err, err)
			continue
		}
		if !strings.Contains(pe.Suggestion, tt.want) {
			t.Errorf("%q: expected suggestion mentioning %q, got %q", tt.sql, tt.want, pe.Suggestion)
		}
	}
}
