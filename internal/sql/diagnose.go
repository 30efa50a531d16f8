package sql

import (
	"strings"

	"github.com/xwb1989/sqlparser"
)

// Diagnose explains why a statement that failed to parse as SQL-Lite is
// out of reach: it parses the text as full MySQL-dialect SQL and lists
// the constructs SQL-Lite does not have. It returns nil when the text is
// not valid SQL either, or nothing unsupported is found.
func Diagnose(text string) []string {
	var hints []string
	if toks, err := Lex(text); err == nil && len(toks) > 0 {
		first := toks[0]
		if first.Kind == TokenIdent && !first.Quoted && keywords[strings.ToUpper(first.Text)] {
			hints = append(hints, "keywords are case-sensitive, write "+strings.ToUpper(first.Text))
		}
	}

	stmt, err := sqlparser.Parse(text)
	if err != nil {
		return hints
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		switch stmt.(type) {
		case *sqlparser.Union:
			return append(hints, "UNION is not supported")
		default:
			return append(hints, "only SELECT statements are supported")
		}
	}

	if sel.Distinct != "" {
		hints = append(hints, "DISTINCT is not supported")
	}
	if len(sel.From) != 1 {
		hints = append(hints, "exactly one index must follow FROM")
	}
	for _, te := range sel.From {
		if _, ok := te.(*sqlparser.JoinTableExpr); ok {
			hints = append(hints, "JOIN is not supported")
			break
		}
	}
	if len(sel.GroupBy) > 0 {
		hints = append(hints, "GROUP BY is not supported")
	}
	if sel.Having != nil {
		hints = append(hints, "HAVING is not supported")
	}

	nodes := []sqlparser.SQLNode{sel.SelectExprs, sel.From}
	if sel.Where != nil {
		nodes = append(nodes, sel.Where)
	}
	var subquery, aggregate bool
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		switch n := node.(type) {
		case *sqlparser.Subquery:
			subquery = true
		case *sqlparser.FuncExpr:
			if n.IsAggregate() {
				aggregate = true
			}
		}
		return true, nil
	}, nodes...)
	if subquery {
		hints = append(hints, "subqueries are not supported")
	}
	if aggregate {
		hints = append(hints, "aggregate functions are not supported, only CONCAT and DATE_FORMAT")
	}
	return hints
}
