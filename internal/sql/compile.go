package sql

import (
	"fmt"
	"strings"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/query"
)

const compileOp = "compile WHERE clause"

// WhereToQuery compiles the WHERE tree of q. A query without WHERE matches
// every document.
func WhereToQuery(q *Query) (query.Document, error) {
	if q == nil || q.Where == nil {
		return query.MatchAll(), nil
	}
	return ConditionToQuery(q.Where)
}

// ConditionToQuery compiles a condition into a query clause. AND and OR are
// compiled pairwise without flattening chains.
func ConditionToQuery(c Condition) (query.Document, error) {
	switch c := c.(type) {
	case Paren:
		return ConditionToQuery(c.Inner)

	case LogicalOp:
		left, err := ConditionToQuery(c.Left)
		if err != nil {
			return nil, err
		}
		right, err := ConditionToQuery(c.Right)
		if err != nil {
			return nil, err
		}
		if c.Op == And {
			return query.Document{"bool": query.Document{"must": []any{left, right}}}, nil
		}
		return query.Document{"bool": query.Document{
			"should":               []any{left, right},
			"minimum_should_match": 1,
		}}, nil

	case IsNull:
		field, err := fieldOf(c.Expr, c)
		if err != nil {
			return nil, err
		}
		if c.Not {
			return query.Exists(field), nil
		}
		return query.Missing(field), nil

	case Like:
		field, err := fieldOf(c.Expr, c)
		if err != nil {
			return nil, err
		}
		q := query.Wildcard(field, strings.ReplaceAll(c.Pattern, "%", "*"))
		if c.Not {
			return query.Not(q), nil
		}
		return q, nil

	case BinaryOp:
		return compileBinary(c)

	default:
		return nil, cerrors.NewInternal(fmt.Sprintf("unknown condition node %T", c), nil)
	}
}

func compileBinary(c BinaryOp) (query.Document, error) {
	field, err := fieldOf(c.Left, c)
	if err != nil {
		return nil, err
	}
	value, err := operandValue(c.Right, c)
	if err != nil {
		return nil, err
	}
	switch c.Op {
	case OpEq, OpTerm:
		return query.Term(field, value), nil
	case OpMatch:
		return query.Match(field, value), nil
	case OpNe:
		return query.Not(query.Term(field, value)), nil
	case OpLt:
		return query.Range(field, query.BoundLT, value), nil
	case OpLte:
		return query.Range(field, query.BoundLTE, value), nil
	case OpGt:
		return query.Range(field, query.BoundGT, value), nil
	case OpGte:
		return query.Range(field, query.BoundGTE, value), nil
	default:
		return nil, cerrors.NewValidation(compileOp, "operator", "unsupported operator "+c.Op, "")
	}
}

func fieldOf(e Expr, c Condition) (string, error) {
	id, ok := e.(Identifier)
	if !ok {
		return "", cerrors.NewValidation(compileOp, "left operand",
			fmt.Sprintf("left side of %q must be a field name, got %s", c.String(), e.String()),
			"put the field on the left of the comparison")
	}
	return id.Name, nil
}

// operandValue is the JSON value of a right-hand side. A bare identifier
// is compared as its name.
func operandValue(e Expr, c Condition) (any, error) {
	switch v := e.(type) {
	case StringLiteral:
		return v.Value, nil
	case NumberLiteral:
		return v.Value(), nil
	case Identifier:
		return v.Name, nil
	default:
		return nil, cerrors.NewValidation(compileOp, "right operand",
			fmt.Sprintf("right side of %q must be a literal, got %s", c.String(), e.String()), "")
	}
}
