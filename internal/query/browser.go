package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	cerrors "github.com/canonica-labs/esql/internal/errors"
)

// ValueType says how a data browser value is sent.
type ValueType string

const (
	ValueString  ValueType = "string"
	ValueNumber  ValueType = "number"
	ValueBoolean ValueType = "boolean"
)

// BrowserCondition is one field/operator/value triple of the data browser.
// Operator accepts the symbolic forms (=, !=, >, >=, <, <=) and their word
// forms, plus like, match, exists, missing and in. Anything else is a term.
type BrowserCondition struct {
	Field     string
	Operator  string
	Value     string
	ValueType ValueType
}

// BrowserConditions groups data browser conditions by bool clause.
type BrowserConditions struct {
	Must    []BrowserCondition
	Should  []BrowserCondition
	MustNot []BrowserCondition
}

// BuildBrowserQuery compiles data browser conditions into a bool query.
func BuildBrowserQuery(c BrowserConditions) (Document, error) {
	must, err := browserClauses(c.Must)
	if err != nil {
		return nil, err
	}
	should, err := browserClauses(c.Should)
	if err != nil {
		return nil, err
	}
	mustNot, err := browserClauses(c.MustNot)
	if err != nil {
		return nil, err
	}
	return Bool(must, should, mustNot), nil
}

func browserClauses(items []BrowserCondition) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, item := range items {
		clause, err := browserClause(item)
		if err != nil {
			return nil, err
		}
		out = append(out, clause)
	}
	return out, nil
}

func browserClause(item BrowserCondition) (Document, error) {
	field := item.Field
	if field == "" {
		return nil, cerrors.NewValidation("compile query", "field", "condition has no field", "")
	}
	op := strings.ToLower(strings.TrimSpace(item.Operator))

	// Operators that never look at the value type.
	switch op {
	case "like":
		return Wildcard(field, LikePattern(item.Value)), nil
	case "match":
		return Match(field, item.Value), nil
	case "exists":
		return Exists(field), nil
	case "missing":
		return Missing(field), nil
	case "in":
		return Terms(field, SplitList(item.Value)), nil
	}

	value, err := typedValue(item)
	if err != nil {
		return nil, err
	}
	switch op {
	case "=", "eq":
		return Term(field, value), nil
	case "!=", "ne", "<>":
		return Not(Term(field, value)), nil
	case ">", "gt":
		return Range(field, BoundGT, value), nil
	case ">=", "gte":
		return Range(field, BoundGTE, value), nil
	case "<", "lt":
		return Range(field, BoundLT, value), nil
	case "<=", "lte":
		return Range(field, BoundLTE, value), nil
	default:
		return Term(field, value), nil
	}
}

// LikePattern turns a SQL-style LIKE pattern into a wildcard pattern by
// replacing % with *. A value with no % is treated as a substring search
// and wrapped in *...*.
func LikePattern(value string) string {
	if !strings.Contains(value, "%") {
		return "*" + value + "*"
	}
	return strings.ReplaceAll(value, "%", "*")
}

var numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][+-]?\d+)?$`)

func typedValue(item BrowserCondition) (any, error) {
	switch item.ValueType {
	case ValueNumber:
		v := strings.TrimSpace(item.Value)
		if !numberPattern.MatchString(v) {
			return nil, cerrors.NewValidation("compile query", "value",
				fmt.Sprintf("%q is not a number (field %s)", item.Value, item.Field),
				"change the value type to string or fix the value")
		}
		return json.Number(v), nil
	case ValueBoolean:
		return item.Value == "true", nil
	default:
		return item.Value, nil
	}
}
