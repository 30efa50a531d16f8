package query

import (
	"fmt"
	"strings"

	cerrors "github.com/canonica-labs/esql/internal/errors"
)

// Clause is the bool group a condition belongs to.
type Clause string

const (
	ClauseMust    Clause = "must"
	ClauseShould  Clause = "should"
	ClauseMustNot Clause = "must_not"
)

// ParseClause parses a clause name.
func ParseClause(s string) (Clause, error) {
	switch c := Clause(strings.ToLower(strings.TrimSpace(s))); c {
	case ClauseMust, ClauseShould, ClauseMustNot:
		return c, nil
	case "mustnot", "must-not", "not":
		return ClauseMustNot, nil
	default:
		return "", cerrors.NewValidation("compile query", "clause",
			fmt.Sprintf("unknown clause %q", s), "use must, should or must_not")
	}
}

// Operator is a form compiler operator.
type Operator string

const (
	OpMatch    Operator = "match"
	OpTerm     Operator = "term"
	OpTerms    Operator = "terms"
	OpExists   Operator = "exists"
	OpMissing  Operator = "missing"
	OpWildcard Operator = "wildcard"
	OpRangeLT  Operator = "range_lt"
	OpRangeLTE Operator = "range_lte"
	OpRangeGT  Operator = "range_gt"
	OpRangeGTE Operator = "range_gte"
)

// Operators lists the form operators in display order.
var Operators = []Operator{
	OpMatch, OpTerm, OpTerms, OpExists, OpMissing, OpWildcard,
	OpRangeLT, OpRangeLTE, OpRangeGT, OpRangeGTE,
}

// ConditionItem is one row of the query form.
type ConditionItem struct {
	Clause Clause
	// Field may carry a "type:" prefix, which is stripped.
	Field    string
	Operator Operator
	Value    string
	Enabled  bool
}

// DecodeTypedField splits a "type:field" reference. A reference without a
// colon is a bare field name.
func DecodeTypedField(ref string) (typ, field string) {
	typ, field, ok := strings.Cut(ref, ":")
	if !ok {
		return "", ref
	}
	return typ, field
}

// BuildQuery compiles the enabled items into a bool query. Disabled items
// are dropped before grouping, so a list with nothing enabled compiles to
// match_all.
func BuildQuery(items []ConditionItem) (Document, error) {
	var must, should, mustNot []any
	for _, item := range items {
		if !item.Enabled {
			continue
		}
		clause, err := formClause(item)
		if err != nil {
			return nil, err
		}
		switch item.Clause {
		case ClauseMust:
			must = append(must, clause)
		case ClauseShould:
			should = append(should, clause)
		case ClauseMustNot:
			mustNot = append(mustNot, clause)
		default:
			return nil, cerrors.NewValidation("compile query", "clause",
				fmt.Sprintf("unknown clause %q on field %s", item.Clause, item.Field),
				"use must, should or must_not")
		}
	}
	return Bool(must, should, mustNot), nil
}

func formClause(item ConditionItem) (Document, error) {
	_, field := DecodeTypedField(item.Field)
	if field == "" {
		return nil, cerrors.NewValidation("compile query", "field", "condition has no field", "")
	}
	switch item.Operator {
	case OpMatch:
		return Match(field, item.Value), nil
	case OpTerm:
		return Term(field, item.Value), nil
	case OpTerms:
		return Terms(field, SplitList(item.Value)), nil
	case OpExists:
		return Exists(field), nil
	case OpMissing:
		return Missing(field), nil
	case OpWildcard:
		return Wildcard(field, item.Value), nil
	case OpRangeLT:
		return Range(field, BoundLT, item.Value), nil
	case OpRangeLTE:
		return Range(field, BoundLTE, item.Value), nil
	case OpRangeGT:
		return Range(field, BoundGT, item.Value), nil
	case OpRangeGTE:
		return Range(field, BoundGTE, item.Value), nil
	default:
		return nil, cerrors.NewValidation("compile query", "operator",
			fmt.Sprintf("unknown operator %q on field %s", item.Operator, field),
			"use one of match, term, terms, exists, missing, wildcard, range_lt, range_lte, range_gt, range_gte")
	}
}

func splitTrim(value string) []string {
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
