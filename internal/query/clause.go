// Package query compiles structured conditions into bool query documents.
//
// Two compilers share the clause builders in this file: the form compiler
// (fixed must/should/must_not rows that can be toggled off) and the data
// browser compiler (field/operator/value triples with a value type). Both
// are pure functions of their input.
package query

// Document is a generic JSON object of a query body.
type Document = map[string]any

// MatchAll returns {match_all:{}}.
func MatchAll() Document {
	return Document{"match_all": Document{}}
}

// Term returns {term:{field:value}}.
func Term(field string, value any) Document {
	return Document{"term": Document{field: value}}
}

// Terms returns {terms:{field:values}}.
func Terms(field string, values []any) Document {
	return Document{"terms": Document{field: values}}
}

// Match returns {match:{field:value}}.
func Match(field string, value any) Document {
	return Document{"match": Document{field: value}}
}

// Exists returns {exists:{field:field}}.
func Exists(field string) Document {
	return Document{"exists": Document{"field": field}}
}

// Missing returns {bool:{must_not:{exists:{field:field}}}}.
func Missing(field string) Document {
	return Not(Exists(field))
}

// Wildcard returns {wildcard:{field:pattern}}.
func Wildcard(field string, pattern any) Document {
	return Document{"wildcard": Document{field: pattern}}
}

// Range bounds.
const (
	BoundLT  = "lt"
	BoundLTE = "lte"
	BoundGT  = "gt"
	BoundGTE = "gte"
)

// Range returns {range:{field:{bound:value}}}.
func Range(field, bound string, value any) Document {
	return Document{"range": Document{field: Document{bound: value}}}
}

// Not returns {bool:{must_not:q}}.
func Not(q Document) Document {
	return Document{"bool": Document{"must_not": q}}
}

// Bool groups clauses into a bool query. Empty groups are omitted; when all
// three are empty the result is match_all.
func Bool(must, should, mustNot []any) Document {
	b := Document{}
	if len(must) > 0 {
		b["must"] = must
	}
	if len(should) > 0 {
		b["should"] = should
	}
	if len(mustNot) > 0 {
		b["must_not"] = mustNot
	}
	if len(b) == 0 {
		return MatchAll()
	}
	return Document{"bool": b}
}

// SplitList splits a comma separated value into trimmed items.
func SplitList(value string) []any {
	parts := splitTrim(value)
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}
