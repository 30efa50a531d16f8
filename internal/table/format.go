package table

import (
	"encoding/json"
	"strconv"

	"github.com/canonica-labs/esql/internal/jsonx"
)

// FormatValue renders a record value as display text. nil renders empty,
// arrays and objects render as compact JSON.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s, err := jsonx.MarshalString(t)
		if err != nil {
			return ""
		}
		return s
	}
}

// Fields returns the column fields in order.
func (r *Result) Fields() []string {
	out := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = c.Field
	}
	return out
}

// Matrix renders the records as display rows over the given fields.
func (r *Result) Matrix(fields []string) [][]string {
	rows := make([][]string, 0, len(r.Records))
	for _, rec := range r.Records {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = FormatValue(rec[f])
		}
		rows = append(rows, row)
	}
	return rows
}
