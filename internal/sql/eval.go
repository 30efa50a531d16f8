package sql

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/table"
)

// DefaultDateFormat is used by DATE_FORMAT without a format argument.
const DefaultDateFormat = "%Y-%m-%d %H:%M:%S"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Evaluate computes expr against one flattened row.
func Evaluate(expr Expr, row table.Record) (any, error) {
	switch e := expr.(type) {
	case Identifier:
		return row[e.Name], nil
	case StringLiteral:
		return e.Value, nil
	case NumberLiteral:
		return e.Value(), nil
	case FunctionCall:
		return evalCall(e, row)
	case Star:
		return nil, cerrors.NewValidation("evaluate", "*", "* is not a value", "")
	default:
		return nil, cerrors.NewInternal(fmt.Sprintf("unknown expression node %T", expr), nil)
	}
}

func evalCall(call FunctionCall, row table.Record) (any, error) {
	args := make([]any, len(call.Args))
	for i, a := range call.Args {
		v, err := Evaluate(a, row)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch call.Name {
	case FuncConcat:
		var sb strings.Builder
		for _, a := range args {
			if a != nil {
				sb.WriteString(table.FormatValue(a))
			}
		}
		return sb.String(), nil
	case FuncDateFormat:
		layout := DefaultDateFormat
		if len(args) == 2 {
			s, ok := args[1].(string)
			if !ok {
				return nil, cerrors.NewValidation("evaluate DATE_FORMAT", "format", "format must be a string", "DATE_FORMAT(field, '%Y-%m-%d')")
			}
			layout = s
		}
		return FormatDate(args[0], layout), nil
	default:
		return nil, cerrors.NewValidation("evaluate", "function", "unknown function "+call.Name, "")
	}
}

// FormatDate renders v with a strftime layout. Numbers and digit strings
// are epoch milliseconds in UTC. Values that are not dates are returned
// unchanged.
func FormatDate(v any, layout string) any {
	t, ok := toTime(v)
	if !ok {
		return v
	}
	return strftime.Format(layout, t)
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case json.Number:
		return millis(string(x))
	case float64:
		return time.UnixMilli(int64(x)).UTC(), true
	case int64:
		return time.UnixMilli(x).UTC(), true
	case int:
		return time.UnixMilli(int64(x)).UTC(), true
	case string:
		if t, ok := millis(x); ok {
			return t, true
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func millis(s string) (time.Time, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(n).UTC(), true
}

// Project evaluates the select list against every record of res. The
// returned fields are the output column names in order; * expands to the
// result columns.
func Project(items []SelectItem, res *table.Result) ([]string, []table.Record, error) {
	var fields []string
	for _, item := range items {
		if _, ok := item.Expr.(Star); ok {
			fields = append(fields, res.Fields()...)
			continue
		}
		fields = append(fields, item.Alias)
	}

	rows := make([]table.Record, 0, len(res.Records))
	for _, rec := range res.Records {
		out := table.Record{}
		for _, item := range items {
			if _, ok := item.Expr.(Star); ok {
				for k, v := range rec {
					out[k] = v
				}
				continue
			}
			v, err := Evaluate(item.Expr, rec)
			if err != nil {
				return nil, nil, err
			}
			out[item.Alias] = v
		}
		rows = append(rows, out)
	}
	return fields, rows, nil
}
