// Package table flattens search responses into rows and columns.
//
// Each hit's _source is flattened into dotted keys: objects recurse, arrays
// are kept whole as a single value so the same logical field always lands
// on the same column. Columns are the fixed metadata columns followed by
// every discovered path in first-seen order.
package table

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/jsonx"
)

// MetadataColumns always lead the column set.
var MetadataColumns = []string{"_type", "_score", "_index"}

// Column is one display column.
type Column struct {
	Field string `json:"field"`
	Title string `json:"title"`
}

// Record is one flattened hit. It always carries _id, _index, _type, _score
// and _source (the source re-serialized on one line).
type Record map[string]any

// TotalShape is the shape hits.total came in.
type TotalShape int

const (
	// TotalObject is {"value": n, "relation": "eq"|"gte"}, 7.0 onwards.
	TotalObject TotalShape = iota
	// TotalNumber is a bare number, before 7.0.
	TotalNumber
	// TotalAbsent means the search ran with track_total_hits disabled.
	TotalAbsent
)

func (s TotalShape) String() string {
	switch s {
	case TotalObject:
		return "object"
	case TotalNumber:
		return "number"
	default:
		return "absent"
	}
}

// Total is the decoded hits.total.
type Total struct {
	Value int64
	Shape TotalShape
	// Relation is "eq" or "gte" for the object shape, empty otherwise.
	Relation string
}

// Tracked reports whether the cluster counted the hits at all.
func (t Total) Tracked() bool {
	return t.Shape != TotalAbsent
}

// Result is a tabular view of one search response.
type Result struct {
	Columns []Column
	Records []Record
	Total   Total
	// Source is the raw response text.
	Source string
}

// FromResponse tabularizes a raw search response.
func FromResponse(raw string) (*Result, error) {
	data := []byte(raw)
	if !jsonx.Valid(data) || len(data) == 0 || firstByte(data) != '{' {
		return nil, cerrors.NewFormat("read search response", "response is not a JSON object", nil)
	}

	res := &Result{Source: raw, Records: make([]Record, 0)}
	seen := make(map[string]bool)
	var order []string
	for _, c := range MetadataColumns {
		seen[c] = true
		order = append(order, c)
	}

	hits, dt, _, err := jsonparser.Get(data, "hits", "hits")
	if err == nil && dt == jsonparser.Array {
		var walkErr error
		_, err = jsonparser.ArrayEach(hits, func(value []byte, vt jsonparser.ValueType, _ int, _ error) {
			if walkErr != nil || vt != jsonparser.Object {
				return
			}
			rec, keys, err := hitRecord(value)
			if err != nil {
				walkErr = err
				return
			}
			for _, k := range keys {
				if !seen[k] {
					seen[k] = true
					order = append(order, k)
				}
			}
			res.Records = append(res.Records, rec)
		})
		if walkErr != nil {
			return nil, walkErr
		}
		if err != nil {
			return nil, cerrors.NewFormat("read search response", "hits.hits is malformed", err)
		}
	}

	for _, f := range order {
		res.Columns = append(res.Columns, Column{Field: f, Title: f})
	}

	total, err := ReadTotal(data)
	if err != nil {
		return nil, err
	}
	if total.Shape == TotalAbsent {
		total.Value = int64(len(res.Records))
	}
	res.Total = total
	return res, nil
}

// ReadTotal decodes hits.total of a search response.
func ReadTotal(data []byte) (Total, error) {
	value, dt, _, err := jsonparser.Get(data, "hits", "total")
	if err != nil || dt == jsonparser.NotExist {
		return Total{Shape: TotalAbsent}, nil
	}
	switch dt {
	case jsonparser.Number:
		n, err := strconv.ParseInt(string(value), 10, 64)
		if err != nil {
			return Total{}, cerrors.NewFormat("read search response", "hits.total is not an integer", err)
		}
		return Total{Value: n, Shape: TotalNumber}, nil
	case jsonparser.Object:
		n, err := jsonparser.GetInt(value, "value")
		if err != nil {
			return Total{}, cerrors.NewFormat("read search response", "hits.total object has no integer value", err)
		}
		rel, _ := jsonparser.GetString(value, "relation")
		return Total{Value: n, Shape: TotalObject, Relation: rel}, nil
	default:
		return Total{}, cerrors.NewFormat("read search response",
			fmt.Sprintf("hits.total has unrecognized shape %s", dt), nil)
	}
}

func hitRecord(hit []byte) (Record, []string, error) {
	rec := Record{
		"_id":     stringAt(hit, "_id"),
		"_index":  stringAt(hit, "_index"),
		"_type":   nil,
		"_score":  nil,
		"_source": nil,
	}
	if v, dt, _, err := jsonparser.Get(hit, "_type"); err == nil && dt == jsonparser.String {
		rec["_type"] = decodeString(v)
	}
	if v, dt, _, err := jsonparser.Get(hit, "_score"); err == nil && dt == jsonparser.Number {
		rec["_score"] = json.Number(v)
	}

	var keys []string
	source, dt, _, err := jsonparser.Get(hit, "_source")
	if err != nil || dt != jsonparser.Object {
		return rec, keys, nil
	}
	compact, err := jsonx.Compact(source)
	if err != nil {
		return nil, nil, cerrors.NewFormat("read search response", "_source is malformed", err)
	}
	rec["_source"] = string(compact)

	if err := flatten(source, "", rec, &keys); err != nil {
		return nil, nil, err
	}
	return rec, keys, nil
}

// Flatten flattens a JSON object into dotted keys, returning the keys in
// document order.
func Flatten(object []byte) (Record, []string, error) {
	rec := Record{}
	var keys []string
	if err := flatten(object, "", rec, &keys); err != nil {
		return nil, nil, err
	}
	return rec, keys, nil
}

func flatten(object []byte, prefix string, rec Record, keys *[]string) error {
	return jsonparser.ObjectEach(object, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		name := decodeString(key)
		if prefix != "" {
			name = prefix + "." + name
		}
		if dt == jsonparser.Object {
			return flatten(value, name, rec, keys)
		}
		v, err := scalar(value, dt)
		if err != nil {
			return cerrors.NewFormat("read search response", "field "+name+" is malformed", err)
		}
		*keys = append(*keys, name)
		rec[name] = v
		return nil
	})
}

func scalar(value []byte, dt jsonparser.ValueType) (any, error) {
	switch dt {
	case jsonparser.String:
		return decodeString(value), nil
	case jsonparser.Number:
		return json.Number(value), nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Array:
		var arr []any
		if err := jsonx.Unmarshal(value, &arr); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected value type %s", dt)
	}
}

func stringAt(data []byte, key string) any {
	s, err := jsonparser.GetString(data, key)
	if err != nil {
		return nil
	}
	return s
}

func decodeString(raw []byte) string {
	s, err := jsonparser.ParseString(raw)
	if err != nil {
		return string(raw)
	}
	return s
}

func firstByte(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
