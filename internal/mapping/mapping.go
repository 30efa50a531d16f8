// Package mapping introspects index mapping documents.
//
// A mapping comes in one of two shapes depending on the cluster generation:
// legacy (properties nested under one or more type names, always the case
// before 7.0) or typeless (properties at the top level, 7.0 onwards). A 7.x
// cluster can still return a type wrapper when the index was created with
// include_type_name, so the shape is detected from the document itself
// rather than from the version alone.
//
// The walk uses jsonparser so fields come out in the order the cluster
// declared them.
package mapping

import (
	"bytes"

	"github.com/buger/jsonparser"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/pkg/models"
)

// Shape is the detected layout of a mapping document.
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeTypeless
	ShapeLegacyTyped
)

func (s Shape) String() string {
	switch s {
	case ShapeTypeless:
		return "typeless"
	case ShapeLegacyTyped:
		return "legacy-typed"
	default:
		return "unrecognized"
	}
}

// DefaultTypeName is the implicit type of typeless mappings.
const DefaultTypeName = "_doc"

// TypeMapping is one properties block of a mapping.
type TypeMapping struct {
	// Name is the legacy type name, or DefaultTypeName for typeless mappings.
	Name string
	// Properties is the raw properties object, nil when the type declares none.
	Properties []byte
}

// Mapping is a mapping document resolved to its shape.
type Mapping struct {
	Shape Shape
	Types []TypeMapping
}

// Parse detects the shape of raw for a cluster of the given major version.
// An empty document or JSON null is a typeless mapping with no fields.
func Parse(raw []byte, major int) (*Mapping, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &Mapping{Shape: ShapeTypeless}, nil
	}
	if raw[0] != '{' {
		return &Mapping{Shape: ShapeUnrecognized}, cerrors.NewFormat("read mapping",
			"mapping document is not a JSON object", nil)
	}

	if major <= 6 {
		m := &Mapping{Shape: ShapeLegacyTyped}
		err := jsonparser.ObjectEach(raw, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
			if dt != jsonparser.Object {
				return nil
			}
			m.Types = append(m.Types, TypeMapping{Name: unescape(key), Properties: objectAt(value, "properties")})
			return nil
		})
		if err != nil {
			return &Mapping{Shape: ShapeUnrecognized}, cerrors.NewFormat("read mapping", "mapping document is malformed", err)
		}
		return m, nil
	}

	if props := objectAt(raw, "properties"); props != nil {
		return &Mapping{Shape: ShapeTypeless, Types: []TypeMapping{{Name: DefaultTypeName, Properties: props}}}, nil
	}

	m := &Mapping{Shape: ShapeTypeless}
	err := jsonparser.ObjectEach(raw, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		if dt != jsonparser.Object {
			return nil
		}
		if props := objectAt(value, "properties"); props != nil {
			m.Shape = ShapeLegacyTyped
			m.Types = append(m.Types, TypeMapping{Name: unescape(key), Properties: props})
		}
		return nil
	})
	if err != nil {
		return &Mapping{Shape: ShapeUnrecognized}, cerrors.NewFormat("read mapping", "mapping document is malformed", err)
	}
	return m, nil
}

// Fields flattens raw into its queryable fields, depth first.
func Fields(raw []byte, major int) ([]models.Field, error) {
	m, err := Parse(raw, major)
	if err != nil {
		return nil, err
	}
	return m.Fields(), nil
}

// Fields flattens every properties block of m.
func (m *Mapping) Fields() []models.Field {
	fields := make([]models.Field, 0)
	for _, t := range m.Types {
		if t.Properties != nil {
			walk(t.Properties, "", &fields)
		}
	}
	return fields
}

// TypeNames returns the declared type names of raw. Clusters from 8.0 on
// only know DefaultTypeName.
func TypeNames(raw []byte, major int) ([]string, error) {
	if major >= 8 {
		return []string{DefaultTypeName}, nil
	}
	m, err := Parse(raw, major)
	if err != nil {
		return nil, err
	}
	if major <= 6 {
		names := make([]string, 0, len(m.Types))
		for _, t := range m.Types {
			names = append(names, t.Name)
		}
		return names, nil
	}
	if m.Shape == ShapeLegacyTyped {
		names := make([]string, 0, len(m.Types))
		for _, t := range m.Types {
			names = append(names, t.Name)
		}
		return names, nil
	}
	return []string{DefaultTypeName}, nil
}

// IndexFields extracts the fields of one index out of a
// GET /{index}/_mapping response.
func IndexFields(response []byte, index string, major int) ([]models.Field, error) {
	value, dt, _, err := jsonparser.Get(response, index, "mappings")
	if err != nil || dt != jsonparser.Object {
		return nil, cerrors.NewFormat("read mapping",
			"response has no mappings for index "+index, err)
	}
	return Fields(value, major)
}

func walk(properties []byte, prefix string, out *[]models.Field) {
	_ = jsonparser.ObjectEach(properties, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		if dt != jsonparser.Object {
			return nil
		}
		name := unescape(key)
		if prefix != "" {
			name = prefix + "." + name
		}
		typ, _ := jsonparser.GetString(value, "type")
		if typ == "" || typ == "object" || typ == "nested" {
			if children := objectAt(value, "properties"); children != nil {
				walk(children, name, out)
			}
			return nil
		}
		*out = append(*out, models.Field{Value: name, Label: name, Type: typ})

		if sub := objectAt(value, "fields"); sub != nil {
			_ = jsonparser.ObjectEach(sub, func(subKey, subValue []byte, subType jsonparser.ValueType, _ int) error {
				if subType != jsonparser.Object {
					return nil
				}
				subName := name + "." + unescape(subKey)
				st, _ := jsonparser.GetString(subValue, "type")
				*out = append(*out, models.Field{Value: subName, Label: subName, Type: st})
				return nil
			})
		}
		return nil
	})
}

// objectAt returns the object found at key, or nil if it is missing or is
// not an object.
func objectAt(data []byte, key string) []byte {
	value, dt, _, err := jsonparser.Get(data, key)
	if err != nil || dt != jsonparser.Object {
		return nil
	}
	return value
}

func unescape(key []byte) string {
	if bytes.IndexByte(key, '\\') < 0 {
		return string(key)
	}
	s, err := jsonparser.ParseString(key)
	if err != nil {
		return string(key)
	}
	return s
}
