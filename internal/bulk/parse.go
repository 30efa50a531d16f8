package bulk

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/jsonx"
)

// Parse reads a bulk body back into actions. Documents and update docs are
// kept as json.RawMessage so numbers are not reinterpreted. Blank lines are
// ignored.
func Parse(body string) ([]Action, error) {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, cerrors.NewFormat("parse bulk", "body cannot be read", err)
	}

	var actions []Action
	for i := 0; i < len(lines); i++ {
		var head map[string]metadata
		if err := jsonx.Unmarshal([]byte(lines[i]), &head); err != nil {
			return nil, cerrors.NewFormat("parse bulk", fmt.Sprintf("line %d is not an action line", i+1), err)
		}
		if len(head) != 1 {
			return nil, cerrors.NewFormat("parse bulk",
				fmt.Sprintf("line %d must hold exactly one action, got %d", i+1, len(head)), nil)
		}
		var a Action
		for verb, meta := range head {
			a = Action{
				Verb:        Verb(verb),
				Index:       meta.Index,
				ID:          meta.ID,
				Routing:     meta.Routing,
				Version:     meta.Version,
				VersionType: meta.VersionType,
			}
		}
		if !a.Verb.valid() {
			return nil, cerrors.NewFormat("parse bulk", fmt.Sprintf("line %d has unknown action %q", i+1, a.Verb), nil)
		}
		if a.Verb.HasData() {
			i++
			if i >= len(lines) {
				return nil, cerrors.NewFormat("parse bulk",
					fmt.Sprintf("%s action on line %d has no data line", a.Verb, i), nil)
			}
			data := []byte(lines[i])
			if !jsonx.Valid(data) {
				return nil, cerrors.NewFormat("parse bulk", fmt.Sprintf("line %d is not valid JSON", i+1), nil)
			}
			if a.Verb == VerbUpdate {
				var p struct {
					Doc         json.RawMessage `json:"doc"`
					DocAsUpsert bool            `json:"doc_as_upsert"`
					Script      *Script         `json:"script"`
				}
				if err := jsonx.Unmarshal(data, &p); err != nil {
					return nil, cerrors.NewFormat("parse bulk", fmt.Sprintf("line %d is not an update payload", i+1), err)
				}
				if len(p.Doc) > 0 {
					a.Doc = p.Doc
				}
				a.DocAsUpsert = p.DocAsUpsert
				a.Script = p.Script
			} else {
				a.Document = json.RawMessage(data)
			}
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// LoadActions reads actions from a YAML or JSON document holding a list of
// actions:
//
//   - action: index
//     index: logs
//     id: "1"
//     document: {message: hello}
func LoadActions(r io.Reader) ([]Action, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, cerrors.NewFormat("load bulk actions", "input cannot be read", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, cerrors.NewValidation("load bulk actions", "actions", "input is empty", "")
	}
	var actions []Action
	if err := yaml.Unmarshal(data, &actions); err != nil {
		return nil, cerrors.NewFormat("load bulk actions", "input is not a YAML or JSON list of actions", err)
	}
	for i := range actions {
		actions[i].Document = normalizeYAML(actions[i].Document)
		actions[i].Doc = normalizeYAML(actions[i].Doc)
		if actions[i].Script != nil {
			actions[i].Script.Params = normalizeMap(actions[i].Script.Params)
		}
	}
	return actions, nil
}

// normalizeYAML converts map[any]any values left by the YAML decoder into
// map[string]any so they encode as JSON objects.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []any:
		for i := range t {
			t[i] = normalizeYAML(t[i])
		}
		return t
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeYAML(v)
	}
	return m
}
