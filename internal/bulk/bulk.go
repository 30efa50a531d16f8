// Package bulk serializes write actions into the newline-delimited bulk
// format and reads them back.
//
// Every action becomes one metadata line. index and create actions are
// followed by the document, update actions by the update payload and delete
// actions by nothing. The wire format is whitespace significant, so each
// line is compacted and the body always ends with a single newline.
package bulk

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/jsonx"
)

// Verb is the bulk operation of an action.
type Verb string

const (
	VerbIndex  Verb = "index"
	VerbCreate Verb = "create"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// HasData reports whether the verb is followed by a data line.
func (v Verb) HasData() bool {
	return v == VerbIndex || v == VerbCreate || v == VerbUpdate
}

func (v Verb) valid() bool {
	return v.HasData() || v == VerbDelete
}

// Script is an update script.
type Script struct {
	Source string         `json:"source" yaml:"source"`
	Lang   string         `json:"lang,omitempty" yaml:"lang,omitempty"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Action is one bulk write. Document is used by index and create; Doc,
// DocAsUpsert and Script by update; delete carries no payload.
type Action struct {
	Verb        Verb   `yaml:"action"`
	Index       string `yaml:"index"`
	ID          string `yaml:"id,omitempty"`
	Routing     string `yaml:"routing,omitempty"`
	Version     *int64 `yaml:"version,omitempty"`
	VersionType string `yaml:"version_type,omitempty"`

	Document    any     `yaml:"document,omitempty"`
	Doc         any     `yaml:"doc,omitempty"`
	DocAsUpsert bool    `yaml:"doc_as_upsert,omitempty"`
	Script      *Script `yaml:"script,omitempty"`
}

// Options tune serialization.
type Options struct {
	// LegacyType adds _type to every metadata line. Only pre-7 clusters
	// accept it.
	LegacyType string
}

type metadata struct {
	Index       string `json:"_index"`
	ID          string `json:"_id,omitempty"`
	Routing     string `json:"routing,omitempty"`
	Version     *int64 `json:"version,omitempty"`
	VersionType string `json:"version_type,omitempty"`
	Type        string `json:"_type,omitempty"`
}

type updatePayload struct {
	Doc         any     `json:"doc,omitempty"`
	DocAsUpsert bool    `json:"doc_as_upsert,omitempty"`
	Script      *Script `json:"script,omitempty"`
}

// Serialize renders actions as a bulk request body.
func Serialize(actions []Action, opts Options) (string, error) {
	if len(actions) == 0 {
		return "", cerrors.NewValidation("bulk", "actions", "action list is empty",
			"pass at least one index, create, update or delete action")
	}

	var buf bytes.Buffer
	for i, a := range actions {
		if !a.Verb.valid() {
			return "", cerrors.NewValidation("bulk", "action",
				fmt.Sprintf("action %d has unknown verb %q", i, a.Verb),
				"use index, create, update or delete")
		}
		if a.Index == "" {
			return "", cerrors.NewValidation("bulk", "index",
				fmt.Sprintf("%s action %d has no index", a.Verb, i), "name the target index")
		}
		meta := metadata{
			Index:       a.Index,
			ID:          a.ID,
			Routing:     a.Routing,
			Version:     a.Version,
			VersionType: a.VersionType,
			Type:        opts.LegacyType,
		}
		if err := writeLine(&buf, map[string]metadata{string(a.Verb): meta}); err != nil {
			return "", cerrors.NewFormat("bulk", fmt.Sprintf("action %d metadata cannot be encoded", i), err)
		}

		switch a.Verb {
		case VerbIndex, VerbCreate:
			if a.Document == nil {
				return "", cerrors.NewValidation("bulk", "document",
					fmt.Sprintf("%s action %d has no document", a.Verb, i), "")
			}
			if err := writeLine(&buf, a.Document); err != nil {
				return "", cerrors.NewFormat("bulk", fmt.Sprintf("action %d document is not valid JSON", i), err)
			}
		case VerbUpdate:
			if a.Doc == nil && a.Script == nil {
				return "", cerrors.NewValidation("bulk", "doc",
					fmt.Sprintf("update action %d has neither doc nor script", i), "")
			}
			if err := writeLine(&buf, updatePayload{Doc: a.Doc, DocAsUpsert: a.DocAsUpsert, Script: a.Script}); err != nil {
				return "", cerrors.NewFormat("bulk", fmt.Sprintf("action %d update payload is not valid JSON", i), err)
			}
		}
	}
	return buf.String(), nil
}

// writeLine encodes v onto a single line followed by a newline.
func writeLine(buf *bytes.Buffer, v any) error {
	raw, err := jsonx.Marshal(v)
	if err != nil {
		return err
	}
	line, err := jsonx.Compact(raw)
	if err != nil {
		return err
	}
	buf.Write(line)
	buf.WriteByte('\n')
	return nil
}

// DeleteActions builds one delete action per id.
func DeleteActions(index string, ids []string) []Action {
	actions := make([]Action, len(ids))
	for i, id := range ids {
		actions[i] = Action{Verb: VerbDelete, Index: index, ID: id}
	}
	return actions
}

// RequestOptions are the query parameters of a POST /_bulk request.
type RequestOptions struct {
	Refresh     *bool
	Timeout     string
	Consistency string
	Pipeline    string
	// LegacyType is passed to Serialize, it is not a query parameter.
	LegacyType string
}

// Params returns the set query parameters.
func (o RequestOptions) Params() url.Values {
	params := url.Values{}
	if o.Refresh != nil {
		params.Set("refresh", strconv.FormatBool(*o.Refresh))
	}
	if o.Timeout != "" {
		params.Set("timeout", o.Timeout)
	}
	if o.Consistency != "" {
		params.Set("consistency", o.Consistency)
	}
	if o.Pipeline != "" {
		params.Set("pipeline", o.Pipeline)
	}
	return params
}

// ItemResult is the outcome of one action.
type ItemResult struct {
	Index  string `json:"_index"`
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Result string `json:"result,omitempty"`
	// Error is an object on current clusters and a string on very old ones.
	Error any `json:"error,omitempty"`
}

// Response is a decoded bulk response.
type Response struct {
	Took   int64                   `json:"took"`
	Errors bool                    `json:"errors"`
	Items  []map[string]ItemResult `json:"items"`
}

// Failure is a failed item together with its verb.
type Failure struct {
	Verb Verb
	ItemResult
}

// DecodeResponse decodes a bulk response body.
func DecodeResponse(raw string) (*Response, error) {
	var resp Response
	if err := jsonx.Decode("bulk", []byte(raw), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Failures returns every item that carries an error, in response order.
func (r *Response) Failures() []Failure {
	var out []Failure
	for _, item := range r.Items {
		for verb, res := range item {
			if res.Error != nil {
				out = append(out, Failure{Verb: Verb(verb), ItemResult: res})
			}
		}
	}
	return out
}
