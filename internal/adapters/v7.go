package adapters

import (
	"context"
	"net/http"
	"net/url"

	"github.com/canonica-labs/esql/pkg/api"
)

// typeless holds the document operations of 7.0 onwards, where every
// document lives under /{index}/_doc.
type typeless struct {
	*base
}

func (c *typeless) docPath(op string, ref DocumentRef, withID bool) (string, error) {
	if err := requireName(op, "index", ref.Index); err != nil {
		return "", err
	}
	path := "/" + ref.Index + api.SuffixDoc
	if withID {
		if err := requireName(op, "id", ref.ID); err != nil {
			return "", err
		}
		path += "/" + url.PathEscape(ref.ID)
	}
	return path, nil
}

// InsertDocument posts body to /{index}/_doc. ref.Type is ignored.
func (c *typeless) InsertDocument(ctx context.Context, ref DocumentRef, body []byte) (string, error) {
	const op = "insert document"
	path, err := c.docPath(op, ref, false)
	if err != nil {
		return "", err
	}
	return c.insert(ctx, op, path, body)
}

// UpdateDocument puts body to /{index}/_doc/{id}.
func (c *typeless) UpdateDocument(ctx context.Context, ref DocumentRef, body []byte) error {
	const op = "update document"
	path, err := c.docPath(op, ref, true)
	if err != nil {
		return err
	}
	return c.replace(ctx, op, path, body)
}

func (c *typeless) DeleteDocument(ctx context.Context, ref DocumentRef) error {
	const op = "delete document"
	path, err := c.docPath(op, ref, true)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, op, http.MethodDelete, path, nil, nil)
	return err
}

func (c *typeless) DeleteDocuments(ctx context.Context, ref DocumentRef, ids []string) error {
	return c.deleteBatch(ctx, ref.Index, "", ids)
}

// v7Client speaks the 7.x dialect. Typed mapping updates are still
// accepted with include_type_name.
type v7Client struct {
	typeless
}

var _ Client = (*v7Client)(nil)

func (c *v7Client) UpdateIndex(ctx context.Context, index string, body []byte) error {
	return c.updateIndex(ctx, index, body, func(m map[string]any) (string, url.Values, map[string]any, error) {
		if _, _, ok := typeWrapper(m); ok {
			return api.SuffixMapping, url.Values{"include_type_name": {"true"}}, m, nil
		}
		return api.SuffixMapping, nil, m, nil
	})
}
