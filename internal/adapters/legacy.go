package adapters

import (
	"context"
	"net/http"
	"net/url"

	"github.com/buger/jsonparser"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/pkg/api"
)

// legacyClient speaks the pre-7 dialect: every document lives under a
// mapping type, and the type is part of every document URL.
type legacyClient struct {
	*base
}

var _ Client = (*legacyClient)(nil)

func (c *legacyClient) UpdateIndex(ctx context.Context, index string, body []byte) error {
	return c.updateIndex(ctx, index, body, func(m map[string]any) (string, url.Values, map[string]any, error) {
		name, inner, ok := typeWrapper(m)
		if !ok {
			return "", nil, nil, cerrors.NewValidation("update index", "mappings",
				"clusters before 7.0 need the mapping type", `wrap the mapping as {"<type>": {"properties": ...}}`)
		}
		return api.SuffixMapping + "/" + name, nil, inner, nil
	})
}

func (c *legacyClient) docPath(op string, ref DocumentRef, withID bool) (string, error) {
	if err := requireName(op, "index", ref.Index); err != nil {
		return "", err
	}
	if ref.Type == "" {
		return "", cerrors.NewValidation(op, "type", "clusters before 7.0 require a document type", "pass the mapping type, e.g. _doc or doc")
	}
	path := "/" + ref.Index + "/" + ref.Type
	if withID {
		if err := requireName(op, "id", ref.ID); err != nil {
			return "", err
		}
		path += "/" + url.PathEscape(ref.ID)
	}
	return path, nil
}

// InsertDocument posts body to /{index}/{type}.
func (c *legacyClient) InsertDocument(ctx context.Context, ref DocumentRef, body []byte) (string, error) {
	const op = "insert document"
	path, err := c.docPath(op, ref, false)
	if err != nil {
		return "", err
	}
	return c.insert(ctx, op, path, body)
}

// UpdateDocument puts body to /{index}/{type}/{id}.
func (c *legacyClient) UpdateDocument(ctx context.Context, ref DocumentRef, body []byte) error {
	const op = "update document"
	path, err := c.docPath(op, ref, true)
	if err != nil {
		return err
	}
	return c.replace(ctx, op, path, body)
}

func (c *legacyClient) DeleteDocument(ctx context.Context, ref DocumentRef) error {
	const op = "delete document"
	path, err := c.docPath(op, ref, true)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, op, http.MethodDelete, path, nil, nil)
	return err
}

func (c *legacyClient) DeleteDocuments(ctx context.Context, ref DocumentRef, ids []string) error {
	if ref.Type == "" {
		return cerrors.NewValidation("delete documents", "type", "clusters before 7.0 require a document type", "")
	}
	return c.deleteBatch(ctx, ref.Index, ref.Type, ids)
}

// insert posts a document and returns the id the cluster assigned.
func (b *base) insert(ctx context.Context, op, path string, body []byte) (string, error) {
	if _, err := decodeObject(op, body); err != nil {
		return "", err
	}
	raw, err := b.send(ctx, op, http.MethodPost, path, nil, body)
	if err != nil {
		return "", err
	}
	id, err := jsonparser.GetString(raw, "_id")
	if err != nil {
		return "", cerrors.NewFormat(op, "response has no _id", err)
	}
	return id, nil
}

func (b *base) replace(ctx context.Context, op, path string, body []byte) error {
	if _, err := decodeObject(op, body); err != nil {
		return err
	}
	_, err := b.send(ctx, op, http.MethodPut, path, nil, body)
	return err
}
