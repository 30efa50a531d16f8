package adapters

import (
	"context"
	"net/url"

	"github.com/canonica-labs/esql/pkg/api"
)

// v8Client speaks the 8.x dialect. Mapping types are gone; a type
// wrapper in an update is unwrapped before sending.
type v8Client struct {
	typeless
}

var _ Client = (*v8Client)(nil)

func (c *v8Client) UpdateIndex(ctx context.Context, index string, body []byte) error {
	return c.updateIndex(ctx, index, body, func(m map[string]any) (string, url.Values, map[string]any, error) {
		return api.SuffixMapping, nil, typelessMappings(m), nil
	})
}
