package adapters

import (
	"context"
	"net/http"
	"net/url"

	"github.com/canonica-labs/esql/internal/capabilities"
	"github.com/canonica-labs/esql/pkg/api"
)

// IlmMove posts {policy} to /{index}/_ilm/move.
func (b *base) IlmMove(ctx context.Context, index, policy string) error {
	const op = "move index lifecycle"
	if err := b.requireCap(op, capabilities.CapabilityILM); err != nil {
		return err
	}
	if err := requireName(op, "index", index); err != nil {
		return err
	}
	if err := requireName(op, "policy", policy); err != nil {
		return err
	}
	_, err := b.send(ctx, op, http.MethodPost, "/"+index+api.SuffixIlmMove, nil, map[string]string{"policy": policy})
	return err
}

// IlmRemove detaches the lifecycle policy of index.
func (b *base) IlmRemove(ctx context.Context, index string) error {
	const op = "remove index lifecycle"
	if err := b.requireCap(op, capabilities.CapabilityILM); err != nil {
		return err
	}
	if err := requireName(op, "index", index); err != nil {
		return err
	}
	_, err := b.send(ctx, op, http.MethodPost, "/"+index+api.SuffixIlmRemove, nil, nil)
	return err
}

// PutIlmPolicy creates or replaces a policy; body is sent as given.
func (b *base) PutIlmPolicy(ctx context.Context, name string, body []byte) error {
	const op = "put lifecycle policy"
	if err := b.requireCap(op, capabilities.CapabilityILM); err != nil {
		return err
	}
	if err := requireName(op, "name", name); err != nil {
		return err
	}
	if _, err := decodeObject(op, body); err != nil {
		return err
	}
	_, err := b.send(ctx, op, http.MethodPut, api.EndpointIlmPolicy+"/"+name, nil, body)
	return err
}

func (b *base) DeleteIlmPolicy(ctx context.Context, name string) error {
	const op = "delete lifecycle policy"
	if err := b.requireCap(op, capabilities.CapabilityILM); err != nil {
		return err
	}
	if err := requireName(op, "name", name); err != nil {
		return err
	}
	_, err := b.send(ctx, op, http.MethodDelete, api.EndpointIlmPolicy+"/"+name, nil, nil)
	return err
}

func (b *base) IlmPolicies(ctx context.Context, name string) (map[string]any, error) {
	const op = "list lifecycle policies"
	if err := b.requireCap(op, capabilities.CapabilityILM); err != nil {
		return nil, err
	}
	path := api.EndpointIlmPolicy
	if name != "" {
		path += "/" + name
	}
	return b.fetchObject(ctx, op, http.MethodGet, path, nil, nil)
}

func (b *base) IlmIndices(ctx context.Context, policy string) (map[string]any, error) {
	const op = "list lifecycle indices"
	if err := b.requireCap(op, capabilities.CapabilityILM); err != nil {
		return nil, err
	}
	if err := requireName(op, "policy", policy); err != nil {
		return nil, err
	}
	return b.fetchObject(ctx, op, http.MethodGet, api.EndpointIlmExplain, url.Values{"policy": {policy}}, nil)
}

func (b *base) IlmExplain(ctx context.Context, index string) (map[string]any, error) {
	const op = "explain index lifecycle"
	if err := b.requireCap(op, capabilities.CapabilityILM); err != nil {
		return nil, err
	}
	if index == "" {
		index = "*"
	}
	return b.fetchObject(ctx, op, http.MethodGet, "/"+index+api.SuffixIlmExplain, nil, nil)
}
