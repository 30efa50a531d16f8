package adapters

import (
	"context"
	"net/http"
	"sort"

	"github.com/buger/jsonparser"
	"golang.org/x/sync/errgroup"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/jsonx"
	"github.com/canonica-labs/esql/internal/mapping"
	"github.com/canonica-labs/esql/pkg/api"
	"github.com/canonica-labs/esql/pkg/models"
)

// ClusterIndices reads the full cluster state and the cluster health
// concurrently. Only a state failure fails the call.
func (b *base) ClusterIndices(ctx context.Context) (*models.IndexItemResult, error) {
	var (
		state     []byte
		health    *models.ClusterHealth
		healthErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := b.send(gctx, "read cluster state", http.MethodGet, api.EndpointClusterState, nil, nil)
		state = raw
		return err
	})
	g.Go(func() error {
		health, healthErr = b.ClusterHealth(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res, err := parseClusterState(state, b.major)
	if err != nil {
		return nil, err
	}
	res.Health = health
	res.HealthErr = healthErr
	return res, nil
}

// GetIndex reads the metadata and routing table of one index.
func (b *base) GetIndex(ctx context.Context, index string) (*models.IndexItem, error) {
	if err := requireName("get index", "index", index); err != nil {
		return nil, err
	}
	raw, err := b.send(ctx, "get index", http.MethodGet,
		api.EndpointClusterState+"/metadata,routing_table/"+index, nil, nil)
	if err != nil {
		return nil, err
	}
	res, err := parseClusterState(raw, b.major)
	if err != nil {
		return nil, err
	}
	for i := range res.Indices {
		if res.Indices[i].Name == index {
			return &res.Indices[i], nil
		}
	}
	// an alias resolves to its single concrete index
	if len(res.Indices) == 1 {
		return &res.Indices[0], nil
	}
	return nil, cerrors.NewValidation("get index", "index", "index "+index+" was not found in the cluster state", "")
}

// parseClusterState turns a /_cluster/state response into index items. An
// index whose metadata cannot be read is listed in ErrorIndexKeys instead
// of failing the whole result.
func parseClusterState(data []byte, major int) (*models.IndexItemResult, error) {
	if !jsonx.Valid(data) {
		return nil, cerrors.NewFormat("read cluster state", "response is not valid JSON", nil)
	}
	res := &models.IndexItemResult{
		Nodes:          map[string]models.ClusterNode{},
		Indices:        []models.IndexItem{},
		ErrorIndexKeys: []string{},
	}
	res.MasterNode, _ = jsonparser.GetString(data, "master_node")

	_ = jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		if dt == jsonparser.Object {
			name, _ := jsonparser.GetString(value, "name")
			res.Nodes[unescapeKey(key)] = models.ClusterNode{Name: name}
		}
		return nil
	}, "nodes")

	routing, _, _, _ := jsonparser.Get(data, "routing_table", "indices")

	err := jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		name := unescapeKey(key)
		if dt != jsonparser.Object {
			res.ErrorIndexKeys = append(res.ErrorIndexKeys, name)
			return nil
		}
		item, err := indexItem(name, value, major)
		if err != nil {
			res.ErrorIndexKeys = append(res.ErrorIndexKeys, name)
			return nil
		}
		if routing != nil {
			if shards, _, _, err := jsonparser.Get(routing, name, "shards"); err == nil {
				item.Shards = indexShards(shards)
			}
		}
		res.Indices = append(res.Indices, *item)
		return nil
	}, "metadata", "indices")
	if err != nil && err != jsonparser.KeyPathNotFoundError {
		return nil, cerrors.NewFormat("read cluster state", "metadata.indices is malformed", err)
	}

	sort.Slice(res.Indices, func(i, j int) bool { return res.Indices[i].Name < res.Indices[j].Name })
	return res, nil
}

func indexItem(name string, meta []byte, major int) (*models.IndexItem, error) {
	item := &models.IndexItem{
		Name:    name,
		Aliases: []string{},
		Shards:  map[string][]models.IndexShard{},
	}
	item.State, _ = jsonparser.GetString(meta, "state")

	if aliases, dt, _, err := jsonparser.Get(meta, "aliases"); err == nil {
		switch dt {
		case jsonparser.Array:
			_, _ = jsonparser.ArrayEach(aliases, func(v []byte, vt jsonparser.ValueType, _ int, _ error) {
				if vt == jsonparser.String {
					item.Aliases = append(item.Aliases, unescapeKey(v))
				}
			})
		case jsonparser.Object:
			_ = jsonparser.ObjectEach(aliases, func(k, _ []byte, _ jsonparser.ValueType, _ int) error {
				item.Aliases = append(item.Aliases, unescapeKey(k))
				return nil
			})
		}
	}

	mappings, _, _, _ := jsonparser.Get(meta, "mappings")
	m, err := mapping.Parse(mappings, major)
	if err != nil {
		return nil, err
	}
	item.Fields = m.Fields()
	item.Types, err = mapping.TypeNames(mappings, major)
	if err != nil {
		return nil, err
	}
	if len(mappings) > 0 {
		if err := jsonx.Unmarshal(mappings, &item.Mappings); err != nil {
			return nil, err
		}
	}
	if settings, _, _, err := jsonparser.Get(meta, "settings"); err == nil {
		if err := jsonx.Unmarshal(settings, &item.Settings); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// indexShards reads routing_table.indices.{name}.shards; a shard whose
// copies cannot be decoded is skipped.
func indexShards(data []byte) map[string][]models.IndexShard {
	out := map[string][]models.IndexShard{}
	_ = jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		if dt != jsonparser.Array {
			return nil
		}
		var copies []models.IndexShard
		if err := jsonx.Unmarshal(value, &copies); err == nil {
			out[unescapeKey(key)] = copies
		}
		return nil
	})
	return out
}

func unescapeKey(key []byte) string {
	s, err := jsonparser.ParseString(key)
	if err != nil {
		return string(key)
	}
	return s
}
