package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	"github.com/canonica-labs/esql/internal/auth"
	"github.com/canonica-labs/esql/internal/bulk"
	"github.com/canonica-labs/esql/internal/capabilities"
	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/jsonx"
	"github.com/canonica-labs/esql/internal/mapping"
	"github.com/canonica-labs/esql/internal/observability"
	"github.com/canonica-labs/esql/internal/planner"
	"github.com/canonica-labs/esql/internal/query"
	"github.com/canonica-labs/esql/internal/router"
	"github.com/canonica-labs/esql/internal/table"
	"github.com/canonica-labs/esql/pkg/api"
	"github.com/canonica-labs/esql/pkg/models"
)

// base carries everything the three dialects share: the request pipeline
// and the operations whose wire shape does not depend on the version.
type base struct {
	profile   models.ConnectionProfile
	dialect   router.Dialect
	major     int
	transport Transport
	auth      auth.Authenticator
	logger    observability.RequestLogger
	caps      capabilities.CapabilitySet
}

// do sends req and returns the response body. Non-2xx statuses become an
// *errors.ErrTransport carrying the cluster's error reason and raw body.
func (b *base) do(ctx context.Context, op string, req *Request) ([]byte, error) {
	if req.Header == nil {
		req.Header = http.Header{}
	}
	if req.Header.Get(api.HeaderContentType) == "" {
		req.Header.Set(api.HeaderContentType, api.ContentTypeJSON)
	}
	id := observability.NewRequestID()
	req.Header.Set(api.HeaderRequestID, id)
	b.auth.Apply(req.Header)

	start := time.Now()
	resp, err := b.transport.Do(ctx, req)
	entry := observability.RequestLogEntry{
		RequestID: id,
		Operation: op,
		Method:    req.Method,
		Path:      req.Path,
		Dialect:   b.dialect.String(),
		Duration:  time.Since(start),
	}

	var failure *cerrors.ErrTransport
	switch {
	case err != nil:
		if !errors.As(err, &failure) {
			failure = cerrors.NewTransport(op, 0, "", "", err)
		} else {
			failure = failure.WithOperation(op)
		}
	case resp == nil:
		failure = cerrors.NewTransport(op, 0, "transport returned no response", "", nil)
	case resp.Status < 200 || resp.Status > 299:
		entry.Status = resp.Status
		reason := ErrorReason(resp.Body)
		if reason == "" {
			reason = http.StatusText(resp.Status)
		}
		failure = cerrors.NewTransport(op, resp.Status, reason, string(resp.Body), nil)
	default:
		entry.Status = resp.Status
	}

	if failure != nil {
		entry.Error = failure.Reason
		_ = b.logger.LogRequest(ctx, entry)
		return nil, failure
	}
	_ = b.logger.LogRequest(ctx, entry)
	return resp.Body, nil
}

// send encodes payload (nil for no body, []byte passed through) and issues
// the request.
func (b *base) send(ctx context.Context, op, method, path string, params url.Values, payload any) ([]byte, error) {
	req := &Request{Method: method, Path: path, Query: params}
	switch p := payload.(type) {
	case nil:
	case []byte:
		req.Body = p
	default:
		raw, err := jsonx.Marshal(p)
		if err != nil {
			return nil, cerrors.NewInternal(op+": encode request body", err)
		}
		req.Body = raw
	}
	return b.do(ctx, op, req)
}

// fetch issues a GET and decodes the JSON answer into v.
func (b *base) fetch(ctx context.Context, op, path string, params url.Values, v any) error {
	raw, err := b.send(ctx, op, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	return jsonx.Decode(op, raw, v)
}

// fetchObject issues method and decodes the answer as a JSON object.
func (b *base) fetchObject(ctx context.Context, op, method, path string, params url.Values, payload any) (map[string]any, error) {
	raw, err := b.send(ctx, op, method, path, params, payload)
	if err != nil {
		return nil, err
	}
	return jsonx.DecodeObject(op, raw)
}

// requireCap fails with ErrUnsupported when the cluster generation lacks c.
func (b *base) requireCap(op string, c capabilities.Capability) error {
	if b.caps.Has(c) {
		return nil
	}
	return cerrors.NewUnsupported(op, b.versionLabel(),
		fmt.Sprintf("%s is not available on %s clusters", c, b.dialect))
}

func (b *base) versionLabel() string {
	if b.profile.Version != "" {
		return b.profile.Version
	}
	return strconv.Itoa(b.major) + ".x"
}

// Profile returns a copy of the connection profile.
func (b *base) Profile() *models.ConnectionProfile {
	p := b.profile
	return &p
}

// Dialect returns the wire dialect chosen for the profile.
func (b *base) Dialect() router.Dialect { return b.dialect }

// Major returns the major version payloads are shaped for.
func (b *base) Major() int { return b.major }

// Capabilities returns what the cluster generation supports.
func (b *base) Capabilities() capabilities.CapabilitySet { return b.caps }

// Info reads GET /.
func (b *base) Info(ctx context.Context) (*models.Overview, error) {
	var out models.Overview
	if err := b.fetch(ctx, "read cluster info", api.EndpointRoot, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClusterHealth reads GET /_cluster/health.
func (b *base) ClusterHealth(ctx context.Context) (*models.ClusterHealth, error) {
	var out models.ClusterHealth
	if err := b.fetch(ctx, "read cluster health", api.EndpointClusterHealth, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExplainAllocation asks why a shard is (un)assigned. A nil request
// explains the first unassigned shard.
func (b *base) ExplainAllocation(ctx context.Context, req *models.AllocationExplainRequest) (map[string]any, error) {
	var payload any
	if req != nil {
		if req.Index == "" {
			return nil, cerrors.NewValidation("explain allocation", "index", "index is required when a shard is given", "")
		}
		payload = req
	}
	return b.fetchObject(ctx, "explain allocation", http.MethodPost, api.EndpointAllocationExplain, nil, payload)
}

// CreateIndex creates index with an optional settings/mappings body.
func (b *base) CreateIndex(ctx context.Context, index string, body []byte) error {
	if err := requireName("create index", "index", index); err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if _, err := decodeObject("create index", body); err != nil {
			return err
		}
	} else {
		body = nil
	}
	_, err := b.send(ctx, "create index", http.MethodPut, "/"+index, nil, body)
	return err
}

// DeleteIndices deletes every index in one request.
func (b *base) DeleteIndices(ctx context.Context, indices []string) error {
	names := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx = strings.TrimSpace(idx); idx != "" {
			names = append(names, idx)
		}
	}
	if len(names) == 0 {
		return cerrors.NewValidation("delete indices", "indices", "index list is empty", "name at least one index")
	}
	_, err := b.send(ctx, "delete indices", http.MethodDelete, "/"+strings.Join(names, ","), nil, nil)
	return err
}

// OpenIndex opens a closed index.
func (b *base) OpenIndex(ctx context.Context, index string, opts models.OpenCloseOptions) error {
	return b.openClose(ctx, "open index", index, api.SuffixOpen, opts)
}

// CloseIndex closes an index.
func (b *base) CloseIndex(ctx context.Context, index string, opts models.OpenCloseOptions) error {
	return b.openClose(ctx, "close index", index, api.SuffixClose, opts)
}

func (b *base) openClose(ctx context.Context, op, index, suffix string, opts models.OpenCloseOptions) error {
	if err := requireName(op, "index", index); err != nil {
		return err
	}
	_, err := b.send(ctx, op, http.MethodPost, "/"+index+suffix, openCloseParams(opts), nil)
	return err
}

func openCloseParams(opts models.OpenCloseOptions) url.Values {
	params := url.Values{}
	if opts.Timeout != "" {
		params.Set("timeout", opts.Timeout)
	}
	if opts.MasterTimeout != "" {
		params.Set("master_timeout", opts.MasterTimeout)
	}
	if opts.IgnoreUnavailable != nil {
		params.Set("ignore_unavailable", strconv.FormatBool(*opts.IgnoreUnavailable))
	}
	if opts.AllowNoIndices != nil {
		params.Set("allow_no_indices", strconv.FormatBool(*opts.AllowNoIndices))
	}
	return params
}

// UpdateAliases posts alias actions to /_aliases atomically.
func (b *base) UpdateAliases(ctx context.Context, actions []models.AliasAction) error {
	if len(actions) == 0 {
		return cerrors.NewValidation("update aliases", "actions", "action list is empty", "add, remove or remove_index at least one alias")
	}
	for i, a := range actions {
		set := 0
		for _, t := range []*models.AliasTarget{a.Add, a.Remove, a.RemoveIndex} {
			if t != nil {
				set++
			}
		}
		if set != 1 {
			return cerrors.NewValidation("update aliases", "actions",
				fmt.Sprintf("action %d must set exactly one of add, remove or remove_index", i), "")
		}
	}
	_, err := b.send(ctx, "update aliases", http.MethodPost, api.EndpointAliases, nil,
		map[string]any{"actions": actions})
	return err
}

// Analyze runs the analyzer of field on text.
func (b *base) Analyze(ctx context.Context, index, field, text string) (*models.AnalyzeResult, error) {
	if err := requireName("analyze", "index", index); err != nil {
		return nil, err
	}
	payload := map[string]any{"text": text}
	if field != "" {
		payload["field"] = field
	}
	raw, err := b.send(ctx, "analyze", http.MethodPost, "/"+index+api.SuffixAnalyze, nil, payload)
	if err != nil {
		return nil, err
	}
	var out models.AnalyzeResult
	if err := jsonx.Decode("analyze", raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IndexMapping returns the queryable fields of index.
func (b *base) IndexMapping(ctx context.Context, index string) ([]models.Field, error) {
	if err := requireName("read mapping", "index", index); err != nil {
		return nil, err
	}
	raw, err := b.send(ctx, "read mapping", http.MethodGet, "/"+index+api.SuffixMapping, nil, nil)
	if err != nil {
		return nil, err
	}
	fields, err := mapping.IndexFields(raw, index, b.major)
	if err == nil {
		return fields, nil
	}
	// index may be an alias; the response is keyed by the concrete index.
	var only []byte
	count := 0
	_ = jsonparser.ObjectEach(raw, func(key, value []byte, _ jsonparser.ValueType, _ int) error {
		count++
		only, _, _, _ = jsonparser.Get(value, "mappings")
		return nil
	})
	if count != 1 || only == nil {
		return nil, err
	}
	return mapping.Fields(only, b.major)
}

// Search runs a query-form search.
func (b *base) Search(ctx context.Context, s query.FormSearch) (*table.Result, error) {
	body, err := s.Body(b.major)
	if err != nil {
		return nil, err
	}
	return b.RawSearch(ctx, s.Index, body)
}

// BrowseData runs a data-browser search.
func (b *base) BrowseData(ctx context.Context, s query.BrowserSearch) (*table.Result, error) {
	body, err := s.Body(b.major)
	if err != nil {
		return nil, err
	}
	return b.RawSearch(ctx, s.Index, body)
}

// RawSearch posts body to /{index}/_search and tabularizes the hits.
func (b *base) RawSearch(ctx context.Context, index string, body any) (*table.Result, error) {
	if err := requireName("search", "index", index); err != nil {
		return nil, err
	}
	raw, err := b.send(ctx, "search", http.MethodPost, "/"+index+api.SuffixSearch, nil, body)
	if err != nil {
		return nil, err
	}
	return table.FromResponse(string(raw))
}

// Query runs a planned SQL-Lite statement and applies its select list.
func (b *base) Query(ctx context.Context, plan *planner.Plan) (*planner.Output, error) {
	res, err := b.RawSearch(ctx, plan.Index, plan.Body)
	if err != nil {
		return nil, err
	}
	return plan.Project(res)
}

// Bulk serializes actions and posts them to /_bulk.
func (b *base) Bulk(ctx context.Context, actions []bulk.Action, opts bulk.RequestOptions) (*bulk.Response, error) {
	if opts.LegacyType != "" && !b.caps.Has(capabilities.CapabilityMappingTypes) {
		return nil, cerrors.NewValidation("bulk", "type",
			"mapping types are not accepted by "+b.dialect.String()+" clusters", "drop the type")
	}
	body, err := bulk.Serialize(actions, bulk.Options{LegacyType: opts.LegacyType})
	if err != nil {
		return nil, err
	}
	req := &Request{
		Method: http.MethodPost,
		Path:   api.EndpointBulk,
		Query:  opts.Params(),
		Header: http.Header{api.HeaderContentType: []string{api.ContentTypeNDJSON}},
		Body:   []byte(body),
	}
	raw, err := b.do(ctx, "bulk", req)
	if err != nil {
		return nil, err
	}
	return bulk.DecodeResponse(string(raw))
}

// deleteBatch deletes ids through the bulk API and turns per-item
// failures into one error.
func (b *base) deleteBatch(ctx context.Context, index, legacyType string, ids []string) error {
	if err := requireName("delete documents", "index", index); err != nil {
		return err
	}
	if len(ids) == 0 {
		return cerrors.NewValidation("delete documents", "ids", "id list is empty", "name at least one document id")
	}
	resp, err := b.Bulk(ctx, bulk.DeleteActions(index, ids), bulk.RequestOptions{LegacyType: legacyType})
	if err != nil {
		return err
	}
	failures := resp.Failures()
	if len(failures) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, f.ID+": "+itemReason(f.Error))
	}
	return cerrors.NewTransport("delete documents", failures[0].Status,
		fmt.Sprintf("%d of %d deletes failed: %s", len(failures), len(ids), strings.Join(parts, "; ")), "", nil)
}

func itemReason(v any) string {
	if m, ok := v.(map[string]any); ok {
		if r, ok := m["reason"].(string); ok {
			return r
		}
		if t, ok := m["type"].(string); ok {
			return t
		}
	}
	return table.FormatValue(v)
}

// Raw issues a free-form request.
func (b *base) Raw(ctx context.Context, r *models.RawRequest) (string, error) {
	if r == nil {
		return "", cerrors.NewValidation("raw request", "request", "request is nil", "")
	}
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := strings.TrimSpace(r.Path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req := &Request{Method: method, Path: path, Header: http.Header{}}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if r.Body != "" {
		req.Body = []byte(r.Body)
	}
	raw, err := b.do(ctx, "raw request", req)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func requireName(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return cerrors.NewValidation(op, field, field+" is required", "")
	}
	return nil
}

// decodeObject parses a caller supplied JSON object.
func decodeObject(op string, body []byte) (map[string]any, error) {
	var out map[string]any
	if err := jsonx.Unmarshal(body, &out); err != nil || out == nil {
		return nil, cerrors.NewValidation(op, "body", "body must be a JSON object", "")
	}
	return out, nil
}

// mappingShaper builds the mapping update request of one dialect. It
// returns the path suffix after /{index}, query parameters and the body.
type mappingShaper func(m map[string]any) (string, url.Values, map[string]any, error)

// updateIndex applies settings first, then the mapping part of body. The
// mapping part is "mappings", a bare "properties" block, or the whole body
// when it carries neither settings nor mappings.
func (b *base) updateIndex(ctx context.Context, index string, body []byte, shape mappingShaper) error {
	const op = "update index"
	if err := requireName(op, "index", index); err != nil {
		return err
	}
	cfg, err := decodeObject(op, body)
	if err != nil {
		return err
	}
	if len(cfg) == 0 {
		return cerrors.NewValidation(op, "body", "nothing to update", "pass settings, mappings or properties")
	}

	settings, hasSettings := cfg["settings"]
	var m map[string]any
	if raw, ok := cfg["mappings"]; ok {
		if m, ok = raw.(map[string]any); !ok {
			return cerrors.NewValidation(op, "mappings", "mappings must be a JSON object", "")
		}
	} else if props, ok := cfg["properties"]; ok && !hasSettings {
		m = map[string]any{"properties": props}
	} else if !hasSettings {
		m = cfg
	}

	// the mapping request is shaped before anything is written
	var (
		suffix  string
		params  url.Values
		payload map[string]any
	)
	if m != nil {
		if suffix, params, payload, err = shape(m); err != nil {
			return err
		}
	}

	if hasSettings {
		if _, err := b.send(ctx, op, http.MethodPut, "/"+index+api.SuffixSettings, nil,
			map[string]any{"settings": settings}); err != nil {
			return err
		}
	}
	if m == nil {
		return nil
	}
	_, err = b.send(ctx, op, http.MethodPut, "/"+index+suffix, params, payload)
	return err
}
