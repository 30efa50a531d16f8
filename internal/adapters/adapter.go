// Package adapters is the version-abstraction client.
//
// One Client is bound to one immutable connection profile. The wire dialect
// (pre-7, 7.x, 8.x+) is selected once in New; the operations that do not
// differ between dialects live on a shared base, the rest on the three
// dialect implementations.
//
// Adapters are stateless and thin: no retries, no hidden fallbacks. Every
// request goes through the injected Transport.
package adapters

import (
	"context"

	"github.com/canonica-labs/esql/internal/auth"
	"github.com/canonica-labs/esql/internal/bulk"
	"github.com/canonica-labs/esql/internal/capabilities"
	"github.com/canonica-labs/esql/internal/observability"
	"github.com/canonica-labs/esql/internal/planner"
	"github.com/canonica-labs/esql/internal/query"
	"github.com/canonica-labs/esql/internal/router"
	"github.com/canonica-labs/esql/internal/table"
	"github.com/canonica-labs/esql/pkg/models"
)

// ClusterOps reads cluster level information.
type ClusterOps interface {
	Info(ctx context.Context) (*models.Overview, error)
	ClusterHealth(ctx context.Context) (*models.ClusterHealth, error)
	// ClusterIndices reads every index of the cluster state. Health is
	// fetched concurrently; a health failure is reported on the result.
	ClusterIndices(ctx context.Context) (*models.IndexItemResult, error)
	GetIndex(ctx context.Context, index string) (*models.IndexItem, error)
	ExplainAllocation(ctx context.Context, req *models.AllocationExplainRequest) (map[string]any, error)
}

// IndexOps manages indices.
type IndexOps interface {
	CreateIndex(ctx context.Context, index string, body []byte) error
	// UpdateIndex applies a settings and/or mappings change, shaping the
	// mapping request for the dialect.
	UpdateIndex(ctx context.Context, index string, body []byte) error
	DeleteIndices(ctx context.Context, indices []string) error
	OpenIndex(ctx context.Context, index string, opts models.OpenCloseOptions) error
	CloseIndex(ctx context.Context, index string, opts models.OpenCloseOptions) error
	UpdateAliases(ctx context.Context, actions []models.AliasAction) error
	Analyze(ctx context.Context, index, field, text string) (*models.AnalyzeResult, error)
	IndexMapping(ctx context.Context, index string) ([]models.Field, error)
}

// DocOps manages single documents.
type DocOps interface {
	// InsertDocument indexes body with a generated id and returns the id.
	InsertDocument(ctx context.Context, ref DocumentRef, body []byte) (string, error)
	// UpdateDocument replaces the document ref.ID with body.
	UpdateDocument(ctx context.Context, ref DocumentRef, body []byte) error
	DeleteDocument(ctx context.Context, ref DocumentRef) error
	// DeleteDocuments deletes ids through the bulk API. Items the cluster
	// failed to delete are reported as an error.
	DeleteDocuments(ctx context.Context, ref DocumentRef, ids []string) error
}

// SearchOps runs searches and bulk writes.
type SearchOps interface {
	Search(ctx context.Context, s query.FormSearch) (*table.Result, error)
	BrowseData(ctx context.Context, s query.BrowserSearch) (*table.Result, error)
	// RawSearch posts an already built body to /{index}/_search.
	RawSearch(ctx context.Context, index string, body any) (*table.Result, error)
	Bulk(ctx context.Context, actions []bulk.Action, opts bulk.RequestOptions) (*bulk.Response, error)
	// Raw issues a free-form request and returns the response text.
	Raw(ctx context.Context, req *models.RawRequest) (string, error)
	// Query runs a planned SQL-Lite statement.
	Query(ctx context.Context, plan *planner.Plan) (*planner.Output, error)
}

// IlmOps manages index lifecycle policies. Clusters before 7.0 have no
// ILM; every call then fails with ErrUnsupported without a request.
type IlmOps interface {
	IlmMove(ctx context.Context, index, policy string) error
	IlmRemove(ctx context.Context, index string) error
	PutIlmPolicy(ctx context.Context, name string, body []byte) error
	DeleteIlmPolicy(ctx context.Context, name string) error
	// IlmPolicies lists all policies, or the named one.
	IlmPolicies(ctx context.Context, name string) (map[string]any, error)
	// IlmIndices lists the indices managed by policy.
	IlmIndices(ctx context.Context, policy string) (map[string]any, error)
	// IlmExplain explains the lifecycle state of index, or of all indices
	// when index is empty.
	IlmExplain(ctx context.Context, index string) (map[string]any, error)
}

// TemplateOps manages index templates. kind selects legacy or composable
// templates and is required.
type TemplateOps interface {
	ListTemplates(ctx context.Context) ([]models.TemplateListItem, error)
	GetTemplate(ctx context.Context, name string, kind models.TemplateKind) (*models.IndexTemplate, error)
	PutTemplate(ctx context.Context, kind models.TemplateKind, tmpl *models.IndexTemplate) error
	DeleteTemplate(ctx context.Context, name string, kind models.TemplateKind) error
}

// Client is the full operation surface.
type Client interface {
	ClusterOps
	IndexOps
	DocOps
	SearchOps
	IlmOps
	TemplateOps

	Profile() *models.ConnectionProfile
	Dialect() router.Dialect
	Major() int
	Capabilities() capabilities.CapabilitySet
}

// DocumentRef addresses documents. Type is the mapping type and is
// required before 7.0; newer clusters ignore it.
type DocumentRef struct {
	Index string
	Type  string
	ID    string
}

// Options configure New.
type Options struct {
	// Logger records every request. Defaults to a no-op logger.
	Logger observability.RequestLogger
}

// New returns the client for profile. The dialect is chosen from
// profile.Version once; an empty version selects the 7.x dialect.
func New(profile *models.ConnectionProfile, transport Transport, opts Options) (Client, error) {
	authn, err := auth.ForProfile(profile)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewNoopLogger()
	}

	decision := router.SelectDialect(profile.Version)
	b := &base{
		profile:   *profile,
		dialect:   decision.Dialect,
		major:     effectiveMajor(profile, decision.Dialect),
		transport: transport,
		auth:      authn,
		logger:    logger,
	}
	b.caps = capabilities.ForMajor(b.major)

	switch decision.Dialect {
	case router.DialectLegacy:
		return &legacyClient{base: b}, nil
	case router.DialectV8:
		return &v8Client{typeless: typeless{base: b}}, nil
	default:
		return &v7Client{typeless: typeless{base: b}}, nil
	}
}

// effectiveMajor is the major version the payload shaping uses. A missing
// or unparseable version takes the dialect's own generation.
func effectiveMajor(p *models.ConnectionProfile, d router.Dialect) int {
	if m := p.MajorVersion(); m > 0 {
		return m
	}
	switch d {
	case router.DialectLegacy:
		return 6
	case router.DialectV8:
		return 8
	default:
		return 7
	}
}
