// Package api defines the cluster REST endpoints and headers esql talks to.
package api

// Endpoints shared by every dialect.
const (
	EndpointRoot              = "/"
	EndpointClusterState      = "/_cluster/state"
	EndpointClusterHealth     = "/_cluster/health"
	EndpointAllocationExplain = "/_cluster/allocation/explain"
	EndpointAliases           = "/_aliases"
	EndpointBulk              = "/_bulk"
	EndpointCatTemplates      = "/_cat/templates?h=name&format=text"
	EndpointIndexTemplate     = "/_index_template"
	EndpointLegacyTemplate    = "/_template"
	EndpointIlmPolicy         = "/_ilm/policy"
	EndpointIlmExplain        = "/_ilm/explain"
)

// Path suffixes appended to an index name.
const (
	SuffixSearch     = "/_search"
	SuffixMapping    = "/_mapping"
	SuffixSettings   = "/_settings"
	SuffixAnalyze    = "/_analyze"
	SuffixOpen       = "/_open"
	SuffixClose      = "/_close"
	SuffixDoc        = "/_doc"
	SuffixIlmMove    = "/_ilm/move"
	SuffixIlmRemove  = "/_ilm/remove"
	SuffixIlmExplain = "/_ilm/explain"
)

// HTTP headers
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderCookie        = "Cookie"
	HeaderRequestID     = "X-Opaque-Id"
)

// Content types
const (
	ContentTypeJSON   = "application/json; charset=utf-8"
	ContentTypeNDJSON = "application/x-ndjson"
)
