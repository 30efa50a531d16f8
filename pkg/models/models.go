// Package models provides the shared data models of the esql client.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AuthMode selects how credentials are attached to each request.
type AuthMode string

const (
	AuthNone   AuthMode = "none"
	AuthBasic  AuthMode = "basic"
	AuthHeader AuthMode = "header"
	AuthCookie AuthMode = "cookie"
)

// ParseAuthMode parses an auth mode name. The empty string means AuthNone.
func ParseAuthMode(s string) (AuthMode, error) {
	switch m := AuthMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return AuthNone, nil
	case AuthNone, AuthBasic, AuthHeader, AuthCookie:
		return m, nil
	default:
		return "", fmt.Errorf("unknown auth mode %q (want none, basic, header or cookie)", s)
	}
}

// ConnectionProfile describes one cluster connection. A client is bound to
// a single profile for its whole lifetime.
type ConnectionProfile struct {
	Name     string   `json:"name" yaml:"name"`
	Endpoint string   `json:"endpoint" yaml:"endpoint"`
	AuthMode AuthMode `json:"auth_mode" yaml:"auth_mode"`
	Username string   `json:"username,omitempty" yaml:"username,omitempty"`
	// Password is the basic-auth password, the value of the custom header in
	// header mode, or the cookie string in cookie mode.
	Password string `json:"-" yaml:"password,omitempty"`
	// HeaderName is the request header that carries Password in header mode.
	HeaderName string `json:"header_name,omitempty" yaml:"header_name,omitempty"`
	// Version is the detected cluster version, e.g. "7.10.2".
	Version   string    `json:"version,omitempty" yaml:"version,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// MajorVersion returns the leading number of Version, or 0 when it has none.
func (p *ConnectionProfile) MajorVersion() int {
	return MajorOf(p.Version)
}

// MajorOf returns the leading number of a dotted version string.
func MajorOf(version string) int {
	head, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	n, err := strconv.Atoi(head)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Validate checks the profile is usable to open a client.
func (p *ConnectionProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	if strings.TrimSpace(p.Endpoint) == "" {
		return fmt.Errorf("profile %s: endpoint is required", p.Name)
	}
	if _, err := ParseAuthMode(string(p.AuthMode)); err != nil {
		return fmt.Errorf("profile %s: %w", p.Name, err)
	}
	if p.AuthMode == AuthHeader && p.HeaderName == "" {
		return fmt.Errorf("profile %s: header auth requires a header name", p.Name)
	}
	return nil
}

// Field is one queryable field of an index mapping.
type Field struct {
	// Value is the dotted path used in queries.
	Value string `json:"value"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// ClusterNode is a node of the cluster state.
type ClusterNode struct {
	Name string `json:"name"`
}

// IndexShard is one routing table entry of an index.
type IndexShard struct {
	State          string         `json:"state"`
	Primary        bool           `json:"primary"`
	Node           string         `json:"node"`
	RelocatingNode string         `json:"relocating_node"`
	Shard          int            `json:"shard"`
	Index          string         `json:"index"`
	AllocationID   map[string]any `json:"allocation_id,omitempty"`
	RecoverySource map[string]any `json:"recovery_source,omitempty"`
	UnassignedInfo map[string]any `json:"unassigned_info,omitempty"`
}

// IndexItem is the introspected view of one index.
type IndexItem struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
	Fields  []Field  `json:"fields"`
	Types   []string `json:"types"`
	// State is "open" or "close".
	State    string                  `json:"state,omitempty"`
	Settings map[string]any          `json:"settings,omitempty"`
	Mappings map[string]any          `json:"mappings,omitempty"`
	Shards   map[string][]IndexShard `json:"shards"`
}

// IndexItemResult is the introspected view of the whole cluster.
type IndexItemResult struct {
	MasterNode string                 `json:"master_node"`
	Nodes      map[string]ClusterNode `json:"nodes"`
	Indices    []IndexItem            `json:"indices"`
	// ErrorIndexKeys lists indices whose metadata could not be read.
	ErrorIndexKeys []string `json:"error_index_keys"`
	// Health is nil when the health call failed; HealthErr then says why.
	Health    *ClusterHealth `json:"health,omitempty"`
	HealthErr error          `json:"-"`
}

// ClusterHealth is the subset of /_cluster/health esql reports.
type ClusterHealth struct {
	ClusterName         string `json:"cluster_name"`
	Status              string `json:"status"`
	TimedOut            bool   `json:"timed_out"`
	NumberOfNodes       int    `json:"number_of_nodes"`
	NumberOfDataNodes   int    `json:"number_of_data_nodes"`
	ActivePrimaryShards int    `json:"active_primary_shards"`
	ActiveShards        int    `json:"active_shards"`
	RelocatingShards    int    `json:"relocating_shards"`
	InitializingShards  int    `json:"initializing_shards"`
	UnassignedShards    int    `json:"unassigned_shards"`
}

// Overview is the root endpoint document.
type Overview struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	ClusterUUID string `json:"cluster_uuid"`
	Version     struct {
		Number        string `json:"number"`
		BuildFlavor   string `json:"build_flavor,omitempty"`
		LuceneVersion string `json:"lucene_version"`
	} `json:"version"`
	Tagline string `json:"tagline"`
}

// AllocationExplainRequest selects the shard to explain.
type AllocationExplainRequest struct {
	Index   string `json:"index"`
	Shard   int    `json:"shard"`
	Primary bool   `json:"primary"`
}

// AliasAction is one entry of a POST /_aliases request. Exactly one of the
// three fields is set.
type AliasAction struct {
	Add         *AliasTarget `json:"add,omitempty" yaml:"add,omitempty"`
	Remove      *AliasTarget `json:"remove,omitempty" yaml:"remove,omitempty"`
	RemoveIndex *AliasTarget `json:"remove_index,omitempty" yaml:"remove_index,omitempty"`
}

// AliasTarget names the index and alias of an AliasAction.
type AliasTarget struct {
	Index         string         `json:"index,omitempty" yaml:"index,omitempty"`
	Alias         string         `json:"alias,omitempty" yaml:"alias,omitempty"`
	Filter        map[string]any `json:"filter,omitempty" yaml:"filter,omitempty"`
	Routing       string         `json:"routing,omitempty" yaml:"routing,omitempty"`
	IsWriteIndex  *bool          `json:"is_write_index,omitempty" yaml:"is_write_index,omitempty"`
	MustExist     *bool          `json:"must_exist,omitempty" yaml:"must_exist,omitempty"`
	SearchRouting string         `json:"search_routing,omitempty" yaml:"search_routing,omitempty"`
	IndexRouting  string         `json:"index_routing,omitempty" yaml:"index_routing,omitempty"`
}

// OpenCloseOptions are the query parameters of _open and _close.
type OpenCloseOptions struct {
	Timeout           string
	MasterTimeout     string
	IgnoreUnavailable *bool
	AllowNoIndices    *bool
}

// AnalyzeToken is one token of an _analyze response.
type AnalyzeToken struct {
	Token       string `json:"token"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Type        string `json:"type"`
	Position    int    `json:"position"`
}

// AnalyzeResult is the _analyze response.
type AnalyzeResult struct {
	Tokens []AnalyzeToken `json:"tokens"`
}

// TemplateKind discriminates legacy and composable index templates.
type TemplateKind string

const (
	TemplateLegacy     TemplateKind = "legacy"
	TemplateComposable TemplateKind = "composable"
)

// ParseTemplateKind parses a template kind name.
func ParseTemplateKind(s string) (TemplateKind, error) {
	switch k := TemplateKind(strings.ToLower(strings.TrimSpace(s))); k {
	case TemplateLegacy, TemplateComposable:
		return k, nil
	case "":
		return "", fmt.Errorf("template type is required (legacy or composable)")
	default:
		return "", fmt.Errorf("unknown template type %q (want legacy or composable)", s)
	}
}

// TemplateListItem is one entry of the merged template listing.
type TemplateListItem struct {
	Name string       `json:"name"`
	Kind TemplateKind `json:"type"`
}

// IndexTemplate is the dialect independent view of an index template.
type IndexTemplate struct {
	Name          string            `json:"name" yaml:"name"`
	IndexPatterns []string          `json:"index_patterns" yaml:"index_patterns"`
	Settings      map[string]any    `json:"settings,omitempty" yaml:"settings,omitempty"`
	Mappings      map[string]any    `json:"mappings,omitempty" yaml:"mappings,omitempty"`
	Aliases       map[string]any    `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Priority      int64             `json:"priority" yaml:"priority"`
	Version       int64             `json:"version" yaml:"version"`
	Meta          map[string]string `json:"_meta,omitempty" yaml:"_meta,omitempty"`
	ComposedOf    []string          `json:"composed_of,omitempty" yaml:"composed_of,omitempty"`
}

// RawRequest is a free-form request issued from the console.
type RawRequest struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    string
}
