// Package capabilities defines what each cluster generation supports.
// Clients check a capability before issuing a request so that calls a
// cluster cannot serve fail fast instead of sending a doomed request.
package capabilities

import "sort"

// Capability is a feature of the cluster API.
type Capability string

const (
	// CapabilityILM is index lifecycle management.
	CapabilityILM Capability = "ILM"

	// CapabilityComposableTemplates is /_index_template.
	CapabilityComposableTemplates Capability = "COMPOSABLE_TEMPLATES"

	// CapabilityLegacyTemplates is /_template.
	CapabilityLegacyTemplates Capability = "LEGACY_TEMPLATES"

	// CapabilityMappingTypes means documents live under a mapping type and
	// document URLs carry it.
	CapabilityMappingTypes Capability = "MAPPING_TYPES"

	// CapabilityIncludeTypeName accepts typed mappings behind
	// include_type_name=true.
	CapabilityIncludeTypeName Capability = "INCLUDE_TYPE_NAME"

	// CapabilityTrackTotalHits accepts track_total_hits and returns totals
	// as {value, relation}.
	CapabilityTrackTotalHits Capability = "TRACK_TOTAL_HITS"
)

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// CapabilitySet is a set of capabilities for efficient lookup.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet creates a new CapabilitySet from a slice of capabilities.
func NewCapabilitySet(caps []Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has checks if the set contains the given capability.
func (cs CapabilitySet) Has(c Capability) bool {
	_, ok := cs[c]
	return ok
}

// Add adds a capability to the set.
func (cs CapabilitySet) Add(c Capability) {
	cs[c] = struct{}{}
}

// Slice returns the capabilities sorted by name.
func (cs CapabilitySet) Slice() []Capability {
	result := make([]Capability, 0, len(cs))
	for c := range cs {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
