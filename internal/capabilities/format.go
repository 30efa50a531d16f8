package capabilities

// ForMajor returns the capabilities of a cluster major version.
//
//	major ≤ 6: mapping types, legacy templates
//	7:         ILM, both template kinds, include_type_name, track_total_hits
//	≥ 8:       ILM, both template kinds, track_total_hits
//
// Composable templates arrived in 7.8; the client offers them on all of 7.x
// and lets older 7 clusters answer with their own error.
func ForMajor(major int) CapabilitySet {
	switch {
	case major <= 6:
		return NewCapabilitySet([]Capability{
			CapabilityMappingTypes,
			CapabilityLegacyTemplates,
		})
	case major == 7:
		return NewCapabilitySet([]Capability{
			CapabilityILM,
			CapabilityComposableTemplates,
			CapabilityLegacyTemplates,
			CapabilityIncludeTypeName,
			CapabilityTrackTotalHits,
		})
	default:
		return NewCapabilitySet([]Capability{
			CapabilityILM,
			CapabilityComposableTemplates,
			CapabilityLegacyTemplates,
			CapabilityTrackTotalHits,
		})
	}
}
