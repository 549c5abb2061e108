package models

// Provenance identifies which tier of the market-data fallback cascade
// supplied a (price, occupancy) pair.
type Provenance string

const (
	// ProvenanceExact means a market sample existed for the exact date.
	ProvenanceExact Provenance = "EXACT"
	// ProvenanceRecentAvg means the value is an average over up to the 14
	// most recent samples before the target date.
	ProvenanceRecentAvg Provenance = "RECENT_AVG"
	// ProvenanceCityAvg means the value is an average over every sample
	// stored for the city.
	ProvenanceCityAvg Provenance = "CITY_AVG"
	// ProvenanceDefault means no samples exist for the city at all and
	// fixed defaults were used.
	ProvenanceDefault Provenance = "DEFAULT"
)

// ReasonSuffix returns the human-readable annotation appended to a
// recommendation's reason text when the value did not come from an exact
// sample.
func (p Provenance) ReasonSuffix() string {
	switch p {
	case ProvenanceRecentAvg:
		return " (fallback: recent market avg)"
	case ProvenanceCityAvg:
		return " (fallback: city market avg)"
	case ProvenanceDefault:
		return " (fallback: defaults)"
	default:
		return ""
	}
}

// IsFallback reports whether the value came from any tier below EXACT.
func (p Provenance) IsFallback() bool {
	return p != ProvenanceExact
}
