package entities

// DistanceSource identifies which provider ultimately grounds the
// distances of an entire search outcome. Individual elements may have
// been patched from the secondary provider; the source still names the
// primary provenance.
type DistanceSource string

const (
	DistanceSourcePrimary   DistanceSource = "primary"
	DistanceSourceSecondary DistanceSource = "secondary"
	DistanceSourceNone      DistanceSource = "none"
)

// RankedStore is a store with a resolved, plausibility-checked road
// distance. DistanceKm is always > 0 and always comes from a road
// distance provider, never from the straight-line fallback.
type RankedStore struct {
	Store
	DistanceKm      float64  `json:"distanceKm"`
	DurationMinutes *float64 `json:"durationMinutes,omitempty"`
	ReportedPrice   *float64 `json:"reportedPrice,omitempty"`
}

// SearchDiagnostics carries recovered provider failures for debugging.
// These never escalate to request failures.
type SearchDiagnostics struct {
	ProviderError string `json:"providerError,omitempty"`
}

// SearchOutcome is the terminal artifact of one search request.
type SearchOutcome struct {
	Stores         []RankedStore      `json:"stores"`
	BestID         string             `json:"bestOptionId"`
	Summary        string             `json:"summary"`
	Alternatives   []string           `json:"alternatives,omitempty"`
	DistanceSource DistanceSource     `json:"distanceSource"`
	Diagnostics    *SearchDiagnostics `json:"diagnostics,omitempty"`
}
