package schema

// Comparison holds the deltas between a snapshot and the one immediately before it.
// Hotspot movement is derived from counts, not from file identity.
type Comparison struct {
	RiskDelta        float64 `json:"risk_delta"`         // current.AvgRisk - previous.AvgRisk
	HotspotsAdded    int     `json:"hotspots_added"`     // max(0, current - previous hotspot count)
	HotspotsResolved int     `json:"hotspots_resolved"`  // max(0, previous - current hotspot count)
	HealthScoreDelta float64 `json:"health_score_delta"` // current.HealthScore - previous.HealthScore
}

// IsZero reports whether the comparison carries no change at all.
func (c Comparison) IsZero() bool {
	return c == Comparison{}
}
