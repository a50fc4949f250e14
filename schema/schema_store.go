package schema

import "time"

// Lease is the per-repository build token. Only its owner may release it.
type Lease struct {
	RepoID     string    `json:"repo_id"`
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the lease can be reclaimed at the given time.
func (l Lease) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// SnapshotRecord is the flat, row-shaped view of a snapshot used for exports.
type SnapshotRecord struct {
	RepoID           string
	Sprint           int
	Timestamp        time.Time
	SchemaVersion    int
	TotalFiles       int
	AvgComplexity    float64
	AvgChurn         float64
	AvgRisk          float64
	HotspotCount     int
	WarningCount     int
	HealthyCount     int
	TotalLOC         int
	HealthScore      float64
	RiskDelta        float64
	HotspotsAdded    int
	HotspotsResolved int
	HealthScoreDelta float64
	EventCount       int
}

// HotspotRecord is one entry of a snapshot's hotspot list, flattened for exports.
type HotspotRecord struct {
	RepoID     string
	Sprint     int
	Rank       int
	Path       string
	Risk       int
	Complexity int
	ChurnRate  int
	LOC        int
	Category   Category
}

// NewSnapshotRecord flattens a snapshot for row-oriented output.
func NewSnapshotRecord(s AnalysisSnapshot) SnapshotRecord {
	agg := s.AggregateMetrics
	return SnapshotRecord{
		RepoID:           s.RepoID,
		Sprint:           s.Sprint,
		Timestamp:        s.Timestamp,
		SchemaVersion:    s.SchemaVersion,
		TotalFiles:       agg.TotalFiles,
		AvgComplexity:    agg.AvgComplexity,
		AvgChurn:         agg.AvgChurn,
		AvgRisk:          agg.AvgRisk,
		HotspotCount:     agg.HotspotCount,
		WarningCount:     agg.WarningCount,
		HealthyCount:     agg.HealthyCount,
		TotalLOC:         agg.TotalLOC,
		HealthScore:      agg.HealthScore,
		RiskDelta:        s.Comparison.RiskDelta,
		HotspotsAdded:    s.Comparison.HotspotsAdded,
		HotspotsResolved: s.Comparison.HotspotsResolved,
		HealthScoreDelta: s.Comparison.HealthScoreDelta,
		EventCount:       len(s.Events),
	}
}

// NewHotspotRecords flattens the hotspot list of a snapshot.
func NewHotspotRecords(s AnalysisSnapshot) []HotspotRecord {
	records := make([]HotspotRecord, 0, len(s.TopHotspots))
	for i, f := range s.TopHotspots {
		records = append(records, HotspotRecord{
			RepoID:     s.RepoID,
			Sprint:     s.Sprint,
			Rank:       i + 1,
			Path:       f.Path,
			Risk:       f.Risk,
			Complexity: f.Complexity,
			ChurnRate:  f.ChurnRate,
			LOC:        f.LOC,
			Category:   f.Category,
		})
	}
	return records
}
