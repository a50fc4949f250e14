package schema

import "time"

// Event is a notable transition observed while building a snapshot.
type Event struct {
	Kind         EventKind `json:"kind"`
	Path         string    `json:"path"`
	Risk         int       `json:"risk"`
	PreviousRisk *int      `json:"previous_risk,omitempty"` // nil when the file was not tracked before
}

// AnalysisSnapshot is the immutable, point-in-time health record of one
// repository for one sprint. It is identified by (RepoID, Sprint).
type AnalysisSnapshot struct {
	SchemaVersion    int              `json:"schema_version"`
	RepoID           string           `json:"repo_id"`
	Sprint           int              `json:"sprint"`
	Timestamp        time.Time        `json:"timestamp"`
	Thresholds       Thresholds       `json:"thresholds"`
	AggregateMetrics AggregateMetrics `json:"aggregate_metrics"`
	TopHotspots      []ScoredFile     `json:"top_hotspots"`
	Files            []ScoredFile     `json:"files"`
	Comparison       Comparison       `json:"comparison"`
	Events           []Event          `json:"events"`
}

// FileError records a file that was excluded from a build and why.
type FileError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// BuildRequest is everything the snapshot builder needs besides the previous snapshot.
type BuildRequest struct {
	RepoID      string
	Sprint      int
	Files       []FileMetric
	Thresholds  Thresholds
	TopK        int      // zero means DefaultTopK
	RetainPaths []string // kept in the stored file list regardless of category
	Unreadable  []string // paths the metrics provider failed to measure
}

// BuildOutput is the assembled, not yet persisted, snapshot plus the soft failures of the build.
type BuildOutput struct {
	Snapshot AnalysisSnapshot `json:"snapshot"`
	Errors   []FileError      `json:"errors"`
}

// MetricBatch is one delivery from the external metrics provider.
type MetricBatch struct {
	RepoID     string       `json:"repo_id,omitempty" yaml:"repo_id,omitempty"`
	Sprint     int          `json:"sprint,omitempty" yaml:"sprint,omitempty"`
	Files      []FileMetric `json:"files" yaml:"files"`
	Unreadable []string     `json:"unreadable,omitempty" yaml:"unreadable,omitempty"` // paths the provider failed to measure
}
