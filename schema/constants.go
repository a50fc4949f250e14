package schema

// Custom string types for type safety.
type (
	// Category is the risk bucket of a scored file.
	Category string

	// EventKind identifies a notable transition observed by a build.
	EventKind string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for snapshot storage.
	DatabaseBackend string
)

// All categories supported.
const (
	HealthyCategory  Category = "healthy"
	WarningCategory  Category = "warning"
	CriticalCategory Category = "critical"
)

// Category boundaries. A risk above CriticalRiskThreshold is a hotspot.
const (
	CriticalRiskThreshold = 70
	WarningRiskThreshold  = 40
)

// All event kinds supported.
const (
	CriticalEnteredEvent  EventKind = "critical_entered"
	CriticalResolvedEvent EventKind = "critical_resolved"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All storage backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	MemoryBackend     DatabaseBackend = "memory"
)

// Scoring defaults.
const (
	DefaultComplexityThreshold = 10.0
	DefaultChurnWindowSize     = 30
	DefaultSizeSaturationLOC   = 500

	DefaultComplexityWeight = 0.50
	DefaultChurnWeight      = 0.35
	DefaultSizeWeight       = 0.15
)

// Snapshot defaults.
const (
	DefaultTopK         = 10
	DefaultHistoryLimit = 24

	// SnapshotSchemaVersion is bumped whenever the persisted snapshot shape changes.
	SnapshotSchemaVersion = 1
)

// AllCategories returns the categories from healthiest to worst.
var AllCategories = []Category{HealthyCategory, WarningCategory, CriticalCategory}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid storage backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	MemoryBackend:     {},
}

// CategoryForRisk maps a risk score onto its category.
// The mapping has no gaps: >70 critical, 40..70 warning, <40 healthy.
func CategoryForRisk(risk int) Category {
	switch {
	case risk > CriticalRiskThreshold:
		return CriticalCategory
	case risk >= WarningRiskThreshold:
		return WarningCategory
	default:
		return HealthyCategory
	}
}

// Severity returns a numeric weight for sorting, higher is worse.
func (c Category) Severity() int {
	switch c {
	case CriticalCategory:
		return 2
	case WarningCategory:
		return 1
	default:
		return 0
	}
}
