package contract

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/mri/schema"
)

// Default values for configuration.
const (
	DefaultPrecision = 1
	DefaultLeaseTTL  = 10 * time.Minute
	MaxHistoryLimit  = 1000
	MaxTopK          = 1000
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// WeightsRawInput holds custom risk weights from the YAML config file.
// Use float64 pointers so that omitted weights keep their defaults.
type WeightsRawInput struct {
	Complexity *float64 `mapstructure:"complexity"`
	Churn      *float64 `mapstructure:"churn"`
	Size       *float64 `mapstructure:"size"`
}

// Config holds the runtime configuration for a command.
// This struct remains the "final, validated" config.
type Config struct {
	RepoID       string
	Sprint       int
	FromSprint   int
	ToSprint     int
	HistoryLimit int
	Overwrite    bool

	Thresholds  schema.Thresholds
	TopK        int
	RetainPaths []string
	Workers     int
	LeaseTTL    time.Duration

	Backend   schema.DatabaseBackend
	DBConnect string // Please use env var as this is plaintext

	TargetVersion int // Migration target (-1 = latest, 0 = roll back everything)

	Output      schema.OutputMode
	OutputFile  string
	Precision   int
	UseColors   bool
	Width       int // Terminal width override (0 = auto-detect)
	MetricsFile string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Repo        string `mapstructure:"repo"`
	Backend     string `mapstructure:"backend"`
	DBConnect   string `mapstructure:"db-connect"`
	Output      string `mapstructure:"output"`
	OutputFile  string `mapstructure:"output-file"`
	Precision   int    `mapstructure:"precision"`
	Color       string `mapstructure:"color"`
	Width       int    `mapstructure:"width"`
	MetricsFile string `mapstructure:"metrics-file"`

	// --- Scoring fields from rootCmd.PersistentFlags() ---
	ComplexityThreshold float64 `mapstructure:"complexity-threshold"`
	ChurnWindow         int     `mapstructure:"churn-window"`
	SizeSaturation      int     `mapstructure:"size-saturation"`
	TopK                int     `mapstructure:"top-k"`
	Retain              string  `mapstructure:"retain"`
	Workers             int     `mapstructure:"workers"`
	LeaseTTL            string  `mapstructure:"lease-ttl"`

	// --- Fields from build/show/range/history flags ---
	Sprint       int  `mapstructure:"sprint"`
	From         int  `mapstructure:"from"`
	To           int  `mapstructure:"to"`
	HistoryLimit int  `mapstructure:"history-limit"`
	Overwrite    bool `mapstructure:"overwrite"`

	// --- Fields from storeMigrateCmd.Flags() ---
	TargetVersion int `mapstructure:"target-version"`

	// --- Custom weights from config file ---
	Weights WeightsRawInput `mapstructure:"weights"`
}

// ProcessAndValidate turns the raw input into the validated configuration.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// RequireRepo returns an error when no repository id was configured.
func (c *Config) RequireRepo() error {
	if strings.TrimSpace(c.RepoID) == "" {
		return fmt.Errorf("repo is required (use --repo or MRI_REPO)")
	}
	return nil
}

// RequireSprint returns an error when no valid sprint was configured.
func (c *Config) RequireSprint() error {
	if c.Sprint < 1 {
		return fmt.Errorf("sprint must be >= 1 (received %d)", c.Sprint)
	}
	return nil
}

// RequireRange returns an error when the sprint range is empty or inverted.
func (c *Config) RequireRange() error {
	if c.FromSprint < 1 || c.ToSprint < 1 {
		return fmt.Errorf("from and to must be >= 1 (received %d..%d)", c.FromSprint, c.ToSprint)
	}
	if c.FromSprint > c.ToSprint {
		return fmt.Errorf("from must not exceed to (received %d..%d)", c.FromSprint, c.ToSprint)
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.MemoryBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the storage backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend := input.Backend
	if backend == "" {
		backend = string(schema.SQLiteBackend)
	}
	cfg.Backend = schema.DatabaseBackend(strings.ToLower(backend))
	if _, ok := schema.ValidDatabaseBackends[cfg.Backend]; !ok {
		return fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, memory", input.Backend)
	}
	cfg.DBConnect = input.DBConnect
	return ValidateDatabaseConnectionString(cfg.Backend, cfg.DBConnect)
}

// validateSimpleInputs processes and validates all non-scoring fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.RepoID = strings.TrimSpace(input.Repo)
	cfg.Sprint = input.Sprint
	cfg.FromSprint = input.From
	cfg.ToSprint = input.To
	cfg.Overwrite = input.Overwrite
	cfg.OutputFile = input.OutputFile
	cfg.MetricsFile = input.MetricsFile
	cfg.Width = input.Width
	cfg.TargetVersion = input.TargetVersion
	cfg.RetainPaths = ParseRetainPaths(input.Retain)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Limits ---
	if input.HistoryLimit <= 0 || input.HistoryLimit > MaxHistoryLimit {
		return fmt.Errorf("history limit must be greater than 0 and cannot exceed %d (received %d)", MaxHistoryLimit, input.HistoryLimit)
	}
	cfg.HistoryLimit = input.HistoryLimit

	if input.TopK <= 0 || input.TopK > MaxTopK {
		return fmt.Errorf("top-k must be greater than 0 and cannot exceed %d (received %d)", MaxTopK, input.TopK)
	}
	cfg.TopK = input.TopK

	if input.TargetVersion < -1 {
		return fmt.Errorf("target-version must be -1 (latest) or a version >= 0 (received %d)", input.TargetVersion)
	}

	// --- 2. Workers ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Lease TTL ---
	cfg.LeaseTTL = DefaultLeaseTTL
	if input.LeaseTTL != "" {
		ttl, err := time.ParseDuration(input.LeaseTTL)
		if err != nil {
			return fmt.Errorf("invalid lease-ttl '%s': %w", input.LeaseTTL, err)
		}
		if ttl <= 0 {
			return fmt.Errorf("lease-ttl must be positive (received %s)", input.LeaseTTL)
		}
		cfg.LeaseTTL = ttl
	}

	// --- 4. Precision and Output ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	output := input.Output
	if output == "" {
		output = string(schema.TextOut)
	}
	cfg.Output = schema.OutputMode(strings.ToLower(output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	return nil
}

// processThresholds builds the scoring thresholds from flags and config file weights.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	th := schema.DefaultThresholds()
	th.ComplexityThreshold = input.ComplexityThreshold
	th.ChurnWindowSize = input.ChurnWindow
	th.SizeSaturationLOC = input.SizeSaturation

	if input.Weights.Complexity != nil {
		th.Weights.Complexity = *input.Weights.Complexity
	}
	if input.Weights.Churn != nil {
		th.Weights.Churn = *input.Weights.Churn
	}
	if input.Weights.Size != nil {
		th.Weights.Size = *input.Weights.Size
	}

	if err := th.Validate(); err != nil {
		return err
	}
	cfg.Thresholds = th
	return nil
}

// ParseRetainPaths splits a comma-separated list of paths, dropping blanks and duplicates.
func ParseRetainPaths(s string) []string {
	var paths []string
	seen := make(map[string]struct{})
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	return paths
}
