package iostore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/schema"
)

// snapshotColumns are the columns written for every snapshot, in insert order.
// The payload holds the full snapshot; the other columns back indexes and status queries.
const snapshotColumns = "repo_id, sprint, snapshot_time_ms, schema_version, total_files, avg_risk, health_score, hotspot_count, payload"

// SnapshotStoreImpl implements the SnapshotStore interface on a SQL database.
type SnapshotStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.SnapshotStore = &SnapshotStoreImpl{} // Compile-time check

// NewSnapshotStore opens a snapshot store on the specified SQL backend and
// creates its tables when missing.
func NewSnapshotStore(backend schema.DatabaseBackend, connStr string) (*SnapshotStoreImpl, error) {
	db, err := openDatabase(backend, connStr)
	if err != nil {
		return nil, err
	}
	if err := createTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create snapshot tables: %w", err)
	}
	return &SnapshotStoreImpl{db: db, backend: backend}, nil
}

// createTables creates the snapshot and lease tables with their indexes.
func createTables(db *sql.DB, backend schema.DatabaseBackend) error {
	for _, query := range getCreateTableQueries(backend) {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// getCreateTableQueries returns the idempotent DDL for the backend.
// The statements mirror the first migration of each backend.
func getCreateTableQueries(backend schema.DatabaseBackend) []string {
	switch backend {
	case schema.MySQLBackend:
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					repo_id VARCHAR(255) NOT NULL,
					sprint INT NOT NULL,
					snapshot_time_ms BIGINT NOT NULL,
					schema_version INT NOT NULL,
					total_files INT NOT NULL,
					avg_risk DOUBLE NOT NULL,
					health_score DOUBLE NOT NULL,
					hotspot_count INT NOT NULL,
					payload LONGTEXT NOT NULL,
					PRIMARY KEY (repo_id, sprint),
					INDEX idx_mri_snapshots_repo_time (repo_id, snapshot_time_ms)
				);
			`, snapshotsTable),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					repo_id VARCHAR(255) NOT NULL PRIMARY KEY,
					owner VARCHAR(64) NOT NULL,
					acquired_at_ms BIGINT NOT NULL,
					expires_at_ms BIGINT NOT NULL
				);
			`, leasesTable),
		}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					repo_id TEXT NOT NULL,
					sprint INT NOT NULL,
					snapshot_time_ms BIGINT NOT NULL,
					schema_version INT NOT NULL,
					total_files INT NOT NULL,
					avg_risk DOUBLE PRECISION NOT NULL,
					health_score DOUBLE PRECISION NOT NULL,
					hotspot_count INT NOT NULL,
					payload TEXT NOT NULL,
					PRIMARY KEY (repo_id, sprint)
				);
			`, snapshotsTable),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_mri_snapshots_repo_time ON %s (repo_id, snapshot_time_ms);`, snapshotsTable),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					repo_id TEXT NOT NULL PRIMARY KEY,
					owner TEXT NOT NULL,
					acquired_at_ms BIGINT NOT NULL,
					expires_at_ms BIGINT NOT NULL
				);
			`, leasesTable),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					repo_id TEXT NOT NULL,
					sprint INTEGER NOT NULL,
					snapshot_time_ms INTEGER NOT NULL,
					schema_version INTEGER NOT NULL,
					total_files INTEGER NOT NULL,
					avg_risk REAL NOT NULL,
					health_score REAL NOT NULL,
					hotspot_count INTEGER NOT NULL,
					payload TEXT NOT NULL,
					PRIMARY KEY (repo_id, sprint)
				);
			`, snapshotsTable),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_mri_snapshots_repo_time ON %s (repo_id, snapshot_time_ms);`, snapshotsTable),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					repo_id TEXT NOT NULL PRIMARY KEY,
					owner TEXT NOT NULL,
					acquired_at_ms INTEGER NOT NULL,
					expires_at_ms INTEGER NOT NULL
				);
			`, leasesTable),
		}
	}
}

// snapshotArgs returns the insert arguments matching snapshotColumns.
func snapshotArgs(s schema.AnalysisSnapshot) ([]any, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	agg := s.AggregateMetrics
	return []any{
		s.RepoID, s.Sprint, toMillis(s.Timestamp), s.SchemaVersion,
		agg.TotalFiles, agg.AvgRisk, agg.HealthScore, agg.HotspotCount, string(payload),
	}, nil
}

// Save implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) Save(ctx context.Context, s schema.AnalysisSnapshot) error {
	args, err := snapshotArgs(s)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, snapshotsTable, snapshotColumns)
	if _, err := ss.db.ExecContext(ctx, rebind(ss.backend, query), args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s sprint %d", schema.ErrDuplicateSnapshot, s.RepoID, s.Sprint)
		}
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Overwrite implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) Overwrite(ctx context.Context, s schema.AnalysisSnapshot) error {
	args, err := snapshotArgs(s)
	if err != nil {
		return err
	}

	var query string
	switch ss.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`
			INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				snapshot_time_ms = VALUES(snapshot_time_ms),
				schema_version = VALUES(schema_version),
				total_files = VALUES(total_files),
				avg_risk = VALUES(avg_risk),
				health_score = VALUES(health_score),
				hotspot_count = VALUES(hotspot_count),
				payload = VALUES(payload)
		`, snapshotsTable, snapshotColumns)
	default: // SQLite and PostgreSQL
		query = fmt.Sprintf(`
			INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (repo_id, sprint) DO UPDATE SET
				snapshot_time_ms = excluded.snapshot_time_ms,
				schema_version = excluded.schema_version,
				total_files = excluded.total_files,
				avg_risk = excluded.avg_risk,
				health_score = excluded.health_score,
				hotspot_count = excluded.hotspot_count,
				payload = excluded.payload
		`, snapshotsTable, snapshotColumns)
	}

	if _, err := ss.db.ExecContext(ctx, rebind(ss.backend, query), args...); err != nil {
		return fmt.Errorf("failed to overwrite snapshot: %w", err)
	}
	return nil
}

// UpdateComparison implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) UpdateComparison(ctx context.Context, repoID string, sprint int, cmp schema.Comparison) error {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`SELECT payload FROM %s WHERE repo_id = ? AND sprint = ?`, snapshotsTable)
	var payload string
	if err := tx.QueryRowContext(ctx, rebind(ss.backend, query), repoID, sprint).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no snapshot stored for %s sprint %d", repoID, sprint)
		}
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var s schema.AnalysisSnapshot
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return fmt.Errorf("failed to decode snapshot %s sprint %d: %w", repoID, sprint, err)
	}
	s.Comparison = cmp
	updated, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	update := fmt.Sprintf(`UPDATE %s SET payload = ? WHERE repo_id = ? AND sprint = ?`, snapshotsTable)
	if _, err := tx.ExecContext(ctx, rebind(ss.backend, update), string(updated), repoID, sprint); err != nil {
		return fmt.Errorf("failed to update comparison: %w", err)
	}
	return tx.Commit()
}

// GetLatest implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) GetLatest(ctx context.Context, repoID string) (*schema.AnalysisSnapshot, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE repo_id = ? ORDER BY sprint DESC LIMIT 1`, snapshotsTable)
	return ss.queryOne(ctx, query, repoID)
}

// GetBySprint implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) GetBySprint(ctx context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE repo_id = ? AND sprint = ?`, snapshotsTable)
	return ss.queryOne(ctx, query, repoID, sprint)
}

// GetPrevious implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) GetPrevious(ctx context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE repo_id = ? AND sprint < ? ORDER BY sprint DESC LIMIT 1`, snapshotsTable)
	return ss.queryOne(ctx, query, repoID, sprint)
}

// GetNext implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) GetNext(ctx context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE repo_id = ? AND sprint > ? ORDER BY sprint ASC LIMIT 1`, snapshotsTable)
	return ss.queryOne(ctx, query, repoID, sprint)
}

// GetRange implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) GetRange(ctx context.Context, repoID string, start, end int) ([]schema.AnalysisSnapshot, error) {
	if start > end {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE repo_id = ? AND sprint >= ? AND sprint <= ? ORDER BY sprint ASC`, snapshotsTable)
	return ss.queryMany(ctx, query, repoID, start, end)
}

// GetHistory implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) GetHistory(ctx context.Context, repoID string, limit int) ([]schema.AnalysisSnapshot, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE repo_id = ? ORDER BY sprint DESC LIMIT ?`, snapshotsTable)
	snapshots, err := ss.queryMany(ctx, query, repoID, limit)
	if err != nil {
		return nil, err
	}
	// Fetched newest first to apply the limit; playback wants oldest first.
	slices.Reverse(snapshots)
	return snapshots, nil
}

// ListAll implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) ListAll(ctx context.Context) ([]schema.AnalysisSnapshot, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s ORDER BY repo_id ASC, sprint ASC`, snapshotsTable)
	return ss.queryMany(ctx, query)
}

// GetStatus implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(ss.backend),
		Connected:  ss.db != nil,
		TableSizes: make(map[string]int64),
	}
	if ss.db == nil {
		return status, nil
	}

	query := fmt.Sprintf(`SELECT COUNT(*), COUNT(DISTINCT repo_id) FROM %s`, snapshotsTable)
	if err := ss.db.QueryRowContext(ctx, query).Scan(&status.TotalSnapshots, &status.TotalRepos); err != nil {
		return status, fmt.Errorf("failed to count snapshots: %w", err)
	}

	if status.TotalSnapshots > 0 {
		var newest, oldest int64
		query = fmt.Sprintf(`SELECT MAX(snapshot_time_ms), MIN(snapshot_time_ms) FROM %s`, snapshotsTable)
		if err := ss.db.QueryRowContext(ctx, query).Scan(&newest, &oldest); err != nil {
			return status, fmt.Errorf("failed to get snapshot times: %w", err)
		}
		status.LastSnapshotTime = fromMillis(newest)
		status.OldestSnapshotTime = fromMillis(oldest)
	}

	for _, table := range []string{snapshotsTable, leasesTable} {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
		if err := ss.db.QueryRowContext(ctx, countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// Clear implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) Clear(ctx context.Context) error {
	if _, err := ss.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", snapshotsTable)); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

// Close implements the SnapshotStore interface.
func (ss *SnapshotStoreImpl) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}

// queryOne returns the single snapshot selected by query, or nil when there is none.
func (ss *SnapshotStoreImpl) queryOne(ctx context.Context, query string, args ...any) (*schema.AnalysisSnapshot, error) {
	var payload string
	err := ss.db.QueryRowContext(ctx, rebind(ss.backend, query), args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	var s schema.AnalysisSnapshot
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// queryMany returns every snapshot selected by query in result order.
func (ss *SnapshotStoreImpl) queryMany(ctx context.Context, query string, args ...any) ([]schema.AnalysisSnapshot, error) {
	rows, err := ss.db.QueryContext(ctx, rebind(ss.backend, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []schema.AnalysisSnapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		var s schema.AnalysisSnapshot
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snapshots, nil
}
