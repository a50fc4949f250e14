package iostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/schema"
)

// LeaseStoreImpl implements the LeaseStore interface on a SQL database.
// It shares the connection pool of a SnapshotStoreImpl and never closes it.
type LeaseStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.LeaseStore = &LeaseStoreImpl{} // Compile-time check

// NewLeaseStore returns a lease store that lives next to the snapshots of ss.
func NewLeaseStore(ss *SnapshotStoreImpl) *LeaseStoreImpl {
	return &LeaseStoreImpl{db: ss.db, backend: ss.backend}
}

// Acquire implements the LeaseStore interface.
func (ls *LeaseStoreImpl) Acquire(ctx context.Context, lease schema.Lease) error {
	now := toMillis(lease.AcquiredAt)
	expires := toMillis(lease.ExpiresAt)

	// Take over an expired lease or refresh our own.
	update := fmt.Sprintf(`
		UPDATE %s SET owner = ?, acquired_at_ms = ?, expires_at_ms = ?
		WHERE repo_id = ? AND (expires_at_ms <= ? OR owner = ?)
	`, leasesTable)
	res, err := ls.db.ExecContext(ctx, rebind(ls.backend, update),
		lease.Owner, now, expires, lease.RepoID, now, lease.Owner)
	if err != nil {
		return fmt.Errorf("failed to update lease: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	insert := fmt.Sprintf(`INSERT INTO %s (repo_id, owner, acquired_at_ms, expires_at_ms) VALUES (?, ?, ?, ?)`, leasesTable)
	_, err = ls.db.ExecContext(ctx, rebind(ls.backend, insert), lease.RepoID, lease.Owner, now, expires)
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return fmt.Errorf("failed to insert lease: %w", err)
	}

	// MySQL reports zero affected rows when an update changes nothing,
	// so a row we already own can land here too.
	holder, err := ls.get(ctx, lease.RepoID)
	if err != nil {
		return err
	}
	if holder != nil && holder.Owner == lease.Owner {
		return nil
	}
	if holder != nil {
		return fmt.Errorf("%w: %s held by %s until %s", schema.ErrLeaseConflict,
			lease.RepoID, holder.Owner, holder.ExpiresAt.Format(contract.DateTimeFormat))
	}
	return fmt.Errorf("%w: %s", schema.ErrLeaseConflict, lease.RepoID)
}

// Release implements the LeaseStore interface.
func (ls *LeaseStoreImpl) Release(ctx context.Context, repoID, owner string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE repo_id = ? AND owner = ?`, leasesTable)
	if _, err := ls.db.ExecContext(ctx, rebind(ls.backend, query), repoID, owner); err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}

// CountActive implements the LeaseStore interface.
func (ls *LeaseStoreImpl) CountActive(ctx context.Context, now time.Time) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE expires_at_ms > ?`, leasesTable)
	var count int
	if err := ls.db.QueryRowContext(ctx, rebind(ls.backend, query), toMillis(now)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count leases: %w", err)
	}
	return count, nil
}

// Clear implements the LeaseStore interface.
func (ls *LeaseStoreImpl) Clear(ctx context.Context) error {
	if _, err := ls.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", leasesTable)); err != nil {
		return fmt.Errorf("failed to clear leases: %w", err)
	}
	return nil
}

// Close implements the LeaseStore interface. The shared pool is closed by the snapshot store.
func (ls *LeaseStoreImpl) Close() error {
	return nil
}

// get returns the current lease row of a repository, or nil.
func (ls *LeaseStoreImpl) get(ctx context.Context, repoID string) (*schema.Lease, error) {
	query := fmt.Sprintf(`SELECT owner, acquired_at_ms, expires_at_ms FROM %s WHERE repo_id = ?`, leasesTable)
	var owner string
	var acquired, expires int64
	err := ls.db.QueryRowContext(ctx, rebind(ls.backend, query), repoID).Scan(&owner, &acquired, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lease: %w", err)
	}
	return &schema.Lease{
		RepoID:     repoID,
		Owner:      owner,
		AcquiredAt: fromMillis(acquired),
		ExpiresAt:  fromMillis(expires),
	}, nil
}
