package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/storage"
)

// BeginSaga inserts a lease on the profile. Recomputes run in immediate
// transactions, so the insert queues behind one that is in progress.
func (s *SQLiteStore) BeginSaga(ctx context.Context, profileID string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO saga_leases (id, profile_id, started_at) VALUES (?, ?, ?)",
		id, profileID, time.Now().Unix(),
	)
	if err != nil {
		return "", wrapErr("begin saga on profile "+profileID, err)
	}
	return id, nil
}

// EndSaga deletes a lease.
func (s *SQLiteStore) EndSaga(ctx context.Context, leaseID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM saga_leases WHERE id = ?", leaseID)
	return wrapErr("end saga "+leaseID, err)
}

// checkNoSagas drops expired leases of the profile and fails with
// storage.ErrBusy if a live one remains.
func checkNoSagas(ctx context.Context, tx *sql.Tx, profileID string) error {
	cutoff := time.Now().Add(-storage.SagaLeaseTTL).Unix()
	_, err := tx.ExecContext(ctx,
		"DELETE FROM saga_leases WHERE profile_id = ? AND started_at < ?",
		profileID, cutoff,
	)
	if err != nil {
		return wrapErr("drop expired saga leases", err)
	}

	var live int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM saga_leases WHERE profile_id = ?", profileID,
	).Scan(&live)
	if err != nil {
		return wrapErr("count saga leases", err)
	}
	if live > 0 {
		return fmt.Errorf("profile %s: %d in flight: %w", profileID, live, storage.ErrBusy)
	}
	return nil
}
