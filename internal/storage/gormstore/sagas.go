package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mmynk/splitledger/internal/storage"
)

// BeginSaga inserts a lease on the profile while holding a shared lock on
// its row, which conflicts with the exclusive lock of a recompute.
func (s *Store) BeginSaga(ctx context.Context, profileID string) (string, error) {
	lease := &sagaLeaseRow{
		ID:        uuid.New().String(),
		ProfileID: profileID,
		StartedAt: now(),
	}
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var row profileRow
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").Where("id = ?", profileID).Take(&row).Error
		if err != nil {
			return wrapErr("lock profile "+profileID, err)
		}
		return wrapErr("insert saga lease", tx.Create(lease).Error)
	})
	if err != nil {
		return "", err
	}
	return lease.ID, nil
}

// EndSaga deletes a lease.
func (s *Store) EndSaga(ctx context.Context, leaseID string) error {
	err := s.db.WithContext(ctx).Where("id = ?", leaseID).Delete(&sagaLeaseRow{}).Error
	return wrapErr("end saga "+leaseID, err)
}

// checkNoSagas drops expired leases of the profile and fails with
// storage.ErrBusy if a live one remains. tx must hold the profile row lock.
func checkNoSagas(tx *gorm.DB, profileID string) error {
	cutoff := time.Now().Add(-storage.SagaLeaseTTL).Unix()
	err := tx.Where("profile_id = ? AND started_at < ?", profileID, cutoff).
		Delete(&sagaLeaseRow{}).Error
	if err != nil {
		return wrapErr("drop expired saga leases", err)
	}

	var live int64
	if err := tx.Model(&sagaLeaseRow{}).Where("profile_id = ?", profileID).Count(&live).Error; err != nil {
		return wrapErr("count saga leases", err)
	}
	if live > 0 {
		return fmt.Errorf("profile %s: %d in flight: %w", profileID, live, storage.ErrBusy)
	}
	return nil
}
