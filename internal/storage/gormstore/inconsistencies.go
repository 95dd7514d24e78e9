package gormstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

// RecordInconsistency persists a marker left by a failed compensation.
func (s *Store) RecordInconsistency(ctx context.Context, marker *models.Inconsistency) error {
	if marker.ID == "" {
		marker.ID = uuid.New().String()
	}
	if marker.CreatedAt == 0 {
		marker.CreatedAt = now()
	}
	row := &inconsistencyRow{
		ID:         marker.ID,
		ProfileID:  marker.ProfileID,
		Operation:  marker.Operation,
		EntityID:   marker.EntityID,
		Detail:     marker.Detail,
		CreatedAt:  marker.CreatedAt,
		ResolvedAt: marker.ResolvedAt,
	}
	return wrapErr("insert inconsistency", s.db.WithContext(ctx).Create(row).Error)
}

// ListUnresolvedInconsistencies retrieves open markers, oldest first.
func (s *Store) ListUnresolvedInconsistencies(ctx context.Context, limit int) ([]*models.Inconsistency, error) {
	var rows []inconsistencyRow
	err := s.db.WithContext(ctx).Where("resolved_at = 0").
		Order("created_at, id").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, wrapErr("list inconsistencies", err)
	}
	markers := make([]*models.Inconsistency, 0, len(rows))
	for i := range rows {
		markers = append(markers, rows[i].toModel())
	}
	return markers, nil
}

// ResolveInconsistencies closes the profile's open markers created at or
// before at.
func (s *Store) ResolveInconsistencies(ctx context.Context, profileID string, at int64) (int64, error) {
	res := s.db.WithContext(ctx).Model(&inconsistencyRow{}).
		Where("profile_id = ? AND resolved_at = 0 AND created_at <= ?", profileID, at).
		Update("resolved_at", at)
	if res.Error != nil {
		return 0, wrapErr("resolve inconsistencies", res.Error)
	}
	return res.RowsAffected, nil
}
