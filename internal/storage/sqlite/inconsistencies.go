package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

// RecordInconsistency persists a marker left by a failed compensation.
func (s *SQLiteStore) RecordInconsistency(ctx context.Context, marker *models.Inconsistency) error {
	if marker.ID == "" {
		marker.ID = uuid.New().String()
	}
	if marker.CreatedAt == 0 {
		marker.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inconsistencies (id, profile_id, operation, entity_id, detail, created_at, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		marker.ID, marker.ProfileID, marker.Operation, marker.EntityID, marker.Detail,
		marker.CreatedAt, marker.ResolvedAt,
	)
	if err != nil {
		return wrapErr("insert inconsistency", err)
	}
	return nil
}

// ListUnresolvedInconsistencies retrieves open markers, oldest first.
func (s *SQLiteStore) ListUnresolvedInconsistencies(ctx context.Context, limit int) ([]*models.Inconsistency, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile_id, operation, entity_id, detail, created_at, resolved_at
		 FROM inconsistencies WHERE resolved_at = 0 ORDER BY created_at, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, wrapErr("list inconsistencies", err)
	}
	defer rows.Close()

	var markers []*models.Inconsistency
	for rows.Next() {
		m := &models.Inconsistency{}
		if err := rows.Scan(&m.ID, &m.ProfileID, &m.Operation, &m.EntityID, &m.Detail,
			&m.CreatedAt, &m.ResolvedAt); err != nil {
			return nil, wrapErr("scan inconsistency", err)
		}
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate inconsistencies", err)
	}
	return markers, nil
}

// ResolveInconsistencies closes the profile's open markers created at or
// before at.
func (s *SQLiteStore) ResolveInconsistencies(ctx context.Context, profileID string, at int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE inconsistencies SET resolved_at = ? WHERE profile_id = ? AND resolved_at = 0 AND created_at <= ?",
		at, profileID, at,
	)
	if err != nil {
		return 0, wrapErr("resolve inconsistencies", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr("resolve inconsistencies", err)
	}
	return n, nil
}
