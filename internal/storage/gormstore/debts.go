package gormstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// ListDebts retrieves debts matching the filter, oldest first.
func (s *Store) ListDebts(ctx context.Context, filter models.DebtFilter) ([]*models.Debt, error) {
	query := s.db.WithContext(ctx).Model(&debtRow{})
	if filter.ProfileID != "" {
		query = query.Where("profile_id = ?", filter.ProfileID)
	}
	if filter.DebtorID != "" {
		query = query.Where("debtor_id = ?", filter.DebtorID)
	}
	if filter.PaidByID != "" {
		query = query.Where("paid_by_id = ?", filter.PaidByID)
	}
	if filter.OutcomeID != "" {
		query = query.Where("outcome_id = ?", filter.OutcomeID)
	}
	if filter.From != 0 {
		query = query.Where("created_at >= ?", filter.From)
	}
	if filter.To != 0 {
		query = query.Where("created_at <= ?", filter.To)
	}

	var rows []debtRow
	if err := query.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, wrapErr("list debts", err)
	}
	debts := make([]*models.Debt, 0, len(rows))
	for i := range rows {
		debts = append(debts, rows[i].toModel())
	}
	return debts, nil
}

// ApplyDebtBatch deletes and inserts debts in one transaction. A delete
// that matches no row aborts the batch with ErrConflict.
func (s *Store) ApplyDebtBatch(ctx context.Context, batch models.DebtBatch) error {
	if batch.Empty() {
		return nil
	}

	return s.transaction(ctx, func(tx *gorm.DB) error {
		for _, id := range batch.Delete {
			res := tx.Where("id = ?", id).Delete(&debtRow{})
			if res.Error != nil {
				return wrapErr("delete debt", res.Error)
			}
			if res.RowsAffected != 1 {
				return fmt.Errorf("debt %s: %w", id, storage.ErrConflict)
			}
		}

		if len(batch.Insert) == 0 {
			return nil
		}
		rows := make([]*debtRow, 0, len(batch.Insert))
		for _, d := range batch.Insert {
			if d.ID == "" {
				d.ID = uuid.New().String()
			}
			if d.CreatedAt == 0 {
				d.CreatedAt = now()
			}
			rows = append(rows, debtFromModel(d))
		}
		return wrapErr("insert debts", tx.Create(rows).Error)
	})
}
