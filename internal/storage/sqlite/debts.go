package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// ListDebts retrieves debts matching the filter, oldest first.
func (s *SQLiteStore) ListDebts(ctx context.Context, filter models.DebtFilter) ([]*models.Debt, error) {
	var (
		where []string
		args  []any
	)
	if filter.ProfileID != "" {
		where = append(where, "profile_id = ?")
		args = append(args, filter.ProfileID)
	}
	if filter.DebtorID != "" {
		where = append(where, "debtor_id = ?")
		args = append(args, filter.DebtorID)
	}
	if filter.PaidByID != "" {
		where = append(where, "paid_by_id = ?")
		args = append(args, filter.PaidByID)
	}
	if filter.OutcomeID != "" {
		where = append(where, "outcome_id = ?")
		args = append(args, filter.OutcomeID)
	}
	if filter.From != 0 {
		where = append(where, "created_at >= ?")
		args = append(args, filter.From)
	}
	if filter.To != 0 {
		where = append(where, "created_at <= ?")
		args = append(args, filter.To)
	}

	query := `SELECT id, profile_id, outcome_id, debtor_id, paid_by_id, amount_cents, created_at FROM debts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list debts", err)
	}
	defer rows.Close()

	var debts []*models.Debt
	for rows.Next() {
		debt := &models.Debt{}
		var amount int64
		if err := rows.Scan(&debt.ID, &debt.ProfileID, &debt.OutcomeID, &debt.DebtorID,
			&debt.PaidByID, &amount, &debt.CreatedAt); err != nil {
			return nil, wrapErr("scan debt", err)
		}
		debt.Amount = money.Cents(amount)
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate debts", err)
	}
	return debts, nil
}

// ApplyDebtBatch deletes and inserts debts in one transaction. Readers see
// either the state before the batch or the state after it.
func (s *SQLiteStore) ApplyDebtBatch(ctx context.Context, batch models.DebtBatch) error {
	if batch.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer tx.Rollback()

	for _, id := range batch.Delete {
		res, err := tx.ExecContext(ctx, "DELETE FROM debts WHERE id = ?", id)
		if err != nil {
			return wrapErr("delete debt", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapErr("delete debt", err)
		}
		if n == 0 {
			return fmt.Errorf("debt %s: %w", id, storage.ErrConflict)
		}
	}

	now := time.Now().Unix()
	for _, debt := range batch.Insert {
		if debt.ID == "" {
			debt.ID = uuid.New().String()
		}
		if debt.CreatedAt == 0 {
			debt.CreatedAt = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO debts (id, profile_id, outcome_id, debtor_id, paid_by_id, amount_cents, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			debt.ID, debt.ProfileID, debt.OutcomeID, debt.DebtorID, debt.PaidByID,
			int64(debt.Amount), debt.CreatedAt,
		)
		if err != nil {
			return wrapErr("insert debt", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}
