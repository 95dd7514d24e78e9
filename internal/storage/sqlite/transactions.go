package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateIncome persists an income, keeping a preset ID and CreatedAt.
func (s *SQLiteStore) CreateIncome(ctx context.Context, income *models.Income) error {
	if income.ID == "" {
		income.ID = uuid.New().String()
	}
	if income.CreatedAt == 0 {
		income.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO incomes (id, profile_id, amount_cents, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		income.ID, income.ProfileID, int64(income.Amount), income.Description, income.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert income", err)
	}
	return nil
}

// GetIncome retrieves an income by ID.
func (s *SQLiteStore) GetIncome(ctx context.Context, incomeID string) (*models.Income, error) {
	income := &models.Income{}
	var amount int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, profile_id, amount_cents, description, created_at FROM incomes WHERE id = ?",
		incomeID,
	).Scan(&income.ID, &income.ProfileID, &amount, &income.Description, &income.CreatedAt)
	if err != nil {
		return nil, wrapErr("get income "+incomeID, err)
	}
	income.Amount = money.Cents(amount)
	return income, nil
}

// DeleteIncome removes an income by ID.
func (s *SQLiteStore) DeleteIncome(ctx context.Context, incomeID string) error {
	return s.deleteByID(ctx, "incomes", "income", incomeID)
}

// ListIncomes retrieves all incomes of a profile, newest first.
func (s *SQLiteStore) ListIncomes(ctx context.Context, profileID string) ([]*models.Income, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile_id, amount_cents, description, created_at
		 FROM incomes WHERE profile_id = ? ORDER BY created_at DESC, id`,
		profileID,
	)
	if err != nil {
		return nil, wrapErr("list incomes", err)
	}
	defer rows.Close()

	var incomes []*models.Income
	for rows.Next() {
		income := &models.Income{}
		var amount int64
		if err := rows.Scan(&income.ID, &income.ProfileID, &amount, &income.Description, &income.CreatedAt); err != nil {
			return nil, wrapErr("scan income", err)
		}
		income.Amount = money.Cents(amount)
		incomes = append(incomes, income)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate incomes", err)
	}
	return incomes, nil
}

// CreateOutcome persists an outcome and its participants in one transaction.
func (s *SQLiteStore) CreateOutcome(ctx context.Context, outcome *models.Outcome) error {
	if outcome.ID == "" {
		outcome.ID = uuid.New().String()
	}
	if outcome.CreatedAt == 0 {
		outcome.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outcomes (id, profile_id, category_id, amount_cents, description, paid_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		outcome.ID, outcome.ProfileID, outcome.CategoryID, int64(outcome.Amount),
		outcome.Description, outcome.PaidBy, outcome.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert outcome", err)
	}

	for _, userID := range outcome.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO outcome_participants (outcome_id, user_id) VALUES (?, ?)",
			outcome.ID, userID,
		)
		if err != nil {
			return wrapErr("insert outcome participant", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}

const outcomeColumns = "id, profile_id, category_id, amount_cents, description, paid_by, created_at"

// GetOutcome retrieves an outcome by ID, including its participants.
func (s *SQLiteStore) GetOutcome(ctx context.Context, outcomeID string) (*models.Outcome, error) {
	outcome, err := scanOutcome(s.db.QueryRowContext(ctx,
		"SELECT "+outcomeColumns+" FROM outcomes WHERE id = ?",
		outcomeID,
	))
	if err != nil {
		return nil, wrapErr("get outcome "+outcomeID, err)
	}

	participants, err := s.participantsOf(ctx, []string{outcomeID})
	if err != nil {
		return nil, err
	}
	outcome.Participants = participants[outcomeID]
	return outcome, nil
}

// DeleteOutcome removes an outcome by ID. Participants cascade.
func (s *SQLiteStore) DeleteOutcome(ctx context.Context, outcomeID string) error {
	return s.deleteByID(ctx, "outcomes", "outcome", outcomeID)
}

// ListOutcomes retrieves outcomes matching the filter, oldest first.
func (s *SQLiteStore) ListOutcomes(ctx context.Context, filter storage.OutcomeFilter) ([]*models.Outcome, error) {
	var (
		where []string
		args  []any
	)
	if filter.ProfileID != "" {
		where = append(where, "profile_id = ?")
		args = append(args, filter.ProfileID)
	}
	if filter.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.From != 0 {
		where = append(where, "created_at >= ?")
		args = append(args, filter.From)
	}
	if filter.To != 0 {
		where = append(where, "created_at <= ?")
		args = append(args, filter.To)
	}

	query := "SELECT " + outcomeColumns + " FROM outcomes"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list outcomes", err)
	}

	var outcomes []*models.Outcome
	for rows.Next() {
		outcome, err := scanOutcome(rows)
		if err != nil {
			rows.Close()
			return nil, wrapErr("scan outcome", err)
		}
		outcomes = append(outcomes, outcome)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate outcomes", err)
	}

	ids := make([]string, len(outcomes))
	for i, o := range outcomes {
		ids[i] = o.ID
	}
	participants, err := s.participantsOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		o.Participants = participants[o.ID]
	}
	return outcomes, nil
}

// participantsOf loads the participants of the given outcomes, keyed by outcome ID.
func (s *SQLiteStore) participantsOf(ctx context.Context, outcomeIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(outcomeIDs))
	if len(outcomeIDs) == 0 {
		return result, nil
	}

	args := make([]any, len(outcomeIDs))
	for i, id := range outcomeIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT outcome_id, user_id FROM outcome_participants WHERE outcome_id IN ("+
			placeholders(len(outcomeIDs))+") ORDER BY outcome_id, user_id",
		args...,
	)
	if err != nil {
		return nil, wrapErr("get outcome participants", err)
	}
	defer rows.Close()

	for rows.Next() {
		var outcomeID, userID string
		if err := rows.Scan(&outcomeID, &userID); err != nil {
			return nil, wrapErr("scan outcome participant", err)
		}
		result[outcomeID] = append(result[outcomeID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate outcome participants", err)
	}
	return result, nil
}

func scanOutcome(row rowScanner) (*models.Outcome, error) {
	outcome := &models.Outcome{}
	var amount int64
	if err := row.Scan(&outcome.ID, &outcome.ProfileID, &outcome.CategoryID, &amount,
		&outcome.Description, &outcome.PaidBy, &outcome.CreatedAt); err != nil {
		return nil, err
	}
	outcome.Amount = money.Cents(amount)
	return outcome, nil
}

// deleteByID deletes one row and reports ErrNotFound when nothing was
// deleted. The affected-row count is the idempotency gate: of two
// concurrent deletes of the same row only one sees a deletion.
func (s *SQLiteStore) deleteByID(ctx context.Context, table, entity, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return wrapErr("delete "+entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("delete "+entity, err)
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}
