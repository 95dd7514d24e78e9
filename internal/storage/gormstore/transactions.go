package gormstore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateIncome persists an income. A preset ID and CreatedAt are kept.
func (s *Store) CreateIncome(ctx context.Context, income *models.Income) error {
	if income.ID == "" {
		income.ID = uuid.New().String()
	}
	if income.CreatedAt == 0 {
		income.CreatedAt = now()
	}

	return s.transaction(ctx, func(tx *gorm.DB) error {
		ok, err := exists(tx, &profileRow{}, "id = ?", income.ProfileID)
		if err != nil {
			return wrapErr("check profile existence", err)
		}
		if !ok {
			return notFound("profile", income.ProfileID)
		}
		row := &incomeRow{
			ID:          income.ID,
			ProfileID:   income.ProfileID,
			AmountCents: int64(income.Amount),
			Description: income.Description,
			CreatedAt:   income.CreatedAt,
		}
		return wrapErr("insert income", tx.Create(row).Error)
	})
}

// GetIncome retrieves an income by ID.
func (s *Store) GetIncome(ctx context.Context, incomeID string) (*models.Income, error) {
	var row incomeRow
	if err := s.db.WithContext(ctx).Where("id = ?", incomeID).Take(&row).Error; err != nil {
		return nil, wrapErr("get income "+incomeID, err)
	}
	return row.toModel(), nil
}

// DeleteIncome removes an income by ID.
func (s *Store) DeleteIncome(ctx context.Context, incomeID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", incomeID).Delete(&incomeRow{})
	if res.Error != nil {
		return wrapErr("delete income", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("income", incomeID)
	}
	return nil
}

// ListIncomes retrieves all incomes of a profile, newest first.
func (s *Store) ListIncomes(ctx context.Context, profileID string) ([]*models.Income, error) {
	var rows []incomeRow
	err := s.db.WithContext(ctx).Where("profile_id = ?", profileID).
		Order("created_at DESC, id").Find(&rows).Error
	if err != nil {
		return nil, wrapErr("list incomes", err)
	}
	incomes := make([]*models.Income, 0, len(rows))
	for i := range rows {
		incomes = append(incomes, rows[i].toModel())
	}
	return incomes, nil
}

// CreateOutcome persists an outcome and its participants in one transaction.
func (s *Store) CreateOutcome(ctx context.Context, outcome *models.Outcome) error {
	if outcome.ID == "" {
		outcome.ID = uuid.New().String()
	}
	if outcome.CreatedAt == 0 {
		outcome.CreatedAt = now()
	}

	return s.transaction(ctx, func(tx *gorm.DB) error {
		ok, err := exists(tx, &categoryRow{}, "id = ? AND profile_id = ?", outcome.CategoryID, outcome.ProfileID)
		if err != nil {
			return wrapErr("check category existence", err)
		}
		if !ok {
			return notFound("category", outcome.CategoryID)
		}

		row := &outcomeRow{
			ID:          outcome.ID,
			ProfileID:   outcome.ProfileID,
			CategoryID:  outcome.CategoryID,
			AmountCents: int64(outcome.Amount),
			Description: outcome.Description,
			PaidBy:      outcome.PaidBy,
			CreatedAt:   outcome.CreatedAt,
		}
		if err := tx.Create(row).Error; err != nil {
			return wrapErr("insert outcome", err)
		}

		participants := dedupe(outcome.Participants)
		if len(participants) == 0 {
			return nil
		}
		rows := make([]participantRow, 0, len(participants))
		for _, userID := range participants {
			rows = append(rows, participantRow{OutcomeID: outcome.ID, UserID: userID})
		}
		err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
		return wrapErr("insert outcome participants", err)
	})
}

// GetOutcome retrieves an outcome by ID, including its participants.
func (s *Store) GetOutcome(ctx context.Context, outcomeID string) (*models.Outcome, error) {
	db := s.db.WithContext(ctx)
	var row outcomeRow
	if err := db.Where("id = ?", outcomeID).Take(&row).Error; err != nil {
		return nil, wrapErr("get outcome "+outcomeID, err)
	}
	participants, err := participantsOf(db, []string{outcomeID})
	if err != nil {
		return nil, err
	}
	return row.toModel(participants[outcomeID]), nil
}

// DeleteOutcome removes an outcome and its participants.
func (s *Store) DeleteOutcome(ctx context.Context, outcomeID string) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", outcomeID).Delete(&outcomeRow{})
		if res.Error != nil {
			return wrapErr("delete outcome", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound("outcome", outcomeID)
		}
		err := tx.Where("outcome_id = ?", outcomeID).Delete(&participantRow{}).Error
		return wrapErr("delete outcome participants", err)
	})
}

// ListOutcomes retrieves outcomes matching the filter, oldest first.
func (s *Store) ListOutcomes(ctx context.Context, filter storage.OutcomeFilter) ([]*models.Outcome, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&outcomeRow{})
	if filter.ProfileID != "" {
		query = query.Where("profile_id = ?", filter.ProfileID)
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.From != 0 {
		query = query.Where("created_at >= ?", filter.From)
	}
	if filter.To != 0 {
		query = query.Where("created_at <= ?", filter.To)
	}

	var rows []outcomeRow
	if err := query.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, wrapErr("list outcomes", err)
	}

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	participants, err := participantsOf(db, ids)
	if err != nil {
		return nil, err
	}

	outcomes := make([]*models.Outcome, 0, len(rows))
	for i := range rows {
		outcomes = append(outcomes, rows[i].toModel(participants[rows[i].ID]))
	}
	return outcomes, nil
}

// participantsOf loads the participants of the given outcomes, keyed by outcome ID.
func participantsOf(db *gorm.DB, outcomeIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(outcomeIDs))
	if len(outcomeIDs) == 0 {
		return result, nil
	}

	var rows []participantRow
	err := db.Where("outcome_id IN ?", outcomeIDs).Order("outcome_id, user_id").Find(&rows).Error
	if err != nil {
		return nil, wrapErr("get outcome participants", err)
	}
	for _, r := range rows {
		result[r.OutcomeID] = append(result[r.OutcomeID], r.UserID)
	}
	return result, nil
}
