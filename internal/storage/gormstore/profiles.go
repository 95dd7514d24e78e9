package gormstore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateProfile persists a new profile, its members and its initial categories.
func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile, categories ...*models.Category) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.CreatedAt == 0 {
		profile.CreatedAt = now()
	}
	members := dedupe(append([]string{profile.OwnerID}, profile.Members...))

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		row := &profileRow{
			ID:           profile.ID,
			Name:         profile.Name,
			BalanceCents: int64(profile.Balance),
			OwnerID:      profile.OwnerID,
			Shared:       profile.Shared,
			ColorSeq:     profile.ColorSeq,
			CreatedAt:    profile.CreatedAt,
		}
		if err := tx.Create(row).Error; err != nil {
			return wrapErr("insert profile", err)
		}

		rows := make([]memberRow, 0, len(members))
		for _, userID := range members {
			rows = append(rows, memberRow{ProfileID: profile.ID, UserID: userID})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return wrapErr("insert profile members", err)
		}

		for _, category := range categories {
			category.ProfileID = profile.ID
			if err := insertCategory(tx, category); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	profile.Members = members
	return nil
}

// GetProfile retrieves a profile by ID, including its members.
func (s *Store) GetProfile(ctx context.Context, profileID string) (*models.Profile, error) {
	db := s.db.WithContext(ctx)
	var row profileRow
	if err := db.Where("id = ?", profileID).Take(&row).Error; err != nil {
		return nil, wrapErr("get profile "+profileID, err)
	}

	var members []string
	err := db.Model(&memberRow{}).Where("profile_id = ?", profileID).
		Order("user_id").Pluck("user_id", &members).Error
	if err != nil {
		return nil, wrapErr("list profile members", err)
	}
	return row.toModel(members), nil
}

// ListProfilesByMember retrieves every profile the user belongs to.
func (s *Store) ListProfilesByMember(ctx context.Context, userID string) ([]*models.Profile, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&profileRow{}).
		Joins("JOIN profile_members m ON m.profile_id = profiles.id").
		Where("m.user_id = ?", userID).
		Order("profiles.created_at, profiles.id").
		Pluck("profiles.id", &ids).Error
	if err != nil {
		return nil, wrapErr("list profiles by member", err)
	}

	profiles := make([]*models.Profile, 0, len(ids))
	for _, id := range ids {
		profile, err := s.GetProfile(ctx, id)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// AddProfileMember adds a user to a profile. Existing members are ignored.
func (s *Store) AddProfileMember(ctx context.Context, profileID, userID string) error {
	db := s.db.WithContext(ctx)
	ok, err := exists(db, &profileRow{}, "id = ?", profileID)
	if err != nil {
		return wrapErr("check profile existence", err)
	}
	if !ok {
		return notFound("profile", profileID)
	}

	err = db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&memberRow{ProfileID: profileID, UserID: userID}).Error
	if err != nil {
		return wrapErr("insert profile member", err)
	}
	return nil
}

// IncrementBalance adds delta with one UPDATE and reads the result back in
// the same transaction, while the row is still locked.
func (s *Store) IncrementBalance(ctx context.Context, profileID string, delta money.Cents) (money.Cents, error) {
	var balance int64
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&profileRow{}).Where("id = ?", profileID).
			Update("balance_cents", gorm.Expr("balance_cents + ?", int64(delta)))
		if res.Error != nil {
			return wrapErr("increment balance of profile "+profileID, res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound("profile", profileID)
		}
		return wrapErr("read balance of profile "+profileID,
			tx.Model(&profileRow{}).Where("id = ?", profileID).Select("balance_cents").Scan(&balance).Error)
	})
	if err != nil {
		return 0, err
	}
	return money.Cents(balance), nil
}

// nextColorSeq increments the profile's category color counter.
func nextColorSeq(tx *gorm.DB, profileID string) (int64, error) {
	res := tx.Model(&profileRow{}).Where("id = ?", profileID).
		Update("color_seq", gorm.Expr("color_seq + 1"))
	if res.Error != nil {
		return 0, wrapErr("increment color sequence of profile "+profileID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, notFound("profile", profileID)
	}
	var seq int64
	err := tx.Model(&profileRow{}).Where("id = ?", profileID).Select("color_seq").Scan(&seq).Error
	if err != nil {
		return 0, wrapErr("read color sequence of profile "+profileID, err)
	}
	return seq, nil
}

// RecomputeProfileTotals rewrites balance and spent totals from live rows.
// The profile row is locked first, so BeginSaga waits for the rewrite and
// the lease check cannot miss a saga that started after it.
func (s *Store) RecomputeProfileTotals(ctx context.Context, profileID string) (*storage.Recompute, error) {
	result := &storage.Recompute{}
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var row profileRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", profileID).Take(&row).Error
		if err != nil {
			return wrapErr("get profile "+profileID, err)
		}
		if err := checkNoSagas(tx, profileID); err != nil {
			return err
		}

		var incomes, outcomes int64
		if err := tx.Model(&incomeRow{}).Where("profile_id = ?", profileID).
			Select("COALESCE(SUM(amount_cents), 0)").Scan(&incomes).Error; err != nil {
			return wrapErr("sum incomes", err)
		}
		if err := tx.Model(&outcomeRow{}).Where("profile_id = ?", profileID).
			Select("COALESCE(SUM(amount_cents), 0)").Scan(&outcomes).Error; err != nil {
			return wrapErr("sum outcomes", err)
		}

		balance := incomes - outcomes
		if err := tx.Model(&profileRow{}).Where("id = ?", profileID).
			Update("balance_cents", balance).Error; err != nil {
			return wrapErr("recompute balance", err)
		}
		result.BalanceBefore = money.Cents(row.BalanceCents)
		result.BalanceAfter = money.Cents(balance)

		var sums []struct {
			CategoryID string
			Total      int64
		}
		if err := tx.Model(&outcomeRow{}).Where("profile_id = ?", profileID).
			Select("category_id, SUM(amount_cents) AS total").Group("category_id").
			Scan(&sums).Error; err != nil {
			return wrapErr("sum outcomes per category", err)
		}
		want := make(map[string]int64, len(sums))
		for _, sum := range sums {
			want[sum.CategoryID] = sum.Total
		}

		var categories []categoryRow
		if err := tx.Where("profile_id = ?", profileID).Find(&categories).Error; err != nil {
			return wrapErr("list categories", err)
		}
		for _, c := range categories {
			if c.SpentCents == want[c.ID] {
				continue
			}
			if err := tx.Model(&categoryRow{}).Where("id = ?", c.ID).
				Update("spent_cents", want[c.ID]).Error; err != nil {
				return wrapErr("recompute spent of category "+c.ID, err)
			}
			result.CategoriesFixed++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// dedupe returns ids without repeats or empties, keeping first occurrences.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
