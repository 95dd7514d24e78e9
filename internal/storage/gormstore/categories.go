package gormstore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateCategory persists a new category.
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		ok, err := exists(tx, &profileRow{}, "id = ?", category.ProfileID)
		if err != nil {
			return wrapErr("check profile existence", err)
		}
		if !ok {
			return notFound("profile", category.ProfileID)
		}
		return insertCategory(tx, category)
	})
}

// CreateColoredCategory colors and inserts a category in one transaction.
func (s *Store) CreateColoredCategory(ctx context.Context, category *models.Category, colorOf func(seq int64) string) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		seq, err := nextColorSeq(tx, category.ProfileID)
		if err != nil {
			return err
		}
		category.Color = colorOf(seq)
		return insertCategory(tx, category)
	})
}

func insertCategory(tx *gorm.DB, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if category.CreatedAt == 0 {
		category.CreatedAt = now()
	}
	if err := tx.Create(categoryFromModel(category)).Error; err != nil {
		return wrapErr("insert category "+category.Name, err)
	}
	return nil
}

// GetCategory retrieves a category by ID.
func (s *Store) GetCategory(ctx context.Context, categoryID string) (*models.Category, error) {
	var row categoryRow
	if err := s.db.WithContext(ctx).Where("id = ?", categoryID).Take(&row).Error; err != nil {
		return nil, wrapErr("get category "+categoryID, err)
	}
	return row.toModel(), nil
}

// GetCategoryByName retrieves a category of the profile by case-insensitive name.
func (s *Store) GetCategoryByName(ctx context.Context, profileID, name string) (*models.Category, error) {
	var row categoryRow
	err := s.db.WithContext(ctx).
		Where("profile_id = ? AND name_key = ?", profileID, models.NameKey(name)).
		Take(&row).Error
	if err != nil {
		return nil, wrapErr("get category by name "+name, err)
	}
	return row.toModel(), nil
}

// ListCategories retrieves all categories of a profile.
func (s *Store) ListCategories(ctx context.Context, profileID string) ([]*models.Category, error) {
	var rows []categoryRow
	err := s.db.WithContext(ctx).Where("profile_id = ?", profileID).
		Order("created_at, name_key").Find(&rows).Error
	if err != nil {
		return nil, wrapErr("list categories", err)
	}
	categories := make([]*models.Category, 0, len(rows))
	for i := range rows {
		categories = append(categories, rows[i].toModel())
	}
	return categories, nil
}

// DeleteCategory removes a category that no outcome references.
func (s *Store) DeleteCategory(ctx context.Context, categoryID string) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND NOT EXISTS (SELECT 1 FROM outcomes WHERE category_id = ?)", categoryID, categoryID).
			Delete(&categoryRow{})
		if res.Error != nil {
			return wrapErr("delete category", res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}

		ok, err := exists(tx, &categoryRow{}, "id = ?", categoryID)
		if err != nil {
			return wrapErr("check category existence", err)
		}
		if !ok {
			return notFound("category", categoryID)
		}
		return storage.ErrInUse
	})
}

// IncrementSpent adds delta to the category's spent total.
func (s *Store) IncrementSpent(ctx context.Context, categoryID string, delta money.Cents) (money.Cents, error) {
	return s.incrementSpent(ctx, categoryID, delta, false)
}

// IncrementSpentWithinLimit adds delta to spent only when the category has
// no limit or the new total stays within it. The predicate is part of the
// UPDATE, so two concurrent outcomes cannot both pass it.
func (s *Store) IncrementSpentWithinLimit(ctx context.Context, categoryID string, delta money.Cents) (money.Cents, error) {
	return s.incrementSpent(ctx, categoryID, delta, true)
}

func (s *Store) incrementSpent(ctx context.Context, categoryID string, delta money.Cents, withinLimit bool) (money.Cents, error) {
	var spent int64
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		query := tx.Model(&categoryRow{}).Where("id = ?", categoryID)
		if withinLimit {
			query = query.Where("(limit_cents <= 0 OR spent_cents + ? <= limit_cents)", int64(delta))
		}
		res := query.Update("spent_cents", gorm.Expr("spent_cents + ?", int64(delta)))
		if res.Error != nil {
			return wrapErr("increment spent of category "+categoryID, res.Error)
		}
		if res.RowsAffected == 0 {
			ok, err := exists(tx, &categoryRow{}, "id = ?", categoryID)
			if err != nil {
				return wrapErr("check category existence", err)
			}
			if !ok {
				return notFound("category", categoryID)
			}
			return storage.ErrPredicateFailed
		}
		return wrapErr("read spent of category "+categoryID,
			tx.Model(&categoryRow{}).Where("id = ?", categoryID).Select("spent_cents").Scan(&spent).Error)
	})
	if err != nil {
		return 0, err
	}
	return money.Cents(spent), nil
}
