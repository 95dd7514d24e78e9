package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

const categoryColumns = "id, profile_id, name, color, limit_cents, spent_cents, created_at"

// CreateCategory persists a new category.
func (s *SQLiteStore) CreateCategory(ctx context.Context, category *models.Category) error {
	return insertCategory(ctx, s.db, category)
}

// CreateColoredCategory colors and inserts a category in one transaction.
func (s *SQLiteStore) CreateColoredCategory(ctx context.Context, category *models.Category, colorOf func(seq int64) string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer tx.Rollback()

	seq, err := nextColorSeq(ctx, tx, category.ProfileID)
	if err != nil {
		return err
	}
	category.Color = colorOf(seq)
	if err := insertCategory(ctx, tx, category); err != nil {
		return err
	}
	return wrapErr("commit transaction", tx.Commit())
}

func insertCategory(ctx context.Context, q querier, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if category.CreatedAt == 0 {
		category.CreatedAt = time.Now().Unix()
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO categories (id, profile_id, name, name_key, color, limit_cents, spent_cents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		category.ID, category.ProfileID, category.Name, models.NameKey(category.Name), category.Color,
		int64(category.Limit), int64(category.Spent), category.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert category "+category.Name, err)
	}
	return nil
}

// GetCategory retrieves a category by ID.
func (s *SQLiteStore) GetCategory(ctx context.Context, categoryID string) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE id = ?",
		categoryID,
	)
	category, err := scanCategory(row)
	if err != nil {
		return nil, wrapErr("get category "+categoryID, err)
	}
	return category, nil
}

// GetCategoryByName retrieves a category of the profile by case-insensitive name.
func (s *SQLiteStore) GetCategoryByName(ctx context.Context, profileID, name string) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE profile_id = ? AND name_key = ?",
		profileID, models.NameKey(name),
	)
	category, err := scanCategory(row)
	if err != nil {
		return nil, wrapErr("get category by name "+name, err)
	}
	return category, nil
}

// ListCategories retrieves all categories of a profile.
func (s *SQLiteStore) ListCategories(ctx context.Context, profileID string) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE profile_id = ? ORDER BY created_at, name_key",
		profileID,
	)
	if err != nil {
		return nil, wrapErr("list categories", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, wrapErr("scan category", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate categories", err)
	}
	return categories, nil
}

// DeleteCategory removes a category no outcome references.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, categoryID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ?
		 AND NOT EXISTS (SELECT 1 FROM outcomes WHERE category_id = ?)`,
		categoryID, categoryID,
	)
	if err != nil {
		return wrapErr("delete category", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("delete category", err)
	}
	if n > 0 {
		return nil
	}

	ok, err := exists(ctx, s.db, "categories", categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("category", categoryID)
	}
	return storage.ErrInUse
}

// IncrementSpent adds delta to the category's spent total.
func (s *SQLiteStore) IncrementSpent(ctx context.Context, categoryID string, delta money.Cents) (money.Cents, error) {
	var spent int64
	err := s.db.QueryRowContext(ctx,
		"UPDATE categories SET spent_cents = spent_cents + ? WHERE id = ? RETURNING spent_cents",
		int64(delta), categoryID,
	).Scan(&spent)
	if err != nil {
		return 0, wrapErr("increment spent of category "+categoryID, err)
	}
	return money.Cents(spent), nil
}

// IncrementSpentWithinLimit adds delta to spent only when the limit allows
// it. The check and the write are one statement, so two concurrent callers
// cannot both pass the check and jointly overrun the limit.
func (s *SQLiteStore) IncrementSpentWithinLimit(ctx context.Context, categoryID string, delta money.Cents) (money.Cents, error) {
	var spent int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE categories SET spent_cents = spent_cents + ?
		 WHERE id = ? AND (limit_cents <= 0 OR spent_cents + ? <= limit_cents)
		 RETURNING spent_cents`,
		int64(delta), categoryID, int64(delta),
	).Scan(&spent)
	if err == nil {
		return money.Cents(spent), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, wrapErr("conditionally increment spent of category "+categoryID, err)
	}

	ok, err := exists(ctx, s.db, "categories", categoryID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, notFound("category", categoryID)
	}
	return 0, storage.ErrPredicateFailed
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*models.Category, error) {
	category := &models.Category{}
	var limit, spent int64
	if err := row.Scan(&category.ID, &category.ProfileID, &category.Name, &category.Color,
		&limit, &spent, &category.CreatedAt); err != nil {
		return nil, err
	}
	category.Limit = money.Cents(limit)
	category.Spent = money.Cents(spent)
	return category, nil
}
