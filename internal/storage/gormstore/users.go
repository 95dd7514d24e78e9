package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mmynk/splitledger/internal/models"
)

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	row := &userRow{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	return wrapErr("create user", s.db.WithContext(ctx).Create(row).Error)
}

// GetUserByEmail retrieves a user by email. Returns nil, nil when absent.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

// GetUserByID retrieves a user by ID. Returns nil, nil when absent.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where(query, arg).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get user", err)
	}
	return row.toModel(), nil
}

// GetUsersByIDs retrieves multiple users. Missing users are omitted.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	var rows []userRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, wrapErr("get users by IDs", err)
	}
	for i := range rows {
		users[rows[i].ID] = rows[i].toModel()
	}
	return users, nil
}
