package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// DefaultPalette is the color rotation for new categories.
var DefaultPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
}

// colorFor picks the palette entry for the n-th category of a profile (n >= 1).
func (l *Ledger) colorFor(n int64) string {
	if n < 1 {
		n = 1
	}
	return l.palette[(n-1)%int64(len(l.palette))]
}

// CreateProfile creates a profile with a zero balance and its default
// category. Personal profiles cannot list extra members.
func (l *Ledger) CreateProfile(ctx context.Context, owner, name string, shared bool, members []string) (*models.Profile, error) {
	name = strings.TrimSpace(name)
	if owner == "" {
		return nil, validationf("profile owner is required")
	}
	if name == "" {
		return nil, validationf("profile name is required")
	}
	members = uniqueIDs(members)
	if !shared && (len(members) > 1 || (len(members) == 1 && members[0] != owner)) {
		return nil, validationf("a personal profile has exactly one member")
	}

	profile := &models.Profile{
		Name:     name,
		OwnerID:  owner,
		Shared:   shared,
		Members:  members,
		ColorSeq: 1,
	}
	defaultCategory := &models.Category{
		Name:  models.DefaultCategoryName,
		Color: l.colorFor(1),
	}
	if err := l.store.CreateProfile(ctx, profile, defaultCategory); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	slog.InfoContext(ctx, "Profile created",
		"profile_id", profile.ID,
		"owner_id", owner,
		"shared", shared,
		"members_count", len(profile.Members),
	)
	return profile, nil
}

// ListProfiles returns every profile the user belongs to.
func (l *Ledger) ListProfiles(ctx context.Context, user string) ([]*models.Profile, error) {
	return l.store.ListProfilesByMember(ctx, user)
}

// AddMember adds userID to a shared profile on behalf of actor.
func (l *Ledger) AddMember(ctx context.Context, actor, profileID, userID string) (*models.Profile, error) {
	profile, err := l.Authorize(ctx, profileID, actor)
	if err != nil {
		return nil, err
	}
	if !profile.Shared {
		return nil, validationf("cannot add members to personal profile %s", profileID)
	}
	user, err := l.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	if err := l.store.AddProfileMember(ctx, profileID, userID); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	slog.InfoContext(ctx, "Member added", "profile_id", profileID, "user_id", userID)
	return l.store.GetProfile(ctx, profileID)
}

// GetBalance returns the profile balance on behalf of actor.
func (l *Ledger) GetBalance(ctx context.Context, actor, profileID string) (money.Cents, error) {
	profile, err := l.Authorize(ctx, profileID, actor)
	if err != nil {
		return 0, err
	}
	return profile.Balance, nil
}

// CreateCategory adds a category to the profile. Names are unique per
// profile ignoring case; colors rotate through the palette per profile.
func (l *Ledger) CreateCategory(ctx context.Context, actor, profileID, name string, limit money.Cents) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("category name is required")
	}
	if limit < 0 {
		return nil, validationf("category limit must not be negative, got %s", limit)
	}
	if _, err := l.Authorize(ctx, profileID, actor); err != nil {
		return nil, err
	}

	category := &models.Category{
		ProfileID: profileID,
		Name:      name,
		Limit:     limit,
	}
	if err := l.store.CreateColoredCategory(ctx, category, l.colorFor); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, fmt.Errorf("category %q: %w", name, ErrAlreadyExists)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "Category created",
		"profile_id", profileID,
		"category_id", category.ID,
		"color", category.Color,
	)
	return category, nil
}

// ListCategories returns the categories of the profile on behalf of actor.
func (l *Ledger) ListCategories(ctx context.Context, actor, profileID string) ([]*models.Category, error) {
	if _, err := l.Authorize(ctx, profileID, actor); err != nil {
		return nil, err
	}
	return l.store.ListCategories(ctx, profileID)
}

// GetCategorySummary returns the spent total of every category of the profile.
func (l *Ledger) GetCategorySummary(ctx context.Context, actor, profileID string) (map[string]money.Cents, error) {
	if _, err := l.Authorize(ctx, profileID, actor); err != nil {
		return nil, err
	}
	return l.Spend.Summary(ctx, profileID)
}

// DeleteCategory removes a category without outcomes. The default category
// cannot be deleted.
func (l *Ledger) DeleteCategory(ctx context.Context, actor, categoryID string) error {
	category, err := l.store.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if _, err := l.Authorize(ctx, category.ProfileID, actor); err != nil {
		return err
	}
	if models.NameKey(category.Name) == models.NameKey(models.DefaultCategoryName) {
		return validationf("the default category cannot be deleted")
	}

	if err := l.store.DeleteCategory(ctx, categoryID); err != nil {
		return fmt.Errorf("delete category %s: %w", categoryID, err)
	}
	slog.InfoContext(ctx, "Category deleted", "profile_id", category.ProfileID, "category_id", categoryID)
	return nil
}
