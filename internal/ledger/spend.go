package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// SpendTracker owns every change to a category's spent total.
type SpendTracker struct {
	store storage.CategoryStore
}

// NewSpendTracker creates a SpendTracker on top of the given store.
func NewSpendTracker(store storage.CategoryStore) *SpendTracker {
	return &SpendTracker{store: store}
}

// CheckLimit reports whether amount currently fits in the category. It is
// advisory only; Reserve is what enforces the limit.
func (s *SpendTracker) CheckLimit(ctx context.Context, categoryID string, amount money.Cents) (bool, error) {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return false, err
	}
	return category.Allows(amount), nil
}

// Reserve adds amount to spent if the category limit allows it, as one
// atomic conditional increment. Returns ErrLimitExceeded otherwise.
func (s *SpendTracker) Reserve(ctx context.Context, categoryID string, amount money.Cents) (money.Cents, error) {
	spent, err := s.store.IncrementSpentWithinLimit(ctx, categoryID, amount)
	if errors.Is(err, storage.ErrPredicateFailed) {
		return 0, fmt.Errorf("reserve %s in category %s: %w", amount, categoryID, ErrLimitExceeded)
	}
	if err != nil {
		return 0, fmt.Errorf("reserve %s: %w", amount, err)
	}
	return spent, nil
}

// ApplySpendDelta atomically adds delta to spent without checking the limit.
func (s *SpendTracker) ApplySpendDelta(ctx context.Context, categoryID string, delta money.Cents) (money.Cents, error) {
	spent, err := s.store.IncrementSpent(ctx, categoryID, delta)
	if err != nil {
		return 0, fmt.Errorf("apply spend delta %s: %w", delta, err)
	}
	return spent, nil
}

// Summary returns the spent total of every category of the profile.
func (s *SpendTracker) Summary(ctx context.Context, profileID string) (map[string]money.Cents, error) {
	categories, err := s.store.ListCategories(ctx, profileID)
	if err != nil {
		return nil, err
	}
	summary := make(map[string]money.Cents, len(categories))
	for _, c := range categories {
		summary[c.ID] = c.Spent
	}
	return summary, nil
}
