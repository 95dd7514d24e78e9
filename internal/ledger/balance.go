package ledger

import (
	"context"
	"fmt"

	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// BalanceEngine owns every change to a profile's running balance.
type BalanceEngine struct {
	store storage.ProfileStore
}

// NewBalanceEngine creates a BalanceEngine on top of the given store.
func NewBalanceEngine(store storage.ProfileStore) *BalanceEngine {
	return &BalanceEngine{store: store}
}

// AdjustBalance atomically adds delta to the profile balance and returns the
// new balance. It does not retry: on ErrStorageUnavailable the caller must
// not assume the balance changed.
func (b *BalanceEngine) AdjustBalance(ctx context.Context, profileID string, delta money.Cents) (money.Cents, error) {
	balance, err := b.store.IncrementBalance(ctx, profileID, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust balance by %s: %w", delta, err)
	}
	return balance, nil
}

// Balance returns the current balance of the profile.
func (b *BalanceEngine) Balance(ctx context.Context, profileID string) (money.Cents, error) {
	profile, err := b.store.GetProfile(ctx, profileID)
	if err != nil {
		return 0, err
	}
	return profile.Balance, nil
}
