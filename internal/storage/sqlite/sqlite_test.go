package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitledger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestProfile(t *testing.T, store *SQLiteStore, shared bool, members ...string) (*models.Profile, *models.Category) {
	t.Helper()
	ctx := context.Background()

	profile := &models.Profile{Name: "Flat", OwnerID: "alice", Shared: shared, Members: members}
	if err := store.CreateProfile(ctx, profile); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	category := &models.Category{ProfileID: profile.ID, Name: "Food", Color: "#FF6B6B"}
	if err := store.CreateCategory(ctx, category); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	return profile, category
}

func TestProfiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateProfile adds owner as member", func(t *testing.T) {
		profile := &models.Profile{Name: "Personal", OwnerID: "alice", Members: []string{"bob", "alice"}}
		if err := store.CreateProfile(ctx, profile); err != nil {
			t.Fatalf("CreateProfile failed: %v", err)
		}
		if profile.ID == "" {
			t.Error("Expected profile ID to be generated")
		}

		got, err := store.GetProfile(ctx, profile.ID)
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if len(got.Members) != 2 || got.Members[0] != "alice" || got.Members[1] != "bob" {
			t.Errorf("Members = %v, want [alice bob]", got.Members)
		}
	})

	t.Run("GetProfile returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetProfile(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AddProfileMember and ListProfilesByMember", func(t *testing.T) {
		profile, _ := newTestProfile(t, store, true)
		if err := store.AddProfileMember(ctx, profile.ID, "carol"); err != nil {
			t.Fatalf("AddProfileMember failed: %v", err)
		}
		if err := store.AddProfileMember(ctx, profile.ID, "carol"); err != nil {
			t.Fatalf("AddProfileMember twice failed: %v", err)
		}

		profiles, err := store.ListProfilesByMember(ctx, "carol")
		if err != nil {
			t.Fatalf("ListProfilesByMember failed: %v", err)
		}
		if len(profiles) != 1 || profiles[0].ID != profile.ID {
			t.Errorf("Expected carol to see exactly profile %s, got %d profiles", profile.ID, len(profiles))
		}

		if err := store.AddProfileMember(ctx, "nonexistent-id", "carol"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for missing profile, got %v", err)
		}
	})

	t.Run("CreateColoredCategory rotates colors", func(t *testing.T) {
		profile, _ := newTestProfile(t, store, false)
		colorOf := func(seq int64) string { return fmt.Sprintf("#%06d", seq) }

		fun := &models.Category{ProfileID: profile.ID, Name: "Fun"}
		if err := store.CreateColoredCategory(ctx, fun, colorOf); err != nil {
			t.Fatalf("CreateColoredCategory failed: %v", err)
		}
		if fun.Color != "#000001" {
			t.Errorf("Color = %s, want #000001", fun.Color)
		}

		dup := &models.Category{ProfileID: profile.ID, Name: "FUN"}
		if err := store.CreateColoredCategory(ctx, dup, colorOf); !errors.Is(err, storage.ErrDuplicate) {
			t.Fatalf("Expected ErrDuplicate, got %v", err)
		}

		// The rejected insert did not use up a color.
		trips := &models.Category{ProfileID: profile.ID, Name: "Trips"}
		if err := store.CreateColoredCategory(ctx, trips, colorOf); err != nil {
			t.Fatalf("CreateColoredCategory failed: %v", err)
		}
		if trips.Color != "#000002" {
			t.Errorf("Color = %s, want #000002", trips.Color)
		}

		ghost := &models.Category{ProfileID: "ghost", Name: "Fun"}
		if err := store.CreateColoredCategory(ctx, ghost, colorOf); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for missing profile, got %v", err)
		}
	})
}

func TestIncrementBalanceConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	profile, _ := newTestProfile(t, store, false)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			delta := money.Cents(100)
			if i%2 == 1 {
				delta = -30
			}
			if _, err := store.IncrementBalance(ctx, profile.ID, delta); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("IncrementBalance failed: %v", err)
	}

	got, err := store.GetProfile(ctx, profile.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	want := money.Cents(10*100 - 10*30)
	if got.Balance != want {
		t.Errorf("Balance = %s, want %s", got.Balance, want)
	}
}

func TestCategories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	profile, food := newTestProfile(t, store, false)

	t.Run("duplicate name ignoring case", func(t *testing.T) {
		err := store.CreateCategory(ctx, &models.Category{ProfileID: profile.ID, Name: "  FOOD ", Color: "#4ECDC4"})
		if !errors.Is(err, storage.ErrDuplicate) {
			t.Errorf("Expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("GetCategoryByName", func(t *testing.T) {
		got, err := store.GetCategoryByName(ctx, profile.ID, "food")
		if err != nil {
			t.Fatalf("GetCategoryByName failed: %v", err)
		}
		if got.ID != food.ID {
			t.Errorf("ID = %s, want %s", got.ID, food.ID)
		}
	})

	t.Run("IncrementSpentWithinLimit", func(t *testing.T) {
		capped := &models.Category{ProfileID: profile.ID, Name: "Fun", Color: "#45B7D1", Limit: 1000}
		if err := store.CreateCategory(ctx, capped); err != nil {
			t.Fatalf("CreateCategory failed: %v", err)
		}

		spent, err := store.IncrementSpentWithinLimit(ctx, capped.ID, 1000)
		if err != nil {
			t.Fatalf("Expected spend up to the limit to pass, got %v", err)
		}
		if spent != 1000 {
			t.Errorf("Spent = %s, want 10.00", spent)
		}

		_, err = store.IncrementSpentWithinLimit(ctx, capped.ID, 1)
		if !errors.Is(err, storage.ErrPredicateFailed) {
			t.Errorf("Expected ErrPredicateFailed, got %v", err)
		}

		_, err = store.IncrementSpentWithinLimit(ctx, "nonexistent-id", 1)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteCategory refuses categories in use", func(t *testing.T) {
		outcome := &models.Outcome{ProfileID: profile.ID, CategoryID: food.ID, Amount: 500}
		if err := store.CreateOutcome(ctx, outcome); err != nil {
			t.Fatalf("CreateOutcome failed: %v", err)
		}
		if err := store.DeleteCategory(ctx, food.ID); !errors.Is(err, storage.ErrInUse) {
			t.Errorf("Expected ErrInUse, got %v", err)
		}
		if err := store.DeleteOutcome(ctx, outcome.ID); err != nil {
			t.Fatalf("DeleteOutcome failed: %v", err)
		}
		if err := store.DeleteCategory(ctx, food.ID); err != nil {
			t.Errorf("DeleteCategory failed: %v", err)
		}
		if err := store.DeleteCategory(ctx, food.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	profile, food := newTestProfile(t, store, true, "bob", "carol")

	t.Run("DeleteIncome is a one-shot gate", func(t *testing.T) {
		income := &models.Income{ProfileID: profile.ID, Amount: 2500}
		if err := store.CreateIncome(ctx, income); err != nil {
			t.Fatalf("CreateIncome failed: %v", err)
		}
		if err := store.DeleteIncome(ctx, income.ID); err != nil {
			t.Fatalf("DeleteIncome failed: %v", err)
		}
		if err := store.DeleteIncome(ctx, income.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}

		// Restoring with the same ID is what compensation relies on.
		if err := store.CreateIncome(ctx, income); err != nil {
			t.Fatalf("Re-inserting income failed: %v", err)
		}
		got, err := store.GetIncome(ctx, income.ID)
		if err != nil {
			t.Fatalf("GetIncome failed: %v", err)
		}
		if got.Amount != 2500 {
			t.Errorf("Amount = %s, want 25.00", got.Amount)
		}
	})

	t.Run("CreateOutcome rejects unknown category", func(t *testing.T) {
		err := store.CreateOutcome(ctx, &models.Outcome{ProfileID: profile.ID, CategoryID: "nonexistent-id", Amount: 100})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListOutcomes keeps participants", func(t *testing.T) {
		outcome := &models.Outcome{
			ProfileID:    profile.ID,
			CategoryID:   food.ID,
			Amount:       9000,
			PaidBy:       "alice",
			Participants: []string{"carol", "bob", "alice"},
			CreatedAt:    1700000000,
		}
		if err := store.CreateOutcome(ctx, outcome); err != nil {
			t.Fatalf("CreateOutcome failed: %v", err)
		}

		outcomes, err := store.ListOutcomes(ctx, storage.OutcomeFilter{ProfileID: profile.ID, From: 1700000000, To: 1700000000})
		if err != nil {
			t.Fatalf("ListOutcomes failed: %v", err)
		}
		if len(outcomes) != 1 {
			t.Fatalf("Expected 1 outcome, got %d", len(outcomes))
		}
		if got := outcomes[0].Participants; len(got) != 3 || got[0] != "alice" {
			t.Errorf("Participants = %v, want sorted [alice bob carol]", got)
		}
	})
}

func TestDebts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	profile, _ := newTestProfile(t, store, true, "bob")

	first := &models.Debt{ProfileID: profile.ID, OutcomeID: "o1", DebtorID: "bob", PaidByID: "alice", Amount: 1000, CreatedAt: 100}
	second := &models.Debt{ProfileID: profile.ID, OutcomeID: "o2", DebtorID: "alice", PaidByID: "bob", Amount: 400, CreatedAt: 200}
	if err := store.ApplyDebtBatch(ctx, models.DebtBatch{Insert: []*models.Debt{first, second}}); err != nil {
		t.Fatalf("ApplyDebtBatch failed: %v", err)
	}

	t.Run("ListDebts filters", func(t *testing.T) {
		tests := []struct {
			name   string
			filter models.DebtFilter
			want   int
		}{
			{"whole profile", models.DebtFilter{ProfileID: profile.ID}, 2},
			{"by debtor", models.DebtFilter{ProfileID: profile.ID, DebtorID: "bob"}, 1},
			{"by payer", models.DebtFilter{ProfileID: profile.ID, PaidByID: "bob"}, 1},
			{"by outcome", models.DebtFilter{OutcomeID: "o2"}, 1},
			{"date range", models.DebtFilter{ProfileID: profile.ID, From: 150, To: 250}, 1},
			{"empty range", models.DebtFilter{ProfileID: profile.ID, From: 300}, 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				debts, err := store.ListDebts(ctx, tt.filter)
				if err != nil {
					t.Fatalf("ListDebts failed: %v", err)
				}
				if len(debts) != tt.want {
					t.Errorf("Got %d debts, want %d", len(debts), tt.want)
				}
			})
		}
	})

	t.Run("batch with vanished row rolls back", func(t *testing.T) {
		net := &models.Debt{ProfileID: profile.ID, DebtorID: "bob", PaidByID: "alice", Amount: 600}
		err := store.ApplyDebtBatch(ctx, models.DebtBatch{
			Delete: []string{first.ID, "vanished-id"},
			Insert: []*models.Debt{net},
		})
		if !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("Expected ErrConflict, got %v", err)
		}

		debts, err := store.ListDebts(ctx, models.DebtFilter{ProfileID: profile.ID})
		if err != nil {
			t.Fatalf("ListDebts failed: %v", err)
		}
		if len(debts) != 2 {
			t.Errorf("Expected the batch to leave 2 debts untouched, got %d", len(debts))
		}
	})

	t.Run("batch replaces rows", func(t *testing.T) {
		net := &models.Debt{ProfileID: profile.ID, DebtorID: "bob", PaidByID: "alice", Amount: 600}
		err := store.ApplyDebtBatch(ctx, models.DebtBatch{
			Delete: []string{first.ID, second.ID},
			Insert: []*models.Debt{net},
		})
		if err != nil {
			t.Fatalf("ApplyDebtBatch failed: %v", err)
		}

		debts, err := store.ListDebts(ctx, models.DebtFilter{ProfileID: profile.ID})
		if err != nil {
			t.Fatalf("ListDebts failed: %v", err)
		}
		if len(debts) != 1 || debts[0].Amount != 600 {
			t.Errorf("Expected one net debt of 6.00, got %v", debts)
		}
	})
}

func TestRecomputeProfileTotals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	profile, food := newTestProfile(t, store, false)

	if err := store.CreateIncome(ctx, &models.Income{ProfileID: profile.ID, Amount: 10000}); err != nil {
		t.Fatalf("CreateIncome failed: %v", err)
	}
	if err := store.CreateOutcome(ctx, &models.Outcome{ProfileID: profile.ID, CategoryID: food.ID, Amount: 2500}); err != nil {
		t.Fatalf("CreateOutcome failed: %v", err)
	}
	// Totals drift: the rows were written without their increments.
	if _, err := store.IncrementBalance(ctx, profile.ID, 42); err != nil {
		t.Fatalf("IncrementBalance failed: %v", err)
	}

	result, err := store.RecomputeProfileTotals(ctx, profile.ID)
	if err != nil {
		t.Fatalf("RecomputeProfileTotals failed: %v", err)
	}
	if result.BalanceBefore != 42 || result.BalanceAfter != 7500 {
		t.Errorf("Balance %s -> %s, want 0.42 -> 75.00", result.BalanceBefore, result.BalanceAfter)
	}
	if result.CategoriesFixed != 1 {
		t.Errorf("CategoriesFixed = %d, want 1", result.CategoriesFixed)
	}

	category, err := store.GetCategory(ctx, food.ID)
	if err != nil {
		t.Fatalf("GetCategory failed: %v", err)
	}
	if category.Spent != 2500 {
		t.Errorf("Spent = %s, want 25.00", category.Spent)
	}
}

func TestSagaLeaseBlocksRecompute(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	profile, _ := newTestProfile(t, store, false)

	leaseID, err := store.BeginSaga(ctx, profile.ID)
	if err != nil {
		t.Fatalf("BeginSaga failed: %v", err)
	}
	if _, err := store.RecomputeProfileTotals(ctx, profile.ID); !errors.Is(err, storage.ErrBusy) {
		t.Fatalf("Expected ErrBusy while a saga is in flight, got %v", err)
	}

	if err := store.EndSaga(ctx, leaseID); err != nil {
		t.Fatalf("EndSaga failed: %v", err)
	}
	if err := store.EndSaga(ctx, leaseID); err != nil {
		t.Errorf("Ending a released lease should be a no-op, got %v", err)
	}
	if _, err := store.RecomputeProfileTotals(ctx, profile.ID); err != nil {
		t.Errorf("RecomputeProfileTotals after EndSaga failed: %v", err)
	}

	if _, err := store.BeginSaga(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a missing profile, got %v", err)
	}
}

func TestExpiredSagaLeaseIsDropped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	profile, _ := newTestProfile(t, store, false)

	if _, err := store.BeginSaga(ctx, profile.ID); err != nil {
		t.Fatalf("BeginSaga failed: %v", err)
	}
	// A crashed process never ends its saga.
	expired := time.Now().Add(-2 * storage.SagaLeaseTTL).Unix()
	if _, err := store.db.ExecContext(ctx, "UPDATE saga_leases SET started_at = ?", expired); err != nil {
		t.Fatalf("Failed to age lease: %v", err)
	}

	if _, err := store.RecomputeProfileTotals(ctx, profile.ID); err != nil {
		t.Fatalf("RecomputeProfileTotals with an expired lease failed: %v", err)
	}
	var left int
	if err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM saga_leases").Scan(&left); err != nil {
		t.Fatalf("Failed to count leases: %v", err)
	}
	if left != 0 {
		t.Errorf("Expected the expired lease to be dropped, %d left", left)
	}
}

func TestInconsistencies(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	profile, _ := newTestProfile(t, store, false)

	marker := &models.Inconsistency{ProfileID: profile.ID, Operation: "DeleteIncome", EntityID: "i1", Detail: "restore failed"}
	if err := store.RecordInconsistency(ctx, marker); err != nil {
		t.Fatalf("RecordInconsistency failed: %v", err)
	}

	open, err := store.ListUnresolvedInconsistencies(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnresolvedInconsistencies failed: %v", err)
	}
	if len(open) != 1 || open[0].ID != marker.ID {
		t.Fatalf("Expected the recorded marker to be open, got %v", open)
	}

	// A marker recorded after the repair started stays open.
	resolveAt := marker.CreatedAt + 10
	late := &models.Inconsistency{ProfileID: profile.ID, Operation: "DeleteIncome", EntityID: "i2", CreatedAt: resolveAt + 1}
	if err := store.RecordInconsistency(ctx, late); err != nil {
		t.Fatalf("RecordInconsistency failed: %v", err)
	}

	n, err := store.ResolveInconsistencies(ctx, profile.ID, resolveAt)
	if err != nil {
		t.Fatalf("ResolveInconsistencies failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Resolved %d markers, want 1", n)
	}

	open, err = store.ListUnresolvedInconsistencies(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnresolvedInconsistencies failed: %v", err)
	}
	if len(open) != 1 || open[0].ID != late.ID {
		t.Errorf("Expected only the late marker to stay open, got %v", open)
	}
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &models.User{ID: "u1", Email: "alice@example.com", DisplayName: "Alice", PasswordHash: "x", CreatedAt: 1, UpdatedAt: 1}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := store.CreateUser(ctx, &models.User{ID: "u2", Email: "alice@example.com", DisplayName: "A", PasswordHash: "x"}); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate for repeated email, got %v", err)
	}

	got, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil || got == nil || got.ID != "u1" {
		t.Errorf("GetUserByEmail = %v, %v", got, err)
	}
	missing, err := store.GetUserByID(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for missing user, got %v, %v", missing, err)
	}

	users, err := store.GetUsersByIDs(ctx, []string{"u1", "nobody"})
	if err != nil {
		t.Fatalf("GetUsersByIDs failed: %v", err)
	}
	if len(users) != 1 || users["u1"].DisplayName != "Alice" {
		t.Errorf("GetUsersByIDs = %v", users)
	}
}
