// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable wraps every driver or connection failure. Callers may
	// retry the whole logical transaction.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrPredicateFailed is returned by conditional increments whose
	// predicate rejected the new value. Nothing was written.
	ErrPredicateFailed = errors.New("predicate failed")

	// ErrConflict is returned by batch writes whose preconditions no longer
	// hold (a row to delete vanished). Nothing was written.
	ErrConflict = errors.New("conflicting concurrent write")

	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("already exists")

	// ErrInUse is returned when deleting a row that other rows still reference.
	ErrInUse = errors.New("still referenced")

	// ErrBusy is returned by RecomputeProfileTotals while a logical
	// transaction holds a live lease on the profile. Nothing was written.
	ErrBusy = errors.New("profile has transactions in flight")
)

// SagaLeaseTTL is how long a saga lease blocks recomputes. Older leases
// belong to crashed processes and are dropped by the next recompute.
const SagaLeaseTTL = 5 * time.Minute

// OutcomeFilter narrows outcome queries. A zero From or To leaves that end
// of the range open.
type OutcomeFilter struct {
	ProfileID  string
	CategoryID string
	From       int64
	To         int64
}

// Recompute reports what RecomputeProfileTotals changed.
type Recompute struct {
	BalanceBefore   money.Cents
	BalanceAfter    money.Cents
	CategoriesFixed int
}

// ProfileStore persists profiles, their members and their running balance.
type ProfileStore interface {
	// CreateProfile persists a profile, its owner membership and the given
	// categories in one transaction. ID and CreatedAt are populated by the
	// store when empty.
	CreateProfile(ctx context.Context, profile *models.Profile, categories ...*models.Category) error

	// GetProfile retrieves a profile with its members.
	GetProfile(ctx context.Context, profileID string) (*models.Profile, error)

	// ListProfilesByMember returns every profile userID belongs to.
	ListProfilesByMember(ctx context.Context, userID string) ([]*models.Profile, error)

	// AddProfileMember adds userID to the profile. Adding an existing
	// member is a no-op.
	AddProfileMember(ctx context.Context, profileID, userID string) error

	// IncrementBalance atomically adds delta to the profile balance and
	// returns the new balance.
	IncrementBalance(ctx context.Context, profileID string, delta money.Cents) (money.Cents, error)

	// RecomputeProfileTotals rewrites the balance and every category's
	// spent total from the live income and outcome rows, in one transaction.
	// It returns ErrBusy without writing while the profile holds a saga
	// lease younger than SagaLeaseTTL. The lease check and the rewrite run
	// under the same lock, so no saga can start in between.
	RecomputeProfileTotals(ctx context.Context, profileID string) (*Recompute, error)
}

// SagaStore tracks the multi-step transactions in flight on each profile.
type SagaStore interface {
	// BeginSaga takes a lease on the profile and returns its ID. It waits
	// for a running recompute of the same profile to commit.
	BeginSaga(ctx context.Context, profileID string) (string, error)

	// EndSaga releases a lease. Releasing a missing lease is a no-op.
	EndSaga(ctx context.Context, leaseID string) error
}

// CategoryStore persists categories and their running spent total.
type CategoryStore interface {
	// CreateCategory persists a category. Returns ErrDuplicate when the
	// profile already has a category with the same case-insensitive name.
	CreateCategory(ctx context.Context, category *models.Category) error

	// CreateColoredCategory advances the profile's color counter, sets the
	// category's color to colorOf(counter) and inserts it, in one
	// transaction. A rejected insert leaves the counter unchanged.
	CreateColoredCategory(ctx context.Context, category *models.Category, colorOf func(seq int64) string) error

	GetCategory(ctx context.Context, categoryID string) (*models.Category, error)

	// GetCategoryByName looks a category up by case-insensitive name.
	GetCategoryByName(ctx context.Context, profileID, name string) (*models.Category, error)

	ListCategories(ctx context.Context, profileID string) ([]*models.Category, error)

	// DeleteCategory removes a category that no outcome references.
	// Returns ErrInUse otherwise.
	DeleteCategory(ctx context.Context, categoryID string) error

	// IncrementSpent atomically adds delta to spent and returns the new value.
	IncrementSpent(ctx context.Context, categoryID string, delta money.Cents) (money.Cents, error)

	// IncrementSpentWithinLimit atomically adds delta to spent only if the
	// category has no limit or spent+delta stays within it. Returns
	// ErrPredicateFailed otherwise.
	IncrementSpentWithinLimit(ctx context.Context, categoryID string, delta money.Cents) (money.Cents, error)
}

// TransactionStore persists incomes and outcomes.
type TransactionStore interface {
	// CreateIncome persists an income. A preset ID and CreatedAt are kept,
	// which lets a compensation restore a deleted row verbatim.
	CreateIncome(ctx context.Context, income *models.Income) error
	GetIncome(ctx context.Context, incomeID string) (*models.Income, error)
	// DeleteIncome returns ErrNotFound when the row is already gone.
	DeleteIncome(ctx context.Context, incomeID string) error
	ListIncomes(ctx context.Context, profileID string) ([]*models.Income, error)

	// CreateOutcome persists an outcome with its participants.
	CreateOutcome(ctx context.Context, outcome *models.Outcome) error
	GetOutcome(ctx context.Context, outcomeID string) (*models.Outcome, error)
	// DeleteOutcome returns ErrNotFound when the row is already gone.
	DeleteOutcome(ctx context.Context, outcomeID string) error
	ListOutcomes(ctx context.Context, filter OutcomeFilter) ([]*models.Outcome, error)
}

// DebtStore persists debts.
type DebtStore interface {
	ListDebts(ctx context.Context, filter models.DebtFilter) ([]*models.Debt, error)

	// ApplyDebtBatch deletes and inserts debts in one transaction. If any
	// row listed in batch.Delete no longer exists, the whole batch is rolled
	// back and ErrConflict is returned.
	ApplyDebtBatch(ctx context.Context, batch models.DebtBatch) error
}

// InconsistencyStore persists markers left by failed compensations.
type InconsistencyStore interface {
	RecordInconsistency(ctx context.Context, marker *models.Inconsistency) error
	ListUnresolvedInconsistencies(ctx context.Context, limit int) ([]*models.Inconsistency, error)
	// ResolveInconsistencies marks the profile's open markers created at or
	// before at as resolved at that time, and returns how many were updated.
	// Markers recorded later stay open for the next pass.
	ResolveInconsistencies(ctx context.Context, profileID string, at int64) (int64, error)
}

// UserStore persists user accounts for the auth module.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns nil, nil when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// Store is the ledger store: every persistence operation the service needs.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// MySQL) without changing the ledger or service layers.
type Store interface {
	ProfileStore
	CategoryStore
	TransactionStore
	DebtStore
	InconsistencyStore
	SagaStore
	UserStore

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
