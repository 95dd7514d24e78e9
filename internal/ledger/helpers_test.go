package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

var errInjected = errors.Join(storage.ErrUnavailable, errors.New("injected failure"))

// faultyStore wraps a real store and fails selected calls on demand.
type faultyStore struct {
	storage.Store

	mu     sync.Mutex
	faults map[string][]error

	// phantomDebts are appended to every ListDebts result.
	phantomDebts []*models.Debt
}

func newFaultyStore(t *testing.T) *faultyStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return &faultyStore{Store: store, faults: make(map[string][]error)}
}

// failNext queues results for the next calls of method. A nil entry lets
// that call through.
func (f *faultyStore) failNext(method string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[method] = append(f.faults[method], errs...)
}

func (f *faultyStore) fault(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	queue := f.faults[method]
	if len(queue) == 0 {
		return nil
	}
	f.faults[method] = queue[1:]
	return queue[0]
}

func (f *faultyStore) IncrementBalance(ctx context.Context, profileID string, delta money.Cents) (money.Cents, error) {
	if err := f.fault("IncrementBalance"); err != nil {
		return 0, err
	}
	return f.Store.IncrementBalance(ctx, profileID, delta)
}

func (f *faultyStore) IncrementSpent(ctx context.Context, categoryID string, delta money.Cents) (money.Cents, error) {
	if err := f.fault("IncrementSpent"); err != nil {
		return 0, err
	}
	return f.Store.IncrementSpent(ctx, categoryID, delta)
}

func (f *faultyStore) CreateIncome(ctx context.Context, income *models.Income) error {
	if err := f.fault("CreateIncome"); err != nil {
		return err
	}
	return f.Store.CreateIncome(ctx, income)
}

func (f *faultyStore) DeleteIncome(ctx context.Context, incomeID string) error {
	if err := f.fault("DeleteIncome"); err != nil {
		return err
	}
	return f.Store.DeleteIncome(ctx, incomeID)
}

func (f *faultyStore) CreateOutcome(ctx context.Context, outcome *models.Outcome) error {
	if err := f.fault("CreateOutcome"); err != nil {
		return err
	}
	return f.Store.CreateOutcome(ctx, outcome)
}

func (f *faultyStore) DeleteOutcome(ctx context.Context, outcomeID string) error {
	if err := f.fault("DeleteOutcome"); err != nil {
		return err
	}
	return f.Store.DeleteOutcome(ctx, outcomeID)
}

func (f *faultyStore) ApplyDebtBatch(ctx context.Context, batch models.DebtBatch) error {
	if err := f.fault("ApplyDebtBatch"); err != nil {
		return err
	}
	return f.Store.ApplyDebtBatch(ctx, batch)
}

func (f *faultyStore) ListDebts(ctx context.Context, filter models.DebtFilter) ([]*models.Debt, error) {
	debts, err := f.Store.ListDebts(ctx, filter)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.phantomDebts {
		if filter.Matches(d) {
			debts = append(debts, d)
		}
	}
	return debts, nil
}

// recordingPublisher collects published markers.
type recordingPublisher struct {
	mu      sync.Mutex
	markers []*models.Inconsistency
}

func (p *recordingPublisher) PublishInconsistency(_ context.Context, marker *models.Inconsistency) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markers = append(p.markers, marker)
	return nil
}

type fixture struct {
	store     *faultyStore
	ledger    *Ledger
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFaultyStore(t)
	publisher := &recordingPublisher{}
	return &fixture{
		store:     store,
		ledger:    New(store, WithPublisher(publisher)),
		publisher: publisher,
	}
}

// profile creates a profile owned by alice. Shared profiles get bob and carol.
func (f *fixture) profile(t *testing.T, shared bool) *models.Profile {
	t.Helper()
	var members []string
	if shared {
		members = []string{"bob", "carol"}
	}
	profile, err := f.ledger.CreateProfile(context.Background(), "alice", "Flat", shared, members)
	require.NoError(t, err)
	return profile
}

func (f *fixture) category(t *testing.T, profileID, name string, limit money.Cents) *models.Category {
	t.Helper()
	category, err := f.ledger.CreateCategory(context.Background(), "alice", profileID, name, limit)
	require.NoError(t, err)
	return category
}

func (f *fixture) balance(t *testing.T, profileID string) money.Cents {
	t.Helper()
	profile, err := f.store.GetProfile(context.Background(), profileID)
	require.NoError(t, err)
	return profile.Balance
}

func (f *fixture) spent(t *testing.T, categoryID string) money.Cents {
	t.Helper()
	category, err := f.store.GetCategory(context.Background(), categoryID)
	require.NoError(t, err)
	return category.Spent
}

// requireConsistent checks balance == Σ incomes − Σ outcomes and every
// category's spent == Σ of its live outcomes.
func (f *fixture) requireConsistent(t *testing.T, profileID string) {
	t.Helper()
	ctx := context.Background()

	incomes, err := f.store.ListIncomes(ctx, profileID)
	require.NoError(t, err)
	outcomes, err := f.store.ListOutcomes(ctx, storage.OutcomeFilter{ProfileID: profileID})
	require.NoError(t, err)

	var want money.Cents
	perCategory := make(map[string]money.Cents)
	for _, i := range incomes {
		want += i.Amount
	}
	for _, o := range outcomes {
		want -= o.Amount
		perCategory[o.CategoryID] += o.Amount
	}
	require.Equal(t, want, f.balance(t, profileID), "balance drifted from Σ incomes − Σ outcomes")

	categories, err := f.store.ListCategories(ctx, profileID)
	require.NoError(t, err)
	for _, c := range categories {
		require.Equal(t, perCategory[c.ID], c.Spent, "spent of category %s drifted", c.Name)
	}
}

func (f *fixture) debts(t *testing.T, profileID string) []*models.Debt {
	t.Helper()
	debts, err := f.store.Store.ListDebts(context.Background(), models.DebtFilter{ProfileID: profileID})
	require.NoError(t, err)
	return debts
}
