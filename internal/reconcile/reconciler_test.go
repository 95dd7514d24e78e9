package reconcile

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/amqp"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// driftedProfile creates a profile with one income of 5000 and one outcome
// of 1200, then corrupts both running totals and flags the profile.
func driftedProfile(t *testing.T, store *sqlite.SQLiteStore) (*models.Profile, *models.Category) {
	t.Helper()
	ctx := context.Background()

	profile := &models.Profile{Name: "Flat", OwnerID: "alice", ColorSeq: 1}
	category := &models.Category{Name: models.DefaultCategoryName}
	require.NoError(t, store.CreateProfile(ctx, profile, category))
	require.NoError(t, store.CreateIncome(ctx, &models.Income{ProfileID: profile.ID, Amount: 5000}))
	require.NoError(t, store.CreateOutcome(ctx, &models.Outcome{ProfileID: profile.ID, CategoryID: category.ID, Amount: 1200}))

	_, err := store.IncrementBalance(ctx, profile.ID, 999)
	require.NoError(t, err)
	_, err = store.IncrementSpent(ctx, category.ID, 77)
	require.NoError(t, err)

	require.NoError(t, store.RecordInconsistency(ctx, &models.Inconsistency{
		ProfileID: profile.ID,
		Operation: "RecordOutcome",
		Detail:    "undo failed",
	}))
	return profile, category
}

func requireRepaired(t *testing.T, store *sqlite.SQLiteStore, profile *models.Profile, category *models.Category) {
	t.Helper()
	ctx := context.Background()
	got, err := store.GetProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(3800), got.Balance)
	c, err := store.GetCategory(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(1200), c.Spent)
}

func reconciliations(t *testing.T, m *metrics.Metrics, result string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "splitledger_reconciliations_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == result {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestSweep(t *testing.T) {
	store := newTestStore(t)
	m := metrics.New()
	r := New(store, m, time.Minute, 10)
	ctx := context.Background()

	profile, category := driftedProfile(t, store)
	// A second marker for the same profile is repaired in the same pass.
	require.NoError(t, store.RecordInconsistency(ctx, &models.Inconsistency{ProfileID: profile.ID, Operation: "DeleteIncome"}))

	repaired, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	requireRepaired(t, store, profile, category)

	open, err := store.ListUnresolvedInconsistencies(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, open)
	assert.Equal(t, 1.0, reconciliations(t, m, metrics.ResultOK))

	repaired, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

// failingStore fails RecomputeProfileTotals for one profile.
type failingStore struct {
	Store
	failFor string
}

func (s *failingStore) RecomputeProfileTotals(ctx context.Context, profileID string) (*storage.Recompute, error) {
	if profileID == s.failFor {
		return nil, errors.Join(storage.ErrUnavailable, errors.New("database is locked"))
	}
	return s.Store.RecomputeProfileTotals(ctx, profileID)
}

func TestSweepKeepsGoingPastFailures(t *testing.T) {
	store := newTestStore(t)
	m := metrics.New()
	ctx := context.Background()

	broken, _ := driftedProfile(t, store)
	profile, category := driftedProfile(t, store)

	r := New(&failingStore{Store: store, failFor: broken.ID}, m, time.Minute, 10)
	repaired, err := r.Sweep(ctx)
	require.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Equal(t, 1, repaired)
	requireRepaired(t, store, profile, category)

	open, err := store.ListUnresolvedInconsistencies(ctx, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, broken.ID, open[0].ProfileID)
	assert.Equal(t, 1.0, reconciliations(t, m, "error"))
}

func TestReconcileMissingProfileResolvesMarkers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.RecordInconsistency(ctx, &models.Inconsistency{ProfileID: "gone", Operation: "RecordIncome"}))

	r := New(store, nil, time.Minute, 10)
	require.NoError(t, r.ReconcileProfile(ctx, "gone"))

	open, err := store.ListUnresolvedInconsistencies(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSweepDefersBusyProfile(t *testing.T) {
	store := newTestStore(t)
	m := metrics.New()
	r := New(store, m, time.Minute, 10)
	ctx := context.Background()

	profile, category := driftedProfile(t, store)
	leaseID, err := store.BeginSaga(ctx, profile.ID)
	require.NoError(t, err)

	repaired, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
	assert.Equal(t, 1.0, reconciliations(t, m, metrics.ResultDeferred))

	got, err := store.GetProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(999), got.Balance, "a busy profile must not be rewritten")
	open, err := store.ListUnresolvedInconsistencies(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	require.NoError(t, store.EndSaga(ctx, leaseID))
	repaired, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	requireRepaired(t, store, profile, category)
}

func TestHandleMessageRetriesBusyProfile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	profile, category := driftedProfile(t, store)

	r := New(store, nil, time.Hour, 10)
	r.busyBackoff = time.Millisecond

	t.Run("released while retrying", func(t *testing.T) {
		leaseID, err := store.BeginSaga(ctx, profile.ID)
		require.NoError(t, err)
		released := make(chan struct{})
		go func() {
			defer close(released)
			time.Sleep(2 * time.Millisecond)
			assert.NoError(t, store.EndSaga(ctx, leaseID))
		}()
		r.busyBackoff = 50 * time.Millisecond

		require.NoError(t, r.HandleMessage(ctx, &amqp.InconsistencyMessage{ProfileID: profile.ID}))
		<-released
		requireRepaired(t, store, profile, category)
	})

	t.Run("still busy", func(t *testing.T) {
		r.busyBackoff = time.Millisecond
		_, err := store.IncrementBalance(ctx, profile.ID, 5)
		require.NoError(t, err)
		require.NoError(t, store.RecordInconsistency(ctx, &models.Inconsistency{ProfileID: profile.ID, Operation: "RecordIncome"}))
		leaseID, err := store.BeginSaga(ctx, profile.ID)
		require.NoError(t, err)
		defer store.EndSaga(ctx, leaseID)

		require.NoError(t, r.HandleMessage(ctx, &amqp.InconsistencyMessage{ProfileID: profile.ID}))
		open, err := store.ListUnresolvedInconsistencies(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, open, 1, "the marker is left for the sweep")
	})
}

// fakeConsumer delivers queued messages, then waits for cancellation.
type fakeConsumer struct {
	messages []*amqp.InconsistencyMessage

	mu   sync.Mutex
	errs []error
	done chan struct{}
}

func (c *fakeConsumer) ConsumeInconsistencies(ctx context.Context, handler func(context.Context, *amqp.InconsistencyMessage) error) error {
	for _, msg := range c.messages {
		err := handler(ctx, msg)
		c.mu.Lock()
		c.errs = append(c.errs, err)
		c.mu.Unlock()
	}
	close(c.done)
	<-ctx.Done()
	return ctx.Err()
}

func TestRunHandlesEvents(t *testing.T) {
	store := newTestStore(t)
	profile, category := driftedProfile(t, store)

	consumer := &fakeConsumer{
		messages: []*amqp.InconsistencyMessage{{ProfileID: profile.ID, Operation: "RecordOutcome"}},
		done:     make(chan struct{}),
	}
	// A long interval leaves the event as the only trigger after the first sweep.
	r := New(store, nil, time.Hour, 10)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx, consumer) }()

	select {
	case <-consumer.done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not deliver its messages")
	}
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	require.Equal(t, []error{nil}, consumer.errs)
	requireRepaired(t, store, profile, category)
}

type brokenConsumer struct{}

func (brokenConsumer) ConsumeInconsistencies(context.Context, func(context.Context, *amqp.InconsistencyMessage) error) error {
	return errors.New("start consuming: channel closed")
}

func TestRunStopsWhenConsumerFails(t *testing.T) {
	r := New(newTestStore(t), nil, time.Hour, 10)
	err := r.Run(context.Background(), brokenConsumer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start consuming")
}
