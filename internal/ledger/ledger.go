// Package ledger implements the money accounting of profiles: running
// balances, category spend limits, shared outcome splits and debts.
//
// Every logical transaction (recording or deleting an income or outcome)
// runs its steps in a fixed order and compensates the committed steps when
// a later one fails. Balances and spent totals only ever change through the
// store's atomic increments, so concurrent writers never lose an update.
//
// A transaction that could not be compensated returns *PartialFailure and
// leaves an inconsistency marker for the reconciler.
package ledger

import (
	"context"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// InconsistencyPublisher announces inconsistency markers to the reconciler.
type InconsistencyPublisher interface {
	PublishInconsistency(ctx context.Context, marker *models.Inconsistency) error
}

// Ledger composes the balance engine, spend tracker and debt resolver into
// the logical transactions exposed to the service layer.
type Ledger struct {
	store     storage.Store
	metrics   *metrics.Metrics
	publisher InconsistencyPublisher
	palette   []string

	Balances *BalanceEngine
	Spend    *SpendTracker
	Debts    *DebtResolver
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMetrics reports transaction outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithPublisher publishes inconsistency markers through p.
func WithPublisher(p InconsistencyPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithPalette overrides the category color rotation.
func WithPalette(colors ...string) Option {
	return func(l *Ledger) {
		if len(colors) > 0 {
			l.palette = colors
		}
	}
}

// New creates a Ledger on top of the given store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, palette: DefaultPalette}
	for _, opt := range opts {
		opt(l)
	}
	l.Balances = NewBalanceEngine(store)
	l.Spend = NewSpendTracker(store)
	l.Debts = NewDebtResolver(store, l.metrics)
	return l
}

// Authorize loads the profile and checks that userID belongs to it.
func (l *Ledger) Authorize(ctx context.Context, profileID, userID string) (*models.Profile, error) {
	profile, err := l.store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !profile.HasMember(userID) {
		return nil, ErrNotMember
	}
	return profile, nil
}
