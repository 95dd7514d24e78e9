// Package reconcile repairs profiles whose totals were left inconsistent by
// a failed compensation.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/amqp"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
)

// Store is the part of the ledger store the reconciler needs.
type Store interface {
	storage.InconsistencyStore
	RecomputeProfileTotals(ctx context.Context, profileID string) (*storage.Recompute, error)
}

// Consumer delivers inconsistency events. *amqp.Client implements it.
type Consumer interface {
	ConsumeInconsistencies(ctx context.Context, handler func(context.Context, *amqp.InconsistencyMessage) error) error
}

// busyRetries bounds how often an event retries a profile that has
// transactions in flight before leaving it to the sweep.
const busyRetries = 3

// Reconciler recomputes flagged profiles from their live rows and closes
// their markers. It reacts to events and also sweeps on an interval, so
// markers whose event was lost are still repaired. A profile with
// transactions in flight is skipped and its markers stay open.
type Reconciler struct {
	store       Store
	metrics     *metrics.Metrics
	interval    time.Duration
	batchSize   int
	busyBackoff time.Duration
	now         func() time.Time
}

// New creates a reconciler sweeping every interval, at most batchSize
// markers per sweep.
func New(store Store, m *metrics.Metrics, interval time.Duration, batchSize int) *Reconciler {
	if batchSize < 1 {
		batchSize = 50
	}
	return &Reconciler{
		store:       store,
		metrics:     m,
		interval:    interval,
		batchSize:   batchSize,
		busyBackoff: 500 * time.Millisecond,
		now:         time.Now,
	}
}

// ReconcileProfile rewrites the profile's balance and category totals and
// resolves the markers recorded before the repair started. It returns an
// error wrapping storage.ErrBusy, and changes nothing, while the profile
// has transactions in flight.
func (r *Reconciler) ReconcileProfile(ctx context.Context, profileID string) (err error) {
	defer func() {
		if errors.Is(err, storage.ErrBusy) {
			r.metrics.ReconciliationDeferred()
			return
		}
		r.metrics.Reconciliation(err)
	}()

	started := r.now().Unix()
	result, err := r.store.RecomputeProfileTotals(ctx, profileID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		slog.WarnContext(ctx, "Flagged profile no longer exists", "profile_id", profileID)
	case errors.Is(err, storage.ErrBusy):
		slog.InfoContext(ctx, "Profile has transactions in flight, deferring", "profile_id", profileID)
		return fmt.Errorf("recompute profile %s: %w", profileID, err)
	case err != nil:
		return fmt.Errorf("recompute profile %s: %w", profileID, err)
	}

	resolved, err := r.store.ResolveInconsistencies(ctx, profileID, started)
	if err != nil {
		return fmt.Errorf("resolve markers of profile %s: %w", profileID, err)
	}

	if result != nil {
		slog.InfoContext(ctx, "Profile reconciled",
			"profile_id", profileID,
			"balance_before", result.BalanceBefore,
			"balance_after", result.BalanceAfter,
			"categories_fixed", result.CategoriesFixed,
			"markers_resolved", resolved,
		)
	}
	return nil
}

// HandleMessage reconciles the profile named by an event. A profile that
// stays busy is left to the sweep; its markers are still open.
func (r *Reconciler) HandleMessage(ctx context.Context, msg *amqp.InconsistencyMessage) error {
	slog.InfoContext(ctx, "Processing inconsistency message",
		"marker_id", msg.MarkerID,
		"profile_id", msg.ProfileID,
		"operation", msg.Operation)

	for attempt := 0; ; attempt++ {
		err := r.ReconcileProfile(ctx, msg.ProfileID)
		if !errors.Is(err, storage.ErrBusy) {
			return err
		}
		if attempt == busyRetries {
			slog.InfoContext(ctx, "Profile still busy, leaving it to the sweep", "profile_id", msg.ProfileID)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.busyBackoff):
		}
	}
}

// Sweep reconciles every profile with open markers, oldest first, and
// returns how many profiles it repaired. A failing profile does not stop
// the others. Busy profiles are skipped without error.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	markers, err := r.store.ListUnresolvedInconsistencies(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list open markers: %w", err)
	}

	seen := make(map[string]bool)
	var errs []error
	repaired, deferred := 0, 0
	for _, m := range markers {
		if seen[m.ProfileID] {
			continue
		}
		seen[m.ProfileID] = true
		err := r.ReconcileProfile(ctx, m.ProfileID)
		switch {
		case errors.Is(err, storage.ErrBusy):
			deferred++
		case err != nil:
			errs = append(errs, err)
		default:
			repaired++
		}
	}

	if repaired > 0 || deferred > 0 || len(errs) > 0 {
		slog.InfoContext(ctx, "Sweep finished",
			"profiles_repaired", repaired,
			"profiles_deferred", deferred,
			"failures", len(errs))
	}
	return repaired, errors.Join(errs...)
}

// Run sweeps once, then keeps sweeping on the interval and, when consumer
// is not nil, handles events as they arrive. It returns when ctx is done
// or the consumer fails.
func (r *Reconciler) Run(ctx context.Context, consumer Consumer) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "Periodic sweep failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeInconsistencies(ctx, r.HandleMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}
