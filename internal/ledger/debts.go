package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// Range is an inclusive window of Unix timestamps. A zero bound is open.
type Range struct {
	From int64
	To   int64
}

// DebtSummary is a user's position in a shared profile.
type DebtSummary struct {
	// ToUser lists debts others owe the user.
	ToUser []*models.Debt
	// FromUser lists debts the user owes others.
	FromUser []*models.Debt
	// NetTotal is Σ ToUser − Σ FromUser. Positive means others owe the user.
	NetTotal money.Cents
	// ByMember is the net position against each counterparty, same sign.
	ByMember map[string]money.Cents
}

// RedistributeResult reports what a redistribution wrote.
type RedistributeResult struct {
	PairsMerged int
	Deleted     int
	Inserted    int
}

// DebtResolver answers debt queries and nets debts between members.
type DebtResolver struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewDebtResolver creates a DebtResolver on top of the given store.
func NewDebtResolver(store storage.Store, m *metrics.Metrics) *DebtResolver {
	return &DebtResolver{store: store, metrics: m}
}

// GetNetDebt returns what userA owes userB net within the range. Positive
// means A owes B; swapping the users flips the sign.
func (r *DebtResolver) GetNetDebt(ctx context.Context, userA, userB, profileID string, rng Range) (money.Cents, error) {
	var aOwes, bOwes []*models.Debt
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		aOwes, err = r.store.ListDebts(gctx, models.DebtFilter{
			ProfileID: profileID, DebtorID: userA, PaidByID: userB, From: rng.From, To: rng.To,
		})
		return err
	})
	g.Go(func() error {
		var err error
		bOwes, err = r.store.ListDebts(gctx, models.DebtFilter{
			ProfileID: profileID, DebtorID: userB, PaidByID: userA, From: rng.From, To: rng.To,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("get net debt: %w", err)
	}
	return sumDebts(aOwes) - sumDebts(bOwes), nil
}

// GetDebtsToUser returns the outstanding debts owed to user.
func (r *DebtResolver) GetDebtsToUser(ctx context.Context, user, profileID string) ([]*models.Debt, error) {
	debts, err := r.store.ListDebts(ctx, models.DebtFilter{ProfileID: profileID, PaidByID: user})
	if err != nil {
		return nil, fmt.Errorf("get debts to user: %w", err)
	}
	return debts, nil
}

// GetDebtsFromUser returns the outstanding debts user owes.
func (r *DebtResolver) GetDebtsFromUser(ctx context.Context, user, profileID string) ([]*models.Debt, error) {
	debts, err := r.store.ListDebts(ctx, models.DebtFilter{ProfileID: profileID, DebtorID: user})
	if err != nil {
		return nil, fmt.Errorf("get debts from user: %w", err)
	}
	return debts, nil
}

// GetTotalToPayForUserInDateRange returns the user's own share of every
// outcome of the profile created in [start, end]: the payer share or debtor
// share of split outcomes, and the full amount of unsplit outcomes the
// user paid.
func (r *DebtResolver) GetTotalToPayForUserInDateRange(ctx context.Context, user, profileID string, start, end int64) (money.Cents, error) {
	if start != 0 && end != 0 && end < start {
		return 0, validationf("range end %d is before start %d", end, start)
	}

	profile, err := r.store.GetProfile(ctx, profileID)
	if err != nil {
		return 0, err
	}
	outcomes, err := r.store.ListOutcomes(ctx, storage.OutcomeFilter{ProfileID: profileID, From: start, To: end})
	if err != nil {
		return 0, fmt.Errorf("get total to pay: %w", err)
	}

	var total money.Cents
	for _, o := range outcomes {
		split := calculator.SplitOutcome(o.Amount, o.PaidBy, o.Participants, profile.Shared)
		total += split.ShareOf(user, o.PaidBy)
	}
	return total, nil
}

// Summary returns the user's debts in both directions and the net total.
func (r *DebtResolver) Summary(ctx context.Context, user, profileID string) (*DebtSummary, error) {
	summary := &DebtSummary{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary.ToUser, err = r.GetDebtsToUser(gctx, user, profileID)
		return err
	})
	g.Go(func() error {
		var err error
		summary.FromUser, err = r.GetDebtsFromUser(gctx, user, profileID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.NetTotal = sumDebts(summary.ToUser) - sumDebts(summary.FromUser)
	edges := toEdges(summary.ToUser)
	edges = append(edges, toEdges(summary.FromUser)...)
	summary.ByMember = calculator.NetWith(edges, user)
	return summary, nil
}

// RedistributeDebts nets the debts of every pair of members into at most
// one debt. The snapshot is written back as one batch; if a concurrent
// writer removed any snapshot row the batch fails with ErrConflict and
// nothing changes.
func (r *DebtResolver) RedistributeDebts(ctx context.Context, profileID string) (*RedistributeResult, error) {
	result, err := r.redistribute(ctx, profileID)
	r.metrics.Redistribution(err)
	return result, err
}

func (r *DebtResolver) redistribute(ctx context.Context, profileID string) (*RedistributeResult, error) {
	profile, err := r.store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !profile.Shared {
		return &RedistributeResult{}, nil
	}

	snapshot, err := r.store.ListDebts(ctx, models.DebtFilter{ProfileID: profileID})
	if err != nil {
		return nil, fmt.Errorf("redistribute: %w", err)
	}

	plan := calculator.Redistribute(toEdges(snapshot))
	result := &RedistributeResult{
		PairsMerged: plan.PairsMerged,
		Deleted:     len(plan.Delete),
		Inserted:    len(plan.Insert),
	}
	if plan.Empty() {
		return result, nil
	}

	batch := models.DebtBatch{Delete: plan.Delete}
	for _, e := range plan.Insert {
		batch.Insert = append(batch.Insert, &models.Debt{
			ProfileID: profileID,
			DebtorID:  e.From,
			PaidByID:  e.To,
			Amount:    e.Amount,
			CreatedAt: e.CreatedAt,
		})
	}
	if err := r.store.ApplyDebtBatch(ctx, batch); err != nil {
		if errors.Is(err, ErrConflict) {
			slog.WarnContext(ctx, "Redistribution snapshot went stale", "profile_id", profileID, "error", err)
		}
		return nil, fmt.Errorf("redistribute: %w", err)
	}

	slog.InfoContext(ctx, "Debts redistributed",
		"profile_id", profileID,
		"pairs_merged", result.PairsMerged,
		"deleted", result.Deleted,
		"inserted", result.Inserted,
	)
	return result, nil
}

func sumDebts(debts []*models.Debt) money.Cents {
	var total money.Cents
	for _, d := range debts {
		total += d.Amount
	}
	return total
}

func toEdges(debts []*models.Debt) []calculator.DebtEdge {
	edges := make([]calculator.DebtEdge, len(debts))
	for i, d := range debts {
		edges[i] = calculator.DebtEdge{
			ID:        d.ID,
			From:      d.DebtorID,
			To:        d.PaidByID,
			Amount:    d.Amount,
			CreatedAt: d.CreatedAt,
		}
	}
	return edges
}
