package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// Operation names, used in logs, metrics and inconsistency markers.
const (
	OpRecordIncome  = "RecordIncome"
	OpRecordOutcome = "RecordOutcome"
	OpDeleteIncome  = "DeleteIncome"
	OpDeleteOutcome = "DeleteOutcome"
)

// maxBatchAttempts bounds the retries of a debt batch that lost a race
// with a concurrent redistribution.
const maxBatchAttempts = 3

// IncomeInput describes an income to record. When Actor is set it must be
// a member of the profile.
type IncomeInput struct {
	ProfileID   string
	Amount      money.Cents
	Description string
	Actor       string
	CreatedAt   int64
}

// OutcomeInput describes an outcome to record. An empty CategoryID files
// the outcome under the profile's default category. PaidBy defaults to
// Actor.
type OutcomeInput struct {
	ProfileID    string
	CategoryID   string
	Amount       money.Cents
	Description  string
	PaidBy       string
	Participants []string
	Actor        string
	CreatedAt    int64
}

// RecordIncome inserts the income and credits the profile balance.
func (l *Ledger) RecordIncome(ctx context.Context, in IncomeInput) (income *models.Income, err error) {
	defer func() { l.observe(ctx, OpRecordIncome, err) }()

	if in.Amount <= 0 {
		return nil, validationf("amount must be positive, got %s", in.Amount)
	}
	if err := l.checkProfile(ctx, in.ProfileID, in.Actor); err != nil {
		return nil, err
	}

	income = &models.Income{
		ID:          uuid.New().String(),
		ProfileID:   in.ProfileID,
		Amount:      in.Amount,
		Description: in.Description,
		CreatedAt:   timestampOr(in.CreatedAt),
	}

	s, err := l.beginSaga(ctx, OpRecordIncome, income.ProfileID)
	if err != nil {
		return nil, err
	}
	defer s.end(ctx)
	s.entityID = income.ID

	err = s.do(ctx, "insert income",
		func(ctx context.Context) error { return l.store.CreateIncome(ctx, income) },
		func(ctx context.Context) error { return l.store.DeleteIncome(ctx, income.ID) },
	)
	if err != nil {
		return nil, err
	}
	err = s.do(ctx, "credit balance",
		func(ctx context.Context) error {
			_, err := l.Balances.AdjustBalance(ctx, income.ProfileID, income.Amount)
			return err
		},
		nil,
	)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Income recorded",
		"profile_id", income.ProfileID,
		"income_id", income.ID,
		"amount", income.Amount.String(),
	)
	return income, nil
}

// RecordOutcome reserves the amount in the category, inserts the outcome,
// debits the profile balance and, for split outcomes of shared profiles,
// records the debts of every participant towards the payer.
//
// The full amount is debited from the profile balance and counted in the
// category once, whoever paid. Debts only track who owes whom.
func (l *Ledger) RecordOutcome(ctx context.Context, in OutcomeInput) (outcome *models.Outcome, err error) {
	defer func() { l.observe(ctx, OpRecordOutcome, err) }()

	outcome, profile, err := l.validateOutcome(ctx, in)
	if err != nil {
		return nil, err
	}
	split := calculator.SplitOutcome(outcome.Amount, outcome.PaidBy, outcome.Participants, profile.Shared)

	s, err := l.beginSaga(ctx, OpRecordOutcome, outcome.ProfileID)
	if err != nil {
		return nil, err
	}
	defer s.end(ctx)
	s.entityID = outcome.ID

	err = s.do(ctx, "reserve category spend",
		func(ctx context.Context) error {
			_, err := l.Spend.Reserve(ctx, outcome.CategoryID, outcome.Amount)
			return err
		},
		func(ctx context.Context) error {
			_, err := l.Spend.ApplySpendDelta(ctx, outcome.CategoryID, -outcome.Amount)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	err = s.do(ctx, "insert outcome",
		func(ctx context.Context) error { return l.store.CreateOutcome(ctx, outcome) },
		func(ctx context.Context) error { return l.store.DeleteOutcome(ctx, outcome.ID) },
	)
	if err != nil {
		return nil, err
	}

	var debts []*models.Debt
	for _, share := range split.Debts {
		debts = append(debts, &models.Debt{
			ID:        uuid.New().String(),
			ProfileID: outcome.ProfileID,
			OutcomeID: outcome.ID,
			DebtorID:  share.DebtorID,
			PaidByID:  outcome.PaidBy,
			Amount:    share.Amount,
			CreatedAt: outcome.CreatedAt,
		})
	}

	var undoDebit func(ctx context.Context) error
	if len(debts) > 0 {
		undoDebit = func(ctx context.Context) error {
			_, err := l.Balances.AdjustBalance(ctx, outcome.ProfileID, outcome.Amount)
			return err
		}
	}
	err = s.do(ctx, "debit balance",
		func(ctx context.Context) error {
			_, err := l.Balances.AdjustBalance(ctx, outcome.ProfileID, -outcome.Amount)
			return err
		},
		undoDebit,
	)
	if err != nil {
		return nil, err
	}

	if len(debts) > 0 {
		err = s.do(ctx, "insert debts",
			func(ctx context.Context) error {
				return l.store.ApplyDebtBatch(ctx, models.DebtBatch{Insert: debts})
			},
			nil,
		)
		if err != nil {
			return nil, err
		}
	}

	slog.InfoContext(ctx, "Outcome recorded",
		"profile_id", outcome.ProfileID,
		"outcome_id", outcome.ID,
		"category_id", outcome.CategoryID,
		"amount", outcome.Amount.String(),
		"debts", len(debts),
	)
	return outcome, nil
}

// DeleteIncome removes the income and debits the profile balance. Deleting
// an income that is already gone returns ErrNotFound and changes nothing.
func (l *Ledger) DeleteIncome(ctx context.Context, actor, incomeID string) (err error) {
	defer func() { l.observe(ctx, OpDeleteIncome, err) }()

	income, err := l.store.GetIncome(ctx, incomeID)
	if err != nil {
		return err
	}
	if err := l.checkProfile(ctx, income.ProfileID, actor); err != nil {
		return err
	}

	s, err := l.beginSaga(ctx, OpDeleteIncome, income.ProfileID)
	if err != nil {
		return err
	}
	defer s.end(ctx)
	s.entityID = income.ID

	// The delete is the gate: of two concurrent deletes only one removes
	// the row, so the balance is debited once.
	err = s.do(ctx, "delete income",
		func(ctx context.Context) error { return l.store.DeleteIncome(ctx, income.ID) },
		func(ctx context.Context) error { return l.store.CreateIncome(ctx, income) },
	)
	if err != nil {
		return err
	}
	err = s.do(ctx, "debit balance",
		func(ctx context.Context) error {
			_, err := l.Balances.AdjustBalance(ctx, income.ProfileID, -income.Amount)
			return err
		},
		nil,
	)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Income deleted", "profile_id", income.ProfileID, "income_id", income.ID)
	return nil
}

// DeleteOutcome removes the outcome, credits the balance, releases the
// category spend and reverses the outcome's debts. Deleting an outcome that
// is already gone returns ErrNotFound and changes nothing.
func (l *Ledger) DeleteOutcome(ctx context.Context, actor, outcomeID string) (err error) {
	defer func() { l.observe(ctx, OpDeleteOutcome, err) }()

	outcome, err := l.store.GetOutcome(ctx, outcomeID)
	if err != nil {
		return err
	}
	profile, err := l.store.GetProfile(ctx, outcome.ProfileID)
	if err != nil {
		return err
	}
	if actor != "" && !profile.HasMember(actor) {
		return ErrNotMember
	}
	split := calculator.SplitOutcome(outcome.Amount, outcome.PaidBy, outcome.Participants, profile.Shared)

	s, err := l.beginSaga(ctx, OpDeleteOutcome, outcome.ProfileID)
	if err != nil {
		return err
	}
	defer s.end(ctx)
	s.entityID = outcome.ID

	err = s.do(ctx, "delete outcome",
		func(ctx context.Context) error { return l.store.DeleteOutcome(ctx, outcome.ID) },
		func(ctx context.Context) error { return l.store.CreateOutcome(ctx, outcome) },
	)
	if err != nil {
		return err
	}
	err = s.do(ctx, "credit balance",
		func(ctx context.Context) error {
			_, err := l.Balances.AdjustBalance(ctx, outcome.ProfileID, outcome.Amount)
			return err
		},
		func(ctx context.Context) error {
			_, err := l.Balances.AdjustBalance(ctx, outcome.ProfileID, -outcome.Amount)
			return err
		},
	)
	if err != nil {
		return err
	}

	var undoRelease func(ctx context.Context) error
	if len(split.Debts) > 0 {
		undoRelease = func(ctx context.Context) error {
			_, err := l.Spend.ApplySpendDelta(ctx, outcome.CategoryID, outcome.Amount)
			return err
		}
	}
	err = s.do(ctx, "release category spend",
		func(ctx context.Context) error {
			_, err := l.Spend.ApplySpendDelta(ctx, outcome.CategoryID, -outcome.Amount)
			return err
		},
		undoRelease,
	)
	if err != nil {
		return err
	}

	if len(split.Debts) > 0 {
		err = s.do(ctx, "reverse debts",
			func(ctx context.Context) error { return l.reverseDebts(ctx, outcome, split) },
			nil,
		)
		if err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "Outcome deleted", "profile_id", outcome.ProfileID, "outcome_id", outcome.ID)
	return nil
}

// reverseDebts removes what the outcome's split added to the debt ledger.
// Rows still tagged with the outcome are deleted. A debtor whose rows were
// merged by a redistribution gets a reversing row instead: the payer owes
// them the part of their share that is no longer tagged. Reversing rows
// carry the outcome's date, so a range covering the outcome nets to zero.
func (l *Ledger) reverseDebts(ctx context.Context, outcome *models.Outcome, split calculator.Split) error {
	var err error
	for attempt := 0; attempt < maxBatchAttempts; attempt++ {
		var tagged []*models.Debt
		tagged, err = l.store.ListDebts(ctx, models.DebtFilter{ProfileID: outcome.ProfileID, OutcomeID: outcome.ID})
		if err != nil {
			return err
		}
		err = l.store.ApplyDebtBatch(ctx, reversalBatch(outcome, split, tagged))
		if !errors.Is(err, ErrConflict) {
			return err
		}
		slog.WarnContext(ctx, "Debt reversal raced a redistribution, retrying",
			"outcome_id", outcome.ID,
			"attempt", attempt+1,
		)
	}
	return err
}

func reversalBatch(outcome *models.Outcome, split calculator.Split, tagged []*models.Debt) models.DebtBatch {
	var batch models.DebtBatch
	remaining := make(map[string]money.Cents, len(split.Debts))
	for _, share := range split.Debts {
		remaining[share.DebtorID] = share.Amount
	}
	for _, d := range tagged {
		batch.Delete = append(batch.Delete, d.ID)
		remaining[d.DebtorID] -= d.Amount
	}

	for _, share := range split.Debts {
		amount := remaining[share.DebtorID]
		if amount <= 0 {
			continue
		}
		batch.Insert = append(batch.Insert, &models.Debt{
			ProfileID: outcome.ProfileID,
			DebtorID:  outcome.PaidBy,
			PaidByID:  share.DebtorID,
			Amount:    amount,
			CreatedAt: outcome.CreatedAt,
		})
	}
	return batch
}

// validateOutcome checks the input before any write and builds the outcome.
func (l *Ledger) validateOutcome(ctx context.Context, in OutcomeInput) (*models.Outcome, *models.Profile, error) {
	if in.Amount <= 0 {
		return nil, nil, validationf("amount must be positive, got %s", in.Amount)
	}

	profile, err := l.store.GetProfile(ctx, in.ProfileID)
	if err != nil {
		return nil, nil, err
	}
	if in.Actor != "" && !profile.HasMember(in.Actor) {
		return nil, nil, ErrNotMember
	}

	category, err := l.resolveCategory(ctx, profile, in.CategoryID)
	if err != nil {
		return nil, nil, err
	}

	paidBy := in.PaidBy
	if paidBy == "" {
		paidBy = in.Actor
	}
	participants := uniqueIDs(in.Participants)
	if len(participants) > 0 && paidBy == "" {
		return nil, nil, validationf("participants require a payer")
	}
	if paidBy != "" && !profile.HasMember(paidBy) {
		return nil, nil, validationf("payer %s is not a member of the profile", paidBy)
	}
	for _, p := range participants {
		if !profile.HasMember(p) {
			return nil, nil, validationf("participant %s is not a member of the profile", p)
		}
	}

	return &models.Outcome{
		ID:           uuid.New().String(),
		ProfileID:    profile.ID,
		CategoryID:   category.ID,
		Amount:       in.Amount,
		Description:  in.Description,
		PaidBy:       paidBy,
		Participants: participants,
		CreatedAt:    timestampOr(in.CreatedAt),
	}, profile, nil
}

// resolveCategory returns the named category, or the profile's default
// category when categoryID is empty.
func (l *Ledger) resolveCategory(ctx context.Context, profile *models.Profile, categoryID string) (*models.Category, error) {
	if categoryID == "" {
		category, err := l.store.GetCategoryByName(ctx, profile.ID, models.DefaultCategoryName)
		if errors.Is(err, ErrNotFound) {
			return nil, validationf("no category given and profile %s has no default category", profile.ID)
		}
		return category, err
	}

	category, err := l.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category.ProfileID != profile.ID {
		return nil, validationf("category %s does not belong to profile %s", categoryID, profile.ID)
	}
	return category, nil
}

// checkProfile verifies the profile exists and, when actor is set, that
// actor belongs to it.
func (l *Ledger) checkProfile(ctx context.Context, profileID, actor string) error {
	profile, err := l.store.GetProfile(ctx, profileID)
	if err != nil {
		return err
	}
	if actor != "" && !profile.HasMember(actor) {
		return ErrNotMember
	}
	return nil
}

// observe counts the transaction by result.
func (l *Ledger) observe(ctx context.Context, operation string, err error) {
	var partial *PartialFailure
	switch {
	case err == nil:
		l.metrics.Transaction(operation, metrics.ResultOK)
	case errors.As(err, &partial):
		l.metrics.Transaction(operation, metrics.ResultPartial)
	case errors.Is(err, ErrLimitExceeded):
		l.metrics.LimitRejected()
		l.metrics.Transaction(operation, metrics.ResultRejected)
		slog.InfoContext(ctx, "Outcome rejected by category limit", "error", err)
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.Is(err, ErrNotMember):
		l.metrics.Transaction(operation, metrics.ResultRejected)
	default:
		l.metrics.Transaction(operation, metrics.ResultFailed)
	}
}

func timestampOr(ts int64) int64 {
	if ts != 0 {
		return ts
	}
	return time.Now().Unix()
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
