package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/pkg/api"
)

// LedgerService implements the Connect LedgerService: incomes, outcomes,
// balances and debts. Every call acts on behalf of the authenticated user,
// who must be a member of the profile involved.
type LedgerService struct {
	ledger *ledger.Ledger
}

// NewLedgerService creates a LedgerService on top of the ledger.
func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

// RecordIncome credits an income to a profile.
func (s *LedgerService) RecordIncome(ctx context.Context, req *connect.Request[api.RecordIncomeRequest]) (*connect.Response[api.RecordIncomeResponse], error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "RecordIncome request received",
		"profile_id", req.Msg.ProfileID,
		"user_id", actor,
	)

	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, connectError(err)
	}
	income, err := s.ledger.RecordIncome(ctx, ledger.IncomeInput{
		ProfileID:   req.Msg.ProfileID,
		Amount:      amount,
		Description: req.Msg.Description,
		Actor:       actor,
		CreatedAt:   api.UnixOf(req.Msg.CreatedAt),
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.RecordIncomeResponse{Income: toAPIIncome(income)}), nil
}

// RecordOutcome debits an outcome from a profile, enforcing the category
// limit and splitting it into debts in shared profiles.
func (s *LedgerService) RecordOutcome(ctx context.Context, req *connect.Request[api.RecordOutcomeRequest]) (*connect.Response[api.RecordOutcomeResponse], error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "RecordOutcome request received",
		"profile_id", req.Msg.ProfileID,
		"category_id", req.Msg.CategoryID,
		"user_id", actor,
		"participants_count", len(req.Msg.Participants),
	)

	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, connectError(err)
	}
	outcome, err := s.ledger.RecordOutcome(ctx, ledger.OutcomeInput{
		ProfileID:    req.Msg.ProfileID,
		CategoryID:   req.Msg.CategoryID,
		Amount:       amount,
		Description:  req.Msg.Description,
		PaidBy:       req.Msg.PaidBy,
		Participants: req.Msg.Participants,
		Actor:        actor,
		CreatedAt:    api.UnixOf(req.Msg.CreatedAt),
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.RecordOutcomeResponse{Outcome: toAPIOutcome(outcome)}), nil
}

// DeleteIncome removes an income and debits the balance.
func (s *LedgerService) DeleteIncome(ctx context.Context, req *connect.Request[api.DeleteIncomeRequest]) (*connect.Response[api.DeleteIncomeResponse], error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteIncome(ctx, actor, req.Msg.IncomeID); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.DeleteIncomeResponse{}), nil
}

// DeleteOutcome removes an outcome, restores the balance and category spend
// and reverses its debts.
func (s *LedgerService) DeleteOutcome(ctx context.Context, req *connect.Request[api.DeleteOutcomeRequest]) (*connect.Response[api.DeleteOutcomeResponse], error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteOutcome(ctx, actor, req.Msg.OutcomeID); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.DeleteOutcomeResponse{}), nil
}

// GetBalance returns the profile balance.
func (s *LedgerService) GetBalance(ctx context.Context, req *connect.Request[api.GetBalanceRequest]) (*connect.Response[api.GetBalanceResponse], error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.GetBalance(ctx, actor, req.Msg.ProfileID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.GetBalanceResponse{Balance: balance.String()}), nil
}

// GetCategorySummary returns how much was spent in each category.
func (s *LedgerService) GetCategorySummary(ctx context.Context, req *connect.Request[api.GetCategorySummaryRequest]) (*connect.Response[api.GetCategorySummaryResponse], error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	spent, err := s.ledger.GetCategorySummary(ctx, actor, req.Msg.ProfileID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.GetCategorySummaryResponse{Spent: toAPIAmounts(spent)}), nil
}

// GetDebtSummary returns a member's debts in both directions.
func (s *LedgerService) GetDebtSummary(ctx context.Context, req *connect.Request[api.GetDebtSummaryRequest]) (*connect.Response[api.GetDebtSummaryResponse], error) {
	user, err := s.memberOrCaller(ctx, req.Msg.ProfileID, req.Msg.UserID)
	if err != nil {
		return nil, err
	}

	summary, err := s.ledger.Debts.Summary(ctx, user, req.Msg.ProfileID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.GetDebtSummaryResponse{
		ToUser:   toAPIDebts(summary.ToUser),
		FromUser: toAPIDebts(summary.FromUser),
		NetTotal: summary.NetTotal.String(),
		ByMember: toAPIAmounts(summary.ByMember),
	}), nil
}

// GetNetDebt returns what UserA owes UserB net within the optional range.
func (s *LedgerService) GetNetDebt(ctx context.Context, req *connect.Request[api.GetNetDebtRequest]) (*connect.Response[api.GetNetDebtResponse], error) {
	if req.Msg.UserA == "" || req.Msg.UserB == "" {
		return nil, invalidArgument("both users are required")
	}
	if _, err := s.memberOrCaller(ctx, req.Msg.ProfileID, ""); err != nil {
		return nil, err
	}

	net, err := s.ledger.Debts.GetNetDebt(ctx, req.Msg.UserA, req.Msg.UserB, req.Msg.ProfileID, ledger.Range{
		From: api.UnixOf(req.Msg.From),
		To:   api.UnixOf(req.Msg.To),
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.GetNetDebtResponse{Amount: net.String()}), nil
}

// GetTotalToPay returns a member's own share of the profile's outcomes in
// the optional range.
func (s *LedgerService) GetTotalToPay(ctx context.Context, req *connect.Request[api.GetTotalToPayRequest]) (*connect.Response[api.GetTotalToPayResponse], error) {
	user, err := s.memberOrCaller(ctx, req.Msg.ProfileID, req.Msg.UserID)
	if err != nil {
		return nil, err
	}

	total, err := s.ledger.Debts.GetTotalToPayForUserInDateRange(ctx, user, req.Msg.ProfileID,
		api.UnixOf(req.Msg.From), api.UnixOf(req.Msg.To))
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.GetTotalToPayResponse{Total: total.String()}), nil
}

// Redistribute nets the debts of every pair of members of the profile.
func (s *LedgerService) Redistribute(ctx context.Context, req *connect.Request[api.RedistributeRequest]) (*connect.Response[api.RedistributeResponse], error) {
	actor, err := s.memberOrCaller(ctx, req.Msg.ProfileID, "")
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Redistribute request received", "profile_id", req.Msg.ProfileID, "user_id", actor)

	result, err := s.ledger.Debts.RedistributeDebts(ctx, req.Msg.ProfileID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.RedistributeResponse{
		PairsMerged: result.PairsMerged,
		Deleted:     result.Deleted,
		Inserted:    result.Inserted,
	}), nil
}

// memberOrCaller checks the caller belongs to the profile and returns user,
// or the caller when user is empty. A named user must be a member too.
func (s *LedgerService) memberOrCaller(ctx context.Context, profileID, user string) (string, error) {
	actor, err := caller(ctx)
	if err != nil {
		return "", err
	}
	profile, err := s.ledger.Authorize(ctx, profileID, actor)
	if err != nil {
		return "", connectError(err)
	}
	if user == "" {
		return actor, nil
	}
	if !profile.HasMember(user) {
		return "", invalidArgument("user %s is not a member of profile %s", user, profileID)
	}
	return user, nil
}
