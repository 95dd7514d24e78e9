package service

import (
	"fmt"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/pkg/api"
)

// parseAmount reads a strictly positive decimal amount.
func parseAmount(field, s string) (money.Cents, error) {
	c, err := money.ParsePositive(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ledger.ErrValidation, field, err)
	}
	return c, nil
}

// parseLimit reads an optional category limit. Empty means no limit.
func parseLimit(s string) (money.Cents, error) {
	if s == "" {
		return 0, nil
	}
	c, err := money.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%w: limit: %w", ledger.ErrValidation, err)
	}
	return c, nil
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   api.NewTime(u.CreatedAt),
	}
}

// toAPIProfile converts p, naming members from users when known.
func toAPIProfile(p *models.Profile, users map[string]*models.User) *api.Profile {
	members := make([]*api.Member, 0, len(p.Members))
	for _, id := range p.Members {
		m := &api.Member{UserID: id}
		if u, ok := users[id]; ok {
			m.DisplayName = u.DisplayName
		}
		members = append(members, m)
	}
	return &api.Profile{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		Shared:    p.Shared,
		Balance:   p.Balance.String(),
		Members:   members,
		CreatedAt: api.NewTime(p.CreatedAt),
	}
}

func toAPICategory(c *models.Category) *api.Category {
	return &api.Category{
		ID:        c.ID,
		ProfileID: c.ProfileID,
		Name:      c.Name,
		Color:     c.Color,
		Limit:     c.Limit.String(),
		Spent:     c.Spent.String(),
		CreatedAt: api.NewTime(c.CreatedAt),
	}
}

func toAPIIncome(i *models.Income) *api.Income {
	return &api.Income{
		ID:          i.ID,
		ProfileID:   i.ProfileID,
		Amount:      i.Amount.String(),
		Description: i.Description,
		CreatedAt:   api.NewTime(i.CreatedAt),
	}
}

func toAPIOutcome(o *models.Outcome) *api.Outcome {
	return &api.Outcome{
		ID:           o.ID,
		ProfileID:    o.ProfileID,
		CategoryID:   o.CategoryID,
		Amount:       o.Amount.String(),
		Description:  o.Description,
		PaidBy:       o.PaidBy,
		Participants: o.Participants,
		CreatedAt:    api.NewTime(o.CreatedAt),
	}
}

func toAPIDebts(debts []*models.Debt) []*api.Debt {
	out := make([]*api.Debt, 0, len(debts))
	for _, d := range debts {
		out = append(out, &api.Debt{
			ID:        d.ID,
			OutcomeID: d.OutcomeID,
			DebtorID:  d.DebtorID,
			PaidByID:  d.PaidByID,
			Amount:    d.Amount.String(),
			CreatedAt: api.NewTime(d.CreatedAt),
		})
	}
	return out
}

func toAPIAmounts(amounts map[string]money.Cents) map[string]string {
	out := make(map[string]string, len(amounts))
	for k, v := range amounts {
		out[k] = v.String()
	}
	return out
}
