package calculator

import (
	"sort"

	"github.com/mmynk/splitledger/internal/money"
)

// Share is what one debtor owes the payer of a split outcome.
type Share struct {
	DebtorID string
	Amount   money.Cents
}

// Split is the result of splitting one outcome.
type Split struct {
	// Debts lists one share per debtor, sorted by debtor ID. Zero shares
	// are omitted.
	Debts []Share

	// PayerShare is the part of the amount the payer bears personally.
	PayerShare money.Cents
}

// Total returns Σ Debts + PayerShare, which always equals the split amount.
func (s Split) Total() money.Cents {
	total := s.PayerShare
	for _, d := range s.Debts {
		total += d.Amount
	}
	return total
}

// ShareOf returns the part of the amount attributed to userID.
func (s Split) ShareOf(userID, payer string) money.Cents {
	if userID == payer {
		return s.PayerShare
	}
	for _, d := range s.Debts {
		if d.DebtorID == userID {
			return d.Amount
		}
	}
	return 0
}

// SplitOutcome divides amount between the payer and the participants of a
// shared outcome, in integer cents.
//
// The payer is a beneficiary only when listed among the participants.
// Debtors are the remaining beneficiaries, sorted by user ID; each gets
// amount / shareCount and the first amount % shareCount debtors carry one
// extra cent. The payer's share is always the floor.
//
// When the profile is not shared, or there is no payer or no participant,
// the payer bears the whole amount and no debts are produced.
func SplitOutcome(amount money.Cents, payer string, participants []string, shared bool) Split {
	if !shared || payer == "" || len(participants) == 0 || amount <= 0 {
		return Split{PayerShare: amount}
	}

	payerIncluded := false
	seen := make(map[string]bool, len(participants))
	debtors := make([]string, 0, len(participants))
	for _, p := range participants {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if p == payer {
			payerIncluded = true
			continue
		}
		debtors = append(debtors, p)
	}
	if len(debtors) == 0 {
		return Split{PayerShare: amount}
	}
	sort.Strings(debtors)

	shareCount := money.Cents(len(debtors))
	if payerIncluded {
		shareCount++
	}
	base := amount / shareCount
	rem := amount % shareCount

	split := Split{Debts: make([]Share, 0, len(debtors))}
	if payerIncluded {
		split.PayerShare = base
	}
	for i, debtor := range debtors {
		share := base
		if money.Cents(i) < rem {
			share++
		}
		if share == 0 {
			continue
		}
		split.Debts = append(split.Debts, Share{DebtorID: debtor, Amount: share})
	}
	return split
}
