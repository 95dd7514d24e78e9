package models

import "github.com/mmynk/splitledger/internal/money"

// Debt records that DebtorID owes PaidByID Amount within a shared profile.
type Debt struct {
	// ID is the unique identifier for the debt (UUID format).
	ID string

	// ProfileID is the shared profile the debt belongs to.
	ProfileID string

	// OutcomeID is the outcome whose split produced this row. It is empty
	// for rows produced by redistribution or by reversing an outcome.
	OutcomeID string

	// DebtorID is the user who owes money.
	DebtorID string

	// PaidByID is the user who is owed (the one who paid the outcome).
	PaidByID string

	// Amount is always positive.
	Amount money.Cents

	// CreatedAt is the Unix timestamp of the debt.
	CreatedAt int64
}

// DebtFilter narrows debt queries. Empty fields match everything; a zero
// From or To leaves that end of the range open.
type DebtFilter struct {
	ProfileID string
	DebtorID  string
	PaidByID  string
	OutcomeID string
	From      int64
	To        int64
}

// Matches reports whether d satisfies the filter.
func (f DebtFilter) Matches(d *Debt) bool {
	if f.ProfileID != "" && d.ProfileID != f.ProfileID {
		return false
	}
	if f.DebtorID != "" && d.DebtorID != f.DebtorID {
		return false
	}
	if f.PaidByID != "" && d.PaidByID != f.PaidByID {
		return false
	}
	if f.OutcomeID != "" && d.OutcomeID != f.OutcomeID {
		return false
	}
	if f.From != 0 && d.CreatedAt < f.From {
		return false
	}
	if f.To != 0 && d.CreatedAt > f.To {
		return false
	}
	return true
}

// DebtBatch is a set of debt writes applied all-or-nothing.
type DebtBatch struct {
	// Delete lists debt IDs that must exist; a missing one aborts the batch.
	Delete []string
	// Insert lists new debts.
	Insert []*Debt
}

// Empty reports whether the batch has nothing to write.
func (b DebtBatch) Empty() bool {
	return len(b.Delete) == 0 && len(b.Insert) == 0
}
