package models

import "github.com/mmynk/splitledger/internal/money"

// Income is money entering a profile.
type Income struct {
	ID          string
	ProfileID   string
	Amount      money.Cents
	Description string
	CreatedAt   int64
}

// Outcome is money leaving a profile, filed under a category.
//
// In shared profiles an outcome may name who paid it (PaidBy) and who
// benefits from it (Participants). The payer is a beneficiary only when
// listed among the participants.
type Outcome struct {
	ID           string
	ProfileID    string
	CategoryID   string
	Amount       money.Cents
	Description  string
	PaidBy       string
	Participants []string
	CreatedAt    int64
}

// IsSplit reports whether the outcome carries split information.
func (o *Outcome) IsSplit() bool {
	return o.PaidBy != "" && len(o.Participants) > 0
}
