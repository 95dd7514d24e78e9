package models

import "github.com/mmynk/splitledger/internal/money"

// DefaultCategoryName is the catch-all category created with every profile.
const DefaultCategoryName = "Otros"

// Profile is a named ledger. Shared profiles have several members who can
// record outcomes for each other and owe each other money.
type Profile struct {
	// ID is the unique identifier for the profile (UUID format).
	ID string

	// Name is the display name of the profile (e.g., "Personal", "Flat").
	Name string

	// Balance is Σ incomes − Σ outcomes. Only the balance engine changes it.
	Balance money.Cents

	// OwnerID is the user who created the profile. The owner is always a member.
	OwnerID string

	// Shared marks profiles whose outcomes may be split into debts.
	Shared bool

	// ColorSeq counts categories created in this profile and drives the
	// color rotation for new categories.
	ColorSeq int64

	// Members lists the user IDs with access to the profile, owner included.
	Members []string

	// CreatedAt is the Unix timestamp when the profile was created.
	CreatedAt int64
}

// HasMember reports whether userID belongs to the profile.
func (p *Profile) HasMember(userID string) bool {
	if userID == p.OwnerID {
		return true
	}
	for _, m := range p.Members {
		if m == userID {
			return true
		}
	}
	return false
}
