package models

import (
	"strings"

	"github.com/mmynk/splitledger/internal/money"
)

// Category groups outcomes of a profile and tracks how much was spent.
type Category struct {
	ID        string
	ProfileID string

	// Name is unique per profile, compared case-insensitively via NameKey.
	Name  string
	Color string

	// Limit caps Spent when positive. Zero or negative means no cap.
	Limit money.Cents

	// Spent is Σ amounts of the live outcomes in this category.
	Spent money.Cents

	CreatedAt int64
}

// NameKey returns the normalized form used for uniqueness checks.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Capped reports whether the category enforces a spend limit.
func (c *Category) Capped() bool {
	return c.Limit > 0
}

// Allows reports whether adding amount keeps the category within its limit.
func (c *Category) Allows(amount money.Cents) bool {
	return !c.Capped() || c.Spent+amount <= c.Limit
}
