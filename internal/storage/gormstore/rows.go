package gormstore

import (
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// Rows mirror the SQLite schema so both backends hold the same data.
// Timestamps stay Unix seconds; gorm's autoCreateTime fills zero values.

type profileRow struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"size:255;not null"`
	BalanceCents int64  `gorm:"not null;default:0"`
	OwnerID      string `gorm:"size:36;not null;index"`
	Shared       bool   `gorm:"not null;default:false"`
	ColorSeq     int64  `gorm:"not null;default:0"`
	CreatedAt    int64  `gorm:"not null"`
}

func (profileRow) TableName() string { return "profiles" }

type memberRow struct {
	ProfileID string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:36;index"`
}

func (memberRow) TableName() string { return "profile_members" }

type categoryRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	ProfileID  string `gorm:"size:36;not null;uniqueIndex:idx_categories_name"`
	Name       string `gorm:"size:255;not null"`
	NameKey    string `gorm:"size:255;not null;uniqueIndex:idx_categories_name"`
	Color      string `gorm:"size:16;not null"`
	LimitCents int64  `gorm:"not null;default:0"`
	SpentCents int64  `gorm:"not null;default:0"`
	CreatedAt  int64  `gorm:"not null"`
}

func (categoryRow) TableName() string { return "categories" }

type incomeRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	ProfileID   string `gorm:"size:36;not null;index"`
	AmountCents int64  `gorm:"not null"`
	Description string `gorm:"size:512;not null;default:''"`
	CreatedAt   int64  `gorm:"not null"`
}

func (incomeRow) TableName() string { return "incomes" }

type outcomeRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	ProfileID   string `gorm:"size:36;not null;index:idx_outcomes_profile_created"`
	CategoryID  string `gorm:"size:36;not null;index"`
	AmountCents int64  `gorm:"not null"`
	Description string `gorm:"size:512;not null;default:''"`
	PaidBy      string `gorm:"size:36;not null;default:''"`
	CreatedAt   int64  `gorm:"not null;index:idx_outcomes_profile_created"`
}

func (outcomeRow) TableName() string { return "outcomes" }

type participantRow struct {
	OutcomeID string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:36"`
}

func (participantRow) TableName() string { return "outcome_participants" }

type debtRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	ProfileID   string `gorm:"size:36;not null;index"`
	OutcomeID   string `gorm:"size:36;not null;default:'';index"`
	DebtorID    string `gorm:"size:36;not null"`
	PaidByID    string `gorm:"size:36;not null"`
	AmountCents int64  `gorm:"not null"`
	CreatedAt   int64  `gorm:"not null"`
}

func (debtRow) TableName() string { return "debts" }

type inconsistencyRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	ProfileID  string `gorm:"size:36;not null;index"`
	Operation  string `gorm:"size:64;not null"`
	EntityID   string `gorm:"size:36;not null;default:''"`
	Detail     string `gorm:"type:text"`
	CreatedAt  int64  `gorm:"not null"`
	ResolvedAt int64  `gorm:"not null;default:0;index"`
}

func (inconsistencyRow) TableName() string { return "inconsistencies" }

type userRow struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"size:255;not null;uniqueIndex"`
	DisplayName  string `gorm:"size:255;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    int64  `gorm:"not null"`
	UpdatedAt    int64  `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

type sagaLeaseRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	ProfileID string `gorm:"size:36;not null;index:idx_saga_leases_profile"`
	StartedAt int64  `gorm:"not null;index:idx_saga_leases_profile"`
}

func (sagaLeaseRow) TableName() string { return "saga_leases" }

// allRows lists every table for AutoMigrate.
var allRows = []any{
	&userRow{}, &profileRow{}, &memberRow{}, &categoryRow{}, &incomeRow{},
	&outcomeRow{}, &participantRow{}, &debtRow{}, &inconsistencyRow{},
	&sagaLeaseRow{},
}

func (r *profileRow) toModel(members []string) *models.Profile {
	return &models.Profile{
		ID:        r.ID,
		Name:      r.Name,
		Balance:   money.Cents(r.BalanceCents),
		OwnerID:   r.OwnerID,
		Shared:    r.Shared,
		ColorSeq:  r.ColorSeq,
		Members:   members,
		CreatedAt: r.CreatedAt,
	}
}

func categoryFromModel(c *models.Category) *categoryRow {
	return &categoryRow{
		ID:         c.ID,
		ProfileID:  c.ProfileID,
		Name:       c.Name,
		NameKey:    models.NameKey(c.Name),
		Color:      c.Color,
		LimitCents: int64(c.Limit),
		SpentCents: int64(c.Spent),
		CreatedAt:  c.CreatedAt,
	}
}

func (r *categoryRow) toModel() *models.Category {
	return &models.Category{
		ID:        r.ID,
		ProfileID: r.ProfileID,
		Name:      r.Name,
		Color:     r.Color,
		Limit:     money.Cents(r.LimitCents),
		Spent:     money.Cents(r.SpentCents),
		CreatedAt: r.CreatedAt,
	}
}

func (r *incomeRow) toModel() *models.Income {
	return &models.Income{
		ID:          r.ID,
		ProfileID:   r.ProfileID,
		Amount:      money.Cents(r.AmountCents),
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

func (r *outcomeRow) toModel(participants []string) *models.Outcome {
	return &models.Outcome{
		ID:           r.ID,
		ProfileID:    r.ProfileID,
		CategoryID:   r.CategoryID,
		Amount:       money.Cents(r.AmountCents),
		Description:  r.Description,
		PaidBy:       r.PaidBy,
		Participants: participants,
		CreatedAt:    r.CreatedAt,
	}
}

func debtFromModel(d *models.Debt) *debtRow {
	return &debtRow{
		ID:          d.ID,
		ProfileID:   d.ProfileID,
		OutcomeID:   d.OutcomeID,
		DebtorID:    d.DebtorID,
		PaidByID:    d.PaidByID,
		AmountCents: int64(d.Amount),
		CreatedAt:   d.CreatedAt,
	}
}

func (r *debtRow) toModel() *models.Debt {
	return &models.Debt{
		ID:        r.ID,
		ProfileID: r.ProfileID,
		OutcomeID: r.OutcomeID,
		DebtorID:  r.DebtorID,
		PaidByID:  r.PaidByID,
		Amount:    money.Cents(r.AmountCents),
		CreatedAt: r.CreatedAt,
	}
}

func (r *inconsistencyRow) toModel() *models.Inconsistency {
	return &models.Inconsistency{
		ID:         r.ID,
		ProfileID:  r.ProfileID,
		Operation:  r.Operation,
		EntityID:   r.EntityID,
		Detail:     r.Detail,
		CreatedAt:  r.CreatedAt,
		ResolvedAt: r.ResolvedAt,
	}
}

func (r *userRow) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
