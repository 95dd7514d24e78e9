package calculator

import (
	"testing"

	"github.com/mmynk/splitledger/internal/money"
)

func TestSplitOutcome(t *testing.T) {
	tests := []struct {
		name         string
		amount       money.Cents
		payer        string
		participants []string
		shared       bool
		wantDebts    []Share
		wantPayer    money.Cents
	}{
		{
			name:         "payer included splits evenly",
			amount:       9000,
			payer:        "u1",
			participants: []string{"u1", "u2", "u3"},
			shared:       true,
			wantDebts:    []Share{{"u2", 3000}, {"u3", 3000}},
			wantPayer:    3000,
		},
		{
			name:         "extra cent goes to first sorted debtor",
			amount:       10000,
			payer:        "u1",
			participants: []string{"u3", "u1", "u2"},
			shared:       true,
			wantDebts:    []Share{{"u2", 3334}, {"u3", 3333}},
			wantPayer:    3333,
		},
		{
			name:         "one dollar three ways",
			amount:       100,
			payer:        "u1",
			participants: []string{"u1", "u2", "u3"},
			shared:       true,
			wantDebts:    []Share{{"u2", 34}, {"u3", 33}},
			wantPayer:    33,
		},
		{
			name:         "payer not a beneficiary",
			amount:       1001,
			payer:        "u1",
			participants: []string{"u2", "u3"},
			shared:       true,
			wantDebts:    []Share{{"u2", 501}, {"u3", 500}},
			wantPayer:    0,
		},
		{
			name:         "duplicate participants count once",
			amount:       600,
			payer:        "u1",
			participants: []string{"u2", "u2", "u1"},
			shared:       true,
			wantDebts:    []Share{{"u2", 300}},
			wantPayer:    300,
		},
		{
			name:         "amount smaller than share count skips zero debts",
			amount:       1,
			payer:        "u1",
			participants: []string{"u1", "u2", "u3"},
			shared:       true,
			wantDebts:    []Share{{"u2", 1}},
			wantPayer:    0,
		},
		{
			name:         "personal profile",
			amount:       9000,
			payer:        "u1",
			participants: []string{"u1", "u2"},
			shared:       false,
			wantPayer:    9000,
		},
		{
			name:      "no participants",
			amount:    9000,
			payer:     "u1",
			shared:    true,
			wantPayer: 9000,
		},
		{
			name:         "only the payer participates",
			amount:       9000,
			payer:        "u1",
			participants: []string{"u1"},
			shared:       true,
			wantPayer:    9000,
		},
		{
			name:         "no payer",
			amount:       9000,
			participants: []string{"u1", "u2"},
			shared:       true,
			wantPayer:    9000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitOutcome(tt.amount, tt.payer, tt.participants, tt.shared)

			if got.PayerShare != tt.wantPayer {
				t.Errorf("PayerShare = %s, want %s", got.PayerShare, tt.wantPayer)
			}
			if len(got.Debts) != len(tt.wantDebts) {
				t.Fatalf("Got %d debts, want %d: %v", len(got.Debts), len(tt.wantDebts), got.Debts)
			}
			for i, want := range tt.wantDebts {
				if got.Debts[i] != want {
					t.Errorf("Debt %d = %+v, want %+v", i, got.Debts[i], want)
				}
			}
			if got.Total() != tt.amount {
				t.Errorf("Total = %s, want %s", got.Total(), tt.amount)
			}
		})
	}
}

func TestSplitOutcomeExact(t *testing.T) {
	participants := []string{"a", "b", "c", "d", "e", "f", "g"}
	for amount := money.Cents(1); amount <= 2000; amount += 7 {
		for k := 1; k <= len(participants); k++ {
			for _, payer := range []string{"a", "z"} {
				split := SplitOutcome(amount, payer, participants[:k], true)
				if split.Total() != amount {
					t.Fatalf("amount=%d k=%d payer=%s: shares sum to %d", amount, k, payer, split.Total())
				}
				for _, d := range split.Debts {
					if d.Amount <= 0 {
						t.Fatalf("amount=%d k=%d: non-positive debt %+v", amount, k, d)
					}
				}
			}
		}
	}
}

func TestSplitShareOf(t *testing.T) {
	split := SplitOutcome(10000, "u1", []string{"u1", "u2", "u3"}, true)

	tests := []struct {
		user string
		want money.Cents
	}{
		{"u1", 3333},
		{"u2", 3334},
		{"u3", 3333},
		{"u4", 0},
	}
	for _, tt := range tests {
		if got := split.ShareOf(tt.user, "u1"); got != tt.want {
			t.Errorf("ShareOf(%s) = %s, want %s", tt.user, got, tt.want)
		}
	}
}
