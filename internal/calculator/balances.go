package calculator

import (
	"sort"

	"github.com/mmynk/splitledger/internal/money"
)

// DebtEdge is a debt with the minimal information needed for netting.
type DebtEdge struct {
	ID        string
	From      string // Person who owes
	To        string // Person who is owed
	Amount    money.Cents
	CreatedAt int64
}

// NetDebt returns Σ debts where a owes b minus Σ debts where b owes a.
// Positive means a owes b.
func NetDebt(edges []DebtEdge, a, b string) money.Cents {
	var net money.Cents
	for _, e := range edges {
		switch {
		case e.From == a && e.To == b:
			net += e.Amount
		case e.From == b && e.To == a:
			net -= e.Amount
		}
	}
	return net
}

// NetWith returns, for every counterparty of user, how much that
// counterparty owes user net. Negative values mean user owes them.
// Counterparties that net to zero are omitted.
func NetWith(edges []DebtEdge, user string) map[string]money.Cents {
	net := make(map[string]money.Cents)
	for _, e := range edges {
		switch user {
		case e.To:
			net[e.From] += e.Amount
		case e.From:
			net[e.To] -= e.Amount
		}
	}
	for other, amount := range net {
		if amount == 0 || other == user {
			delete(net, other)
		}
	}
	return net
}

// Redistribution is the set of writes that nets a profile's debts.
type Redistribution struct {
	// Delete lists the IDs of every merged debt.
	Delete []string
	// Insert lists the net debt of each merged pair that does not cancel out.
	Insert []DebtEdge
	// PairsMerged counts the pairs that had more than one debt.
	PairsMerged int
}

// Empty reports whether the redistribution changes nothing.
func (r Redistribution) Empty() bool {
	return len(r.Delete) == 0 && len(r.Insert) == 0
}

type pairKey struct{ lo, hi string }

func keyOf(e DebtEdge) pairKey {
	if e.From < e.To {
		return pairKey{e.From, e.To}
	}
	return pairKey{e.To, e.From}
}

// Redistribute nets the debts between every unordered pair of users.
//
// Pairs with a single debt are left alone. Every other pair is replaced by
// one debt in the direction of the larger total, equal to the absolute
// difference and dated at the latest merged debt, or removed entirely when
// the totals cancel out. The net debt of every pair is preserved.
func Redistribute(edges []DebtEdge) Redistribution {
	groups := make(map[pairKey][]DebtEdge)
	for _, e := range edges {
		k := keyOf(e)
		groups[k] = append(groups[k], e)
	}

	keys := make([]pairKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lo != keys[j].lo {
			return keys[i].lo < keys[j].lo
		}
		return keys[i].hi < keys[j].hi
	})

	var r Redistribution
	for _, k := range keys {
		group := groups[k]
		if len(group) < 2 {
			continue
		}
		r.PairsMerged++

		// Positive net: lo owes hi.
		var net money.Cents
		var latest int64
		for _, e := range group {
			r.Delete = append(r.Delete, e.ID)
			if e.From == k.lo {
				net += e.Amount
			} else {
				net -= e.Amount
			}
			if e.CreatedAt > latest {
				latest = e.CreatedAt
			}
		}

		switch {
		case net > 0:
			r.Insert = append(r.Insert, DebtEdge{From: k.lo, To: k.hi, Amount: net, CreatedAt: latest})
		case net < 0:
			r.Insert = append(r.Insert, DebtEdge{From: k.hi, To: k.lo, Amount: -net, CreatedAt: latest})
		}
	}
	return r
}
