package models

// Inconsistency marks a profile whose totals may be wrong because a
// compensation step failed. The reconciler recomputes the profile's totals
// and sets ResolvedAt.
type Inconsistency struct {
	ID         string
	ProfileID  string
	Operation  string
	EntityID   string
	Detail     string
	CreatedAt  int64
	ResolvedAt int64
}
