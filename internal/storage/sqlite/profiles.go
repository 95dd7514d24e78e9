package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateProfile persists a new profile, its members and its initial categories.
func (s *SQLiteStore) CreateProfile(ctx context.Context, profile *models.Profile, categories ...*models.Category) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.CreatedAt == 0 {
		profile.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (id, name, balance_cents, owner_id, shared, color_seq, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		profile.ID, profile.Name, int64(profile.Balance), profile.OwnerID, profile.Shared,
		profile.ColorSeq, profile.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert profile", err)
	}

	members := append([]string{profile.OwnerID}, profile.Members...)
	for _, userID := range members {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO profile_members (profile_id, user_id) VALUES (?, ?)",
			profile.ID, userID,
		)
		if err != nil {
			return wrapErr("insert profile member", err)
		}
	}

	for _, category := range categories {
		category.ProfileID = profile.ID
		if err := insertCategory(ctx, tx, category); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit transaction", err)
	}

	profile.Members = dedupe(members)
	return nil
}

// GetProfile retrieves a profile by ID, including its members.
func (s *SQLiteStore) GetProfile(ctx context.Context, profileID string) (*models.Profile, error) {
	profile := &models.Profile{}
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, balance_cents, owner_id, shared, color_seq, created_at
		 FROM profiles WHERE id = ?`,
		profileID,
	).Scan(&profile.ID, &profile.Name, &balance, &profile.OwnerID, &profile.Shared,
		&profile.ColorSeq, &profile.CreatedAt)
	if err != nil {
		return nil, wrapErr("get profile "+profileID, err)
	}
	profile.Balance = money.Cents(balance)

	members, err := s.listMembers(ctx, profileID)
	if err != nil {
		return nil, err
	}
	profile.Members = members

	return profile, nil
}

func (s *SQLiteStore) listMembers(ctx context.Context, profileID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM profile_members WHERE profile_id = ? ORDER BY user_id",
		profileID,
	)
	if err != nil {
		return nil, wrapErr("list profile members", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, wrapErr("scan profile member", err)
		}
		members = append(members, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate profile members", err)
	}
	return members, nil
}

// ListProfilesByMember retrieves every profile the user belongs to.
func (s *SQLiteStore) ListProfilesByMember(ctx context.Context, userID string) ([]*models.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id FROM profiles p
		 JOIN profile_members m ON m.profile_id = p.id
		 WHERE m.user_id = ? ORDER BY p.created_at, p.id`,
		userID,
	)
	if err != nil {
		return nil, wrapErr("list profiles by member", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, wrapErr("scan profile id", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate profiles", err)
	}

	profiles := make([]*models.Profile, 0, len(ids))
	for _, id := range ids {
		profile, err := s.GetProfile(ctx, id)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// AddProfileMember adds a user to a profile.
func (s *SQLiteStore) AddProfileMember(ctx context.Context, profileID, userID string) error {
	ok, err := exists(ctx, s.db, "profiles", profileID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("profile", profileID)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO profile_members (profile_id, user_id) VALUES (?, ?)",
		profileID, userID,
	)
	if err != nil {
		return wrapErr("insert profile member", err)
	}
	return nil
}

// IncrementBalance adds delta to the balance in a single UPDATE, so
// concurrent callers never lose an increment.
func (s *SQLiteStore) IncrementBalance(ctx context.Context, profileID string, delta money.Cents) (money.Cents, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		"UPDATE profiles SET balance_cents = balance_cents + ? WHERE id = ? RETURNING balance_cents",
		int64(delta), profileID,
	).Scan(&balance)
	if err != nil {
		return 0, wrapErr("increment balance of profile "+profileID, err)
	}
	return money.Cents(balance), nil
}

// nextColorSeq increments the profile's category color counter.
func nextColorSeq(ctx context.Context, q querier, profileID string) (int64, error) {
	var seq int64
	err := q.QueryRowContext(ctx,
		"UPDATE profiles SET color_seq = color_seq + 1 WHERE id = ? RETURNING color_seq",
		profileID,
	).Scan(&seq)
	if err != nil {
		return 0, wrapErr("increment color sequence of profile "+profileID, err)
	}
	return seq, nil
}

// RecomputeProfileTotals rewrites balance and spent totals from live rows.
// The transaction is immediate, so it holds the write lock from the lease
// check to the commit.
func (s *SQLiteStore) RecomputeProfileTotals(ctx context.Context, profileID string) (*storage.Recompute, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr("begin transaction", err)
	}
	defer tx.Rollback()

	var before int64
	err = tx.QueryRowContext(ctx, "SELECT balance_cents FROM profiles WHERE id = ?", profileID).Scan(&before)
	if err != nil {
		return nil, wrapErr("get profile "+profileID, err)
	}

	if err := checkNoSagas(ctx, tx, profileID); err != nil {
		return nil, err
	}

	var after int64
	err = tx.QueryRowContext(ctx,
		`UPDATE profiles SET balance_cents =
		    (SELECT COALESCE(SUM(amount_cents), 0) FROM incomes WHERE profile_id = ?) -
		    (SELECT COALESCE(SUM(amount_cents), 0) FROM outcomes WHERE profile_id = ?)
		 WHERE id = ? RETURNING balance_cents`,
		profileID, profileID, profileID,
	).Scan(&after)
	if err != nil {
		return nil, wrapErr("recompute balance", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE categories SET spent_cents =
		    (SELECT COALESCE(SUM(o.amount_cents), 0) FROM outcomes o WHERE o.category_id = categories.id)
		 WHERE profile_id = ? AND spent_cents <>
		    (SELECT COALESCE(SUM(o.amount_cents), 0) FROM outcomes o WHERE o.category_id = categories.id)`,
		profileID,
	)
	if err != nil {
		return nil, wrapErr("recompute category spent", err)
	}
	fixed, err := res.RowsAffected()
	if err != nil {
		return nil, wrapErr("count recomputed categories", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit transaction", err)
	}

	return &storage.Recompute{
		BalanceBefore:   money.Cents(before),
		BalanceAfter:    money.Cents(after),
		CategoriesFixed: int(fixed),
	}, nil
}

// dedupe returns ids without repeats, keeping first occurrences.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
