package gormstore

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), newConfig())
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})
	return New(db), mock
}

func TestWrapErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, storage.ErrNotFound},
		{"duplicate key", gorm.ErrDuplicatedKey, storage.ErrDuplicate},
		{"foreign key", gorm.ErrForeignKeyViolated, storage.ErrNotFound},
		{"already classified", storage.ErrConflict, storage.ErrConflict},
		{"driver failure", errors.New("connection reset by peer"), storage.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapErr("op", tt.err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.NoError(t, wrapErr("op", nil))
}

func TestIncrementBalance(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `profiles` SET `balance_cents`=balance_cents \\+ \\?").
		WithArgs(int64(250), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT `balance_cents` FROM `profiles`").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(1250))
	mock.ExpectCommit()

	balance, err := store.IncrementBalance(context.Background(), "p1", 250)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(1250), balance)
}

func TestIncrementBalanceMissingProfile(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `profiles` SET `balance_cents`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := store.IncrementBalance(context.Background(), "ghost", 10)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIncrementSpentWithinLimitRejects(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `categories` SET `spent_cents`=spent_cents \\+ \\? WHERE id = \\? AND \\(+limit_cents <= 0 OR spent_cents \\+ \\? <= limit_cents\\)+").
		WithArgs(int64(500), "c1", int64(500)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories`").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := store.IncrementSpentWithinLimit(context.Background(), "c1", 500)
	assert.ErrorIs(t, err, storage.ErrPredicateFailed)
}

func TestDeleteCategoryInUse(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `categories` WHERE id = \\? AND NOT EXISTS").
		WithArgs("c1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories`").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := store.DeleteCategory(context.Background(), "c1")
	assert.ErrorIs(t, err, storage.ErrInUse)
}

func TestApplyDebtBatchConflictRollsBack(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `debts` WHERE id = \\?").
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `debts` WHERE id = \\?").
		WithArgs("d2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.ApplyDebtBatch(context.Background(), models.DebtBatch{
		Delete: []string{"d1", "d2"},
		Insert: []*models.Debt{{ProfileID: "p1", DebtorID: "bob", PaidByID: "alice", Amount: 100}},
	})
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestApplyEmptyDebtBatch(t *testing.T) {
	store, _ := setupMockStore(t)
	assert.NoError(t, store.ApplyDebtBatch(context.Background(), models.DebtBatch{}))
}

func TestGetUserByEmailMissing(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE email = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "password_hash", "created_at", "updated_at"}))

	user, err := store.GetUserByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestListDebtsUnavailable(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `debts` WHERE profile_id = \\? AND debtor_id = \\?").
		WithArgs("p1", "bob").
		WillReturnError(errors.New("connection reset by peer"))

	_, err := store.ListDebts(context.Background(), models.DebtFilter{ProfileID: "p1", DebtorID: "bob"})
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestListCategories(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `categories` WHERE profile_id = \\? ORDER BY created_at, name_key").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "name", "name_key", "color", "limit_cents", "spent_cents", "created_at"}).
			AddRow("c1", "p1", "Otros", "otros", "#FF6B6B", 0, 300, 10).
			AddRow("c2", "p1", "Food", "food", "#4ECDC4", 5000, 1200, 20))

	categories, err := store.ListCategories(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, &models.Category{
		ID: "c2", ProfileID: "p1", Name: "Food", Color: "#4ECDC4", Limit: 5000, Spent: 1200, CreatedAt: 20,
	}, categories[1])
}

func TestBeginSaga(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `profiles` WHERE id = \\?.*FOR SHARE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))
	mock.ExpectExec("INSERT INTO `saga_leases`").
		WithArgs(sqlmock.AnyArg(), "p1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	leaseID, err := store.BeginSaga(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, leaseID)
}

func TestRecomputeBusyProfile(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `profiles` WHERE id = \\?.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "balance_cents", "owner_id", "shared", "color_seq", "created_at"}).
			AddRow("p1", "Flat", 1000, "alice", false, 1, 10))
	mock.ExpectExec("DELETE FROM `saga_leases` WHERE profile_id = \\? AND started_at < \\?").
		WithArgs("p1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `saga_leases` WHERE profile_id = \\?").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := store.RecomputeProfileTotals(context.Background(), "p1")
	assert.ErrorIs(t, err, storage.ErrBusy)
}
