// Package gormstore provides a storage.Store backed by PostgreSQL or MySQL
// through gorm. Running totals are changed with single UPDATE statements
// of the form "x = x + ?", so concurrent writers never lose an increment.
package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on top of a *gorm.DB.
type Store struct {
	db *gorm.DB
}

// Open connects to the database named by driver ("postgres" or "mysql")
// and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		cfg, err := mysqldriver.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql DSN: %w", err)
		}
		// RowsAffected must count matched rows, not changed ones, or an
		// increment by zero would look like a missing row.
		cfg.ClientFoundRows = true
		cfg.ParseTime = true
		dialector = mysql.Open(cfg.FormatDSN())
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}

	db, err := gorm.Open(dialector, newConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(allRows...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	slog.Info("Connected to database", "driver", driver)
	return &Store{db: db}, nil
}

// New wraps an already opened connection. The schema is not migrated.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func newConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("ping: %w: %w", storage.ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", storage.ErrUnavailable, err)
	}
	return nil
}

// transaction runs fn in a database transaction bound to ctx.
func (s *Store) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// storageErrors are already classified and pass through wrapErr unchanged.
var storageErrors = []error{
	storage.ErrNotFound,
	storage.ErrUnavailable,
	storage.ErrPredicateFailed,
	storage.ErrConflict,
	storage.ErrDuplicate,
	storage.ErrInUse,
	storage.ErrBusy,
}

// wrapErr maps gorm and driver errors onto the storage error taxonomy.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, target := range storageErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, storage.ErrDuplicate)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w: referenced row missing", op, storage.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, storage.ErrNotFound)
}

// exists reports whether a row of model matches the condition.
func exists(tx *gorm.DB, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := tx.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func now() int64 {
	return time.Now().Unix()
}
