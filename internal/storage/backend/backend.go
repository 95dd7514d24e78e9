// Package backend opens the ledger store selected by configuration.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/gormstore"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

// Open returns the store for cfg.DBDriver. SQLite runs embedded on
// cfg.DBPath; postgres and mysql go through gorm on cfg.DatabaseDSN.
func Open(cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", cfg.DBDriver, "database", cfg.DBPath)
		return store, nil
	case config.DriverPostgres, config.DriverMySQL:
		store, err := gormstore.Open(cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", cfg.DBDriver)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}
