package app

import (
	"context"
	"fmt"

	"github.com/guttosm/pricebook/config"
	"github.com/guttosm/pricebook/internal/logger"
	"github.com/guttosm/pricebook/internal/storage"
)

// OpenStore opens the price store selected by cfg.Storage.Driver and brings
// its schema up to date.
//
// Behavior:
//   - sqlite: opens (and creates) cfg.Storage.SQLitePath.
//   - postgres: connects with cfg.Postgres.DSN().
//   - Runs the embedded migrations before returning.
//
// Returns:
//   - *storage.DB: a migrated handle; the caller owns Close.
//   - error: if the driver is unknown, the store is unreachable or migration fails.
func OpenStore(ctx context.Context, cfg config.Config) (*storage.DB, error) {
	var (
		dialect storage.Dialect
		dsn     string
	)
	switch cfg.Storage.Driver {
	case config.DriverSQLite, "":
		dialect, dsn = storage.SQLite, cfg.Storage.SQLitePath
	case config.DriverPostgres:
		dialect, dsn = storage.Postgres, cfg.Postgres.DSN()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	db, err := storage.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.L().Info().Str("driver", string(dialect)).Msg("price store ready")
	return db, nil
}

// storeOpener is an indirection used by InitializeApp; overridden in tests to avoid real connections.
var storeOpener = OpenStore
