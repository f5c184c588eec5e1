package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
	goose "github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver for database/sql

	"github.com/guttosm/pricebook/internal/logger"
)

// Dialect identifies the SQL backend behind a DB handle.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// sqlOpener is an indirection for unit testing; defaults to sql.Open
var sqlOpener = sql.Open

// goose keeps its dialect, base FS and logger in package globals.
var migrateMu sync.Mutex

// DB is the process-wide storage handle. It is opened once at startup with
// Open, prepared with Migrate and released exactly once with Close.
type DB struct {
	*sql.DB
	dialect Dialect

	closeOnce sync.Once
	closeErr  error
}

// Open initializes a database handle for the given dialect and verifies
// connectivity.
//
// Behavior:
//   - postgres: dsn is a lib/pq URL (see config.PostgresConfig.DSN).
//   - sqlite: dsn is a file path (parent directories are created) or
//     ":memory:". Every pooled connection gets busy_timeout, WAL and
//     synchronous=FULL so an acknowledged insert survives a crash.
//
// Returns:
//   - *DB: an open handle safe for concurrent use.
//   - error: if the dialect is unknown or opening/pinging fails.
func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	var driverName string
	switch dialect {
	case Postgres:
		driverName = "postgres"
	case SQLite:
		driverName = "sqlite"
		if !isMemory(dsn) {
			if dir := filepath.Dir(dsn); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create data dir %s: %w", dir, err)
				}
			}
		}
		dsn = sqliteDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported storage dialect %q", dialect)
	}

	db, err := sqlOpener(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect, err)
	}

	// In-memory databases are per-connection; pin the pool to one connection
	// so migrations and queries all see the same data.
	if dialect == SQLite && isMemory(dsn) {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dialect, err)
	}

	return &DB{DB: db, dialect: dialect}, nil
}

// Wrap adopts an existing *sql.DB (tests, sqlmock).
func Wrap(db *sql.DB, dialect Dialect) *DB {
	return &DB{DB: db, dialect: dialect}
}

// Dialect reports which backend this handle talks to.
func (db *DB) Dialect() Dialect { return db.dialect }

// Migrate brings the schema up to date using the embedded goose migrations
// for this handle's dialect. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	gooseDialect := "postgres"
	if db.dialect == SQLite {
		gooseDialect = "sqlite3"
	}

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(logger.MigrationLogger{})

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, "migrations/"+string(db.dialect)); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Close releases the handle. Calls after the first return the first result.
func (db *DB) Close() error {
	db.closeOnce.Do(func() {
		db.closeErr = db.DB.Close()
	})
	return db.closeErr
}

// rebind rewrites '?' placeholders to the dialect's positional form.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func sqliteDSN(path string) string {
	pragmas := "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"
	if strings.Contains(path, "?") {
		return path + "&" + pragmas
	}
	return path + "?" + pragmas
}
