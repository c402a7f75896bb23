package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store owns the single long-lived database handle shared by all
// repositories.
type Store struct {
	db     *sqlx.DB
	driver string
	log    *zap.Logger
	now    func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used by the store and its repositories
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the clock used for last_accessed_at and the other
// timestamps written by the store.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open establishes a connection to the database and brings the schema up to
// date. For sqlite3 the dsn is a file path; its directory is created if
// needed.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		dsn = withSQLiteParam(dsn, "_foreign_keys", "on")
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrPrecondition, driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %w", ErrPrecondition, err)
	}

	if driver == DriverSQLite {
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)

		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: failed to enable foreign keys: %w", ErrPrecondition, err)
		}
	}

	s := &Store{
		db:     db,
		driver: driver,
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	report, err := s.EnsureSchema(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.log.Info("database ready",
		zap.String("driver", driver),
		zap.Strings("added_columns", report.AddedColumns),
		zap.Strings("skipped_indexes", report.SkippedIndexes),
	)

	return s, nil
}

func withSQLiteParam(dsn, key, value string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + value
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying handle
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// DriverName returns the driver the store was opened with
func (s *Store) DriverName() string {
	return s.driver
}

func (s *Store) conn() (*sqlx.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrPrecondition
	}
	return s.db, nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise. fn must only use tx: on sqlite3 the
// store holds a single connection, so touching s.DB() from inside fn blocks.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.log.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
