package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/logger"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_artifact (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_artifact_updated_at ON session_artifact(updated_at);
`

// SQLStore keeps artifacts in a SQL table so they survive restarts.
type SQLStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
	closed atomic.Bool
}

// OpenSQLStore opens the database and creates the schema if needed.
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// An in-memory sqlite database exists per connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver, now: time.Now}
	if err := s.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Infof("store: %s session store ready", driver)
	return s, nil
}

// CreateSchema creates the artifact table.
// Safe to call multiple times - uses IF NOT EXISTS.
func (s *SQLStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var value string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT value FROM session_artifact WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, s.wrap("get", err)
	}

	if _, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE session_artifact SET updated_at = ? WHERE key = ?`), s.now().UnixNano(), key); err != nil {
		logger.Warningf("store: refresh activity for session artifact: %v", err)
	}
	return []byte(value), nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO session_artifact (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, string(value), s.now().UnixNano())
	return s.wrap("put", err)
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM session_artifact WHERE key = ?`), key)
	return s.wrap("delete", err)
}

func (s *SQLStore) Cleanup(ctx context.Context, idle time.Duration) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM session_artifact WHERE updated_at < ?`), s.now().Add(-idle).UnixNano())
	if err != nil {
		return 0, s.wrap("cleanup", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.wrap("cleanup", err)
	}
	if n > 0 {
		logger.Infof("store: removed %d inactive session artifacts", n)
	}
	return int(n), nil
}

func (s *SQLStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// rebind converts ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("store: %s: %w", op, err)
}
