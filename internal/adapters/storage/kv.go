package storage

// kv.go — durable key/value store with per-key expiry on SQLite.
//
// The engine needs only get / set-with-expiry / scan-by-prefix / delete:
// each write path (market series, analyses, sessions, leaderboard
// history) owns a disjoint key namespace, so single-key atomicity is
// enough. Expired rows are lazily filtered on read and pruned on open.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/backsim/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      BLOB     NOT NULL,
    expires_at INTEGER,              -- unix seconds, NULL = never
    updated_at INTEGER  NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kv_expires ON kv(expires_at);
`

// SQLiteKV implements ports.KVStore on a single SQLite file (pure Go, no CGo).
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV opens (or creates) the database at the given path, applies
// the schema, and prunes rows that expired while the process was down.
func NewSQLiteKV(path string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteKV: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteKV: apply schema: %w", err)
	}

	s := &SQLiteKV{db: db}
	s.pruneExpired(context.Background())
	return s, nil
}

// Get returns the live value for key. Expired entries read as absent.
func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage.Get %q: %w: %v", key, domain.ErrPersistence, err)
	}
	if expired(expiresAt) {
		return nil, false, nil
	}
	return value, true, nil
}

// Set upserts key with the given TTL. ttl <= 0 stores without expiry.
func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	var expiresAt any
	if ttl > 0 {
		expiresAt = now.Add(ttl).Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, expires_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, key, value, expiresAt, now.Unix())
	if err != nil {
		return fmt.Errorf("storage.Set %q: %w: %v", key, domain.ErrPersistence, err)
	}
	return nil
}

// ScanPrefix returns all live entries under prefix, in key order.
func (s *SQLiteKV) ScanPrefix(ctx context.Context, prefix string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, expires_at FROM kv
		WHERE key >= ? AND key < ?
		ORDER BY key ASC
	`, prefix, prefix+"\xff")
	if err != nil {
		return nil, fmt.Errorf("storage.ScanPrefix %q: %w: %v", prefix, domain.ErrPersistence, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		var expiresAt sql.NullInt64
		if err := rows.Scan(&key, &value, &expiresAt); err != nil {
			return nil, fmt.Errorf("storage.ScanPrefix %q: scan row: %w: %v", prefix, domain.ErrPersistence, err)
		}
		if expired(expiresAt) {
			continue
		}
		out[key] = value
	}
	return out, rows.Err()
}

// Delete removes key. Absent keys are a no-op.
func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("storage.Delete %q: %w: %v", key, domain.ErrPersistence, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

// pruneExpired deletes rows whose expiry passed, keeping the file light.
func (s *SQLiteKV) pruneExpired(ctx context.Context) {
	s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at < ?`,
		time.Now().UTC().Unix(),
	)
}

func expired(expiresAt sql.NullInt64) bool {
	return expiresAt.Valid && expiresAt.Int64 < time.Now().UTC().Unix()
}
