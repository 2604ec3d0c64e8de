package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slotscribe/slotscribe/pkg/trace"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists traces in a single traces table, body as JSON. The
// digest is the primary key; Put upserts so the verifier's seal can update
// a row in place.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database handle and runs the migration.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %s: %w", path, err)
	}
	return NewSQLiteStore(db)
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS traces (
		hash       TEXT PRIMARY KEY,
		version    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		stored_at  TEXT NOT NULL,
		body       JSON NOT NULL
	);`
	if _, err := s.db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("store: migrate traces table: %w", err)
	}
	return nil
}

// Get loads a trace by digest.
func (s *SQLiteStore) Get(ctx context.Context, hash string) (*trace.Trace, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT body FROM traces WHERE hash = ?`, strings.ToLower(hash))

	var body string
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: query trace %s: %w", hash, err)
	}

	var t trace.Trace
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return nil, fmt.Errorf("store: decode trace %s: %w", hash, err)
	}
	return &t, nil
}

// Put upserts a trace under its digest.
func (s *SQLiteStore) Put(ctx context.Context, hash string, t *trace.Trace) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("store: encode trace %s: %w", hash, err)
	}

	query := `
	INSERT INTO traces (hash, version, created_at, stored_at, body)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(hash) DO UPDATE SET
		version   = excluded.version,
		stored_at = excluded.stored_at,
		body      = excluded.body`
	_, err = s.db.ExecContext(ctx, query,
		strings.ToLower(hash), t.Version, t.CreatedAt,
		time.Now().UTC().Format(time.RFC3339Nano), string(body))
	if err != nil {
		return fmt.Errorf("store: insert trace %s: %w", hash, err)
	}
	return nil
}

// List returns up to limit traces, most recently stored first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hash, body FROM traces ORDER BY stored_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list traces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var hash, body string
		if err := rows.Scan(&hash, &body); err != nil {
			return nil, fmt.Errorf("store: scan trace row: %w", err)
		}
		var t trace.Trace
		if err := json.Unmarshal([]byte(body), &t); err != nil {
			return nil, fmt.Errorf("store: decode trace %s: %w", hash, err)
		}
		entries = append(entries, Entry{Hash: hash, Trace: &t})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate traces: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
