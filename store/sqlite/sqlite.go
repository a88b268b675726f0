/*
Package sqlite provides the local durable cache behind the store.Repository
interface.

PURPOSE:
  Keeps a copy of each user's State document on disk so the app works
  offline and restarts instantly. The sync layer treats this as the
  local side: read immediately on session start, written on every
  mutation, reconciled against the remote endpoint when reachable.

SCHEMA:
  One row per user. The whole State is stored as a single JSON document;
  the document is the unit of persistence (last write wins), so there is
  nothing relational to model.

	user_state(user_id TEXT PRIMARY KEY, document TEXT, saved_at TEXT)

WAL MODE:
  Opened with WAL journaling so a read during a write never blocks.

USAGE:
  cache, err := sqlite.New("./payroll.db")
  if err != nil { ... }
  defer cache.Close()
  state, err := cache.Load(ctx, "user@example.com")
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/payroll-engine/store"
)

// Store implements store.Repository on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at the given path. Use ":memory:" for
// an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_state (
		user_id  TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the user's cached state, or store.ErrNotFound if the user has
// never saved.
func (s *Store) Load(ctx context.Context, userID string) (*store.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM user_state WHERE user_id = ?`, userID,
	).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var state store.State
	if err := json.Unmarshal([]byte(document), &state); err != nil {
		return nil, fmt.Errorf("failed to decode state document: %w", err)
	}
	return &state, nil
}

// Save overwrites the user's cached state. Last write wins.
func (s *Store) Save(ctx context.Context, userID string, state store.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}
	document, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_state (user_id, document, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			document = excluded.document,
			saved_at = excluded.saved_at
	`, userID, string(document), state.SavedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}
