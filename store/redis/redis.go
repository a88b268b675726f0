/*
Package redis provides the remote key-value sync endpoint behind the
store.Repository interface.

PURPOSE:
  The remote side of state sync: one JSON document per user under
  "payroll:state:<userID>". The sync layer debounces writes here and
  prefers this copy over the local cache when it is reachable on
  session start.

REACHABILITY:
  Ping exposes online/offline detection. A failed Ping or a failed
  Save is a recoverable condition surfaced by the sync layer as an
  out-of-sync status; it never blocks local mutation.
*/
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/warp/payroll-engine/store"
)

const keyPrefix = "payroll:state:"

// Store implements store.Repository on a Redis-compatible key-value service.
type Store struct {
	client *goredis.Client
}

// New connects to the key-value service. An empty password and db 0 are the
// common case.
func New(addr, password string, db int) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})
	return &Store{client: client}
}

// Close releases the client's connections.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping reports whether the remote endpoint is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Load returns the user's remote state, or store.ErrNotFound if the user has
// never synced.
func (s *Store) Load(ctx context.Context, userID string) (*store.State, error) {
	raw, err := s.client.Get(ctx, keyPrefix+userID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load remote state: %w", err)
	}

	var state store.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode remote state document: %w", err)
	}
	return &state, nil
}

// Save overwrites the user's remote state. Last write wins; no expiry, the
// document lives until the next write.
func (s *Store) Save(ctx context.Context, userID string, state store.State) error {
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state document: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+userID, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save remote state: %w", err)
	}
	return nil
}
