/*
Package store defines the persistence boundary of the payroll engine.

PURPOSE:
  The engine persists one State document per user: the full record set
  plus the settings document, saved and loaded as a unit. The engine
  does not know or care whether a Repository is backed by a local file,
  a remote key-value service, or memory; the sync layer composes a
  local cache and a remote endpoint out of two Repositories.

CONTRACT:
  - Load returns ErrNotFound for a user with no saved state. That is a
    normal first-use condition, not a failure.
  - Save overwrites the whole document. Last write wins; there is no
    merge and no partial update.
  - Both operations take a context and are expected to be fallible;
    callers own retry policy.

IMPLEMENTATIONS:
  - store.Memory:  In-memory, failure-injectable (tests, dev)
  - store/sqlite:  Local durable cache
  - store/redis:   Remote key-value sync endpoint
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// ErrNotFound is returned by Load when the user has no saved state.
var ErrNotFound = errors.New("state not found")

// State is the full per-user document: everything the app persists.
type State struct {
	Records  []payroll.Record `json:"records"`
	Settings payroll.Settings `json:"settings"`
	SavedAt  time.Time        `json:"saved_at"`
}

// Repository loads and saves a user's State by opaque user key.
type Repository interface {
	// Load returns the user's state, or ErrNotFound if none was ever saved.
	Load(ctx context.Context, userID string) (*State, error)

	// Save overwrites the user's state. Last write wins.
	Save(ctx context.Context, userID string, state State) error
}
