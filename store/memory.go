package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// errInjected is what failure injection returns when no SaveErr is set.
var errInjected = errors.New("injected save failure")

// =============================================================================
// MEMORY REPOSITORY - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is an in-memory Repository. State documents are stored as marshaled
// JSON so callers never share mutable structures with the repository.
//
// Failure injection for sync tests: set SaveErr/LoadErr to force errors,
// FailSaves to fail only the next N saves.
type Memory struct {
	mu     sync.RWMutex
	states map[string][]byte

	SaveErr   error
	LoadErr   error
	FailSaves int

	saveCount int
}

func NewMemory() *Memory {
	return &Memory{states: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, userID string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	raw, ok := m.states[userID]
	if !ok {
		return nil, ErrNotFound
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (m *Memory) Save(_ context.Context, userID string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveCount++
	if m.FailSaves > 0 {
		m.FailSaves--
		if m.SaveErr != nil {
			return m.SaveErr
		}
		return errInjected
	}
	if m.SaveErr != nil {
		return m.SaveErr
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.states[userID] = raw
	return nil
}

// SaveCount returns how many saves were attempted, including failed ones.
func (m *Memory) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCount
}
