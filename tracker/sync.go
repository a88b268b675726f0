/*
sync.go - Debounced remote sync with bounded retry

PURPOSE:
  Keeps the remote key-value copy of a user's state converging on the
  local truth without ever blocking a mutation.

WRITE PATH:
  Every mutation hands the scheduler a full State snapshot tagged with
  the tracker's mutation version. Concurrent mutations can hand their
  snapshots over in either order, so any snapshot older than one
  already seen is discarded outright; the freshest state always wins,
  never the last to arrive. The local cache is written immediately
  (optimistic local-first); the remote push is debounced behind a
  quiet period, and a newer snapshot arriving before the timer fires
  cancels and replaces the pending one, so at most one push is in
  flight.

  A failed push retries with exponential backoff a bounded number of
  times. If a newer snapshot was scheduled meanwhile the retry loop
  abandons its stale state. When retries are exhausted the scheduler
  parks in StatusOutOfSync until a later push succeeds; it never
  retries forever.

READ PATH:
  LoadState races the local cache (immediate) against the remote fetch
  (bounded by a deadline). If the remote answers with data it wins and
  the local cache is refreshed to match; otherwise the local copy
  stands; a first-ever session falls back to default settings. The
  outcome is explicit in the returned source, never a silent overwrite.
*/
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store"
)

// =============================================================================
// SYNC STATUS
// =============================================================================

// SyncStatus is the non-blocking indicator surfaced to the UI.
type SyncStatus string

const (
	StatusSynced    SyncStatus = "synced"      // remote matches the last mutation
	StatusDirty     SyncStatus = "dirty"       // a push is scheduled but has not fired
	StatusPushing   SyncStatus = "pushing"     // a push is in flight
	StatusOutOfSync SyncStatus = "out_of_sync" // retries exhausted, waiting for the next mutation
)

// =============================================================================
// SYNC SCHEDULER
// =============================================================================

// SyncOptions tunes the scheduler. Zero values take the defaults.
type SyncOptions struct {
	Debounce    time.Duration // quiet period before a remote push (default 2s)
	MaxAttempts int           // push attempts per snapshot (default 3)
	Backoff     time.Duration // initial retry backoff, doubles per attempt (default 500ms)
	PushTimeout time.Duration // per-attempt deadline (default 5s)
}

func (o SyncOptions) withDefaults() SyncOptions {
	if o.Debounce <= 0 {
		o.Debounce = 2 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = 500 * time.Millisecond
	}
	if o.PushTimeout <= 0 {
		o.PushTimeout = 5 * time.Second
	}
	return o
}

// SyncScheduler pushes one user's state to the remote repository, debounced
// and retried. The local repository is written synchronously on every
// Schedule call; only the remote side is deferred.
type SyncScheduler struct {
	local  store.Repository // may be nil (no cache)
	remote store.Repository // may be nil (sync disabled)
	userID string
	opts   SyncOptions
	log    logrus.FieldLogger

	// saveMu serializes local cache writes so they land in version order.
	saveMu       sync.Mutex
	savedVersion uint64

	mu      sync.Mutex
	timer   *time.Timer
	pending *store.State
	latest  uint64 // highest version scheduled; a push for an older one is stale
	status  SyncStatus
	stopped bool
	wg      sync.WaitGroup
}

// NewSyncScheduler builds a scheduler for one user. Either repository may be
// nil: nil local skips caching, nil remote disables sync entirely (status
// stays synced).
func NewSyncScheduler(local, remote store.Repository, userID string, opts SyncOptions, log logrus.FieldLogger) *SyncScheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SyncScheduler{
		local:  local,
		remote: remote,
		userID: userID,
		opts:   opts.withDefaults(),
		log:    log.WithField("user", userID),
		status: StatusSynced,
	}
}

// Schedule records a mutation's state snapshot: local cache now, remote after
// the quiet period. The version is the tracker's mutation counter; callers
// racing between their unlock and this call can arrive out of order, so a
// snapshot at or below a version already seen is discarded. A pending push
// for an older snapshot is superseded.
func (s *SyncScheduler) Schedule(version uint64, state store.State) {
	if s.local != nil {
		s.saveMu.Lock()
		if version > s.savedVersion {
			s.savedVersion = version
			ctx, cancel := context.WithTimeout(context.Background(), s.opts.PushTimeout)
			if err := s.local.Save(ctx, s.userID, state); err != nil {
				s.log.WithError(err).Warn("local cache write failed")
			}
			cancel()
		}
		s.saveMu.Unlock()
	}
	if s.remote == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || version <= s.latest {
		return
	}

	s.latest = version
	s.pending = &state
	s.status = StatusDirty
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Debounce, s.fire)
}

// fire runs in the timer goroutine: take the pending snapshot and push it.
func (s *SyncScheduler) fire() {
	s.mu.Lock()
	state := s.pending
	if state == nil || s.stopped {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	version := s.latest
	s.status = StatusPushing
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	s.push(*state, version)
}

func (s *SyncScheduler) push(state store.State, version uint64) {
	backoff := s.opts.Backoff
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PushTimeout)
		err := s.remote.Save(ctx, s.userID, state)
		cancel()

		if err == nil {
			s.mu.Lock()
			// A newer snapshot may have been scheduled during the push; its
			// own cycle owns the status then.
			if s.latest == version && s.pending == nil {
				s.status = StatusSynced
			}
			s.mu.Unlock()
			return
		}

		s.log.WithError(err).WithField("attempt", attempt).Warn("remote push failed")

		if s.superseded(version) {
			return
		}
		if attempt < s.opts.MaxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	s.mu.Lock()
	if s.latest == version && s.pending == nil {
		s.status = StatusOutOfSync
	}
	s.mu.Unlock()
	s.log.Error("remote push abandoned, state out of sync")
}

func (s *SyncScheduler) superseded(version uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest != version
}

// Flush pushes any pending snapshot immediately, bypassing the debounce.
// An in-flight push finishes (or gives up) first, so two writers never race
// on the remote document. Used on shutdown.
func (s *SyncScheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	state := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.wg.Wait()

	if state == nil || s.remote == nil {
		return nil
	}
	if err := s.remote.Save(ctx, s.userID, *state); err != nil {
		s.mu.Lock()
		s.status = StatusOutOfSync
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.status = StatusSynced
	s.mu.Unlock()
	return nil
}

// Stop cancels any pending push and waits for an in-flight one to finish.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = nil
	s.mu.Unlock()
	s.wg.Wait()
}

// Status returns the current sync indicator.
func (s *SyncScheduler) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// =============================================================================
// SESSION LOAD - Race local cache against remote fetch
// =============================================================================

// LoadSource says where the session's state came from.
type LoadSource string

const (
	SourceRemote  LoadSource = "remote"  // remote answered with data; local refreshed
	SourceLocal   LoadSource = "local"   // remote unreachable or empty; cache stands
	SourceDefault LoadSource = "default" // first use anywhere; defaults seeded
)

// LoadState resolves the session-start state for a user. The remote fetch is
// bounded by remoteTimeout; the local read happens regardless. Remote data
// wins when it arrives and is written through to the local cache; a remote
// miss or failure keeps the local copy. The returned error is diagnostic only
// (the remote failure, if any) - the state is always usable.
func LoadState(ctx context.Context, local, remote store.Repository, userID string, remoteTimeout time.Duration) (store.State, LoadSource, error) {
	type remoteResult struct {
		state *store.State
		err   error
	}

	var remoteCh chan remoteResult
	if remote != nil {
		remoteCh = make(chan remoteResult, 1)
		go func() {
			fetchCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
			defer cancel()
			state, err := remote.Load(fetchCtx, userID)
			remoteCh <- remoteResult{state: state, err: err}
		}()
	}

	var localState *store.State
	if local != nil {
		if state, err := local.Load(ctx, userID); err == nil {
			localState = state
		}
	}

	var remoteErr error
	if remoteCh != nil {
		res := <-remoteCh
		if res.err == nil {
			if local != nil {
				// Refresh the cache so the next offline start sees this copy.
				_ = local.Save(ctx, userID, *res.state)
			}
			return *res.state, SourceRemote, nil
		}
		if !errors.Is(res.err, store.ErrNotFound) {
			remoteErr = res.err
		}
	}

	if localState != nil {
		return *localState, SourceLocal, remoteErr
	}
	return store.State{Settings: payroll.DefaultSettings()}, SourceDefault, remoteErr
}
