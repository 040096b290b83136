// Package store persists the generation record. The record is a single
// JSON document holding every generation plus the active id, replaced
// atomically on every mutation so a crash mid-write never corrupts the
// last committed state. Mutating callers serialize through an advisory
// file lock held for the whole load-modify-persist cycle.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/paths"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/rs/zerolog"
)

// Store is the durable record of generations rooted at a state directory.
type Store struct {
	dir       string
	statePath string
	lock      *FileLock
	logger    zerolog.Logger
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "cannot create state directory %s", dir).
			WithDetail("path", dir)
	}
	return &Store{
		dir:       dir,
		statePath: filepath.Join(dir, paths.StateFileName),
		lock:      NewFileLock(filepath.Join(dir, paths.LockFileName)),
		logger:    logging.GetLogger("store"),
	}, nil
}

// Dir returns the state directory
func (s *Store) Dir() string {
	return s.dir
}

// Lock acquires the store's exclusive advisory lock, failing with
// LOCK_TIMEOUT once the bounded wait elapses.
func (s *Store) Lock(timeout time.Duration) error {
	return s.lock.LockWithTimeout(timeout)
}

// Unlock releases the advisory lock
func (s *Store) Unlock() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to release state lock")
	}
}

// Load reads the persisted state. A missing record is an empty initial
// state; an unreadable or structurally invalid one is STATE_INVALID.
func (s *Store) Load() (*types.GenerationState, error) {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &types.GenerationState{}, nil
		}
		return nil, errors.Wrapf(err, errors.ErrStateInvalid, "cannot read state record %s", s.statePath).
			WithDetail("path", s.statePath)
	}

	var state types.GenerationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrapf(err, errors.ErrStateInvalid, "state record %s is corrupt", s.statePath).
			WithDetail("path", s.statePath)
	}

	if state.Active != nil && state.Find(*state.Active) == nil {
		return nil, errors.Newf(errors.ErrStateInvalid,
			"state record names active generation %d which does not exist", *state.Active).
			WithDetail("path", s.statePath).
			WithDetail("active", *state.Active)
	}

	return &state, nil
}

// Persist writes the full state durably: a temporary file in the state
// directory is written and synced, then renamed over the canonical
// record.
func (s *Store) Persist(state *types.GenerationState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot encode state record")
	}

	tmpPath := s.statePath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "cannot create temporary state file %s", tmpPath).
			WithDetail("path", tmpPath)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, errors.ErrIO, "cannot write temporary state file %s", tmpPath).
			WithDetail("path", tmpPath)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, errors.ErrIO, "cannot sync temporary state file %s", tmpPath).
			WithDetail("path", tmpPath)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, errors.ErrIO, "cannot close temporary state file %s", tmpPath).
			WithDetail("path", tmpPath)
	}
	if err := os.Rename(tmpPath, s.statePath); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, errors.ErrIO, "cannot replace state record %s", s.statePath).
			WithDetail("path", s.statePath)
	}

	s.logger.Debug().
		Str("path", s.statePath).
		Int("generations", len(state.Generations)).
		Msg("state record persisted")

	return nil
}

// SetActive points the active slot at id, which must exist.
func (s *Store) SetActive(state *types.GenerationState, id uint64) error {
	if state.Find(id) == nil {
		return errors.Newf(errors.ErrNotFound, "generation %d does not exist", id).
			WithDetail("generation", id)
	}
	state.Active = &id
	return nil
}

// Remove deletes the generation record for id. The active generation is
// protected.
func (s *Store) Remove(state *types.GenerationState, id uint64) error {
	if state.Find(id) == nil {
		return errors.Newf(errors.ErrNotFound, "generation %d does not exist", id).
			WithDetail("generation", id)
	}
	if state.Active != nil && *state.Active == id {
		return errors.Newf(errors.ErrActiveProtected, "generation %d is active and cannot be deleted", id).
			WithDetail("generation", id)
	}

	kept := state.Generations[:0]
	for _, gen := range state.Generations {
		if gen.ID != id {
			kept = append(kept, gen)
		}
	}
	state.Generations = kept
	return nil
}
