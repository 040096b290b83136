// Package generations orchestrates the generation lifecycle: resolving
// a configuration into link entries, driving the link operator through
// the filesystem transitions, and committing outcomes to the store.
//
// Mutating operations hold the store's advisory lock for their full
// duration. There is no cross-phase atomicity between removing the
// outgoing generation's links and creating the incoming ones: if
// creation fails after removal, the active pointer still names the old
// generation while some of its links are gone from disk. Verify
// surfaces that state rather than hiding it.
//
// A generation's link set (sources, targets, kinds) is immutable once
// created. The one field Switch rewrites is the recorded BackupPath of
// each link: backup bookkeeping must reflect what this activation
// actually displaced, or a later unwind would restore stale backups.
package generations

import (
	goerrors "errors"
	"time"

	"github.com/arthur-debert/genlink/pkg/config"
	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/linkops"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/resolver"
	"github.com/arthur-debert/genlink/pkg/store"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultLockTimeout bounds how long a mutating operation waits for a
// concurrent invocation to finish.
const DefaultLockTimeout = 10 * time.Second

// Service sequences resolver, operator and store for the generation
// lifecycle operations.
type Service struct {
	store       *store.Store
	op          *linkops.Operator
	lockTimeout time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

// New creates a Service over the given store and operator
func New(st *store.Store, op *linkops.Operator) *Service {
	return &Service{
		store:       st,
		op:          op,
		lockTimeout: DefaultLockTimeout,
		now:         time.Now,
		logger:      logging.GetLogger("generations"),
	}
}

// Apply resolves the configuration into a new generation, removes the
// active generation's links, creates the new ones and commits the
// result. A resolution error aborts before any mutation; a creation
// error rolls back this attempt's links and leaves the store untouched.
func (s *Service) Apply(doc *config.Document, configSource string, skipValidation bool) (*types.ApplyReport, error) {
	entries, err := resolver.Resolve(doc)
	if err != nil {
		return nil, err
	}

	if err := s.store.Lock(s.lockTimeout); err != nil {
		return nil, err
	}
	defer s.store.Unlock()

	state, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	if active := state.ActiveGeneration(); active != nil {
		s.logger.Info().Uint64("generation", active.ID).Msg("removing links of outgoing generation")
		s.removeLinks(active.Links)
	}

	id := state.NextID()
	report := &types.ApplyReport{GenerationID: id}
	created := make([]types.CreatedLink, 0, len(entries))

	for i, entry := range entries {
		link, overwrote, err := s.op.Create(entry, skipValidation)
		if err != nil {
			s.rollback(created)
			return nil, withEntryIndex(err, i)
		}
		created = append(created, link)
		report.Entries = append(report.Entries, types.EntryResult{
			Entry:      entry,
			BackupPath: link.BackupPath,
			Overwrote:  overwrote,
		})
	}

	generation := types.Generation{
		ID:           id,
		CreatedAt:    s.now().UTC(),
		ConfigSource: configSource,
		Links:        created,
	}
	state.Generations = append(state.Generations, generation)
	if err := s.store.SetActive(state, id); err != nil {
		return nil, err
	}
	if err := s.store.Persist(state); err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint64("generation", id).
		Int("links", len(created)).
		Msg("generation applied")

	return report, nil
}

// Switch makes a previously created generation active again: the
// current generation's links are removed and the target generation's
// recorded links are recreated. A creation failure aborts without
// rollback and without moving the active pointer.
func (s *Service) Switch(id uint64) (*types.Generation, error) {
	if err := s.store.Lock(s.lockTimeout); err != nil {
		return nil, err
	}
	defer s.store.Unlock()

	state, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	target := state.Find(id)
	if target == nil {
		return nil, errors.Newf(errors.ErrNotFound, "generation %d does not exist", id).
			WithDetail("generation", id)
	}
	if state.Active != nil && *state.Active == id {
		return nil, errors.Newf(errors.ErrAlreadyActive, "generation %d is already active", id).
			WithDetail("generation", id)
	}

	if active := state.ActiveGeneration(); active != nil {
		s.logger.Info().Uint64("generation", active.ID).Msg("removing links of outgoing generation")
		s.removeLinks(active.Links)
	}

	refreshed := make([]types.CreatedLink, 0, len(target.Links))
	for i, link := range target.Links {
		recreated, _, err := s.op.Create(link.LinkEntry, false)
		if err != nil {
			return nil, withEntryIndex(err, i)
		}
		refreshed = append(refreshed, recreated)
	}

	// Record what this switch actually displaced, so a later unwind
	// restores the right backups
	target.Links = refreshed

	if err := s.store.SetActive(state, id); err != nil {
		return nil, err
	}
	if err := s.store.Persist(state); err != nil {
		return nil, err
	}

	s.logger.Info().Uint64("generation", id).Msg("switched active generation")

	result := *target
	return &result, nil
}

// Delete removes a non-active generation's record. It performs no
// filesystem work; the force flag only suppresses the confirmation
// prompt above this layer.
func (s *Service) Delete(id uint64) error {
	if err := s.store.Lock(s.lockTimeout); err != nil {
		return err
	}
	defer s.store.Unlock()

	state, err := s.store.Load()
	if err != nil {
		return err
	}
	if err := s.store.Remove(state, id); err != nil {
		return err
	}
	if err := s.store.Persist(state); err != nil {
		return err
	}

	s.logger.Info().Uint64("generation", id).Msg("generation deleted")
	return nil
}

// Verify reports the status of every link of the active generation.
// It is read-only, takes no lock, and an absent active generation
// yields an empty report.
func (s *Service) Verify() ([]types.VerifyResult, error) {
	state, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	active := state.ActiveGeneration()
	if active == nil {
		return []types.VerifyResult{}, nil
	}

	results := make([]types.VerifyResult, 0, len(active.Links))
	for _, link := range active.Links {
		results = append(results, s.op.Verify(link))
	}
	return results, nil
}

// List returns the full persisted state for display
func (s *Service) List() (*types.GenerationState, error) {
	return s.store.Load()
}

// Show returns one generation and whether it is active
func (s *Service) Show(id uint64) (*types.Generation, bool, error) {
	state, err := s.store.Load()
	if err != nil {
		return nil, false, err
	}
	gen := state.Find(id)
	if gen == nil {
		return nil, false, errors.Newf(errors.ErrNotFound, "generation %d does not exist", id).
			WithDetail("generation", id)
	}
	active := state.Active != nil && *state.Active == id
	return gen, active, nil
}

// Current returns the active generation, or nil when none is active
func (s *Service) Current() (*types.Generation, error) {
	state, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return state.ActiveGeneration(), nil
}

// removeLinks unwinds links in reverse creation order. Removal of an
// outgoing generation is best-effort: stale or already-missing links
// must not block moving forward.
func (s *Service) removeLinks(links []types.CreatedLink) {
	for i := len(links) - 1; i >= 0; i-- {
		if err := s.op.Remove(links[i]); err != nil {
			s.logger.Warn().
				Err(err).
				Str("target", links[i].Target).
				Msg("failed to remove link of outgoing generation, continuing")
		}
	}
}

// rollback removes the links created by a failed attempt, in reverse
func (s *Service) rollback(created []types.CreatedLink) {
	s.logger.Warn().Int("links", len(created)).Msg("rolling back partially created generation")
	for i := len(created) - 1; i >= 0; i-- {
		if err := s.op.Remove(created[i]); err != nil {
			s.logger.Error().
				Err(err).
				Str("target", created[i].Target).
				Msg("rollback failed for link")
		}
	}
}

// withEntryIndex attaches the failing entry's position to the error
func withEntryIndex(err error, index int) error {
	var structured *errors.Error
	if goerrors.As(err, &structured) {
		return structured.WithDetail("entry_index", index)
	}
	return err
}
