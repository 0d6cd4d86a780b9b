package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"rankcli/internal/ranking"
	"rankcli/internal/roster"
	"rankcli/pkg/contracts/domain"
)

// Session errors.
var (
	ErrNoRoster = errors.New("no roster loaded in session")
)

// Session carries one user's workflow state. The roster field always
// holds a complete, consistent table; merges build the replacement off to
// the side and swap it in under the lock, so a failed merge leaves the
// previous roster untouched.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.RWMutex
	roster  *roster.Table
	weights domain.WeightMap
	history []domain.UploadRecord
}

// SetRoster installs a freshly loaded roster. Any previously merged grade
// columns live in the old table, so the upload history is reset with it;
// weight choices survive since they key on module codes.
func (s *Session) SetRoster(t *roster.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = t
	s.history = nil
}

// Roster returns the current roster snapshot, or nil when none is loaded.
// Tables are immutable, so sharing the pointer is safe.
func (s *Session) Roster() *roster.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster
}

// ApplyDocument merges one extracted result document into the roster.
// A module that is already merged is an error unless replace is set, in
// which case its column is dropped and rebuilt from the new records.
func (s *Session) ApplyDocument(desc domain.ModuleDescriptor, records []domain.GradeRecord, replace bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.roster == nil {
		return ErrNoRoster
	}

	base := s.roster
	replaced := false
	if base.HasModule(desc.Code) {
		if !replace {
			return fmt.Errorf("module %q: %w", desc.Code, roster.ErrDuplicateModule)
		}
		base = base.DropModule(desc.Code)
		replaced = true
	}

	merged, err := base.Merge(records, desc.Code)
	if err != nil {
		return err
	}

	s.roster = merged
	s.history = append(s.history, domain.UploadRecord{
		ModuleCode:  desc.Code,
		ModuleName:  desc.Name,
		RecordCount: len(records),
		Replaced:    replaced,
		UploadedAt:  time.Now(),
	})
	return nil
}

// SetWeights merges weight choices into the session, validating the
// credit range up front. Existing entries for other modules are kept so
// weights can be supplied incrementally as documents arrive.
func (s *Session) SetWeights(weights domain.WeightMap) error {
	if err := ranking.ValidateWeightBounds(weights); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.weights == nil {
		s.weights = make(domain.WeightMap, len(weights))
	}
	for code, w := range weights {
		s.weights[code] = w
	}
	return nil
}

// Weights returns a copy of the session's weight map.
func (s *Session) Weights() domain.WeightMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(domain.WeightMap, len(s.weights))
	for code, w := range s.weights {
		out[code] = w
	}
	return out
}

// History returns a copy of the processed-document history.
func (s *Session) History() []domain.UploadRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.UploadRecord(nil), s.history...)
}

// ComputeRanking derives SGPA and Rank over the current roster with the
// session's weights and installs the ranked table as the new snapshot.
// Ranking refuses to run while any merged module lacks a weight.
func (s *Session) ComputeRanking() (*roster.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.roster == nil {
		return nil, ErrNoRoster
	}

	ranked, err := ranking.Compute(s.roster, s.weights)
	if err != nil {
		return nil, err
	}

	s.roster = ranked
	return ranked, nil
}
