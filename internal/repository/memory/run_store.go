package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// RunStore is an in-process repository.RunStore. Used in tests and when the
// service runs as a single instance without redis.
type RunStore struct {
	mu   sync.Mutex
	runs map[uint]entity.JudgingRun
}

// NewRunStore creates an empty in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[uint]entity.JudgingRun)}
}

// Put registers a run, rejecting a second run for the same contest.
func (s *RunStore) Put(run *entity.JudgingRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ContestID]; exists {
		return fmt.Errorf("%w: judging already running for contest #%d",
			apperrors.ErrConflict, run.ContestID)
	}
	s.runs[run.ContestID] = *run
	return nil
}

// Get returns the run registered for a contest, or ErrNotFound.
func (s *RunStore) Get(contestID uint) (*entity.JudgingRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, exists := s.runs[contestID]
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	return &run, nil
}

// UpdatePhase records run progress.
func (s *RunStore) UpdatePhase(contestID uint, phase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, exists := s.runs[contestID]
	if !exists {
		return apperrors.ErrNotFound
	}
	run.Phase = phase
	run.UpdatedAt = time.Now()
	s.runs[contestID] = run
	return nil
}

// Delete removes the run record.
func (s *RunStore) Delete(contestID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, contestID)
	return nil
}
