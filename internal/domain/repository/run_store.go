package repository

import (
	"github.com/yourusername/contest-api/internal/domain/entity"
)

// RunStore tracks in-flight judging runs keyed by contest id. Implementations
// are injected (redis in production, in-memory in tests); there is no
// module-level registry of runs.
type RunStore interface {
	// Put records a run. Returns ErrConflict if another run is already
	// registered for the same contest.
	Put(run *entity.JudgingRun) error
	Get(contestID uint) (*entity.JudgingRun, error)
	UpdatePhase(contestID uint, phase string) error
	Delete(contestID uint) error
}
