package repository

import (
	"github.com/yourusername/contest-api/internal/domain/entity"
)

// SubmissionRepository defines persistence methods for submissions. The
// registry order returned by GetByContestID (submission time, then id) is the
// order the scoring orchestrator processes in.
type SubmissionRepository interface {
	Create(submission *entity.Submission) error
	GetByID(id uint) (*entity.Submission, error)
	GetByContestID(contestID uint) ([]entity.Submission, error)
	CountByContestID(contestID uint) (int64, error)
}
