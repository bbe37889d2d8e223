package repository

import (
	"github.com/yourusername/contest-api/internal/domain/entity"
	"gorm.io/gorm"
)

// ResultRepository defines persistence methods for judge scores and final
// results. Score and result rows are written once, inside the settlement
// transaction, and never updated afterwards.
type ResultRepository interface {
	SaveScores(tx *gorm.DB, scores []entity.JudgeScore) error
	SaveResults(tx *gorm.DB, results []entity.Result) error
	GetContestResults(contestID uint, limit, offset int) ([]entity.Result, int64, error)
	GetAllContestResults(contestID uint) ([]entity.Result, error)
	GetContestWinners(contestID uint) ([]entity.Result, error)
	GetSubmissionScores(contestID uint) ([]entity.JudgeScore, error)
}
