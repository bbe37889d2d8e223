package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

// ResultRepo implements repository.ResultRepository.
type ResultRepo struct {
	db *gorm.DB
}

// NewResultRepo creates a new result repository.
func NewResultRepo(db *gorm.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// SaveScores inserts all per-judge scores of a run. Called inside the
// settlement transaction so scores and results land atomically.
func (r *ResultRepo) SaveScores(tx *gorm.DB, scores []entity.JudgeScore) error {
	if len(scores) == 0 {
		return nil
	}
	return tx.Create(&scores).Error
}

// SaveResults inserts the final per-submission result rows. Called inside the
// settlement transaction.
func (r *ResultRepo) SaveResults(tx *gorm.DB, results []entity.Result) error {
	if len(results) == 0 {
		return nil
	}
	return tx.Create(&results).Error
}

// GetContestResults returns a page of contest results ordered by rank,
// together with the total row count for the contest.
func (r *ResultRepo) GetContestResults(contestID uint, limit, offset int) ([]entity.Result, int64, error) {
	var results []entity.Result
	var total int64

	tx := r.db.Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()
	if tx.Error != nil {
		return nil, 0, tx.Error
	}

	err := tx.Model(&entity.Result{}).Where("contest_id = ?", contestID).Count(&total).Error
	if err != nil {
		tx.Rollback()
		return nil, 0, err
	}

	err = tx.Where("contest_id = ?", contestID).
		Order("rank ASC, total_score DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error
	if err != nil {
		tx.Rollback()
		return nil, 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// GetAllContestResults returns every result of a contest ordered by rank.
// An empty slice is a valid answer for a contest without results.
func (r *ResultRepo) GetAllContestResults(contestID uint) ([]entity.Result, error) {
	var results []entity.Result
	err := r.db.Where("contest_id = ?", contestID).
		Order("rank ASC, total_score DESC").
		Find(&results).Error
	return results, err
}

// GetContestWinners returns the results that received a payout, best first.
func (r *ResultRepo) GetContestWinners(contestID uint) ([]entity.Result, error) {
	var winners []entity.Result
	err := r.db.Where("contest_id = ? AND is_winner = ?", contestID, true).
		Order("rank ASC").
		Find(&winners).Error
	return winners, err
}

// GetSubmissionScores returns all persisted judge scores of a contest in
// scoring order: submission, then judge.
func (r *ResultRepo) GetSubmissionScores(contestID uint) ([]entity.JudgeScore, error) {
	var scores []entity.JudgeScore
	err := r.db.Where("contest_id = ?", contestID).
		Order("submission_id ASC, judge ASC").
		Find(&scores).Error
	return scores, err
}
