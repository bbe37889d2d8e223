package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/contest-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// ContestRepo implements repository.ContestRepository.
type ContestRepo struct {
	db *gorm.DB
}

// NewContestRepo creates a new contest repository.
func NewContestRepo(db *gorm.DB) *ContestRepo {
	return &ContestRepo{db: db}
}

// Create inserts a new contest.
func (r *ContestRepo) Create(contest *entity.Contest) error {
	return r.db.Create(contest).Error
}

// GetByID returns a contest by id.
func (r *ContestRepo) GetByID(id uint) (*entity.Contest, error) {
	var contest entity.Contest
	err := r.db.First(&contest, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &contest, nil
}

// List returns contests with pagination, newest first.
func (r *ContestRepo) List(limit, offset int) ([]entity.Contest, error) {
	var contests []entity.Contest
	err := r.db.Limit(limit).Offset(offset).Order("id DESC").Find(&contests).Error
	return contests, err
}

// GetByStatus returns all contests in one status.
func (r *ContestRepo) GetByStatus(status string) ([]entity.Contest, error) {
	var contests []entity.Contest
	err := r.db.Where("status = ?", status).Order("id").Find(&contests).Error
	return contests, err
}

// Update saves the full contest row.
func (r *ContestRepo) Update(contest *entity.Contest) error {
	return r.db.Save(contest).Error
}

// UpdateStatus updates only the contest status.
func (r *ContestRepo) UpdateStatus(id uint, status string) error {
	return r.db.Model(&entity.Contest{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

// IncrementSubmissionCount bumps the counter in place. A targeted column
// update so a stale in-memory contest snapshot never overwrites concurrent
// status changes.
func (r *ContestRepo) IncrementSubmissionCount(id uint) error {
	return r.db.Model(&entity.Contest{}).
		Where("id = ?", id).
		UpdateColumn("submission_count", gorm.Expr("submission_count + 1")).
		Error
}

// Delete removes a contest.
func (r *ContestRepo) Delete(id uint) error {
	return r.db.Delete(&entity.Contest{}, id).Error
}
