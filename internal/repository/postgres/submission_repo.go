package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/contest-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// SubmissionRepo implements repository.SubmissionRepository.
type SubmissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo creates a new submission repository.
func NewSubmissionRepo(db *gorm.DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

// Create registers a submission. The unique index on (contest_id, author)
// allows one entry per author per contest; a violation maps to ErrConflict.
func (r *SubmissionRepo) Create(submission *entity.Submission) error {
	err := r.db.Create(submission).Error
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: author %q already entered contest #%d",
			apperrors.ErrConflict, submission.Author, submission.ContestID)
	}
	return err
}

// GetByID returns a submission by id.
func (r *SubmissionRepo) GetByID(id uint) (*entity.Submission, error) {
	var submission entity.Submission
	err := r.db.First(&submission, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// GetByContestID returns the contest's submissions in registry order:
// submission time ascending, id as the stable tie-break. This is the order
// the scoring pipeline processes in.
func (r *SubmissionRepo) GetByContestID(contestID uint) ([]entity.Submission, error) {
	var submissions []entity.Submission
	err := r.db.Where("contest_id = ?", contestID).
		Order("submitted_at ASC, id ASC").
		Find(&submissions).Error
	return submissions, err
}

// CountByContestID returns the number of submissions in a contest.
func (r *SubmissionRepo) CountByContestID(contestID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Submission{}).
		Where("contest_id = ?", contestID).
		Count(&count).Error
	return count, err
}

// isUniqueViolation matches Postgres unique violation (23505) for both the
// pgconn and lib/pq drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
