package repository

import (
	"github.com/yourusername/contest-api/internal/domain/entity"
)

// ContestRepository defines persistence methods for contests.
type ContestRepository interface {
	Create(contest *entity.Contest) error
	GetByID(id uint) (*entity.Contest, error)
	List(limit, offset int) ([]entity.Contest, error)
	GetByStatus(status string) ([]entity.Contest, error)
	Update(contest *entity.Contest) error
	UpdateStatus(id uint, status string) error
	IncrementSubmissionCount(id uint) error
	Delete(id uint) error
}
