package service

import (
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

// ============================================================================
// Hand-written mocks for the repository interfaces, shared by the service
// tests in this package.
// ============================================================================

// MockContestRepository implements repository.ContestRepository.
type MockContestRepository struct {
	mock.Mock
}

func (m *MockContestRepository) Create(contest *entity.Contest) error {
	args := m.Called(contest)
	return args.Error(0)
}

func (m *MockContestRepository) GetByID(id uint) (*entity.Contest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Contest), args.Error(1)
}

func (m *MockContestRepository) List(limit, offset int) ([]entity.Contest, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Contest), args.Error(1)
}

func (m *MockContestRepository) GetByStatus(status string) ([]entity.Contest, error) {
	args := m.Called(status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Contest), args.Error(1)
}

func (m *MockContestRepository) Update(contest *entity.Contest) error {
	args := m.Called(contest)
	return args.Error(0)
}

func (m *MockContestRepository) UpdateStatus(id uint, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockContestRepository) IncrementSubmissionCount(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockContestRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockSubmissionRepository implements repository.SubmissionRepository.
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(submission *entity.Submission) error {
	args := m.Called(submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByID(id uint) (*entity.Submission, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) GetByContestID(contestID uint) ([]entity.Submission, error) {
	args := m.Called(contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) CountByContestID(contestID uint) (int64, error) {
	args := m.Called(contestID)
	return args.Get(0).(int64), args.Error(1)
}

// MockResultRepository implements repository.ResultRepository.
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) SaveScores(tx *gorm.DB, scores []entity.JudgeScore) error {
	args := m.Called(tx, scores)
	return args.Error(0)
}

func (m *MockResultRepository) SaveResults(tx *gorm.DB, results []entity.Result) error {
	args := m.Called(tx, results)
	return args.Error(0)
}

func (m *MockResultRepository) GetContestResults(contestID uint, limit, offset int) ([]entity.Result, int64, error) {
	args := m.Called(contestID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.Result), args.Get(1).(int64), args.Error(2)
}

func (m *MockResultRepository) GetAllContestResults(contestID uint) ([]entity.Result, error) {
	args := m.Called(contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Result), args.Error(1)
}

func (m *MockResultRepository) GetContestWinners(contestID uint) ([]entity.Result, error) {
	args := m.Called(contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Result), args.Error(1)
}

func (m *MockResultRepository) GetSubmissionScores(contestID uint) ([]entity.JudgeScore, error) {
	args := m.Called(contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.JudgeScore), args.Error(1)
}

// MockCacheRepository implements repository.CacheRepository.
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepository) Increment(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepository) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) ExpireAt(key string, expiration time.Time) error {
	args := m.Called(key, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}
