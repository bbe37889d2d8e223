package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/contest-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

func newContestService(
	contestRepo *MockContestRepository,
	submissionRepo *MockSubmissionRepository,
	resultRepo *MockResultRepository,
	cacheRepo *MockCacheRepository,
) *ContestService {
	return NewContestService(contestRepo, submissionRepo, resultRepo, cacheRepo)
}

func TestContestService_CreateContest(t *testing.T) {
	t.Run("creates a draft contest with a valid configuration", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		svc := newContestService(contestRepo, new(MockSubmissionRepository), new(MockResultRepository), new(MockCacheRepository))

		contest := &entity.Contest{
			Title:           "August Remix Round",
			PrizePool:       100,
			PlatformFeeRate: 0.2,
			PayoutTiers:     entity.FloatArray{0.5, 0.3, 0.2},
		}
		contestRepo.On("Create", contest).Return(nil)

		err := svc.CreateContest(contest)

		require.NoError(t, err)
		assert.Equal(t, entity.ContestStatusDraft, contest.Status)
		contestRepo.AssertExpectations(t)
	})

	t.Run("rejects a missing title", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		svc := newContestService(contestRepo, new(MockSubmissionRepository), new(MockResultRepository), new(MockCacheRepository))

		err := svc.CreateContest(&entity.Contest{
			PrizePool:   100,
			PayoutTiers: entity.FloatArray{1.0},
		})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		contestRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("rejects a negative prize pool", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		svc := newContestService(contestRepo, new(MockSubmissionRepository), new(MockResultRepository), new(MockCacheRepository))

		err := svc.CreateContest(&entity.Contest{
			Title:       "Broken Pool",
			PrizePool:   -50,
			PayoutTiers: entity.FloatArray{1.0},
		})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		contestRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("rejects tiers summing above one", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		svc := newContestService(contestRepo, new(MockSubmissionRepository), new(MockResultRepository), new(MockCacheRepository))

		err := svc.CreateContest(&entity.Contest{
			Title:       "Greedy Tiers",
			PrizePool:   100,
			PayoutTiers: entity.FloatArray{0.6, 0.5},
		})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		contestRepo.AssertNotCalled(t, "Create", mock.Anything)
	})
}

func TestContestService_OpenContest(t *testing.T) {
	t.Run("opens a draft contest", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		svc := newContestService(contestRepo, new(MockSubmissionRepository), new(MockResultRepository), new(MockCacheRepository))

		contestRepo.On("GetByID", uint(7)).Return(&entity.Contest{ID: 7, Status: entity.ContestStatusDraft}, nil)
		contestRepo.On("UpdateStatus", uint(7), entity.ContestStatusOpen).Return(nil)

		err := svc.OpenContest(7)

		require.NoError(t, err)
		contestRepo.AssertExpectations(t)
	})

	t.Run("rejects opening an already settled contest", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		svc := newContestService(contestRepo, new(MockSubmissionRepository), new(MockResultRepository), new(MockCacheRepository))

		contestRepo.On("GetByID", uint(7)).Return(&entity.Contest{ID: 7, Status: entity.ContestStatusSettled}, nil)

		err := svc.OpenContest(7)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		contestRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})

	t.Run("propagates not found", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		svc := newContestService(contestRepo, new(MockSubmissionRepository), new(MockResultRepository), new(MockCacheRepository))

		contestRepo.On("GetByID", uint(99)).Return(nil, apperrors.ErrNotFound)

		err := svc.OpenContest(99)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestContestService_CancelContest(t *testing.T) {
	t.Run("cancels an open contest", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		svc := newContestService(contestRepo, new(MockSubmissionRepository), new(MockResultRepository), new(MockCacheRepository))

		contestRepo.On("GetByID", uint(3)).Return(&entity.Contest{ID: 3, Status: entity.ContestStatusOpen}, nil)
		contestRepo.On("UpdateStatus", uint(3), entity.ContestStatusCancelled).Return(nil)

		err := svc.CancelContest(3)

		require.NoError(t, err)
		contestRepo.AssertExpectations(t)
	})

	t.Run("rejects cancelling a settled contest", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		svc := newContestService(contestRepo, new(MockSubmissionRepository), new(MockResultRepository), new(MockCacheRepository))

		contestRepo.On("GetByID", uint(3)).Return(&entity.Contest{ID: 3, Status: entity.ContestStatusSettled}, nil)

		err := svc.CancelContest(3)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestContestService_RegisterSubmission(t *testing.T) {
	openContest := func() *entity.Contest {
		return &entity.Contest{ID: 5, Status: entity.ContestStatusOpen}
	}

	t.Run("registers a submission and stamps the server time", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		submissionRepo := new(MockSubmissionRepository)
		svc := newContestService(contestRepo, submissionRepo, new(MockResultRepository), new(MockCacheRepository))

		contest := openContest()
		contestRepo.On("GetByID", uint(5)).Return(contest, nil)
		submissionRepo.On("Create", mock.AnythingOfType("*entity.Submission")).Return(nil)
		contestRepo.On("IncrementSubmissionCount", uint(5)).Return(nil)

		submission := &entity.Submission{
			Author:          "alice",
			SourceWorkTitle: "Twelfth Night",
			PromptText:      "a storm at sea, oil on canvas",
		}
		err := svc.RegisterSubmission(5, submission)

		require.NoError(t, err)
		assert.Equal(t, uint(5), submission.ContestID)
		assert.False(t, submission.SubmittedAt.IsZero(), "submission timestamp must be assigned server-side")
		contestRepo.AssertExpectations(t)
		submissionRepo.AssertExpectations(t)
	})

	t.Run("never writes the contest snapshot back", func(t *testing.T) {
		// A full-row save here would carry the status read before the insert
		// and could revert a judging freeze that landed in between.
		contestRepo := new(MockContestRepository)
		submissionRepo := new(MockSubmissionRepository)
		svc := newContestService(contestRepo, submissionRepo, new(MockResultRepository), new(MockCacheRepository))

		contestRepo.On("GetByID", uint(5)).Return(openContest(), nil)
		submissionRepo.On("Create", mock.AnythingOfType("*entity.Submission")).Return(nil)
		contestRepo.On("IncrementSubmissionCount", uint(5)).Return(nil)

		err := svc.RegisterSubmission(5, &entity.Submission{
			Author:          "bob",
			SourceWorkTitle: "The Tempest",
			PromptText:      "shipwreck on a moonlit reef",
		})

		require.NoError(t, err)
		contestRepo.AssertNotCalled(t, "Update", mock.Anything)
		contestRepo.AssertCalled(t, "IncrementSubmissionCount", uint(5))
	})

	t.Run("rejects submissions to a non-open contest", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		submissionRepo := new(MockSubmissionRepository)
		svc := newContestService(contestRepo, submissionRepo, new(MockResultRepository), new(MockCacheRepository))

		contestRepo.On("GetByID", uint(5)).Return(&entity.Contest{ID: 5, Status: entity.ContestStatusJudging}, nil)

		err := svc.RegisterSubmission(5, &entity.Submission{
			Author:          "alice",
			SourceWorkTitle: "Twelfth Night",
			PromptText:      "a storm at sea",
		})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		submissionRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("rejects an incomplete submission", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		submissionRepo := new(MockSubmissionRepository)
		svc := newContestService(contestRepo, submissionRepo, new(MockResultRepository), new(MockCacheRepository))

		contestRepo.On("GetByID", uint(5)).Return(openContest(), nil)

		err := svc.RegisterSubmission(5, &entity.Submission{Author: "alice"})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		submissionRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("propagates a duplicate-author conflict from the repository", func(t *testing.T) {
		contestRepo := new(MockContestRepository)
		submissionRepo := new(MockSubmissionRepository)
		svc := newContestService(contestRepo, submissionRepo, new(MockResultRepository), new(MockCacheRepository))

		contestRepo.On("GetByID", uint(5)).Return(openContest(), nil)
		submissionRepo.On("Create", mock.AnythingOfType("*entity.Submission")).Return(apperrors.ErrConflict)

		err := svc.RegisterSubmission(5, &entity.Submission{
			Author:          "alice",
			SourceWorkTitle: "Twelfth Night",
			PromptText:      "a storm at sea",
		})

		assert.ErrorIs(t, err, apperrors.ErrConflict)
		contestRepo.AssertNotCalled(t, "IncrementSubmissionCount", mock.Anything)
	})
}

func TestContestService_GetResults(t *testing.T) {
	results := []entity.Result{
		{ContestID: 9, SubmissionID: 101, Rank: 1, TotalScore: 27.5},
		{ContestID: 9, SubmissionID: 102, Rank: 2, TotalScore: 24.0},
	}

	t.Run("falls back to the database on a cache miss and fills the cache", func(t *testing.T) {
		resultRepo := new(MockResultRepository)
		cacheRepo := new(MockCacheRepository)
		svc := newContestService(new(MockContestRepository), new(MockSubmissionRepository), resultRepo, cacheRepo)

		cacheRepo.On("GetJSON", "contest:results:9:first", mock.Anything).Return(errors.New("redis: nil"))
		resultRepo.On("GetContestResults", uint(9), 20, 0).Return(results, int64(2), nil)
		cacheRepo.On("SetJSON", "contest:results:9:first", mock.Anything, resultsCacheTTL).Return(nil)

		got, total, err := svc.GetResults(9, 1, 20)

		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, got, 2)
		resultRepo.AssertExpectations(t)
		cacheRepo.AssertExpectations(t)
	})

	t.Run("does not touch the cache for later pages", func(t *testing.T) {
		resultRepo := new(MockResultRepository)
		cacheRepo := new(MockCacheRepository)
		svc := newContestService(new(MockContestRepository), new(MockSubmissionRepository), resultRepo, cacheRepo)

		resultRepo.On("GetContestResults", uint(9), 20, 20).Return([]entity.Result{}, int64(2), nil)

		_, _, err := svc.GetResults(9, 2, 20)

		require.NoError(t, err)
		cacheRepo.AssertNotCalled(t, "GetJSON", mock.Anything, mock.Anything)
		cacheRepo.AssertNotCalled(t, "SetJSON", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bypasses the cache for a non-canonical page size", func(t *testing.T) {
		// The cache holds the default-sized first page only; a first-page
		// request for 50 rows must hit the database, not a 20-row cached slice.
		resultRepo := new(MockResultRepository)
		cacheRepo := new(MockCacheRepository)
		svc := newContestService(new(MockContestRepository), new(MockSubmissionRepository), resultRepo, cacheRepo)

		resultRepo.On("GetContestResults", uint(9), 50, 0).Return(results, int64(2), nil)

		_, _, err := svc.GetResults(9, 1, 50)

		require.NoError(t, err)
		resultRepo.AssertExpectations(t)
		cacheRepo.AssertNotCalled(t, "GetJSON", mock.Anything, mock.Anything)
		cacheRepo.AssertNotCalled(t, "SetJSON", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns persisted judge verdicts", func(t *testing.T) {
		resultRepo := new(MockResultRepository)
		svc := newContestService(new(MockContestRepository), new(MockSubmissionRepository), resultRepo, new(MockCacheRepository))

		scores := []entity.JudgeScore{
			{ContestID: 9, SubmissionID: 101, Judge: entity.JudgeVisual, Score: 8.5},
			{ContestID: 9, SubmissionID: 101, Judge: entity.JudgeLinguistic, Score: 7.0},
		}
		resultRepo.On("GetSubmissionScores", uint(9)).Return(scores, nil)

		got, err := svc.GetSubmissionScores(9)

		require.NoError(t, err)
		assert.Equal(t, scores, got)
		resultRepo.AssertExpectations(t)
	})

	t.Run("clamps page and page size", func(t *testing.T) {
		resultRepo := new(MockResultRepository)
		cacheRepo := new(MockCacheRepository)
		svc := newContestService(new(MockContestRepository), new(MockSubmissionRepository), resultRepo, cacheRepo)

		cacheRepo.On("GetJSON", "contest:results:9:first", mock.Anything).Return(errors.New("redis: nil"))
		resultRepo.On("GetContestResults", uint(9), 20, 0).Return(results, int64(2), nil)
		cacheRepo.On("SetJSON", "contest:results:9:first", mock.Anything, resultsCacheTTL).Return(nil)

		_, _, err := svc.GetResults(9, 0, 500)

		require.NoError(t, err)
		resultRepo.AssertExpectations(t)
	})
}
