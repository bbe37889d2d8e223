package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/contest-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
	"github.com/yourusername/contest-api/internal/repository/memory"
	"github.com/yourusername/contest-api/internal/service/judging"
)

// stallingBackend parks every scoring call until the run context is
// cancelled, keeping the pipeline in flight for as long as the test needs.
type stallingBackend struct {
	started chan struct{}
	once    sync.Once
}

func newStallingBackend() *stallingBackend {
	return &stallingBackend{started: make(chan struct{})}
}

func (b *stallingBackend) ScoreSubmission(ctx context.Context, judge entity.JudgeID, submission *entity.Submission, criteria []string) (*judging.BackendResponse, error) {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func fastJudgingConfig() *judging.Config {
	cfg := judging.DefaultConfig()
	cfg.IntroDwell = time.Millisecond
	cfg.MeetJudgesDwell = time.Millisecond
	cfg.DeliberationDwell = time.Millisecond
	cfg.RevealDwell = time.Millisecond
	cfg.MaxScoringRetries = 0
	cfg.RetryInterval = time.Millisecond
	cfg.ScoringTimeout = time.Second
	return cfg
}

func newTestManager(
	contestRepo *MockContestRepository,
	submissionRepo *MockSubmissionRepository,
	runStore *memory.RunStore,
	backend judging.ScoringBackend,
) *ContestManager {
	return NewContestManager(
		contestRepo,
		submissionRepo,
		new(MockResultRepository),
		runStore,
		nil,
		nil,
		"",
		backend,
		judging.NoopNotifier{},
		nil,
		fastJudgingConfig(),
		nil,
	)
}

func openTestContest(id uint) *entity.Contest {
	return &entity.Contest{
		ID:              id,
		Title:           "Manager Test Contest",
		Status:          entity.ContestStatusOpen,
		PrizePool:       100,
		PlatformFeeRate: 0.2,
		PayoutTiers:     entity.FloatArray{0.5, 0.3, 0.2},
	}
}

func managerTestSubmissions(contestID uint) []entity.Submission {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []entity.Submission{
		{ID: 101, ContestID: contestID, Author: "alice", SubmittedAt: base},
		{ID: 102, ContestID: contestID, Author: "bob", SubmittedAt: base.Add(time.Minute)},
	}
}

func TestContestManager_StartJudging_RejectsNonOpenContest(t *testing.T) {
	contestRepo := new(MockContestRepository)
	submissionRepo := new(MockSubmissionRepository)
	runStore := memory.NewRunStore()
	manager := newTestManager(contestRepo, submissionRepo, runStore, judging.NewStaticBackend())
	defer manager.Shutdown()

	contestRepo.On("GetByID", uint(1)).Return(&entity.Contest{ID: 1, Status: entity.ContestStatusDraft}, nil)

	err := manager.StartJudging(1)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	submissionRepo.AssertNotCalled(t, "GetByContestID", mock.Anything)
	_, storeErr := runStore.Get(1)
	assert.ErrorIs(t, storeErr, apperrors.ErrNotFound, "no run may be registered for a rejected start")
}

func TestContestManager_StartJudging_RejectsEmptyField(t *testing.T) {
	contestRepo := new(MockContestRepository)
	submissionRepo := new(MockSubmissionRepository)
	runStore := memory.NewRunStore()
	manager := newTestManager(contestRepo, submissionRepo, runStore, judging.NewStaticBackend())
	defer manager.Shutdown()

	contestRepo.On("GetByID", uint(1)).Return(openTestContest(1), nil)
	submissionRepo.On("GetByContestID", uint(1)).Return([]entity.Submission{}, nil)

	err := manager.StartJudging(1)

	assert.ErrorIs(t, err, apperrors.ErrEmptySubmissions)
	contestRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
}

func TestContestManager_StartJudging_RejectsBadPrizeConfig(t *testing.T) {
	contestRepo := new(MockContestRepository)
	submissionRepo := new(MockSubmissionRepository)
	runStore := memory.NewRunStore()
	manager := newTestManager(contestRepo, submissionRepo, runStore, judging.NewStaticBackend())
	defer manager.Shutdown()

	contest := openTestContest(1)
	contest.PayoutTiers = entity.FloatArray{0.7, 0.7}
	contestRepo.On("GetByID", uint(1)).Return(contest, nil)
	submissionRepo.On("GetByContestID", uint(1)).Return(managerTestSubmissions(1), nil)

	err := manager.StartJudging(1)

	assert.ErrorIs(t, err, apperrors.ErrInvalidTierConfig)
	contestRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
}

func TestContestManager_StartJudging_RejectsConcurrentRun(t *testing.T) {
	contestRepo := new(MockContestRepository)
	submissionRepo := new(MockSubmissionRepository)
	runStore := memory.NewRunStore()
	manager := newTestManager(contestRepo, submissionRepo, runStore, judging.NewStaticBackend())
	defer manager.Shutdown()

	// Another instance already holds the run lock for this contest.
	require.NoError(t, runStore.Put(&entity.JudgingRun{
		RunID:     "existing-run",
		ContestID: 1,
		Phase:     string(judging.PhaseReviewing),
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
	}))

	contestRepo.On("GetByID", uint(1)).Return(openTestContest(1), nil)
	submissionRepo.On("GetByContestID", uint(1)).Return(managerTestSubmissions(1), nil)

	err := manager.StartJudging(1)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	contestRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
}

func TestContestManager_StartJudging_ReleasesRunOnStatusFailure(t *testing.T) {
	contestRepo := new(MockContestRepository)
	submissionRepo := new(MockSubmissionRepository)
	runStore := memory.NewRunStore()
	manager := newTestManager(contestRepo, submissionRepo, runStore, judging.NewStaticBackend())
	defer manager.Shutdown()

	contestRepo.On("GetByID", uint(1)).Return(openTestContest(1), nil)
	submissionRepo.On("GetByContestID", uint(1)).Return(managerTestSubmissions(1), nil)
	contestRepo.On("UpdateStatus", uint(1), entity.ContestStatusJudging).Return(assert.AnError)

	err := manager.StartJudging(1)

	require.Error(t, err)
	_, storeErr := runStore.Get(1)
	assert.ErrorIs(t, storeErr, apperrors.ErrNotFound, "run lock must be released when the freeze fails")
}

func TestContestManager_CancelJudging_AbortsRunAndReopensContest(t *testing.T) {
	contestRepo := new(MockContestRepository)
	submissionRepo := new(MockSubmissionRepository)
	runStore := memory.NewRunStore()
	backend := newStallingBackend()
	manager := newTestManager(contestRepo, submissionRepo, runStore, backend)
	defer manager.Shutdown()

	reopened := make(chan struct{})
	contestRepo.On("GetByID", uint(1)).Return(openTestContest(1), nil)
	submissionRepo.On("GetByContestID", uint(1)).Return(managerTestSubmissions(1), nil)
	contestRepo.On("UpdateStatus", uint(1), entity.ContestStatusJudging).Return(nil)
	contestRepo.On("UpdateStatus", uint(1), entity.ContestStatusOpen).Return(nil).Run(func(args mock.Arguments) {
		close(reopened)
	})

	require.NoError(t, manager.StartJudging(1))

	run, err := manager.GetRun(1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), run.ContestID)
	assert.NotEmpty(t, run.RunID)

	select {
	case <-backend.started:
	case <-time.After(2 * time.Second):
		t.Fatal("scoring backend was never called")
	}

	require.NoError(t, manager.CancelJudging(1))

	select {
	case <-reopened:
	case <-time.After(2 * time.Second):
		t.Fatal("contest was not reopened after cancellation")
	}

	// The run lock is released once the goroutine unwinds.
	assert.Eventually(t, func() bool {
		_, err := runStore.Get(1)
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)

	contestRepo.AssertExpectations(t)
}

func TestContestManager_CancelJudging_UnknownContest(t *testing.T) {
	manager := newTestManager(new(MockContestRepository), new(MockSubmissionRepository), memory.NewRunStore(), judging.NewStaticBackend())
	defer manager.Shutdown()

	err := manager.CancelJudging(42)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestContestManager_Shutdown_CancelsInFlightRuns(t *testing.T) {
	contestRepo := new(MockContestRepository)
	submissionRepo := new(MockSubmissionRepository)
	runStore := memory.NewRunStore()
	backend := newStallingBackend()
	manager := newTestManager(contestRepo, submissionRepo, runStore, backend)

	reopened := make(chan struct{})
	contestRepo.On("GetByID", uint(1)).Return(openTestContest(1), nil)
	submissionRepo.On("GetByContestID", uint(1)).Return(managerTestSubmissions(1), nil)
	contestRepo.On("UpdateStatus", uint(1), entity.ContestStatusJudging).Return(nil)
	contestRepo.On("UpdateStatus", uint(1), entity.ContestStatusOpen).Return(nil).Run(func(args mock.Arguments) {
		close(reopened)
	})

	require.NoError(t, manager.StartJudging(1))

	select {
	case <-backend.started:
	case <-time.After(2 * time.Second):
		t.Fatal("scoring backend was never called")
	}

	manager.Shutdown()

	select {
	case <-reopened:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight run did not abort on shutdown")
	}
}
