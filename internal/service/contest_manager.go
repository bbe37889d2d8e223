package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
	"github.com/yourusername/contest-api/internal/service/judging"
)

// ContestManager owns judging runs: it freezes the contest, drives the reveal
// pipeline in a goroutine and persists the settlement when the run completes.
// One manager serves all contests; per-run state lives in the run store and
// the cancel map.
type ContestManager struct {
	contestRepo    repository.ContestRepository
	submissionRepo repository.SubmissionRepository
	resultRepo     repository.ResultRepository
	runStore       repository.RunStore
	cacheRepo      repository.CacheRepository

	emailService EmailService
	adminEmail   string

	backend       judging.ScoringBackend
	notifier      judging.Notifier
	clock         judging.Clock
	judgingConfig *judging.Config

	db *gorm.DB

	// contestID -> context.CancelFunc for in-flight runs on this instance.
	cancelFuncs sync.Map

	ctx    context.Context
	cancel context.CancelFunc
}

// NewContestManager creates the manager. Optional collaborators (notifier,
// clock, email) get safe defaults.
func NewContestManager(
	contestRepo repository.ContestRepository,
	submissionRepo repository.SubmissionRepository,
	resultRepo repository.ResultRepository,
	runStore repository.RunStore,
	cacheRepo repository.CacheRepository,
	emailService EmailService,
	adminEmail string,
	backend judging.ScoringBackend,
	notifier judging.Notifier,
	clock judging.Clock,
	judgingConfig *judging.Config,
	db *gorm.DB,
) *ContestManager {
	ctx, cancel := context.WithCancel(context.Background())

	if notifier == nil {
		notifier = judging.NoopNotifier{}
	}
	if clock == nil {
		clock = judging.SystemClock()
	}
	if judgingConfig == nil {
		judgingConfig = judging.DefaultConfig()
	}
	if emailService == nil {
		emailService = &NoopEmailService{}
	}

	m := &ContestManager{
		contestRepo:    contestRepo,
		submissionRepo: submissionRepo,
		resultRepo:     resultRepo,
		runStore:       runStore,
		cacheRepo:      cacheRepo,
		emailService:   emailService,
		adminEmail:     adminEmail,
		backend:        backend,
		notifier:       notifier,
		clock:          clock,
		judgingConfig:  judgingConfig,
		db:             db,
		ctx:            ctx,
		cancel:         cancel,
	}

	log.Println("[ContestManager] Initialized")
	return m
}

// StartJudging freezes an open contest and launches the reveal pipeline.
// Fails fast on an empty submission list or a bad prize configuration before
// any state is touched; a concurrent run for the same contest is rejected
// with ErrConflict via the run store.
func (m *ContestManager) StartJudging(contestID uint) error {
	contest, err := m.contestRepo.GetByID(contestID)
	if err != nil {
		return err
	}
	if !contest.IsOpen() {
		return fmt.Errorf("%w: contest #%d is %s, judging starts from open contests only",
			apperrors.ErrValidation, contestID, contest.Status)
	}

	submissions, err := m.submissionRepo.GetByContestID(contestID)
	if err != nil {
		return err
	}
	if len(submissions) == 0 {
		return fmt.Errorf("contest #%d: %w", contestID, apperrors.ErrEmptySubmissions)
	}
	if err := contest.ValidatePrizePool(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidPrizePool, err)
	}
	if err := contest.ValidatePayoutTiers(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidTierConfig, err)
	}

	run := &entity.JudgingRun{
		RunID:     uuid.New().String(),
		ContestID: contestID,
		Phase:     string(judging.PhaseIdle),
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := m.runStore.Put(run); err != nil {
		return err
	}

	if err := m.contestRepo.UpdateStatus(contestID, entity.ContestStatusJudging); err != nil {
		_ = m.runStore.Delete(contestID)
		return err
	}

	runCtx, cancelRun := context.WithCancel(m.ctx)
	m.cancelFuncs.Store(contestID, cancelRun)

	log.Printf("[ContestManager] Contest #%d: judging started (run %s, %d submissions)",
		contestID, run.RunID, len(submissions))

	go m.runJudging(runCtx, contest, submissions)
	return nil
}

// CancelJudging aborts an in-flight run on this instance. No settlement is
// produced and the contest reopens.
func (m *ContestManager) CancelJudging(contestID uint) error {
	value, ok := m.cancelFuncs.Load(contestID)
	if !ok {
		return fmt.Errorf("%w: no judging run for contest #%d", apperrors.ErrNotFound, contestID)
	}
	value.(context.CancelFunc)()
	log.Printf("[ContestManager] Contest #%d: judging cancellation requested", contestID)
	return nil
}

// GetRun returns the in-flight run record for a contest.
func (m *ContestManager) GetRun(contestID uint) (*entity.JudgingRun, error) {
	return m.runStore.Get(contestID)
}

// Shutdown cancels all in-flight runs.
func (m *ContestManager) Shutdown() {
	log.Println("[ContestManager] Shutting down, cancelling in-flight runs")
	m.cancel()
}

// runJudging drives one reveal pipeline run to completion.
func (m *ContestManager) runJudging(ctx context.Context, contest *entity.Contest, submissions []entity.Submission) {
	contestID := contest.ID
	defer m.cancelFuncs.Delete(contestID)
	defer func() {
		if err := m.runStore.Delete(contestID); err != nil {
			log.Printf("[ContestManager] Contest #%d: run store cleanup failed: %v", contestID, err)
		}
	}()

	deps := judging.NewDependencies(m.backend, m.notifier, m.clock, m.judgingConfig)
	sequencer := judging.NewRevealSequencer(m.judgingConfig, deps, nil)
	sequencer.OnPhaseChange = func(id uint, phase judging.Phase) {
		if err := m.runStore.UpdatePhase(id, string(phase)); err != nil {
			log.Printf("[ContestManager] Contest #%d: phase update failed: %v", id, err)
		}
	}

	settlement, err := sequencer.Run(ctx, contest, submissions)
	if err != nil {
		log.Printf("[ContestManager] Contest #%d: judging aborted: %v", contestID, err)
		// No partial settlement: the contest reopens and can be re-judged.
		if statusErr := m.contestRepo.UpdateStatus(contestID, entity.ContestStatusOpen); statusErr != nil {
			log.Printf("[ContestManager] Contest #%d: failed to reopen after abort: %v", contestID, statusErr)
		}
		return
	}

	if err := m.persistSettlement(contest, submissions, settlement); err != nil {
		log.Printf("[ContestManager] Contest #%d: settlement persistence failed: %v", contestID, err)
		if statusErr := m.contestRepo.UpdateStatus(contestID, entity.ContestStatusOpen); statusErr != nil {
			log.Printf("[ContestManager] Contest #%d: failed to reopen after persistence failure: %v", contestID, statusErr)
		}
		return
	}

	m.announceResults(contest, settlement)
}

// persistSettlement writes judge scores, result rows and the final contest
// status in one transaction.
func (m *ContestManager) persistSettlement(contest *entity.Contest, submissions []entity.Submission, settlement *entity.Settlement) error {
	authors := make(map[uint]string, len(submissions))
	for _, sub := range submissions {
		authors[sub.ID] = sub.Author
	}

	var scores []entity.JudgeScore
	rows := make([]entity.Result, 0, len(settlement.Results))
	for _, r := range settlement.Results {
		scores = append(scores, r.Scores...)

		row := entity.Result{
			ContestID:      contest.ID,
			SubmissionID:   r.SubmissionID,
			Author:         authors[r.SubmissionID],
			TotalScore:     r.TotalScore,
			Rank:           r.Rank,
			IsWinner:       r.PayoutAmount > 0,
			PayoutAmount:   r.PayoutAmount,
			DegradedScores: r.DegradedCount(),
			CompletedAt:    settlement.SettledAt,
		}
		if s := r.ScoreFor(entity.JudgeVisual); s != nil {
			row.VisualScore = s.Score
		}
		if s := r.ScoreFor(entity.JudgeLinguistic); s != nil {
			row.LinguisticScore = s.Score
		}
		if s := r.ScoreFor(entity.JudgeAudience); s != nil {
			row.AudienceScore = s.Score
		}
		rows = append(rows, row)
	}

	tx := m.db.Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()
	if tx.Error != nil {
		return tx.Error
	}

	if err := m.resultRepo.SaveScores(tx, scores); err != nil {
		tx.Rollback()
		return fmt.Errorf("save scores: %w", err)
	}
	if err := m.resultRepo.SaveResults(tx, rows); err != nil {
		tx.Rollback()
		return fmt.Errorf("save results: %w", err)
	}

	if err := tx.Model(&entity.Contest{}).
		Where("id = ?", contest.ID).
		Updates(map[string]interface{}{
			"status":    entity.ContestStatusSettled,
			"judged_at": settlement.SettledAt,
		}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("update contest status: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit settlement: %w", err)
	}

	// A stale cached results page from a previous run must not outlive the
	// new settlement.
	if m.cacheRepo != nil {
		if err := m.cacheRepo.Delete(fmt.Sprintf("contest:results:%d:first", contest.ID)); err != nil {
			log.Printf("[ContestManager] Contest #%d: results cache invalidation failed: %v", contest.ID, err)
		}
	}

	log.Printf("[ContestManager] Contest #%d: settlement persisted (%d results, winners pool %.2f)",
		contest.ID, len(rows), settlement.WinnersPool)
	return nil
}

// announceResults notifies watchers and mails the settlement summary. Both
// are best-effort: the settlement is already durable.
func (m *ContestManager) announceResults(contest *entity.Contest, settlement *entity.Settlement) {
	if err := m.notifier.BroadcastEventToContest(contest.ID, judging.Event{
		Type: "contest:results_available",
		Data: map[string]interface{}{
			"contest_id": contest.ID,
			"settled_at": settlement.SettledAt,
		},
	}); err != nil {
		log.Printf("[ContestManager] Contest #%d: results notification failed: %v", contest.ID, err)
	}

	if m.adminEmail == "" {
		return
	}
	emailCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	idempotencyKey := fmt.Sprintf("settlement-%d-%d", contest.ID, settlement.SettledAt.Unix())
	if err := m.emailService.SendSettlementSummary(emailCtx, m.adminEmail, contest, settlement, idempotencyKey); err != nil {
		log.Printf("[ContestManager] Contest #%d: settlement email failed: %v", contest.ID, err)
	}
}
