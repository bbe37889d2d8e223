package service

import (
	"fmt"
	"log"
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// resultsCacheTTL bounds staleness of the cached results page. Results never
// change after settlement, so a short TTL only limits cache memory.
const resultsCacheTTL = 10 * time.Minute

// defaultResultsPageSize is the canonical page length. Only requests for this
// exact first page hit the cache; a differently sized page must not be served
// a slice cached for another size.
const defaultResultsPageSize = 20

// ContestService manages the contest lifecycle up to the judging hand-off:
// creation, opening, submission registration and read access to results.
type ContestService struct {
	contestRepo    repository.ContestRepository
	submissionRepo repository.SubmissionRepository
	resultRepo     repository.ResultRepository
	cacheRepo      repository.CacheRepository
}

// NewContestService creates the contest service.
func NewContestService(
	contestRepo repository.ContestRepository,
	submissionRepo repository.SubmissionRepository,
	resultRepo repository.ResultRepository,
	cacheRepo repository.CacheRepository,
) *ContestService {
	return &ContestService{
		contestRepo:    contestRepo,
		submissionRepo: submissionRepo,
		resultRepo:     resultRepo,
		cacheRepo:      cacheRepo,
	}
}

// CreateContest validates and stores a new contest in draft status. The prize
// pool, fee rate and payout tiers are validated here so a bad configuration
// is rejected long before judging starts.
func (s *ContestService) CreateContest(contest *entity.Contest) error {
	if contest.Title == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if err := contest.ValidatePrizePool(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := contest.ValidatePayoutTiers(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	contest.Status = entity.ContestStatusDraft
	if err := s.contestRepo.Create(contest); err != nil {
		return err
	}

	log.Printf("[ContestService] Created contest #%d %q (pool %.2f, fee %.2f, %d tiers)",
		contest.ID, contest.Title, contest.PrizePool, contest.PlatformFeeRate, len(contest.PayoutTiers))
	return nil
}

// GetContest returns one contest.
func (s *ContestService) GetContest(id uint) (*entity.Contest, error) {
	return s.contestRepo.GetByID(id)
}

// ListContests returns a page of contests.
func (s *ContestService) ListContests(page, pageSize int) ([]entity.Contest, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.contestRepo.List(pageSize, (page-1)*pageSize)
}

// OpenContest moves a draft contest to open, accepting submissions.
func (s *ContestService) OpenContest(id uint) error {
	contest, err := s.contestRepo.GetByID(id)
	if err != nil {
		return err
	}
	if contest.Status != entity.ContestStatusDraft {
		return fmt.Errorf("%w: contest #%d is %s, only draft contests can be opened",
			apperrors.ErrValidation, id, contest.Status)
	}
	return s.contestRepo.UpdateStatus(id, entity.ContestStatusOpen)
}

// CancelContest cancels a contest that has not settled.
func (s *ContestService) CancelContest(id uint) error {
	contest, err := s.contestRepo.GetByID(id)
	if err != nil {
		return err
	}
	if contest.IsSettled() {
		return fmt.Errorf("%w: contest #%d already settled", apperrors.ErrValidation, id)
	}
	return s.contestRepo.UpdateStatus(id, entity.ContestStatusCancelled)
}

// RegisterSubmission registers an entry in an open contest. The submission
// timestamp is assigned here; it is part of the ranking tie-break and must
// come from the server, not the client.
func (s *ContestService) RegisterSubmission(contestID uint, submission *entity.Submission) error {
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return err
	}
	if !contest.IsOpen() {
		return fmt.Errorf("%w: contest #%d is not accepting submissions (status %s)",
			apperrors.ErrValidation, contestID, contest.Status)
	}

	if submission.Author == "" {
		return fmt.Errorf("%w: author is required", apperrors.ErrValidation)
	}
	if submission.SourceWorkTitle == "" || submission.PromptText == "" {
		return fmt.Errorf("%w: source work title and prompt text are required", apperrors.ErrValidation)
	}

	submission.ContestID = contestID
	submission.SubmittedAt = time.Now()

	if err := s.submissionRepo.Create(submission); err != nil {
		return err
	}

	// Targeted column bump: saving the whole contest row here would write a
	// snapshot read before the insert and could undo a concurrent status flip.
	if err := s.contestRepo.IncrementSubmissionCount(contestID); err != nil {
		log.Printf("[ContestService] Contest #%d: failed to bump submission count: %v", contestID, err)
	}

	log.Printf("[ContestService] Contest #%d: registered submission #%d by %q",
		contestID, submission.ID, submission.Author)
	return nil
}

// GetSubmissions returns a contest's submissions in registry order.
func (s *ContestService) GetSubmissions(contestID uint) ([]entity.Submission, error) {
	if _, err := s.contestRepo.GetByID(contestID); err != nil {
		return nil, err
	}
	return s.submissionRepo.GetByContestID(contestID)
}

// GetResults returns a page of a settled contest's results. The first page is
// served from cache when possible: it is the page every viewer loads.
func (s *ContestService) GetResults(contestID uint, page, pageSize int) ([]entity.Result, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = defaultResultsPageSize
	}

	type cachedPage struct {
		Results []entity.Result `json:"results"`
		Total   int64           `json:"total"`
	}

	cacheable := page == 1 && pageSize == defaultResultsPageSize && s.cacheRepo != nil
	cacheKey := fmt.Sprintf("contest:results:%d:first", contestID)
	if cacheable {
		var cached cachedPage
		if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil && len(cached.Results) > 0 {
			return cached.Results, cached.Total, nil
		}
	}

	results, total, err := s.resultRepo.GetContestResults(contestID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}

	if cacheable {
		if err := s.cacheRepo.SetJSON(cacheKey, cachedPage{Results: results, Total: total}, resultsCacheTTL); err != nil {
			log.Printf("[ContestService] Contest #%d: results cache write failed: %v", contestID, err)
		}
	}

	return results, total, nil
}

// GetAllResults returns every result of a contest, rank order.
func (s *ContestService) GetAllResults(contestID uint) ([]entity.Result, error) {
	return s.resultRepo.GetAllContestResults(contestID)
}

// GetWinners returns the paid results of a contest, best first.
func (s *ContestService) GetWinners(contestID uint) ([]entity.Result, error) {
	return s.resultRepo.GetContestWinners(contestID)
}

// GetSubmissionScores returns the persisted per-judge scores of a contest.
func (s *ContestService) GetSubmissionScores(contestID uint) ([]entity.JudgeScore, error) {
	return s.resultRepo.GetSubmissionScores(contestID)
}
