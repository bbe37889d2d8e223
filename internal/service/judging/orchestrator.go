package judging

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/contest-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// Orchestrator drives per-submission, per-judge scoring calls in a fixed,
// deterministic order: submissions in registry order, judges in panel order
// (Visual, Linguistic, Audience) within each submission.
type Orchestrator struct {
	config *Config
	deps   *Dependencies
}

// NewOrchestrator creates a scoring orchestrator.
func NewOrchestrator(config *Config, deps *Dependencies) *Orchestrator {
	return &Orchestrator{
		config: config,
		deps:   deps,
	}
}

// ScoreContest scores every submission with the full panel and returns one
// JudgingResult per submission, in registry order. It fails fast with
// ErrEmptySubmissions before any backend call when the list is empty.
//
// steps, when non-nil, receives one StepEvent per completed (submission,
// judge) score, in scoring order. Sends block until consumed, so a consumer
// pacing a reveal gates exactly on pipeline progress; cancellation of ctx
// unblocks them.
//
// A backend failure on one judge never aborts the run: after the configured
// retries a degraded fallback score is recorded and scoring continues. Only
// ctx cancellation stops the run early, and then no partial result for the
// current submission is emitted.
func (o *Orchestrator) ScoreContest(ctx context.Context, contest *entity.Contest, submissions []entity.Submission, steps chan<- StepEvent) ([]entity.JudgingResult, error) {
	if len(submissions) == 0 {
		return nil, apperrors.ErrEmptySubmissions
	}

	log.Printf("[Orchestrator] Contest #%d: scoring %d submissions with %d judges",
		contest.ID, len(submissions), entity.PanelSize())

	results := make([]entity.JudgingResult, 0, len(submissions))

	for i := range submissions {
		submission := &submissions[i]

		scores := make([]entity.JudgeScore, 0, entity.PanelSize())
		for _, judge := range entity.JudgePanel() {
			score, err := o.scoreWithRetry(ctx, contest.ID, judge, submission)
			if err != nil {
				return nil, err
			}
			scores = append(scores, score)

			if steps != nil {
				select {
				case steps <- StepEvent{
					SubmissionIndex: i,
					SubmissionID:    submission.ID,
					Judge:           judge,
					Score:           score,
				}:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}

		result := entity.JudgingResult{
			SubmissionID: submission.ID,
			Scores:       scores,
			TotalScore:   sumScores(scores),
			SubmittedAt:  submission.SubmittedAt,
		}
		if !result.Complete() {
			// Cannot happen with a fixed panel loop; guards future edits.
			return nil, fmt.Errorf("incomplete judging result for submission #%d", submission.ID)
		}
		results = append(results, result)

		log.Printf("[Orchestrator] Contest #%d: submission #%d (%d of %d) scored, total %.1f",
			contest.ID, submission.ID, i+1, len(submissions), result.TotalScore)
	}

	return results, nil
}

// scoreWithRetry performs one judge's scoring call with the configured retry
// policy. When every attempt fails it records the documented fallback score
// marked as degraded; the pipeline treats that as a success.
func (o *Orchestrator) scoreWithRetry(ctx context.Context, contestID uint, judge entity.JudgeID, submission *entity.Submission) (entity.JudgeScore, error) {
	attempts := 1 + o.config.MaxScoringRetries
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return entity.JudgeScore{}, ctx.Err()
		default:
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if o.config.ScoringTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, o.config.ScoringTimeout)
		}
		resp, err := o.deps.Backend.ScoreSubmission(callCtx, judge, submission, judge.Criteria())
		if cancel != nil {
			cancel()
		}

		if err == nil && resp != nil {
			return entity.JudgeScore{
				ContestID:    contestID,
				SubmissionID: submission.ID,
				Judge:        judge,
				Score:        entity.RoundScore(resp.Score),
				Feedback:     resp.Feedback,
				Highlights:   resp.Highlights,
			}, nil
		}

		// The parent being cancelled is not a backend failure; stop the run.
		if ctx.Err() != nil {
			return entity.JudgeScore{}, ctx.Err()
		}

		if err == nil {
			err = errors.New("backend returned no response")
		}
		lastErr = err
		log.Printf("[Orchestrator] Contest #%d: %s judge failed on submission #%d (attempt %d of %d): %v",
			contestID, judge, submission.ID, attempt, attempts, err)

		if attempt < attempts {
			select {
			case <-o.deps.Clock.After(o.config.RetryInterval):
			case <-ctx.Done():
				return entity.JudgeScore{}, ctx.Err()
			}
		}
	}

	log.Printf("[Orchestrator] Contest #%d: %s judge exhausted retries on submission #%d, recording degraded fallback: %v",
		contestID, judge, submission.ID, fmt.Errorf("%w: %v", apperrors.ErrScoringFailure, lastErr))

	return entity.JudgeScore{
		ContestID:    contestID,
		SubmissionID: submission.ID,
		Judge:        judge,
		Score:        entity.RoundScore(o.config.FallbackScore),
		Feedback:     o.config.FallbackFeedback,
		Degraded:     true,
	}, nil
}

func sumScores(scores []entity.JudgeScore) float64 {
	var total float64
	for _, s := range scores {
		total += s.Score
	}
	return total
}
