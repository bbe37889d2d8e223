package judging

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// Phase identifies one state of the reveal sequence. Phases advance strictly
// forward; there are no backward transitions.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseIntro           Phase = "intro"
	PhaseMeetJudges      Phase = "meet_judges"
	PhaseReviewing       Phase = "reviewing"
	PhaseJudgeVisual     Phase = "judge_visual"
	PhaseJudgeLinguistic Phase = "judge_linguistic"
	PhaseJudgeAudience   Phase = "judge_audience"
	PhaseDeliberation    Phase = "deliberation"
	PhaseRevealThird     Phase = "reveal_third"
	PhaseRevealSecond    Phase = "reveal_second"
	PhaseRevealFirst     Phase = "reveal_first"
	PhaseCelebration     Phase = "celebration"
)

// judgePhase maps a judge to the phase shown while its score lands.
func judgePhase(judge entity.JudgeID) Phase {
	switch judge {
	case entity.JudgeVisual:
		return PhaseJudgeVisual
	case entity.JudgeLinguistic:
		return PhaseJudgeLinguistic
	case entity.JudgeAudience:
		return PhaseJudgeAudience
	default:
		return PhaseReviewing
	}
}

// Event is the envelope broadcast to contest subscribers on every phase
// transition and score arrival.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// PhasePayload accompanies judging:phase events.
type PhasePayload struct {
	ContestID       uint   `json:"contest_id"`
	Phase           Phase  `json:"phase"`
	SubmissionIndex int    `json:"submission_index"`
	SubmissionID    uint   `json:"submission_id,omitempty"`
	Author          string `json:"author,omitempty"`
}

// ScorePayload accompanies judging:score events.
type ScorePayload struct {
	ContestID       uint    `json:"contest_id"`
	SubmissionIndex int     `json:"submission_index"`
	SubmissionID    uint    `json:"submission_id"`
	Judge           string  `json:"judge"`
	Score           float64 `json:"score"`
}

// RevealPayload accompanies judging:reveal events. Results are cumulative:
// the reveal of rank 2 carries ranks 3 and 2, the reveal of rank 1 carries
// the full podium.
type RevealPayload struct {
	ContestID uint                  `json:"contest_id"`
	Rank      int                   `json:"rank"`
	Revealed  []entity.RankedResult `json:"revealed"`
}

// CompletionPayload accompanies the judging:complete event fired exactly once
// when the sequence enters the celebration phase.
type CompletionPayload struct {
	ContestID  uint               `json:"contest_id"`
	Settlement *entity.Settlement `json:"settlement"`
}

// RevealSequencer drives the staged presentation of a judging run: timed
// dwell phases for pacing, pipeline-gated phases that advance only as scores
// actually arrive from the orchestrator, and a cumulative podium reveal.
type RevealSequencer struct {
	config       *Config
	deps         *Dependencies
	orchestrator *Orchestrator

	mu    sync.Mutex
	phase Phase

	// OnPhaseChange, when set, is invoked after every successful phase
	// transition. Used to persist run progress.
	OnPhaseChange func(contestID uint, phase Phase)

	completeOnce sync.Once
	onComplete   func(contestID uint, settlement *entity.Settlement)
}

// NewRevealSequencer creates a sequencer for a single judging run. onComplete
// may be nil; when set it fires at most once, on entering the celebration
// phase.
func NewRevealSequencer(config *Config, deps *Dependencies, onComplete func(contestID uint, settlement *entity.Settlement)) *RevealSequencer {
	return &RevealSequencer{
		config:       config,
		deps:         deps,
		orchestrator: NewOrchestrator(config, deps),
		phase:        PhaseIdle,
		onComplete:   onComplete,
	}
}

// Phase returns the current phase.
func (s *RevealSequencer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// advance moves the sequencer from an expected phase to the next one. A stale
// caller whose expected phase no longer matches is ignored, which guards
// against late timers racing the pipeline.
func (s *RevealSequencer) advance(contestID uint, from, to Phase) bool {
	s.mu.Lock()
	if s.phase != from {
		s.mu.Unlock()
		return false
	}
	s.phase = to
	s.mu.Unlock()

	if s.OnPhaseChange != nil {
		s.OnPhaseChange(contestID, to)
	}
	return true
}

// dwell waits the given duration using the injected clock, honoring context
// cancellation.
func (s *RevealSequencer) dwell(ctx context.Context, d time.Duration) error {
	select {
	case <-s.deps.Clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *RevealSequencer) broadcast(contestID uint, event Event) {
	if err := s.deps.Notifier.BroadcastEventToContest(contestID, event); err != nil {
		log.Printf("[RevealSequencer] Contest %d: broadcast %s failed: %v", contestID, event.Type, err)
	}
}

func (s *RevealSequencer) broadcastPhase(contestID uint, phase Phase, payload PhasePayload) {
	payload.ContestID = contestID
	payload.Phase = phase
	s.broadcast(contestID, Event{Type: "judging:phase", Data: payload})
}

// Run executes the full reveal sequence for one contest and returns the
// settlement. Validation failures surface before any phase is broadcast.
// Cancellation aborts mid-sequence without producing a settlement.
func (s *RevealSequencer) Run(ctx context.Context, contest *entity.Contest, submissions []entity.Submission) (*entity.Settlement, error) {
	if len(submissions) == 0 {
		return nil, fmt.Errorf("contest %d: %w", contest.ID, apperrors.ErrEmptySubmissions)
	}
	if err := contest.ValidatePrizePool(); err != nil {
		return nil, fmt.Errorf("contest %d: %w", contest.ID, err)
	}
	if err := contest.ValidatePayoutTiers(); err != nil {
		return nil, fmt.Errorf("contest %d: %w", contest.ID, err)
	}

	contestID := contest.ID
	log.Printf("[RevealSequencer] Contest %d: starting reveal sequence for %d submissions", contestID, len(submissions))

	// Timed opening phases.
	if !s.advance(contestID, PhaseIdle, PhaseIntro) {
		return nil, fmt.Errorf("contest %d: sequence already started", contestID)
	}
	s.broadcastPhase(contestID, PhaseIntro, PhasePayload{})
	if err := s.dwell(ctx, s.config.IntroDwell); err != nil {
		return nil, err
	}

	s.advance(contestID, PhaseIntro, PhaseMeetJudges)
	s.broadcastPhase(contestID, PhaseMeetJudges, PhasePayload{})
	if err := s.dwell(ctx, s.config.MeetJudgesDwell); err != nil {
		return nil, err
	}

	// Scoring runs concurrently; the sequence below is gated on its step
	// events, so presentation never outruns actual scores.
	steps := make(chan StepEvent)
	type scoringOutcome struct {
		results []entity.JudgingResult
		err     error
	}
	done := make(chan scoringOutcome, 1)

	scoringCtx, cancelScoring := context.WithCancel(ctx)
	defer cancelScoring()

	go func() {
		results, err := s.orchestrator.ScoreContest(scoringCtx, contest, submissions, steps)
		close(steps)
		done <- scoringOutcome{results: results, err: err}
	}()

	current := PhaseMeetJudges
	for idx, sub := range submissions {
		s.advance(contestID, current, PhaseReviewing)
		current = PhaseReviewing
		s.broadcastPhase(contestID, PhaseReviewing, PhasePayload{
			SubmissionIndex: idx,
			SubmissionID:    sub.ID,
			Author:          sub.Author,
		})

		for range entity.JudgePanel() {
			var step StepEvent
			var ok bool
			select {
			case step, ok = <-steps:
				if !ok {
					// Scoring ended early; surface its error below.
					outcome := <-done
					if outcome.err != nil {
						return nil, outcome.err
					}
					return nil, fmt.Errorf("contest %d: scoring ended before all steps were delivered", contestID)
				}
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			next := judgePhase(step.Judge)
			s.advance(contestID, current, next)
			current = next
			s.broadcastPhase(contestID, next, PhasePayload{
				SubmissionIndex: step.SubmissionIndex,
				SubmissionID:    step.SubmissionID,
			})
			s.broadcast(contestID, Event{Type: "judging:score", Data: ScorePayload{
				ContestID:       contestID,
				SubmissionIndex: step.SubmissionIndex,
				SubmissionID:    step.SubmissionID,
				Judge:           step.Judge.String(),
				Score:           step.Score.Score,
			}})
		}
	}

	outcome := <-done
	if outcome.err != nil {
		return nil, outcome.err
	}

	ranked := RankResults(outcome.results)
	settlement, err := Settle(contest, ranked, s.deps.Clock)
	if err != nil {
		return nil, err
	}

	s.advance(contestID, current, PhaseDeliberation)
	current = PhaseDeliberation
	s.broadcastPhase(contestID, PhaseDeliberation, PhasePayload{})
	if err := s.dwell(ctx, s.config.DeliberationDwell); err != nil {
		return nil, err
	}

	// Podium reveals are cumulative, worst rank first. Contests with fewer
	// than three entrants skip the missing reveals.
	revealPhases := []struct {
		phase Phase
		rank  int
	}{
		{PhaseRevealThird, 3},
		{PhaseRevealSecond, 2},
		{PhaseRevealFirst, 1},
	}
	for _, rp := range revealPhases {
		if rp.rank > len(ranked) {
			continue
		}
		s.advance(contestID, current, rp.phase)
		current = rp.phase
		s.broadcastPhase(contestID, rp.phase, PhasePayload{})
		s.broadcast(contestID, Event{Type: "judging:reveal", Data: RevealPayload{
			ContestID: contestID,
			Rank:      rp.rank,
			Revealed:  revealedThrough(ranked, rp.rank),
		}})
		if err := s.dwell(ctx, s.config.RevealDwell); err != nil {
			return nil, err
		}
	}

	s.advance(contestID, current, PhaseCelebration)
	s.broadcastPhase(contestID, PhaseCelebration, PhasePayload{})
	s.broadcast(contestID, Event{Type: "judging:complete", Data: CompletionPayload{
		ContestID:  contestID,
		Settlement: settlement,
	}})
	s.completeOnce.Do(func() {
		if s.onComplete != nil {
			s.onComplete(contestID, settlement)
		}
	})

	log.Printf("[RevealSequencer] Contest %d: sequence complete, %d winners paid from pool %.2f",
		contestID, len(settlement.Results), settlement.WinnersPool)
	return settlement, nil
}

// revealedThrough returns the podium entries revealed so far: every entry
// with rank between the given rank and 3, ordered best first.
func revealedThrough(ranked []entity.RankedResult, rank int) []entity.RankedResult {
	out := make([]entity.RankedResult, 0, len(ranked))
	for _, r := range ranked {
		if r.Rank >= rank && r.Rank <= 3 {
			out = append(out, r)
		}
	}
	return out
}
