package judging

import (
	"context"
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

// Default tuning values for the pipeline.
const (
	DefaultMaxScoringRetries = 2
	DefaultFallbackScore     = 5.0
	DefaultFallbackFeedback  = "Score could not be produced in time; a neutral fallback score was recorded."
)

// Config carries the tuning for the whole judging pipeline: reveal pacing,
// the scoring retry policy and the documented fallback used when the backend
// stays unavailable.
type Config struct {
	// Reveal dwell durations. Intro and MeetJudges auto-advance after these;
	// Deliberation and each Reveal state after theirs.
	IntroDwell        time.Duration
	MeetJudgesDwell   time.Duration
	DeliberationDwell time.Duration
	RevealDwell       time.Duration

	// Scoring retry policy. A backend call gets 1+MaxScoringRetries attempts
	// with RetryInterval between them, each bounded by ScoringTimeout.
	MaxScoringRetries int
	RetryInterval     time.Duration
	ScoringTimeout    time.Duration

	// Fallback recorded as a degraded JudgeScore when retries are exhausted.
	// A degraded score still counts toward the total; the submission stays in
	// the ranking.
	FallbackScore    float64
	FallbackFeedback string
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() *Config {
	return &Config{
		IntroDwell:        4 * time.Second,
		MeetJudgesDwell:   6 * time.Second,
		DeliberationDwell: 5 * time.Second,
		RevealDwell:       4 * time.Second,
		MaxScoringRetries: DefaultMaxScoringRetries,
		RetryInterval:     500 * time.Millisecond,
		ScoringTimeout:    30 * time.Second,
		FallbackScore:     DefaultFallbackScore,
		FallbackFeedback:  DefaultFallbackFeedback,
	}
}

// BackendResponse is the scoring backend's answer for one (submission, judge)
// pair.
type BackendResponse struct {
	Score      float64 `json:"score"`
	Feedback   string  `json:"feedback"`
	Highlights string  `json:"highlights"`
}

// ScoringBackend produces a bounded score and feedback for a submission as
// seen by one judge. Calls represent network/model round trips: they may
// block, fail or time out.
type ScoringBackend interface {
	ScoreSubmission(ctx context.Context, judge entity.JudgeID, submission *entity.Submission, criteria []string) (*BackendResponse, error)
}

// Notifier broadcasts pipeline events to watchers of a contest. The websocket
// manager implements it; tests inject a recorder.
type Notifier interface {
	BroadcastEventToContest(contestID uint, event interface{}) error
}

// NoopNotifier drops all events. Used when judging runs without a live
// broadcast.
type NoopNotifier struct{}

func (NoopNotifier) BroadcastEventToContest(contestID uint, event interface{}) error { return nil }

// Clock abstracts time so reveal dwell timers can be driven deterministically
// in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

// Dependencies carries everything the pipeline components need. Each contest
// run owns its own Dependencies value; nothing here is shared global state.
type Dependencies struct {
	Backend  ScoringBackend
	Notifier Notifier
	Clock    Clock
	Config   *Config
}

// NewDependencies fills in safe defaults for optional fields.
func NewDependencies(backend ScoringBackend, notifier Notifier, clock Clock, config *Config) *Dependencies {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if clock == nil {
		clock = SystemClock()
	}
	if config == nil {
		config = DefaultConfig()
	}
	return &Dependencies{
		Backend:  backend,
		Notifier: notifier,
		Clock:    clock,
		Config:   config,
	}
}

// StepEvent reports one completed scoring step: judge Judge has scored the
// submission at SubmissionIndex (registry order). The reveal sequencer gates
// its pipeline-driven states on these events.
type StepEvent struct {
	SubmissionIndex int
	SubmissionID    uint
	Judge           entity.JudgeID
	Score           entity.JudgeScore
}
