package judging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

// fakeClock fires every timer immediately and reports a fixed instant, so
// dwell and retry waits never slow tests down.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- f.now.Add(d)
	return ch
}

// recordingNotifier captures broadcast events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) BroadcastEventToContest(contestID uint, event interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev, ok := event.(Event); ok {
		r.events = append(r.events, ev)
	}
	return nil
}

func (r *recordingNotifier) recorded() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingNotifier) ofType(eventType string) []Event {
	var out []Event
	for _, ev := range r.recorded() {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// flakyBackend fails the first failuresPerCall attempts of every scoring call
// and then delegates to the static backend.
type flakyBackend struct {
	failuresPerCall int
	inner           *StaticBackend

	attempts map[string]int
}

func newFlakyBackend(failuresPerCall int) *flakyBackend {
	return &flakyBackend{
		failuresPerCall: failuresPerCall,
		inner:           NewStaticBackend(),
		attempts:        make(map[string]int),
	}
}

func (b *flakyBackend) ScoreSubmission(ctx context.Context, judge entity.JudgeID, submission *entity.Submission, criteria []string) (*BackendResponse, error) {
	key := judge.String() + "/" + submission.Author
	b.attempts[key]++
	if b.attempts[key] <= b.failuresPerCall {
		return nil, errors.New("backend unavailable")
	}
	return b.inner.ScoreSubmission(ctx, judge, submission, criteria)
}

// brokenBackend never succeeds.
type brokenBackend struct {
	calls int
}

func (b *brokenBackend) ScoreSubmission(ctx context.Context, judge entity.JudgeID, submission *entity.Submission, criteria []string) (*BackendResponse, error) {
	b.calls++
	return nil, errors.New("model endpoint down")
}

// blockingBackend parks until its context is cancelled.
type blockingBackend struct {
	started chan struct{}
	once    sync.Once
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{started: make(chan struct{})}
}

func (b *blockingBackend) ScoreSubmission(ctx context.Context, judge entity.JudgeID, submission *entity.Submission, criteria []string) (*BackendResponse, error) {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.IntroDwell = time.Millisecond
	cfg.MeetJudgesDwell = time.Millisecond
	cfg.DeliberationDwell = time.Millisecond
	cfg.RevealDwell = time.Millisecond
	cfg.RetryInterval = time.Millisecond
	cfg.ScoringTimeout = time.Second
	return cfg
}

func testContest() *entity.Contest {
	return &entity.Contest{
		ID:              42,
		Title:           "Remix the Classics",
		Status:          entity.ContestStatusJudging,
		PrizePool:       100,
		PlatformFeeRate: 0.2,
		PayoutTiers:     entity.FloatArray{0.5, 0.3, 0.2},
	}
}

func testSubmissions(n int) []entity.Submission {
	base := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	subs := make([]entity.Submission, 0, n)
	for i := 0; i < n; i++ {
		subs = append(subs, entity.Submission{
			ID:              uint(100 + i),
			ContestID:       42,
			Author:          string(rune('a' + i)),
			SourceWorkTitle: "Hamlet",
			PromptText:      "a modern retelling",
			UsedVocabulary:  entity.StringArray{"soliloquy", "usurp"},
			SubmittedAt:     base.Add(time.Duration(i) * time.Minute),
		})
	}
	return subs
}
