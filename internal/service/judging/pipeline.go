package judging

import (
	"context"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

// Pipeline is the headless judging entry point: score, rank, settle, no
// reveal pacing. Used for re-runs and for callers that only need the final
// settlement.
type Pipeline struct {
	config       *Config
	deps         *Dependencies
	orchestrator *Orchestrator
}

// NewPipeline creates a pipeline bound to one set of dependencies.
func NewPipeline(config *Config, deps *Dependencies) *Pipeline {
	return &Pipeline{
		config:       config,
		deps:         deps,
		orchestrator: NewOrchestrator(config, deps),
	}
}

// Run executes the full judging pipeline and returns the settlement together
// with the complete judging results. Re-running on the same inputs with a
// deterministic backend reproduces identical outputs.
func (p *Pipeline) Run(ctx context.Context, contest *entity.Contest, submissions []entity.Submission) ([]entity.JudgingResult, *entity.Settlement, error) {
	results, err := p.orchestrator.ScoreContest(ctx, contest, submissions, nil)
	if err != nil {
		return nil, nil, err
	}

	ranked := RankResults(results)

	settlement, err := Settle(contest, ranked, p.deps.Clock)
	if err != nil {
		return nil, nil, err
	}

	return results, settlement, nil
}
