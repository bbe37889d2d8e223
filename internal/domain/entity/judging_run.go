package entity

import "time"

// JudgingRun tracks one in-flight judging pipeline run. Runs live in an
// injected store keyed by contest id, not in a process-global map, so two
// instances of the service never fight over the same contest.
type JudgingRun struct {
	RunID     string    `json:"run_id"`
	ContestID uint      `json:"contest_id"`
	Phase     string    `json:"phase"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
