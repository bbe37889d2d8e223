package entity

import (
	"math"
	"time"
)

// Score bounds for a single judge.
const (
	MinJudgeScore = 0.0
	MaxJudgeScore = 10.0
)

// JudgeScore is one judge's verdict on one submission. Exactly one exists per
// (submission, judge) pair; created once, never mutated. Degraded marks a
// fallback score substituted after the scoring backend failed all retries.
type JudgeScore struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ContestID    uint      `gorm:"not null;index" json:"contest_id"`
	SubmissionID uint      `gorm:"not null;index;uniqueIndex:idx_submission_judge" json:"submission_id"`
	Judge        JudgeID   `gorm:"not null;uniqueIndex:idx_submission_judge" json:"judge"`
	Score        float64   `gorm:"not null" json:"score"`
	Feedback     string    `gorm:"size:2000;not null;default:''" json:"feedback"`
	Highlights   string    `gorm:"size:500;not null;default:''" json:"highlights"`
	Degraded     bool      `gorm:"not null;default:false" json:"degraded"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName sets the GORM table name.
func (JudgeScore) TableName() string {
	return "judge_scores"
}

// RoundScore clamps a raw backend score into [0,10] and keeps one decimal of
// precision.
func RoundScore(raw float64) float64 {
	if math.IsNaN(raw) {
		return MinJudgeScore
	}
	if raw < MinJudgeScore {
		return MinJudgeScore
	}
	if raw > MaxJudgeScore {
		return MaxJudgeScore
	}
	return math.Round(raw*10) / 10
}

// JudgingResult aggregates the full panel's scores for one submission. It is
// created only after all judges have scored (for real or via fallback); no
// partial result is ever emitted.
type JudgingResult struct {
	SubmissionID uint         `json:"submission_id"`
	Scores       []JudgeScore `json:"scores"`
	TotalScore   float64      `json:"total_score"`
	SubmittedAt  time.Time    `json:"submitted_at"`
}

// Complete reports whether the result carries one score per panel member in
// panel order.
func (r *JudgingResult) Complete() bool {
	if len(r.Scores) != judgeCount {
		return false
	}
	for i, judge := range JudgePanel() {
		if r.Scores[i].Judge != judge {
			return false
		}
	}
	return true
}

// ScoreFor returns the recorded score for the given judge, or nil.
func (r *JudgingResult) ScoreFor(judge JudgeID) *JudgeScore {
	for i := range r.Scores {
		if r.Scores[i].Judge == judge {
			return &r.Scores[i]
		}
	}
	return nil
}

// DegradedCount returns how many of the panel scores are fallbacks.
func (r *JudgingResult) DegradedCount() int {
	n := 0
	for _, s := range r.Scores {
		if s.Degraded {
			n++
		}
	}
	return n
}
