package entity

import "time"

// RankedResult is a JudgingResult with its final dense rank (1-based, by total
// score descending) and the payout assigned by the settlement calculator.
// Ranks outside the payout tiers carry a zero payout.
type RankedResult struct {
	JudgingResult
	Rank         int     `json:"rank"`
	PayoutAmount float64 `json:"payout_amount"`
}

// Settlement is the final, append-only outcome of one judging run. Nothing in
// it is mutated after creation; re-running the pipeline on the same inputs
// reproduces it exactly.
type Settlement struct {
	ContestID    uint           `json:"contest_id"`
	PrizePool    float64        `json:"prize_pool"`
	PlatformFee  float64        `json:"platform_fee"`
	WinnersPool  float64        `json:"winners_pool"`
	TierMismatch bool           `json:"tier_mismatch"`
	Results      []RankedResult `json:"results"`
	SettledAt    time.Time      `json:"settled_at"`
}

// TotalPaid returns the sum of all payouts. Always at most WinnersPool;
// equal to it when the tiers sum to 1 and every tier rank is filled.
func (s *Settlement) TotalPaid() float64 {
	var total float64
	for _, r := range s.Results {
		total += r.PayoutAmount
	}
	return total
}

// WinnerFor returns the ranked result at the given rank, or nil.
func (s *Settlement) WinnerFor(rank int) *RankedResult {
	for i := range s.Results {
		if s.Results[i].Rank == rank {
			return &s.Results[i]
		}
	}
	return nil
}

// Result is the persisted per-submission row written after settlement. One
// row per (contest, submission); ranks and payouts are final at write time.
type Result struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ContestID       uint      `gorm:"not null;index;uniqueIndex:idx_contest_submission" json:"contest_id"`
	SubmissionID    uint      `gorm:"not null;uniqueIndex:idx_contest_submission" json:"submission_id"`
	Author          string    `gorm:"size:100;not null" json:"author"`
	VisualScore     float64   `gorm:"not null;default:0" json:"visual_score"`
	LinguisticScore float64   `gorm:"not null;default:0" json:"linguistic_score"`
	AudienceScore   float64   `gorm:"not null;default:0" json:"audience_score"`
	TotalScore      float64   `gorm:"not null;default:0" json:"total_score"`
	Rank            int       `gorm:"not null;default:0;index:idx_contest_rank" json:"rank"`
	IsWinner        bool      `gorm:"not null;default:false" json:"is_winner"`
	PayoutAmount    float64   `gorm:"not null;default:0" json:"payout_amount"`
	DegradedScores  int       `gorm:"not null;default:0" json:"degraded_scores"`
	CompletedAt     time.Time `gorm:"not null" json:"completed_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName sets the GORM table name.
func (Result) TableName() string {
	return "results"
}
