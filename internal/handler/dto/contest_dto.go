package dto

import (
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

// ContestResponse is the public shape of a contest.
type ContestResponse struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Status          string     `json:"status"`
	PrizePool       float64    `json:"prize_pool"`
	PlatformFeeRate float64    `json:"platform_fee_rate"`
	PayoutTiers     []float64  `json:"payout_tiers"`
	SubmissionCount int        `json:"submission_count"`
	JudgedAt        *time.Time `json:"judged_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewContestResponse maps a contest entity to its response shape.
func NewContestResponse(contest *entity.Contest) ContestResponse {
	return ContestResponse{
		ID:              contest.ID,
		Title:           contest.Title,
		Description:     contest.Description,
		Status:          contest.Status,
		PrizePool:       contest.PrizePool,
		PlatformFeeRate: contest.PlatformFeeRate,
		PayoutTiers:     contest.PayoutTiers,
		SubmissionCount: contest.SubmissionCount,
		JudgedAt:        contest.JudgedAt,
		CreatedAt:       contest.CreatedAt,
	}
}

// NewContestListResponse maps a slice of contests.
func NewContestListResponse(contests []entity.Contest) []ContestResponse {
	out := make([]ContestResponse, 0, len(contests))
	for i := range contests {
		out = append(out, NewContestResponse(&contests[i]))
	}
	return out
}

// SubmissionResponse is the public shape of a submission.
type SubmissionResponse struct {
	ID              uint      `json:"id"`
	ContestID       uint      `json:"contest_id"`
	Author          string    `json:"author"`
	SourceWorkTitle string    `json:"source_work_title"`
	PromptText      string    `json:"prompt_text"`
	UsedVocabulary  []string  `json:"used_vocabulary"`
	VideoURL        string    `json:"video_url,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// NewSubmissionResponse maps a submission entity.
func NewSubmissionResponse(sub *entity.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:              sub.ID,
		ContestID:       sub.ContestID,
		Author:          sub.Author,
		SourceWorkTitle: sub.SourceWorkTitle,
		PromptText:      sub.PromptText,
		UsedVocabulary:  sub.UsedVocabulary,
		VideoURL:        sub.VideoURL,
		SubmittedAt:     sub.SubmittedAt,
	}
}

// NewSubmissionListResponse maps a slice of submissions.
func NewSubmissionListResponse(subs []entity.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, NewSubmissionResponse(&subs[i]))
	}
	return out
}

// ResultResponse is the public shape of a final result row.
type ResultResponse struct {
	SubmissionID    uint      `json:"submission_id"`
	Author          string    `json:"author"`
	VisualScore     float64   `json:"visual_score"`
	LinguisticScore float64   `json:"linguistic_score"`
	AudienceScore   float64   `json:"audience_score"`
	TotalScore      float64   `json:"total_score"`
	Rank            int       `json:"rank"`
	IsWinner        bool      `json:"is_winner"`
	PayoutAmount    float64   `json:"payout_amount"`
	DegradedScores  int       `json:"degraded_scores"`
	CompletedAt     time.Time `json:"completed_at"`
}

// NewResultResponse maps a result row.
func NewResultResponse(r *entity.Result) ResultResponse {
	return ResultResponse{
		SubmissionID:    r.SubmissionID,
		Author:          r.Author,
		VisualScore:     r.VisualScore,
		LinguisticScore: r.LinguisticScore,
		AudienceScore:   r.AudienceScore,
		TotalScore:      r.TotalScore,
		Rank:            r.Rank,
		IsWinner:        r.IsWinner,
		PayoutAmount:    r.PayoutAmount,
		DegradedScores:  r.DegradedScores,
		CompletedAt:     r.CompletedAt,
	}
}

// NewResultListResponse maps a slice of result rows.
func NewResultListResponse(results []entity.Result) []ResultResponse {
	out := make([]ResultResponse, 0, len(results))
	for i := range results {
		out = append(out, NewResultResponse(&results[i]))
	}
	return out
}

// ScoreResponse is the public shape of one judge's verdict on a submission.
type ScoreResponse struct {
	SubmissionID uint      `json:"submission_id"`
	Judge        string    `json:"judge"`
	Score        float64   `json:"score"`
	Feedback     string    `json:"feedback"`
	Highlights   string    `json:"highlights"`
	Degraded     bool      `json:"degraded"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewScoreResponse maps a judge score.
func NewScoreResponse(s *entity.JudgeScore) ScoreResponse {
	return ScoreResponse{
		SubmissionID: s.SubmissionID,
		Judge:        s.Judge.String(),
		Score:        s.Score,
		Feedback:     s.Feedback,
		Highlights:   s.Highlights,
		Degraded:     s.Degraded,
		CreatedAt:    s.CreatedAt,
	}
}

// NewScoreListResponse maps a slice of judge scores.
func NewScoreListResponse(scores []entity.JudgeScore) []ScoreResponse {
	out := make([]ScoreResponse, 0, len(scores))
	for i := range scores {
		out = append(out, NewScoreResponse(&scores[i]))
	}
	return out
}

// RunResponse is the public shape of an in-flight judging run.
type RunResponse struct {
	RunID     string    `json:"run_id"`
	ContestID uint      `json:"contest_id"`
	Phase     string    `json:"phase"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRunResponse maps a judging run.
func NewRunResponse(run *entity.JudgingRun) RunResponse {
	return RunResponse{
		RunID:     run.RunID,
		ContestID: run.ContestID,
		Phase:     run.Phase,
		StartedAt: run.StartedAt,
		UpdatedAt: run.UpdatedAt,
	}
}
