package judging

import (
	"sort"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

// RankResults sorts judging results by total score descending and assigns
// dense 1-based ranks. Pure function: identical input always yields identical
// output, including tie outcomes.
//
// Tie-break, in order: higher total score wins; on equal totals the earlier
// submission wins; on equal timestamps the lower submission id wins. The
// comparison is total, so the result is a strict order independent of input
// order.
func RankResults(results []entity.JudgingResult) []entity.RankedResult {
	ranked := make([]entity.RankedResult, len(results))
	for i, r := range results {
		ranked[i] = entity.RankedResult{JudgingResult: r}
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := &ranked[i], &ranked[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.SubmissionID < b.SubmissionID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}
