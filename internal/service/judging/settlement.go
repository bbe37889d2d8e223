package judging

import (
	"fmt"
	"log"

	"github.com/yourusername/contest-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// Settle computes the platform fee, winners pool and per-rank payouts for a
// ranked contest. Pure and idempotent: the same contest and ranking always
// produce the same settlement.
//
// platformFee  = prizePool * platformFeeRate
// winnersPool  = prizePool - platformFee
// payout(rank) = winnersPool * payoutTiers[rank-1], 0 outside the tiers
//
// Tiers summing above 1 are rejected with ErrInvalidTierConfig. Tiers summing
// below 1 are a warning only: settlement proceeds and the residual pool stays
// unassigned, flagged via Settlement.TierMismatch.
func Settle(contest *entity.Contest, ranked []entity.RankedResult, clock Clock) (*entity.Settlement, error) {
	if err := contest.ValidatePrizePool(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidPrizePool, err)
	}
	if err := contest.ValidatePayoutTiers(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidTierConfig, err)
	}

	platformFee := contest.PrizePool * contest.PlatformFeeRate
	winnersPool := contest.PrizePool - platformFee

	mismatch := contest.HasTierShortfall()
	if mismatch {
		log.Printf("[Settlement] Contest #%d: payout tiers sum to %.4f < 1, residual pool stays unassigned",
			contest.ID, contest.PayoutTiers.Sum())
	}

	results := make([]entity.RankedResult, len(ranked))
	copy(results, ranked)
	for i := range results {
		tierIdx := results[i].Rank - 1
		if tierIdx >= 0 && tierIdx < len(contest.PayoutTiers) {
			results[i].PayoutAmount = winnersPool * contest.PayoutTiers[tierIdx]
		} else {
			results[i].PayoutAmount = 0
		}
	}

	return &entity.Settlement{
		ContestID:    contest.ID,
		PrizePool:    contest.PrizePool,
		PlatformFee:  platformFee,
		WinnersPool:  winnersPool,
		TierMismatch: mismatch,
		Results:      results,
		SettledAt:    clock.Now(),
	}, nil
}
