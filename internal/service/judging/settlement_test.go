package judging

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/contest-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

func rankedFixture() []entity.RankedResult {
	base := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	return []entity.RankedResult{
		{JudgingResult: judgingResult(1, 27.0, base), Rank: 1},
		{JudgingResult: judgingResult(2, 24.0, base), Rank: 2},
		{JudgingResult: judgingResult(3, 21.0, base), Rank: 3},
		{JudgingResult: judgingResult(4, 18.0, base), Rank: 4},
	}
}

func TestSettle_PayoutsAndFee(t *testing.T) {
	contest := testContest() // pool 100, fee 0.2, tiers [0.5, 0.3, 0.2]
	clock := newFakeClock()

	settlement, err := Settle(contest, rankedFixture(), clock)

	require.NoError(t, err)
	assert.Equal(t, 100.0, settlement.PrizePool)
	assert.InDelta(t, 20.0, settlement.PlatformFee, 1e-9)
	assert.InDelta(t, 80.0, settlement.WinnersPool, 1e-9)
	assert.False(t, settlement.TierMismatch)
	assert.Equal(t, clock.Now(), settlement.SettledAt)

	require.Len(t, settlement.Results, 4)
	assert.InDelta(t, 40.0, settlement.Results[0].PayoutAmount, 1e-9)
	assert.InDelta(t, 24.0, settlement.Results[1].PayoutAmount, 1e-9)
	assert.InDelta(t, 16.0, settlement.Results[2].PayoutAmount, 1e-9)
	assert.Zero(t, settlement.Results[3].PayoutAmount, "ranks outside the tiers get no payout")

	assert.InDelta(t, settlement.WinnersPool, settlement.TotalPaid(), 1e-9)
}

func TestSettle_InvalidPrizePool(t *testing.T) {
	for name, pool := range map[string]float64{
		"negative": -5,
		"nan":      math.NaN(),
		"posInf":   math.Inf(1),
		"negInf":   math.Inf(-1),
	} {
		t.Run(name, func(t *testing.T) {
			contest := testContest()
			contest.PrizePool = pool

			settlement, err := Settle(contest, rankedFixture(), newFakeClock())

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidPrizePool)
			assert.Nil(t, settlement)
		})
	}
}

func TestSettle_TiersAboveOneRejected(t *testing.T) {
	contest := testContest()
	contest.PayoutTiers = entity.FloatArray{0.6, 0.3, 0.2}

	settlement, err := Settle(contest, rankedFixture(), newFakeClock())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTierConfig)
	assert.Nil(t, settlement)
}

func TestSettle_TierShortfallIsWarningOnly(t *testing.T) {
	contest := testContest()
	contest.PayoutTiers = entity.FloatArray{0.4, 0.2}

	settlement, err := Settle(contest, rankedFixture(), newFakeClock())

	require.NoError(t, err)
	assert.True(t, settlement.TierMismatch)
	assert.InDelta(t, 32.0, settlement.Results[0].PayoutAmount, 1e-9)
	assert.InDelta(t, 16.0, settlement.Results[1].PayoutAmount, 1e-9)
	assert.Zero(t, settlement.Results[2].PayoutAmount)
	assert.Less(t, settlement.TotalPaid(), settlement.WinnersPool,
		"the residual pool stays unassigned")
}

func TestSettle_ZeroPool(t *testing.T) {
	contest := testContest()
	contest.PrizePool = 0

	settlement, err := Settle(contest, rankedFixture(), newFakeClock())

	require.NoError(t, err)
	assert.Zero(t, settlement.PlatformFee)
	assert.Zero(t, settlement.WinnersPool)
	for _, r := range settlement.Results {
		assert.Zero(t, r.PayoutAmount)
	}
}

func TestSettle_Idempotent(t *testing.T) {
	contest := testContest()
	ranked := rankedFixture()
	clock := newFakeClock()

	first, err := Settle(contest, ranked, clock)
	require.NoError(t, err)
	second, err := Settle(contest, ranked, clock)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSettle_DoesNotMutateRankedInput(t *testing.T) {
	contest := testContest()
	ranked := rankedFixture()

	_, err := Settle(contest, ranked, newFakeClock())

	require.NoError(t, err)
	for _, r := range ranked {
		assert.Zero(t, r.PayoutAmount, "payouts must land on the settlement copy only")
	}
}

func TestSettlement_WinnerFor(t *testing.T) {
	settlement, err := Settle(testContest(), rankedFixture(), newFakeClock())
	require.NoError(t, err)

	winner := settlement.WinnerFor(1)
	require.NotNil(t, winner)
	assert.Equal(t, uint(1), winner.SubmissionID)
	assert.Nil(t, settlement.WinnerFor(99))
}
