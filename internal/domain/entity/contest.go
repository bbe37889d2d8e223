package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
	"time"
)

// Contest status constants.
const (
	ContestStatusDraft     = "draft"
	ContestStatusOpen      = "open"
	ContestStatusJudging   = "judging"
	ContestStatusSettled   = "settled"
	ContestStatusCancelled = "cancelled"
)

// FloatArray is a custom type for storing payout tier shares as JSONB.
type FloatArray []float64

// Scan implements sql.Scanner for FloatArray.
func (a *FloatArray) Scan(value interface{}) error {
	if value == nil {
		*a = FloatArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*a = FloatArray{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Value implements driver.Valuer for FloatArray.
func (a FloatArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Sum returns the total share allocated across all tiers.
func (a FloatArray) Sum() float64 {
	var total float64
	for _, share := range a {
		total += share
	}
	return total
}

// Contest represents one round of the creative contest. PrizePool,
// PlatformFeeRate and PayoutTiers are frozen before judging starts and are
// never mutated by the pipeline.
type Contest struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:100;not null" json:"title"`
	Description     string     `gorm:"size:500;not null;default:''" json:"description"`
	Status          string     `gorm:"size:20;not null;default:'draft';index" json:"status"`
	PrizePool       float64    `gorm:"not null;default:0" json:"prize_pool"`
	PlatformFeeRate float64    `gorm:"not null;default:0" json:"platform_fee_rate"`
	PayoutTiers     FloatArray `gorm:"type:jsonb;not null" json:"payout_tiers"`
	SubmissionCount int        `gorm:"not null;default:0" json:"submission_count"`
	JudgedAt        *time.Time `json:"judged_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName sets the GORM table name.
func (Contest) TableName() string {
	return "contests"
}

// IsOpen reports whether the contest still accepts submissions.
func (c *Contest) IsOpen() bool {
	return c.Status == ContestStatusOpen
}

// IsJudging reports whether the judging pipeline is running.
func (c *Contest) IsJudging() bool {
	return c.Status == ContestStatusJudging
}

// IsSettled reports whether results and payouts are final.
func (c *Contest) IsSettled() bool {
	return c.Status == ContestStatusSettled
}

// ValidatePrizePool checks the pool amount before any settlement arithmetic.
// A negative, NaN or infinite pool aborts the contest run.
func (c *Contest) ValidatePrizePool() error {
	if math.IsNaN(c.PrizePool) || math.IsInf(c.PrizePool, 0) {
		return errors.New("prize pool must be a finite number")
	}
	if c.PrizePool < 0 {
		return errors.New("prize pool must be non-negative")
	}
	if math.IsNaN(c.PlatformFeeRate) || c.PlatformFeeRate < 0 || c.PlatformFeeRate > 1 {
		return errors.New("platform fee rate must be within [0, 1]")
	}
	return nil
}

// ValidatePayoutTiers checks tier shares. Shares summing above 1 are rejected;
// a sum below 1 is allowed and leaves the residual pool unassigned.
func (c *Contest) ValidatePayoutTiers() error {
	if len(c.PayoutTiers) == 0 {
		return errors.New("payout tiers are required")
	}
	for _, share := range c.PayoutTiers {
		if math.IsNaN(share) || share < 0 || share > 1 {
			return errors.New("payout tier shares must be within [0, 1]")
		}
	}
	if c.PayoutTiers.Sum() > 1+tierSumEpsilon {
		return errors.New("payout tier shares sum above 1")
	}
	return nil
}

// HasTierShortfall reports whether the tiers allocate less than the whole
// winners pool. Settlement proceeds but flags the mismatch.
func (c *Contest) HasTierShortfall() bool {
	return c.PayoutTiers.Sum() < 1-tierSumEpsilon
}

// tierSumEpsilon absorbs float noise when tier shares are meant to sum to 1.
const tierSumEpsilon = 1e-9
