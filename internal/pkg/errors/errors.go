package errors

import "errors"

// Common application errors.
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned for authorization failures (bad token, no rights).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks permission for the action.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for invalid input data.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned for state conflicts (e.g. starting judging on an
	// already settled contest).
	ErrConflict = errors.New("resource state conflict")
)

// Judging pipeline errors.
var (
	// ErrEmptySubmissions is returned when judging starts with no registered
	// submissions. No partial work is done.
	ErrEmptySubmissions = errors.New("no submissions to judge")

	// ErrInvalidPrizePool is returned when a contest's prize pool is negative
	// or not a finite number. Fatal for the contest run.
	ErrInvalidPrizePool = errors.New("invalid prize pool")

	// ErrInvalidTierConfig is returned when payout tiers allocate more than
	// the whole winners pool (shares sum above 1). Fatal for the contest run.
	ErrInvalidTierConfig = errors.New("payout tiers exceed winners pool")

	// ErrScoringFailure wraps a scoring backend failure after retries are
	// exhausted. The orchestrator substitutes a degraded score instead of
	// aborting the run.
	ErrScoringFailure = errors.New("scoring backend failure")
)
