package money

import "errors"

var (
	// ErrNegativeTotal indicates a negative amount was passed to an allocator.
	ErrNegativeTotal = errors.New("money: negative total amount")

	// ErrNoWeights indicates an allocation was requested with no weights.
	ErrNoWeights = errors.New("money: no allocation weights")

	// ErrNegativeWeight indicates a negative allocation weight.
	ErrNegativeWeight = errors.New("money: negative allocation weight")

	// ErrZeroTotalWeight indicates the weights sum to zero.
	ErrZeroTotalWeight = errors.New("money: zero total weight")

	// ErrZeroDenominator indicates a division by zero was attempted.
	ErrZeroDenominator = errors.New("money: zero denominator")
)
