// Package money provides integer-cent arithmetic for royalty calculations.
// All amounts are int64 cents; no floating point is used anywhere in a sum
// or split, so results are exact and reproducible.
package money

// RoundHalfEven divides numerator by denominator and rounds the result to
// the nearest integer, breaking ties toward the even neighbor (banker's
// rounding). Rounding happens only at this final division; callers must not
// round intermediate partial sums.
func RoundHalfEven(numerator, denominator int64) (int64, error) {
	if denominator == 0 {
		return 0, ErrZeroDenominator
	}
	if denominator < 0 {
		numerator, denominator = -numerator, -denominator
	}

	negative := numerator < 0
	if negative {
		numerator = -numerator
	}

	quotient := numerator / denominator
	remainder := numerator % denominator

	// Compare twice the remainder against the denominator to decide the
	// rounding direction without leaving integer arithmetic.
	switch {
	case remainder*2 > denominator:
		quotient++
	case remainder*2 == denominator && quotient%2 == 1:
		quotient++
	}

	if negative {
		quotient = -quotient
	}
	return quotient, nil
}

// Allocate distributes totalCents across the given weights using the
// largest-remainder method. Each share first receives its floor amount;
// the leftover cents are then handed out one at a time to the shares with
// the largest fractional remainder, ties broken by input order. The
// returned amounts always sum to totalCents exactly.
func Allocate(totalCents int64, weights []int64) ([]int64, error) {
	if totalCents < 0 {
		return nil, ErrNegativeTotal
	}
	if len(weights) == 0 {
		return nil, ErrNoWeights
	}

	var totalWeight int64
	for _, w := range weights {
		if w < 0 {
			return nil, ErrNegativeWeight
		}
		totalWeight += w
	}
	if totalWeight == 0 {
		return nil, ErrZeroTotalWeight
	}

	amounts := make([]int64, len(weights))
	remainders := make([]int64, len(weights))
	var distributed int64

	for i, w := range weights {
		product := totalCents * w
		amounts[i] = product / totalWeight
		remainders[i] = product % totalWeight
		distributed += amounts[i]
	}

	// Hand the leftover cents to the largest remainders, stable on ties.
	for leftover := totalCents - distributed; leftover > 0; leftover-- {
		best := 0
		for i := 1; i < len(remainders); i++ {
			if remainders[i] > remainders[best] {
				best = i
			}
		}
		amounts[best]++
		remainders[best] = -1
	}

	return amounts, nil
}

// Sum returns the total of the given amounts.
func Sum(amounts []int64) int64 {
	var total int64
	for _, a := range amounts {
		total += a
	}
	return total
}
