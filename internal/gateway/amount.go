package gateway

import "math"

// ToMinorUnits converts a decimal amount in major currency units to the
// provider's integer minor-unit representation (e.g. dollars to cents).
// Rounding is half-up: ties round away from zero. Amounts are charges or
// refunds and must be non-negative; the adapter never sends fractional
// or negative units.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
