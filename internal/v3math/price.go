package v3math

import "math/big"

// TargetSqrtPrice resolves an absolute sqrt price target from the current
// price and a depth offset, both in Q64.96. The result is clamped to the
// valid sqrt ratio domain so it can always be mapped back to a tick.
func TargetSqrtPrice(currentSqrtPriceX96, offset *big.Int, movingUp bool) *big.Int {
	target := new(big.Int)
	if movingUp {
		target.Add(currentSqrtPriceX96, offset)
		// TickAtSqrtRatio requires a ratio strictly below the maximum.
		ceiling := new(big.Int).Sub(MaxSqrtRatio, big.NewInt(1))
		if target.Cmp(ceiling) > 0 {
			target.Set(ceiling)
		}
		return target
	}

	target.Sub(currentSqrtPriceX96, offset)
	if target.Cmp(MinSqrtRatio) < 0 {
		target.Set(MinSqrtRatio)
	}
	return target
}
