package v3math

import "math/big"

// AddLiquidityDelta applies a signed liquidity delta to an unsigned liquidity
// magnitude, saturating at zero. A delta that would drive liquidity negative
// indicates inconsistent tick data upstream and is clamped rather than
// reported.
func AddLiquidityDelta(liquidity, delta *big.Int) *big.Int {
	out := new(big.Int).Add(liquidity, delta)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}
