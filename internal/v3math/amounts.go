package v3math

import "math/big"

var q96 = new(big.Int).Lsh(big.NewInt(1), 96)

// Amount0Delta computes the token0 amount between two sqrt prices at the
// given liquidity: liquidity * (sqrtB - sqrtA) / (sqrtB * sqrtA).
// Price order does not matter; the result is an unsigned magnitude.
func Amount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	numerator1 := new(big.Int).Lsh(liquidity, 96)
	numerator2 := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		return mulDivRoundingUp(mulDivRoundingUp(numerator1, numerator2, sqrtRatioBX96), big.NewInt(1), sqrtRatioAX96)
	}

	out := new(big.Int).Mul(numerator1, numerator2)
	out.Div(out, sqrtRatioBX96)
	return out.Div(out, sqrtRatioAX96)
}

// Amount1Delta computes the token1 amount between two sqrt prices at the
// given liquidity: liquidity * (sqrtB - sqrtA) / 2^96.
func Amount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	diff := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		return mulDivRoundingUp(liquidity, diff, q96)
	}

	out := new(big.Int).Mul(liquidity, diff)
	return out.Div(out, q96)
}

func mulDivRoundingUp(a, b, denominator *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	result, remainder := new(big.Int).QuoRem(product, denominator, new(big.Int))
	if remainder.Sign() > 0 {
		result.Add(result, big.NewInt(1))
	}
	return result
}
