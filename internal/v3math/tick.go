package v3math

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the lowest tick accepted by SqrtRatioAtTick.
	MinTick int32 = -887272
	// MaxTick is the highest tick accepted by SqrtRatioAtTick.
	MaxTick int32 = 887272
)

var (
	// MinSqrtRatio is SqrtRatioAtTick(MinTick).
	MinSqrtRatio = mustBig("4295128739")
	// MaxSqrtRatio is SqrtRatioAtTick(MaxTick).
	MaxSqrtRatio = mustBig("1461446703485210103287273052203988822378723970342")

	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")

	one        = uint256.NewInt(1)
	maskLow32  = uint256.NewInt(0xffffffff)
	maxUint256 = uint256.MustFromBig(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))

	// sqrt(1.0001^(2^i)) in UQ128.128, i = 0..19. Index 1 holds 1.0 exactly.
	ratioConstants = [21]*uint256.Int{
		mustU256Hex("0xfffcb933bd6fad37aa2d162d1a594001"),
		mustU256Hex("0x100000000000000000000000000000000"),
		mustU256Hex("0xfff97272373d413259a46990580e213a"),
		mustU256Hex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		mustU256Hex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		mustU256Hex("0xffcb9843d60f6159c9db58835c926644"),
		mustU256Hex("0xff973b41fa98c081472e6896dfb254c0"),
		mustU256Hex("0xff2ea16466c96a3843ec78b326b52861"),
		mustU256Hex("0xfe5dee046a99a2a811c461f1969c3053"),
		mustU256Hex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		mustU256Hex("0xf987a7253ac413176f2b074cf7815e54"),
		mustU256Hex("0xf3392b0822b70005940c7a398e4b70f3"),
		mustU256Hex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		mustU256Hex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		mustU256Hex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		mustU256Hex("0x70d869a156d2a1b890bb3df62baf32f7"),
		mustU256Hex("0x31be135f97d08fd981231505542fcfa6"),
		mustU256Hex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		mustU256Hex("0x5d6af8dedb81196699c329225ee604"),
		mustU256Hex("0x2216e584f5fa1ea926041bedfe98"),
		mustU256Hex("0x48a170391f7dc42444e8fa2"),
	}
)

// SqrtRatioAtTick computes sqrt(1.0001^tick) * 2^96 as a Q64.96 value.
func SqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfBounds
	}

	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	ratio := new(uint256.Int)
	if absTick&0x1 != 0 {
		ratio.Set(ratioConstants[0])
	} else {
		ratio.Set(ratioConstants[1])
	}
	for i := 2; i < 21; i++ {
		if absTick&(1<<(i-1)) != 0 {
			ratio.Mul(ratio, ratioConstants[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Round the UQ128.128 ratio up into Q64.96.
	rem := new(uint256.Int).And(ratio, maskLow32)
	ratio.Rsh(ratio, 32)
	if !rem.IsZero() {
		ratio.Add(ratio, one)
	}

	return ratio.ToBig(), nil
}

// TickAtSqrtRatio returns the greatest tick whose ratio is <= sqrtPriceX96.
func TickAtSqrtRatio(sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrSqrtPriceOutOfBounds
	}

	low, high := MinTick, MaxTick
	var tick int32
	for low <= high {
		mid := (low + high) / 2
		ratio, err := SqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Cmp(sqrtPriceX96) <= 0 {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	return tick, nil
}

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("v3math: invalid decimal constant " + s)
	}
	return n
}

func mustU256Hex(s string) *uint256.Int {
	n, err := uint256.FromHex(s)
	if err != nil {
		panic("v3math: invalid hex constant " + s)
	}
	return n
}
