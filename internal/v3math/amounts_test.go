package v3math

import (
	"math/big"
	"testing"
)

func TestAmount1DeltaExact(t *testing.T) {
	sqrtA := new(big.Int).Lsh(big.NewInt(1), 96)
	sqrtB := new(big.Int).Lsh(big.NewInt(2), 96)
	liquidity := big.NewInt(1000)

	// liquidity * (sqrtB - sqrtA) / 2^96 = 1000 * 1 = 1000.
	got := Amount1Delta(sqrtA, sqrtB, liquidity, false)
	if got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("amount1: got %s, want 1000", got)
	}
}

func TestAmount0DeltaExact(t *testing.T) {
	sqrtA := new(big.Int).Lsh(big.NewInt(1), 96)
	sqrtB := new(big.Int).Lsh(big.NewInt(2), 96)
	liquidity := big.NewInt(1000)

	// liquidity * (sqrtB - sqrtA) / (sqrtB * sqrtA) * 2^96 = 1000 / 2 = 500.
	got := Amount0Delta(sqrtA, sqrtB, liquidity, false)
	if got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("amount0: got %s, want 500", got)
	}
}

func TestAmountDeltaOrderIndependent(t *testing.T) {
	sqrtA, _ := new(big.Int).SetString("79228162514264337593543950336", 10)
	sqrtB, _ := new(big.Int).SetString("83095197869223164535776590342", 10)
	liquidity := big.NewInt(123456789)

	if a, b := Amount0Delta(sqrtA, sqrtB, liquidity, false), Amount0Delta(sqrtB, sqrtA, liquidity, false); a.Cmp(b) != 0 {
		t.Fatalf("amount0 depends on price order: %s != %s", a, b)
	}
	if a, b := Amount1Delta(sqrtA, sqrtB, liquidity, false), Amount1Delta(sqrtB, sqrtA, liquidity, false); a.Cmp(b) != 0 {
		t.Fatalf("amount1 depends on price order: %s != %s", a, b)
	}
}

func TestAmountDeltaRounding(t *testing.T) {
	sqrtA, _ := new(big.Int).SetString("79228162514264337593543950336", 10)
	sqrtB, _ := new(big.Int).SetString("79267784519130042428790663799", 10)
	liquidity := big.NewInt(999999)

	for _, f := range []func(a, b, l *big.Int, up bool) *big.Int{Amount0Delta, Amount1Delta} {
		down := f(sqrtA, sqrtB, liquidity, false)
		up := f(sqrtA, sqrtB, liquidity, true)
		if down.Cmp(up) > 0 {
			t.Fatalf("rounded-down amount exceeds rounded-up: %s > %s", down, up)
		}
		diff := new(big.Int).Sub(up, down)
		if diff.Cmp(big.NewInt(2)) >= 0 {
			t.Fatalf("rounding gap too large: %s", diff)
		}
	}
}

func TestAddLiquidityDelta(t *testing.T) {
	if got := AddLiquidityDelta(big.NewInt(1000), big.NewInt(-400)); got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("add delta: got %s, want 600", got)
	}
	if got := AddLiquidityDelta(big.NewInt(1000), big.NewInt(400)); got.Cmp(big.NewInt(1400)) != 0 {
		t.Fatalf("add delta: got %s, want 1400", got)
	}
	// Poisoned data saturates at zero instead of wrapping negative.
	if got := AddLiquidityDelta(big.NewInt(1000), big.NewInt(-4000)); got.Sign() != 0 {
		t.Fatalf("underflow not clamped: got %s", got)
	}
}

func TestTargetSqrtPrice(t *testing.T) {
	current := new(big.Int).Lsh(big.NewInt(1), 96)
	offset := big.NewInt(1_000_000)

	up := TargetSqrtPrice(current, offset, true)
	want := new(big.Int).Add(current, offset)
	if up.Cmp(want) != 0 {
		t.Fatalf("upper target: got %s, want %s", up, want)
	}

	down := TargetSqrtPrice(current, offset, false)
	want = new(big.Int).Sub(current, offset)
	if down.Cmp(want) != 0 {
		t.Fatalf("lower target: got %s, want %s", down, want)
	}

	// Targets clamp to the valid ratio domain.
	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	up = TargetSqrtPrice(current, huge, true)
	if up.Cmp(MaxSqrtRatio) >= 0 {
		t.Fatalf("upper target not clamped: %s", up)
	}
	down = TargetSqrtPrice(current, huge, false)
	if down.Cmp(MinSqrtRatio) != 0 {
		t.Fatalf("lower target not clamped: %s", down)
	}
}
