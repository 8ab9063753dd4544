package depth

import (
	"context"
	"math/big"
	"testing"

	"github.com/whetstoneresearch/marketdepth-v3/internal/model"
	"github.com/whetstoneresearch/marketdepth-v3/internal/v3math"
)

func sqrtRatio(t *testing.T, tick int32) *big.Int {
	t.Helper()
	price, err := v3math.SqrtRatioAtTick(tick)
	if err != nil {
		t.Fatalf("sqrt ratio at %d: %v", tick, err)
	}
	return price
}

func TestIntegrateZeroLiquidity(t *testing.T) {
	pool := newMemPool("0x1111111111111111111111111111111111111111", 100, 10, 0)

	engine := NewEngine(newMemReader(pool))
	target := sqrtRatio(t, 500)

	amount, err := engine.Integrate(context.Background(), pool.snap, true, model.UnitToken0, target)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if amount.Sign() != 0 {
		t.Fatalf("zero liquidity should cost nothing, got %s", amount)
	}
}

func TestIntegrateSingleBoundaryUpward(t *testing.T) {
	// tickSpacing 10, current tick 100, one boundary at 120 with delta -500,
	// liquidity 1000 below it, target at tick 140.
	pool := newMemPool("0x2222222222222222222222222222222222222222", 100, 10, 1000)
	pool.setBoundary(120, -500)

	engine := NewEngine(newMemReader(pool))

	p100 := sqrtRatio(t, 100)
	p120 := sqrtRatio(t, 120)
	p140 := sqrtRatio(t, 140)

	amount, err := engine.Integrate(context.Background(), pool.snap, true, model.UnitToken0, p140)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}

	want := v3math.Amount0Delta(p100, p120, big.NewInt(1000), false)
	want.Add(want, v3math.Amount0Delta(p120, p140, big.NewInt(500), false))

	if amount.Cmp(want) != 0 {
		t.Fatalf("amount mismatch: got %s, want %s", amount, want)
	}
}

func TestIntegrateSingleBoundaryDownward(t *testing.T) {
	// Crossing tick 80 downward applies the negated delta: liquidity drops
	// from 1000 to 500 below the boundary.
	pool := newMemPool("0x3333333333333333333333333333333333333333", 100, 10, 1000)
	pool.setBoundary(80, 500)

	engine := NewEngine(newMemReader(pool))

	p100 := sqrtRatio(t, 100)
	p80 := sqrtRatio(t, 80)
	p60 := sqrtRatio(t, 60)

	amount, err := engine.Integrate(context.Background(), pool.snap, false, model.UnitToken1, p60)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}

	want := v3math.Amount1Delta(p100, p80, big.NewInt(1000), false)
	want.Add(want, v3math.Amount1Delta(p80, p60, big.NewInt(500), false))

	if amount.Cmp(want) != 0 {
		t.Fatalf("amount mismatch: got %s, want %s", amount, want)
	}
}

func TestIntegrateTargetInsideInterval(t *testing.T) {
	// No boundary between current price and target: one clipped sub-interval.
	pool := newMemPool("0x4444444444444444444444444444444444444444", 0, 10, 2000)

	engine := NewEngine(newMemReader(pool))

	p0 := sqrtRatio(t, 0)
	p55 := sqrtRatio(t, 55)

	amount, err := engine.Integrate(context.Background(), pool.snap, true, model.UnitToken1, p55)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}

	want := v3math.Amount1Delta(p0, p55, big.NewInt(2000), false)
	if amount.Cmp(want) != 0 {
		t.Fatalf("amount mismatch: got %s, want %s", amount, want)
	}
}

func TestIntegrateLiquidityUnderflowClamps(t *testing.T) {
	// A poisoned delta larger than active liquidity saturates at zero; the
	// walk continues across the liquidity-free gap at no cost.
	pool := newMemPool("0x5555555555555555555555555555555555555555", 100, 10, 1000)
	pool.setBoundary(120, -5000)

	engine := NewEngine(newMemReader(pool))

	p100 := sqrtRatio(t, 100)
	p120 := sqrtRatio(t, 120)
	p200 := sqrtRatio(t, 200)

	amount, err := engine.Integrate(context.Background(), pool.snap, true, model.UnitToken0, p200)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}

	want := v3math.Amount0Delta(p100, p120, big.NewInt(1000), false)
	if amount.Cmp(want) != 0 {
		t.Fatalf("amount mismatch: got %s, want %s", amount, want)
	}
}

func TestIntegrateToClampedDomainEdge(t *testing.T) {
	// A depth offset larger than the remaining price range clamps the target
	// to the ratio domain edge. Boundary misses below tick -887272 land on
	// word-bottom slots outside the tick domain (-890880 at spacing 60); the
	// walk must still integrate down to the edge instead of failing.
	pool := newMemPool("0x7777777777777777777777777777777777777777", 0, 60, 1000)

	engine := NewEngine(newMemReader(pool))
	ctx := context.Background()

	huge := new(big.Int).Lsh(big.NewInt(1), 200)

	downTarget := v3math.TargetSqrtPrice(pool.snap.SqrtPriceX96, huge, false)
	if downTarget.Cmp(v3math.MinSqrtRatio) != 0 {
		t.Fatalf("lower target not clamped: %s", downTarget)
	}
	amount, err := engine.Integrate(ctx, pool.snap, false, model.UnitToken1, downTarget)
	if err != nil {
		t.Fatalf("integrate to min edge: %v", err)
	}
	want := v3math.Amount1Delta(pool.snap.SqrtPriceX96, v3math.MinSqrtRatio, big.NewInt(1000), false)
	if amount.Cmp(want) != 0 {
		t.Fatalf("amount mismatch at min edge: got %s, want %s", amount, want)
	}

	upTarget := v3math.TargetSqrtPrice(pool.snap.SqrtPriceX96, huge, true)
	amount, err = engine.Integrate(ctx, pool.snap, true, model.UnitToken0, upTarget)
	if err != nil {
		t.Fatalf("integrate to max edge: %v", err)
	}
	want = v3math.Amount0Delta(pool.snap.SqrtPriceX96, upTarget, big.NewInt(1000), false)
	if amount.Cmp(want) != 0 {
		t.Fatalf("amount mismatch at max edge: got %s, want %s", amount, want)
	}
}

func TestIntegrateDoesNotMutateSnapshot(t *testing.T) {
	pool := newMemPool("0x6666666666666666666666666666666666666666", 100, 10, 1000)
	pool.setBoundary(120, -500)

	engine := NewEngine(newMemReader(pool))
	target := sqrtRatio(t, 140)

	priceBefore := new(big.Int).Set(pool.snap.SqrtPriceX96)
	liquidityBefore := new(big.Int).Set(pool.snap.Liquidity)

	if _, err := engine.Integrate(context.Background(), pool.snap, true, model.UnitToken0, target); err != nil {
		t.Fatalf("integrate: %v", err)
	}

	if pool.snap.SqrtPriceX96.Cmp(priceBefore) != 0 || pool.snap.Liquidity.Cmp(liquidityBefore) != 0 {
		t.Fatalf("snapshot mutated: price %s liquidity %s", pool.snap.SqrtPriceX96, pool.snap.Liquidity)
	}
}
