package depth

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"github.com/whetstoneresearch/marketdepth-v3/internal/model"
	"github.com/whetstoneresearch/marketdepth-v3/internal/v3math"
)

// Engine walks a pool's piecewise-constant liquidity curve. It holds no
// per-call state; every estimate is a pure read over the supplied snapshot.
type Engine struct {
	state      StateReader
	scanBudget int
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithScanBudget overrides the per-search bitmap word budget.
func WithScanBudget(budget int) Option {
	return func(e *Engine) {
		if budget > 0 {
			e.scanBudget = budget
		}
	}
}

// WithLogger attaches a logger for debug tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine builds an Engine over the given state reader.
func NewEngine(state StateReader, opts ...Option) *Engine {
	e := &Engine{
		state:      state,
		scanBudget: DefaultScanBudget,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Integrate accumulates the input amount needed to move the pool price from
// its snapshot value to targetSqrtPriceX96, walking boundary to boundary and
// applying each crossed boundary's liquidity delta. The snapshot is not
// mutated; local working copies advance instead.
func (e *Engine) Integrate(ctx context.Context, snap model.PoolSnapshot, movingUp bool, unit model.Unit, targetSqrtPriceX96 *big.Int) (*big.Int, error) {
	price := new(big.Int).Set(snap.SqrtPriceX96)
	liquidity := new(big.Int).Set(snap.Liquidity)
	amount := new(big.Int)

	nextTick, err := e.NextBoundary(ctx, snap, snap.Tick, movingUp, targetSqrtPriceX96)
	if err != nil {
		return nil, err
	}
	// A word-granular miss can land past the tick domain edge; the price
	// conversion only accepts in-range ticks.
	nextTick = clampTick(nextTick)
	nextPrice, err := v3math.SqrtRatioAtTick(nextTick)
	if err != nil {
		return nil, err
	}

	for targetAhead(price, targetSqrtPriceX96, movingUp) {
		if targetAhead(targetSqrtPriceX96, nextPrice, movingUp) {
			// The target sits strictly inside the current liquidity
			// interval; clip the final sub-interval to it and stop.
			amount.Add(amount, amountDelta(price, targetSqrtPriceX96, liquidity, unit))
			break
		}

		amount.Add(amount, amountDelta(price, nextPrice, liquidity, unit))

		delta, err := e.state.TickLiquidityNet(ctx, snap.Pool, nextTick)
		if err != nil {
			return nil, err
		}
		e.logger.Debug("boundary crossed",
			zap.String("pool", snap.Pool.Hex()),
			zap.Int32("tick", nextTick),
			zap.String("liquidity_net", delta.String()),
			zap.Bool("moving_up", movingUp),
		)
		if !movingUp {
			// A boundary belongs to the interval above it: crossing downward
			// reverses the delta's sign, and the next search starts one tick
			// below the crossed boundary so it is not found again.
			delta = new(big.Int).Neg(delta)
			nextTick--
		}
		liquidity = v3math.AddLiquidityDelta(liquidity, delta)

		crossedPrice := nextPrice
		nextTick, err = e.NextBoundary(ctx, snap, nextTick, movingUp, targetSqrtPriceX96)
		if err != nil {
			return nil, err
		}
		nextTick = clampTick(nextTick)
		nextPrice, err = v3math.SqrtRatioAtTick(nextTick)
		if err != nil {
			return nil, err
		}
		price = crossedPrice
	}

	return amount, nil
}

func clampTick(tick int32) int32 {
	if tick < v3math.MinTick {
		return v3math.MinTick
	}
	if tick > v3math.MaxTick {
		return v3math.MaxTick
	}
	return tick
}

// targetAhead reports whether target still lies ahead of price in the walk
// direction.
func targetAhead(price, target *big.Int, movingUp bool) bool {
	if movingUp {
		return price.Cmp(target) < 0
	}
	return target.Cmp(price) < 0
}

func amountDelta(sqrtA, sqrtB, liquidity *big.Int, unit model.Unit) *big.Int {
	if liquidity.Sign() == 0 {
		// The delta conversions already yield zero at zero liquidity (only a
		// zero sqrt price could divide by zero); this branch just skips the
		// big.Int work for liquidity-free gaps.
		return new(big.Int)
	}
	if unit == model.UnitToken1 {
		return v3math.Amount1Delta(sqrtA, sqrtB, liquidity, false)
	}
	return v3math.Amount0Delta(sqrtA, sqrtB, liquidity, false)
}
