package depth

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/whetstoneresearch/marketdepth-v3/internal/model"
	"github.com/whetstoneresearch/marketdepth-v3/internal/v3math"
)

// ErrLengthMismatch is returned when the parallel request slices disagree in
// length. The whole batch is rejected before any amount is computed.
var ErrLengthMismatch = errors.New("pools, offsets and configs must have equal length")

// Estimator runs batches of depth estimates over one Engine.
type Estimator struct {
	engine *Engine
	state  StateReader
}

// NewEstimator builds an Estimator over the given state reader.
func NewEstimator(state StateReader, opts ...Option) *Estimator {
	return &Estimator{
		engine: NewEngine(state, opts...),
		state:  state,
	}
}

// Estimate computes, for each (pool, offset, config) triple, how much of the
// requested token must be traded to move the pool's sqrt price by offset.
// Output order matches input order. Consecutive requests for the same pool
// reuse the previously loaded snapshot; the reuse is observably transparent.
func (e *Estimator) Estimate(ctx context.Context, pools []common.Address, offsets []*big.Int, configs []model.RequestConfig) ([]*big.Int, error) {
	if len(pools) != len(offsets) || len(pools) != len(configs) {
		return nil, ErrLengthMismatch
	}

	var (
		snap   model.PoolSnapshot
		loaded bool
	)

	amounts := make([]*big.Int, 0, len(pools))
	for i, pool := range pools {
		if !loaded || snap.Pool != pool {
			var err error
			snap, err = e.state.Snapshot(ctx, pool)
			if err != nil {
				return nil, fmt.Errorf("snapshot %s: %w", pool.Hex(), err)
			}
			loaded = true
		}

		amount, err := e.estimateOne(ctx, snap, offsets[i], configs[i])
		if err != nil {
			return nil, fmt.Errorf("estimate %s: %w", pool.Hex(), err)
		}
		amounts = append(amounts, amount)
	}

	return amounts, nil
}

func (e *Estimator) estimateOne(ctx context.Context, snap model.PoolSnapshot, offset *big.Int, cfg model.RequestConfig) (*big.Int, error) {
	if cfg.Side == model.SideBoth {
		// Both directions integrate independently against the same snapshot
		// and never interact; the result is their sum.
		upper, err := e.integrateSide(ctx, snap, offset, true, cfg.Unit)
		if err != nil {
			return nil, err
		}
		lower, err := e.integrateSide(ctx, snap, offset, false, cfg.Unit)
		if err != nil {
			return nil, err
		}
		return upper.Add(upper, lower), nil
	}

	return e.integrateSide(ctx, snap, offset, cfg.Side == model.SideUpper, cfg.Unit)
}

func (e *Estimator) integrateSide(ctx context.Context, snap model.PoolSnapshot, offset *big.Int, movingUp bool, unit model.Unit) (*big.Int, error) {
	target := v3math.TargetSqrtPrice(snap.SqrtPriceX96, offset, movingUp)
	return e.engine.Integrate(ctx, snap, movingUp, unit, target)
}
