package depth

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/whetstoneresearch/marketdepth-v3/internal/model"
)

// StateReader is the narrow read interface the estimator depends on for pool
// state. Reads must be idempotent within one call; nothing here is written.
type StateReader interface {
	// Snapshot returns the pool's current price, tick, active liquidity and
	// tick spacing.
	Snapshot(ctx context.Context, pool common.Address) (model.PoolSnapshot, error)

	// TickBitmapWord returns the 256-bit bitmap word at the given word index.
	// Bit b of word w marks the boundary at compressed index w*256+b as
	// carrying a nonzero liquidity delta.
	TickBitmapWord(ctx context.Context, pool common.Address, wordPos int16) (*big.Int, error)

	// TickLiquidityNet returns the signed liquidity delta recorded at an
	// initialized tick, applied when price crosses it moving upward.
	TickLiquidityNet(ctx context.Context, pool common.Address, tick int32) (*big.Int, error)
}
