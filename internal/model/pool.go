package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PoolSnapshot is an immutable view of a V3 pool taken once per batch entry.
// Walkers copy price/liquidity/tick into local working values and never
// mutate the snapshot itself.
type PoolSnapshot struct {
	Pool         common.Address
	SqrtPriceX96 *big.Int
	Tick         int32
	Liquidity    *big.Int
	TickSpacing  int32
}
