package depth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/whetstoneresearch/marketdepth-v3/internal/model"
	"github.com/whetstoneresearch/marketdepth-v3/internal/v3math"
)

// memPool is an in-memory pool state for tests.
type memPool struct {
	snap  model.PoolSnapshot
	words map[int16]*big.Int
	nets  map[int32]*big.Int
}

func newMemPool(addr string, tick, tickSpacing int32, liquidity int64) *memPool {
	price, err := v3math.SqrtRatioAtTick(tick)
	if err != nil {
		panic(err)
	}
	pool := common.HexToAddress(addr)
	return &memPool{
		snap: model.PoolSnapshot{
			Pool:         pool,
			SqrtPriceX96: price,
			Tick:         tick,
			Liquidity:    big.NewInt(liquidity),
			TickSpacing:  tickSpacing,
		},
		words: make(map[int16]*big.Int),
		nets:  make(map[int32]*big.Int),
	}
}

// setBoundary records a liquidity delta at tick and flips its bitmap bit.
func (p *memPool) setBoundary(tick int32, liquidityNet int64) {
	if tick%p.snap.TickSpacing != 0 {
		panic(fmt.Sprintf("tick %d not a multiple of spacing %d", tick, p.snap.TickSpacing))
	}
	compressed := Compress(tick, p.snap.TickSpacing)
	wordPos, bitPos := Position(compressed)
	word, ok := p.words[wordPos]
	if !ok {
		word = new(big.Int)
		p.words[wordPos] = word
	}
	word.SetBit(word, int(bitPos), 1)
	p.nets[tick] = big.NewInt(liquidityNet)
}

// memReader is an in-memory StateReader with call counters.
type memReader struct {
	pools         map[common.Address]*memPool
	snapshotCalls int
}

func newMemReader(pools ...*memPool) *memReader {
	r := &memReader{pools: make(map[common.Address]*memPool)}
	for _, p := range pools {
		r.pools[p.snap.Pool] = p
	}
	return r
}

func (r *memReader) Snapshot(_ context.Context, pool common.Address) (model.PoolSnapshot, error) {
	r.snapshotCalls++
	p, ok := r.pools[pool]
	if !ok {
		return model.PoolSnapshot{}, fmt.Errorf("unknown pool %s", pool.Hex())
	}
	return p.snap, nil
}

func (r *memReader) TickBitmapWord(_ context.Context, pool common.Address, wordPos int16) (*big.Int, error) {
	p, ok := r.pools[pool]
	if !ok {
		return nil, fmt.Errorf("unknown pool %s", pool.Hex())
	}
	if word, ok := p.words[wordPos]; ok {
		return word, nil
	}
	return new(big.Int), nil
}

func (r *memReader) TickLiquidityNet(_ context.Context, pool common.Address, tick int32) (*big.Int, error) {
	p, ok := r.pools[pool]
	if !ok {
		return nil, fmt.Errorf("unknown pool %s", pool.Hex())
	}
	if net, ok := p.nets[tick]; ok {
		return net, nil
	}
	return new(big.Int), nil
}
