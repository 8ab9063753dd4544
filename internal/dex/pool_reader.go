package dex

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/whetstoneresearch/marketdepth-v3/internal/chain"
	"github.com/whetstoneresearch/marketdepth-v3/internal/model"
)

type wordKey struct {
	pool common.Address
	word int16
}

type tickKey struct {
	pool common.Address
	tick int32
}

type tokenPair struct {
	token0 common.Address
	token1 common.Address
}

// PoolStateReader reads V3 pool state over RPC, pinned to one block height.
// Bitmap words, tick deltas and snapshots are cached so repeated reads within
// one batch are idempotent and cheap.
type PoolStateReader struct {
	client *chain.Client
	block  *big.Int
	logger *zap.Logger

	mu        sync.RWMutex
	snapshots map[common.Address]model.PoolSnapshot
	words     map[wordKey]*big.Int
	nets      map[tickKey]*big.Int
	tokens    map[common.Address]tokenPair
}

// NewPoolStateReader builds a reader pinned to blockNumber; zero means the
// node's latest state.
func NewPoolStateReader(client *chain.Client, blockNumber uint64, logger *zap.Logger) *PoolStateReader {
	var block *big.Int
	if blockNumber > 0 {
		block = new(big.Int).SetUint64(blockNumber)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolStateReader{
		client:    client,
		block:     block,
		logger:    logger,
		snapshots: make(map[common.Address]model.PoolSnapshot),
		words:     make(map[wordKey]*big.Int),
		nets:      make(map[tickKey]*big.Int),
		tokens:    make(map[common.Address]tokenPair),
	}
}

// Snapshot loads slot0, liquidity and tickSpacing for a pool.
func (r *PoolStateReader) Snapshot(ctx context.Context, pool common.Address) (model.PoolSnapshot, error) {
	r.mu.RLock()
	snap, ok := r.snapshots[pool]
	r.mu.RUnlock()
	if ok {
		return snap, nil
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := r.call(ctx, pool, poolABI, "slot0")
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	if len(values) < 2 {
		return model.PoolSnapshot{}, fmt.Errorf("slot0: short response")
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("slot0 tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("slot0 tick: %w", err)
	}

	values, err = r.call(ctx, pool, poolABI, "liquidity")
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	liquidity, err := asBigInt(values[0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("liquidity: %w", err)
	}

	values, err = r.call(ctx, pool, poolABI, "tickSpacing")
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	spacingInt, err := asBigInt(values[0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("tick spacing: %w", err)
	}
	spacing, err := int24FromBig(spacingInt)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("tick spacing: %w", err)
	}
	if spacing <= 0 {
		return model.PoolSnapshot{}, fmt.Errorf("tick spacing must be positive: %d", spacing)
	}

	snap = model.PoolSnapshot{
		Pool:         pool,
		SqrtPriceX96: sqrtPrice,
		Tick:         tick,
		Liquidity:    liquidity,
		TickSpacing:  spacing,
	}

	r.mu.Lock()
	r.snapshots[pool] = snap
	r.mu.Unlock()

	r.logger.Debug("pool snapshot loaded",
		zap.String("pool", pool.Hex()),
		zap.String("sqrt_price_x96", sqrtPrice.String()),
		zap.Int32("tick", tick),
		zap.Int32("tick_spacing", spacing),
	)

	return snap, nil
}

// TickBitmapWord loads one 256-bit bitmap word.
func (r *PoolStateReader) TickBitmapWord(ctx context.Context, pool common.Address, wordPos int16) (*big.Int, error) {
	key := wordKey{pool: pool, word: wordPos}
	r.mu.RLock()
	word, ok := r.words[key]
	r.mu.RUnlock()
	if ok {
		return word, nil
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := r.call(ctx, pool, poolABI, "tickBitmap", wordPos)
	if err != nil {
		return nil, err
	}
	word, err = asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("tick bitmap: %w", err)
	}

	r.mu.Lock()
	r.words[key] = word
	r.mu.Unlock()

	return word, nil
}

// TickLiquidityNet loads the signed liquidity delta recorded at a tick.
func (r *PoolStateReader) TickLiquidityNet(ctx context.Context, pool common.Address, tick int32) (*big.Int, error) {
	key := tickKey{pool: pool, tick: tick}
	r.mu.RLock()
	net, ok := r.nets[key]
	r.mu.RUnlock()
	if ok {
		return net, nil
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := r.call(ctx, pool, poolABI, "ticks", big.NewInt(int64(tick)))
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("ticks: short response")
	}
	net, err = asBigInt(values[1])
	if err != nil {
		return nil, fmt.Errorf("ticks liquidity net: %w", err)
	}

	r.mu.Lock()
	r.nets[key] = net
	r.mu.Unlock()

	return net, nil
}

// PoolTokens loads the pool's token0/token1 addresses, used to label results.
func (r *PoolStateReader) PoolTokens(ctx context.Context, pool common.Address) (common.Address, common.Address, error) {
	r.mu.RLock()
	pair, ok := r.tokens[pool]
	r.mu.RUnlock()
	if ok {
		return pair.token0, pair.token1, nil
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := r.call(ctx, pool, poolABI, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token0: %w", err)
	}

	values, err = r.call(ctx, pool, poolABI, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token1: %w", err)
	}

	r.mu.Lock()
	r.tokens[pool] = tokenPair{token0: token0, token1: token1}
	r.mu.Unlock()

	return token0, token1, nil
}

func (r *PoolStateReader) call(ctx context.Context, pool common.Address, poolABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := poolABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &pool, Data: data}
	resp, err := r.client.CallContract(ctx, msg, r.block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := poolABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch typed := value.(type) {
	case *big.Int:
		return typed, nil
	case int64:
		return big.NewInt(typed), nil
	default:
		return nil, fmt.Errorf("unexpected value type %T", value)
	}
}

func asAddress(value interface{}) (common.Address, error) {
	addr, ok := value.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected value type %T", value)
	}
	return addr, nil
}

func int24FromBig(value *big.Int) (int32, error) {
	if !value.IsInt64() {
		return 0, fmt.Errorf("value out of int24 range: %s", value)
	}
	v := value.Int64()
	if v < -8388608 || v > 8388607 {
		return 0, fmt.Errorf("value out of int24 range: %d", v)
	}
	return int32(v), nil
}
