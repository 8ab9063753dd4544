package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const v3PoolABIJSON = `[
  {
    "inputs": [],
    "name": "slot0",
    "outputs": [
      {"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"internalType": "int24", "name": "tick", "type": "int24"},
      {"internalType": "uint16", "name": "observationIndex", "type": "uint16"},
      {"internalType": "uint16", "name": "observationCardinality", "type": "uint16"},
      {"internalType": "uint16", "name": "observationCardinalityNext", "type": "uint16"},
      {"internalType": "uint8", "name": "feeProtocol", "type": "uint8"},
      {"internalType": "bool", "name": "unlocked", "type": "bool"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "liquidity",
    "outputs": [{"internalType": "uint128", "name": "", "type": "uint128"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "tickSpacing",
    "outputs": [{"internalType": "int24", "name": "", "type": "int24"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "int16", "name": "wordPosition", "type": "int16"}],
    "name": "tickBitmap",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "int24", "name": "tick", "type": "int24"}],
    "name": "ticks",
    "outputs": [
      {"internalType": "uint128", "name": "liquidityGross", "type": "uint128"},
      {"internalType": "int128", "name": "liquidityNet", "type": "int128"},
      {"internalType": "uint256", "name": "feeGrowthOutside0X128", "type": "uint256"},
      {"internalType": "uint256", "name": "feeGrowthOutside1X128", "type": "uint256"},
      {"internalType": "int56", "name": "tickCumulativeOutside", "type": "int56"},
      {"internalType": "uint160", "name": "secondsPerLiquidityOutsideX128", "type": "uint160"},
      {"internalType": "uint32", "name": "secondsOutside", "type": "uint32"},
      {"internalType": "bool", "name": "initialized", "type": "bool"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "token0",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "token1",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	v3PoolABIOnce sync.Once
	v3PoolABI     abi.ABI
	v3PoolABIErr  error
)

// V3PoolABI parses and caches the V3 pool ABI.
func V3PoolABI() (abi.ABI, error) {
	v3PoolABIOnce.Do(func() {
		v3PoolABI, v3PoolABIErr = abi.JSON(strings.NewReader(v3PoolABIJSON))
	})
	return v3PoolABI, v3PoolABIErr
}
