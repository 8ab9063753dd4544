package depth

import (
	"context"
	"errors"
	"math/big"

	"github.com/whetstoneresearch/marketdepth-v3/internal/model"
	"github.com/whetstoneresearch/marketdepth-v3/internal/v3math"
)

// DefaultScanBudget bounds how many bitmap words one boundary search may
// examine. The word-at-a-time advance terminates on its own against a sane
// limit price, but corrupted bitmap data should not be able to stall a call.
const DefaultScanBudget = 8192

// ErrScanBudget is returned when a boundary search exhausts its word budget.
var ErrScanBudget = errors.New("tick bitmap scan budget exhausted")

var bigOne = big.NewInt(1)

// Compress maps a tick to its compressed index, rounding toward negative
// infinity so that negative non-multiples land in the word below.
func Compress(tick, tickSpacing int32) int32 {
	compressed := tick / tickSpacing
	if tick < 0 && tick%tickSpacing != 0 {
		compressed--
	}
	return compressed
}

// Position decomposes a compressed tick index into its bitmap word index and
// the bit position inside that word.
func Position(compressed int32) (wordPos int16, bitPos uint8) {
	return int16(compressed >> 8), uint8(compressed & 0xff)
}

// nextInitializedWithinWord searches a single bitmap word for an initialized
// boundary. With lte it looks at or below the tick's bit (price decreasing
// setup); otherwise strictly above it (price increasing). The returned tick
// is in real tick space. When no bit is set in the examined range, the word's
// lowest (lte) or highest (gt) boundary is returned with found=false.
//
// The caller guarantees tick and tickSpacing magnitudes keep the compressed
// index inside int32; no overflow checking happens here.
func (e *Engine) nextInitializedWithinWord(ctx context.Context, snap model.PoolSnapshot, tick int32, lte bool) (int32, bool, error) {
	compressed := Compress(tick, snap.TickSpacing)

	if lte {
		wordPos, bitPos := Position(compressed)
		word, err := e.state.TickBitmapWord(ctx, snap.Pool, wordPos)
		if err != nil {
			return 0, false, err
		}

		// Keep bits at or below bitPos.
		mask := new(big.Int).Lsh(bigOne, uint(bitPos)+1)
		mask.Sub(mask, bigOne)
		masked := new(big.Int).And(word, mask)

		if masked.Sign() != 0 {
			msb := int32(masked.BitLen() - 1)
			return (int32(wordPos)*256 + msb) * snap.TickSpacing, true, nil
		}
		return int32(wordPos) * 256 * snap.TickSpacing, false, nil
	}

	wordPos, bitPos := Position(compressed + 1)
	word, err := e.state.TickBitmapWord(ctx, snap.Pool, wordPos)
	if err != nil {
		return 0, false, err
	}

	// Keep bits at or above bitPos.
	mask := new(big.Int).Lsh(bigOne, uint(bitPos))
	mask.Sub(mask, bigOne)
	mask.Not(mask)
	masked := new(big.Int).And(word, mask)

	if masked.Sign() != 0 {
		lsb := int32(masked.TrailingZeroBits())
		return (int32(wordPos)*256 + lsb) * snap.TickSpacing, true, nil
	}
	return (int32(wordPos)*256 + 255) * snap.TickSpacing, false, nil
}

// NextBoundary finds the nearest delta-bearing boundary from tick in the
// given direction, scanning one bitmap word per step until a boundary is
// found or the candidate passes the tick of limitSqrtPrice. The result may
// overshoot the limit; callers clip amounts to the true target themselves.
func (e *Engine) NextBoundary(ctx context.Context, snap model.PoolSnapshot, tick int32, movingUp bool, limitSqrtPriceX96 *big.Int) (int32, error) {
	limitTick, err := v3math.TickAtSqrtRatio(limitSqrtPriceX96)
	if err != nil {
		return 0, err
	}
	if movingUp {
		// Compare strict-below the limit tick rather than strict-before it.
		limitTick++
	}

	next := tick
	for scans := 0; scans < e.scanBudget; scans++ {
		candidate, found, err := e.nextInitializedWithinWord(ctx, snap, next, !movingUp)
		if err != nil {
			return 0, err
		}
		if found {
			return candidate, nil
		}
		if movingUp {
			if candidate >= limitTick {
				return candidate, nil
			}
			// The gt search starts one slot past its origin, so the word-top
			// miss carries straight into the next word.
			next = candidate
		} else {
			if candidate <= limitTick {
				return candidate, nil
			}
			// Step below the word's lowest slot into the word before it.
			next = candidate - 1
		}
	}

	return 0, ErrScanBudget
}
