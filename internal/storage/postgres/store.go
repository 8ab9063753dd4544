package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whetstoneresearch/marketdepth-v3/internal/model"
)

// Store provides Postgres persistence for depth estimates.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertEstimates inserts or updates depth estimate records.
func (s *Store) UpsertEstimates(ctx context.Context, records []model.EstimateRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO depth_estimates (
				chain_id, pool_address, token0_address, token1_address, block_number,
				sqrt_price_x96, tick, liquidity, depth_offset, side, unit, amount,
				estimated_at_ts, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now(),now())
			ON CONFLICT (chain_id, pool_address, block_number, depth_offset, side, unit)
			DO UPDATE SET
				token0_address = EXCLUDED.token0_address,
				token1_address = EXCLUDED.token1_address,
				sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
				tick = EXCLUDED.tick,
				liquidity = EXCLUDED.liquidity,
				amount = EXCLUDED.amount,
				estimated_at_ts = EXCLUDED.estimated_at_ts,
				updated_at = now()
		`,
			int64(r.ChainID),
			r.Pool,
			r.Token0,
			r.Token1,
			int64(r.BlockNumber),
			r.SqrtPriceX96,
			r.Tick,
			r.Liquidity,
			r.DepthOffset,
			r.Side,
			r.Unit,
			r.Amount,
			int64(r.Timestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
