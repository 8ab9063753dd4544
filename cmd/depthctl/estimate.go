package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/whetstoneresearch/marketdepth-v3/internal/chain"
	"github.com/whetstoneresearch/marketdepth-v3/internal/config"
	"github.com/whetstoneresearch/marketdepth-v3/internal/depth"
	"github.com/whetstoneresearch/marketdepth-v3/internal/dex"
	"github.com/whetstoneresearch/marketdepth-v3/internal/model"
	"github.com/whetstoneresearch/marketdepth-v3/internal/storage"
	"github.com/whetstoneresearch/marketdepth-v3/internal/storage/postgres"
)

func runEstimate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	pools, err := parsePools(cfg.Pools)
	if err != nil {
		return err
	}
	if len(pools) == 0 {
		return fmt.Errorf("pool list is required")
	}

	offsets, err := parseOffsets(cfg.Depths)
	if err != nil {
		return err
	}

	configs, err := parseConfigs(cfg.Sides, cfg.Units, len(pools))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}

	blockNumber := cfg.Block
	if blockNumber == 0 {
		blockNumber, err = chainClient.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("latest block: %w", err)
		}
	}

	reader := dex.NewPoolStateReader(chainClient, blockNumber, logger)
	estimator := depth.NewEstimator(reader,
		depth.WithScanBudget(cfg.ScanBudget),
		depth.WithLogger(logger),
	)

	logger.Info("estimate start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain_id", chainID.Uint64()),
		zap.Uint64("block", blockNumber),
		zap.Int("requests", len(pools)),
		zap.Int("scan_budget", cfg.ScanBudget),
	)

	amounts, err := estimator.Estimate(ctx, pools, offsets, configs)
	if err != nil {
		return err
	}

	timestamp, err := chainClient.BlockTimestamp(ctx, blockNumber)
	if err != nil {
		logger.Warn("block timestamp fetch failed", zap.Uint64("block", blockNumber), zap.Error(err))
		timestamp = 0
	}

	records := make([]model.EstimateRecord, 0, len(amounts))
	for i, amount := range amounts {
		snap, err := reader.Snapshot(ctx, pools[i])
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", pools[i].Hex(), err)
		}
		var token0Hex, token1Hex string
		token0, token1, err := reader.PoolTokens(ctx, pools[i])
		if err != nil {
			logger.Warn("pool token fetch failed", zap.String("pool", pools[i].Hex()), zap.Error(err))
		} else {
			token0Hex = token0.Hex()
			token1Hex = token1.Hex()
		}
		records = append(records, model.EstimateRecord{
			ChainID:      chainID.Uint64(),
			Pool:         pools[i].Hex(),
			Token0:       token0Hex,
			Token1:       token1Hex,
			BlockNumber:  blockNumber,
			SqrtPriceX96: snap.SqrtPriceX96.String(),
			Tick:         snap.Tick,
			Liquidity:    snap.Liquidity.String(),
			DepthOffset:  offsets[i].String(),
			Side:         string(configs[i].Side),
			Unit:         string(configs[i].Unit),
			Amount:       amount.String(),
			Timestamp:    timestamp,
		})
	}

	encoder := json.NewEncoder(os.Stdout)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}

	if cfg.Out != "" {
		sink := storage.NewJsonlStorage(cfg.Out)
		if err := sink.PutEstimateBatch(records); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.UpsertEstimates(ctx, records); err != nil {
			return fmt.Errorf("upsert estimates: %w", err)
		}
	}

	logger.Info("estimate done", zap.Int("records", len(records)))
	return nil
}

func parsePools(values []string) ([]common.Address, error) {
	pools := make([]common.Address, 0, len(values))
	for _, value := range values {
		if !common.IsHexAddress(value) {
			return nil, fmt.Errorf("invalid pool address: %s", value)
		}
		pools = append(pools, common.HexToAddress(value))
	}
	return pools, nil
}

func parseOffsets(values []string) ([]*big.Int, error) {
	offsets := make([]*big.Int, 0, len(values))
	for _, value := range values {
		offset, ok := new(big.Int).SetString(value, 10)
		if !ok || offset.Sign() < 0 {
			return nil, fmt.Errorf("invalid depth offset: %s", value)
		}
		offsets = append(offsets, offset)
	}
	return offsets, nil
}

// parseConfigs pairs sides and units into request configs. A single side or
// unit broadcasts across all requests; anything else must match count.
func parseConfigs(sides, units []string, count int) ([]model.RequestConfig, error) {
	sides, err := broadcast(sides, count, "side")
	if err != nil {
		return nil, err
	}
	units, err = broadcast(units, count, "unit")
	if err != nil {
		return nil, err
	}

	configs := make([]model.RequestConfig, 0, count)
	for i := 0; i < count; i++ {
		side, err := model.ParseSide(sides[i])
		if err != nil {
			return nil, err
		}
		unit, err := model.ParseUnit(units[i])
		if err != nil {
			return nil, err
		}
		configs = append(configs, model.RequestConfig{Side: side, Unit: unit})
	}
	return configs, nil
}

func broadcast(values []string, count int, name string) ([]string, error) {
	if len(values) == 1 && count > 1 {
		out := make([]string, count)
		for i := range out {
			out[i] = values[0]
		}
		return out, nil
	}
	if len(values) != count {
		return nil, fmt.Errorf("%s count %d does not match request count %d", name, len(values), count)
	}
	return values, nil
}
