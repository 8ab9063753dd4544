package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "depthctl",
		Short:        "V3 pool market depth estimator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	estimateCmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the traded amount needed to move pool prices by a depth offset",
		RunE:  runEstimate,
	}

	estimateCmd.Flags().String("rpc", "", "RPC URL")
	estimateCmd.Flags().StringSlice("pool", nil, "pool addresses (comma-separated, one entry per request)")
	estimateCmd.Flags().StringSlice("depth", nil, "depth offsets in Q64.96 sqrt price units (comma-separated)")
	estimateCmd.Flags().StringSlice("side", []string{"both"}, "sides: upper, lower or both (single value broadcasts)")
	estimateCmd.Flags().StringSlice("unit", []string{"token0"}, "amount units: token0 or token1 (single value broadcasts)")
	estimateCmd.Flags().Uint64("block", 0, "block height to read state at, 0 means latest")
	estimateCmd.Flags().String("out", "", "optional output JSONL path")
	estimateCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for result upserts")
	estimateCmd.Flags().Int("scan-budget", 8192, "bitmap words one boundary search may examine")
	estimateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(estimateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
