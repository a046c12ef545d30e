package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "simpleswap",
		Short:        "Constant-product pool engine and chain tooling",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply operation requests to the pool state",
		RunE:  runApply,
	}

	applyCmd.Flags().String("in", "", "input operations JSONL (- for stdin)")
	applyCmd.Flags().String("out", "./data/results.jsonl", "output results JSONL")
	applyCmd.Flags().String("events", "./data/events.jsonl", "output events JSONL")
	applyCmd.Flags().String("logs", "", "optional output of events encoded as chain log records")
	applyCmd.Flags().String("state-file", "./data/state.json", "state snapshot file")
	applyCmd.Flags().String("pg-dsn", "", "Postgres DSN; replaces the state file when set")
	applyCmd.Flags().String("influx-url", "", "InfluxDB URL for reserve points")
	applyCmd.Flags().String("influx-token", "", "InfluxDB token")
	applyCmd.Flags().String("influx-org", "", "InfluxDB organization")
	applyCmd.Flags().String("influx-bucket", "", "InfluxDB bucket")
	applyCmd.Flags().String("pool", "", "genesis: pool address")
	applyCmd.Flags().String("token-a", "", "genesis: tokenA address")
	applyCmd.Flags().String("token-b", "", "genesis: tokenB address")
	applyCmd.Flags().String("owner", "", "genesis: token owner")
	applyCmd.Flags().String("recipient", "", "genesis: initial supply recipient (defaults to owner)")
	applyCmd.Flags().String("initial-supply", "", "genesis: initial supply per token in base units")
	applyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(applyCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote an exact-in swap from given or on-chain reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("amount-in", "", "input amount in base units")
	quoteCmd.Flags().String("reserve-in", "", "input-side reserve (offline)")
	quoteCmd.Flags().String("reserve-out", "", "output-side reserve (offline)")
	quoteCmd.Flags().String("rpc", "", "RPC URL; read reserves from the deployed pool")
	quoteCmd.Flags().String("pool", "", "pool address (with --rpc)")
	quoteCmd.Flags().String("token-in", "", "input token address (with --rpc)")
	quoteCmd.Flags().Uint64("block", 0, "block to read at, 0 means latest (with --rpc)")
	quoteCmd.Flags().Int32("decimals-in", 18, "input token decimals for display")
	quoteCmd.Flags().Int32("decimals-out", 18, "output token decimals for display")
	quoteCmd.Flags().Uint64("slippage-bps", 50, "slippage tolerance for the suggested minimum output")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Fetch pool and pair-token logs into JSONL",
		RunE:  runIndex,
	}

	indexCmd.Flags().String("rpc", "", "RPC URL")
	indexCmd.Flags().String("pool", "", "pool address")
	indexCmd.Flags().StringSlice("token", nil, "pair token addresses (comma-separated)")
	indexCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	indexCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	indexCmd.Flags().Uint64("confirmations", 0, "blocks to stay behind the head when --to is 0")
	indexCmd.Flags().StringSlice("topic0", nil, "topic0 filters (comma-separated), defaults to pool events")
	indexCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	indexCmd.Flags().String("out", "./data/logs.jsonl", "output JSONL path")
	indexCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	indexCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	indexCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	indexCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	indexCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(indexCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw pool logs into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("rpc", "", "optional RPC URL for pair metadata")
	decodeCmd.Flags().String("pool", "", "pool address; its logs carry pair metadata")
	decodeCmd.Flags().String("in", "", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	decodeCmd.Flags().Bool("token-meta", false, "attach token name, symbol and decimals (requires --rpc)")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	return root
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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
