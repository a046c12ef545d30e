package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"simpleSwap/internal/chain"
	"simpleSwap/internal/config"
	"simpleSwap/internal/dex"
	"simpleSwap/internal/model"
	"simpleSwap/internal/storage"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}
	if cfg.TokenMeta && cfg.RPCURL == "" {
		return fmt.Errorf("token-meta requires an rpc url")
	}

	var pool common.Address
	if cfg.Pool != "" {
		if !common.IsHexAddress(cfg.Pool) {
			return fmt.Errorf("invalid pool address: %s", cfg.Pool)
		}
		pool = common.HexToAddress(cfg.Pool)
	}

	ctx, stop := signalContext()
	defer stop()

	decodeCtx := dex.DecodeContext{
		Context:   ctx,
		PairCache: dex.NewPairMetaCache(),
		Logger:    logger,
	}
	if cfg.RPCURL != "" {
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()
		decodeCtx.Chain = chainClient
		if cfg.TokenMeta {
			decodeCtx.TokenMetaCache = dex.NewTokenMetaCache()
		}
	}

	decoder, err := dex.NewEventDecoder(dex.DecoderConfig{Pool: pool, Topic0Map: cfg.Topic0Map})
	if err != nil {
		return err
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	outWriter, err := storage.NewJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := storage.NewJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.String("pool", cfg.Pool),
		zap.Bool("rpc", cfg.RPCURL != ""),
	)

	stats, err := decodeLogs(inputFile, decoder, decodeCtx, outWriter, errWriter)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.total),
		zap.Int("decoded", stats.decoded),
		zap.Int("skipped", stats.skipped),
		zap.Int("failed", stats.failed),
	)
	return nil
}

type decodeStats struct {
	total, decoded, skipped, failed int
}

// decodeLogs decodes every raw log line. Malformed or undecodable logs go to
// errWriter and do not stop the run; logs with unknown topics are skipped.
func decodeLogs(input io.Reader, decoder dex.Decoder, decodeCtx dex.DecodeContext, outWriter, errWriter *storage.JSONLWriter) (decodeStats, error) {
	var stats decodeStats
	err := storage.ScanJSONL(input, func(lineNo int, line []byte) error {
		stats.total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.failed++
			return errWriter.Write(model.DecodeError{Line: lineNo, Error: err.Error()})
		}
		if len(record.Topics) == 0 {
			stats.failed++
			return errWriter.Write(decodeErrorFromRecord(lineNo, record, fmt.Errorf("missing topic0")))
		}
		if !decoder.CanDecode(record.Topics[0]) {
			stats.skipped++
			return nil
		}

		event, err := decoder.Decode(record, decodeCtx)
		if err != nil {
			stats.failed++
			return errWriter.Write(decodeErrorFromRecord(lineNo, record, err))
		}
		stats.decoded++
		return outWriter.Write(event)
	})
	return stats, err
}

func decodeErrorFromRecord(lineNo int, record model.LogRecord, err error) model.DecodeError {
	topic0 := ""
	if len(record.Topics) > 0 {
		topic0 = record.Topics[0]
	}

	return model.DecodeError{
		Line:        lineNo,
		ChainID:     record.ChainID,
		BlockNumber: record.BlockNumber,
		TxHash:      record.TxHash,
		LogIndex:    record.LogIndex,
		Address:     record.Address,
		Topic0:      topic0,
		Error:       err.Error(),
	}
}
