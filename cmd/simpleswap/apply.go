package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"simpleSwap/internal/config"
	"simpleSwap/internal/dex"
	"simpleSwap/internal/engine"
	"simpleSwap/internal/model"
	"simpleSwap/internal/storage"
	"simpleSwap/internal/storage/influx"
	"simpleSwap/internal/storage/postgres"
	"simpleSwap/internal/token"
)

const applyBatchSize = 500

func runApply(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadApply(cfgFile, cmd.Flags())
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

	ctx, stop := signalContext()
	defer stop()

	var store storage.StateStore
	if cfg.PGDSN != "" {
		if cfg.Genesis.Pool == "" {
			return fmt.Errorf("pool address is required with pg-dsn")
		}
		pgStore, err := postgres.NewStore(ctx, cfg.PGDSN, common.HexToAddress(cfg.Genesis.Pool).Hex())
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		store = pgStore
	} else {
		store = storage.NewFileStateStore(cfg.StateFile)
	}

	eng, err := loadEngine(ctx, store, cfg.Genesis, logger)
	if err != nil {
		return err
	}

	resultsWriter, err := storage.NewJSONLWriter(cfg.Out, true)
	if err != nil {
		return err
	}
	defer resultsWriter.Close()

	eventsWriter, err := storage.NewJSONLWriter(cfg.Events, true)
	if err != nil {
		return err
	}
	defer eventsWriter.Close()

	sinks := storage.MultiSink{resultsWriter, storage.NewEventStream(eventsWriter)}
	if cfg.Logs != "" {
		logsWriter, err := storage.NewJSONLWriter(cfg.Logs, true)
		if err != nil {
			return err
		}
		defer logsWriter.Close()
		sinks = append(sinks, logStream{sink: logsWriter})
	}
	if cfg.Influx.URL != "" {
		tokenA, tokenB := eng.Tokens()
		influxSink, err := influx.NewSink(influx.Config{
			URL:       cfg.Influx.URL,
			Token:     cfg.Influx.Token,
			Org:       cfg.Influx.Org,
			Bucket:    cfg.Influx.Bucket,
			Pool:      eng.Pool().Address().Hex(),
			Decimals0: tokenA.Decimals(),
			Decimals1: tokenB.Decimals(),
		})
		if err != nil {
			return err
		}
		defer influxSink.Close()
		sinks = append(sinks, influxSink)
	}

	input, closeInput, err := openInput(cfg.In)
	if err != nil {
		return err
	}
	defer closeInput()

	logger.Info("apply start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("events", cfg.Events),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.Bool("influx", cfg.Influx.URL != ""),
		zap.Uint64("sequence", eng.Sequence()),
	)

	a := &applier{engine: eng, sinks: sinks, store: store, logger: logger}
	scanErr := storage.ScanJSONL(input, func(lineNo int, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var op model.Operation
		if err := json.Unmarshal(line, &op); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		return a.apply(ctx, op)
	})
	// Whatever was applied before a failure is still persisted.
	if err := a.flush(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	if scanErr != nil {
		return scanErr
	}

	r0, r1 := eng.Pool().Reserves()
	logger.Info("apply complete",
		zap.Int("applied", a.applied),
		zap.Int("failed", a.failed),
		zap.Uint64("sequence", eng.Sequence()),
		zap.String("reserve0", r0.String()),
		zap.String("reserve1", r1.String()),
		zap.String("total_supply", eng.Pool().TotalSupply().String()),
	)
	return nil
}

// applier batches results so sinks and the state store are written every
// applyBatchSize operations instead of once per line.
type applier struct {
	engine  *engine.Engine
	sinks   storage.ResultSink
	store   storage.StateStore
	logger  *zap.Logger
	pending []model.OperationResult
	applied int
	failed  int
}

func (a *applier) apply(ctx context.Context, op model.Operation) error {
	result := a.engine.Apply(op)
	if result.Status == model.StatusOK {
		a.applied++
	} else {
		a.failed++
	}
	a.pending = append(a.pending, result)
	if len(a.pending) >= applyBatchSize {
		return a.flush(ctx)
	}
	return nil
}

// flush saves the state before fanning results out. A failed save leaves
// every sink untouched, so rerunning the same input cannot append the batch
// twice.
func (a *applier) flush(ctx context.Context) error {
	if len(a.pending) == 0 {
		return nil
	}
	if err := a.store.SaveSnapshot(ctx, a.engine.Snapshot(), a.pending); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if err := a.sinks.PutResults(ctx, a.pending); err != nil {
		first, last := a.pending[0].Sequence, a.pending[len(a.pending)-1].Sequence
		return fmt.Errorf("write results %d-%d: %w", first, last, err)
	}
	a.logger.Debug("batch persisted", zap.Int("results", len(a.pending)), zap.Uint64("sequence", a.engine.Sequence()))
	a.pending = a.pending[:0]
	return nil
}

// logStream renders engine events as the log records the deployed contracts
// would emit, numbering blocks by operation sequence.
type logStream struct {
	sink storage.LogSink
}

func (s logStream) PutResults(_ context.Context, results []model.OperationResult) error {
	records := make([]model.LogRecord, 0, len(results))
	for _, result := range results {
		for _, event := range result.Events {
			record, err := dex.EncodeLog(event)
			if err != nil {
				return fmt.Errorf("encode %s of %s: %w", event.EventName, result.ID, err)
			}
			record.BlockNumber = result.Sequence
			records = append(records, record)
		}
	}
	return s.sink.PutLogBatch(records)
}

func loadEngine(ctx context.Context, store storage.StateStore, genesis config.GenesisConfig, logger *zap.Logger) (*engine.Engine, error) {
	snap, ok, err := store.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if ok {
		logger.Info("resume from snapshot", zap.String("pool", snap.Pool.Address), zap.Uint64("sequence", snap.Sequence))
		return engine.FromSnapshot(snap, nil, logger)
	}

	engCfg, err := genesisConfig(genesis)
	if err != nil {
		return nil, err
	}
	logger.Info("genesis deployment",
		zap.String("pool", engCfg.Pool.Hex()),
		zap.String("token_a", engCfg.TokenA.Address.Hex()),
		zap.String("token_b", engCfg.TokenB.Address.Hex()),
		zap.String("owner", engCfg.TokenA.Owner.Hex()),
	)
	return engine.New(engCfg, logger)
}

func genesisConfig(g config.GenesisConfig) (engine.Config, error) {
	addrs := make(map[string]common.Address, 4)
	for name, input := range map[string]string{"pool": g.Pool, "token-a": g.TokenA, "token-b": g.TokenB, "owner": g.Owner} {
		if !common.IsHexAddress(input) {
			return engine.Config{}, fmt.Errorf("genesis %s: invalid address %q", name, input)
		}
		addrs[name] = common.HexToAddress(input)
	}

	recipient := addrs["owner"]
	if g.Recipient != "" {
		if !common.IsHexAddress(g.Recipient) {
			return engine.Config{}, fmt.Errorf("genesis recipient: invalid address %q", g.Recipient)
		}
		recipient = common.HexToAddress(g.Recipient)
	}

	supply := token.DefaultInitialSupply
	if g.InitialSupply != "" {
		parsed, err := model.ParseAmount(g.InitialSupply)
		if err != nil {
			return engine.Config{}, fmt.Errorf("genesis initial supply: %w", err)
		}
		supply = parsed
	}

	newToken := func(address common.Address, name, symbol string) token.Config {
		return token.Config{
			Address:       address,
			Name:          name,
			Symbol:        symbol,
			Decimals:      g.Decimals,
			Owner:         addrs["owner"],
			Recipient:     recipient,
			InitialSupply: supply,
		}
	}
	return engine.Config{
		Pool:   addrs["pool"],
		TokenA: newToken(addrs["token-a"], g.TokenAName, g.TokenASymbol),
		TokenB: newToken(addrs["token-b"], g.TokenBName, g.TokenBSymbol),
	}, nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return file, func() { file.Close() }, nil
}
