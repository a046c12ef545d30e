package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"simpleSwap/internal/model"
)

type fakeSource struct {
	latest    uint64
	logs      []types.Log
	failures  int
	calls     int
	addresses []common.Address
}

func (f *fakeSource) ChainID(context.Context) (uint64, error) { return 31337, nil }

func (f *fakeSource) LatestBlockNumber(context.Context) (uint64, error) { return f.latest, nil }

func (f *fakeSource) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	return 1700000000 + number, nil
}

func (f *fakeSource) FilterLogs(_ context.Context, from, to uint64, addresses []common.Address, _ []common.Hash) ([]types.Log, error) {
	f.calls++
	f.addresses = addresses
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("rpc unavailable")
	}
	out := make([]types.Log, 0)
	for _, log := range f.logs {
		if log.BlockNumber >= from && log.BlockNumber <= to {
			out = append(out, log)
		}
	}
	return out, nil
}

type memorySink struct {
	records []model.LogRecord
}

func (m *memorySink) PutLogBatch(logs []model.LogRecord) error {
	m.records = append(m.records, logs...)
	return nil
}

var (
	runnerPool  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	runnerToken = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
)

func testLog(block uint64, index uint) types.Log {
	return types.Log{
		Address:     runnerPool,
		Topics:      []common.Hash{common.HexToHash("0x01")},
		BlockNumber: block,
		TxHash:      common.BigToHash(common.Big1),
		Index:       index,
	}
}

func TestRunnerBatchesAndCheckpoints(t *testing.T) {
	source := &fakeSource{
		latest: 12,
		logs: []types.Log{
			testLog(3, 0),
			testLog(3, 0),
			testLog(7, 1),
			{Address: runnerPool, BlockNumber: 8, Index: 2, Removed: true},
		},
	}
	sink := &memorySink{}
	checkpoint := filepath.Join(t.TempDir(), "checkpoint.json")

	runner := NewRunner(RunConfig{
		FromBlock:         1,
		Confirmations:     2,
		Pool:              runnerPool,
		Tokens:            []common.Address{runnerToken, runnerPool},
		BatchSize:         5,
		CheckpointPath:    checkpoint,
		CheckpointEnabled: true,
	}, source, sink, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(sink.records))
	}
	if sink.records[0].Timestamp != 1700000003 || sink.records[0].ChainID != 31337 {
		t.Fatalf("record mismatch: %+v", sink.records[0])
	}
	if source.calls != 2 {
		t.Fatalf("expected 2 batches for blocks 1..10, got %d", source.calls)
	}
	if len(source.addresses) != 2 || source.addresses[0] != runnerPool || source.addresses[1] != runnerToken {
		t.Fatalf("address filter mismatch: %v", source.addresses)
	}

	cp, ok, err := NewCheckpointStore(checkpoint, runnerPool.Hex(), true).Load()
	if err != nil || !ok {
		t.Fatalf("load checkpoint: %v %v", ok, err)
	}
	if cp.LastProcessedBlock != 10 {
		t.Fatalf("checkpoint mismatch: %d", cp.LastProcessedBlock)
	}

	source.latest = 14
	source.calls = 0
	if err := NewRunner(RunConfig{
		FromBlock:         1,
		Confirmations:     2,
		Pool:              runnerPool,
		BatchSize:         5,
		CheckpointPath:    checkpoint,
		CheckpointEnabled: true,
	}, source, sink, nil).Run(context.Background()); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected a single batch after resume, got %d", source.calls)
	}

	other := common.HexToAddress("0x2222222222222222222222222222222222222222")
	if _, _, err := NewCheckpointStore(checkpoint, other.Hex(), true).Load(); err == nil {
		t.Fatalf("expected pool mismatch error")
	}
}

func TestRunnerRetries(t *testing.T) {
	source := &fakeSource{latest: 3, failures: 2, logs: []types.Log{testLog(2, 0)}}
	sink := &memorySink{}

	runner := NewRunner(RunConfig{
		FromBlock:  1,
		Pool:       runnerPool,
		BatchSize:  10,
		MaxRetries: 2,
	}, source, sink, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if source.calls != 3 || len(sink.records) != 1 {
		t.Fatalf("unexpected calls=%d records=%d", source.calls, len(sink.records))
	}

	source = &fakeSource{latest: 3, failures: 5}
	runner = NewRunner(RunConfig{FromBlock: 1, Pool: runnerPool, BatchSize: 10, MaxRetries: 1}, source, sink, nil)
	if err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected error after retries exhausted")
	}
}

func TestRunnerRequiresPool(t *testing.T) {
	runner := NewRunner(RunConfig{BatchSize: 1}, &fakeSource{}, &memorySink{}, nil)
	if err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected missing pool error")
	}
}

func TestParseTopic0Defaults(t *testing.T) {
	topics, err := ParseTopic0(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(topics) != 5 {
		t.Fatalf("expected default pool topics, got %d", len(topics))
	}
	if _, err := ParseTopic0([]string{"0x1234"}); err == nil {
		t.Fatalf("expected length error")
	}
	addrs, err := ParseAddresses([]string{runnerPool.Hex(), " ", runnerPool.Hex()})
	if err != nil || len(addrs) != 1 {
		t.Fatalf("address parse mismatch: %v %v", addrs, err)
	}
}
