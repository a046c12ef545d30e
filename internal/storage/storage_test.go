package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"simpleSwap/internal/model"
)

func TestJSONLWriterAndScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.jsonl")
	writer, err := NewJSONLWriter(path, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	results := []model.OperationResult{
		{ID: "a", Op: model.OpAddLiquidity, Sequence: 1, Status: model.StatusOK, Events: []model.TypedEvent{
			{EventName: model.EventTransfer, LogIndex: 0},
			{EventName: model.EventLiquidityAdded, LogIndex: 1},
		}},
		{ID: "b", Op: model.OpSwapExactTokensForTokens, Sequence: 2, Status: model.StatusFailed, Error: "deadline passed"},
	}
	if err := writer.PutResults(context.Background(), results); err != nil {
		t.Fatalf("put results: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer file.Close()

	var got []model.OperationResult
	err = ScanJSONL(file, func(_ int, line []byte) error {
		var result model.OperationResult
		if err := json.Unmarshal(line, &result); err != nil {
			return err
		}
		got = append(got, result)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 || got[1].Error != "deadline passed" || len(got[0].Events) != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEventStreamAndMultiSink(t *testing.T) {
	dir := t.TempDir()
	eventsWriter, err := NewJSONLWriter(filepath.Join(dir, "events.jsonl"), true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	logsWriter, err := NewJSONLWriter(filepath.Join(dir, "logs.jsonl"), true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	sink := MultiSink{NewEventStream(eventsWriter), nil}
	results := []model.OperationResult{{ID: "x", Events: []model.TypedEvent{
		{EventName: model.EventApproval},
		{EventName: model.EventTransfer, LogIndex: 1},
	}}}
	if err := sink.PutResults(context.Background(), results); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := logsWriter.PutLogBatch([]model.LogRecord{{BlockNumber: 7, Topics: []string{"0x01"}}}); err != nil {
		t.Fatalf("put logs: %v", err)
	}
	eventsWriter.Close()
	logsWriter.Close()

	data, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := 0
	if err := ScanJSONL(bytes.NewReader(data), func(int, []byte) error { lines++; return nil }); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if lines != 2 {
		t.Fatalf("expected 2 event lines, got %d", lines)
	}

	failing := MultiSink{failingSink{}, NewEventStream(eventsWriter)}
	if err := failing.PutResults(context.Background(), results); err == nil {
		t.Fatalf("expected first sink error")
	}
}

func TestFileStateStore(t *testing.T) {
	store := NewFileStateStore(filepath.Join(t.TempDir(), "state", "engine.json"))
	ctx := context.Background()

	if _, ok, err := store.LoadSnapshot(ctx); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	snap := model.Snapshot{
		Sequence: 3,
		Pool: model.PoolState{
			Address:  "0x1111111111111111111111111111111111111111",
			Reserve0: "100",
			Reserve1: "100",
		},
	}
	if err := store.SaveSnapshot(ctx, snap, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.LoadSnapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Sequence != 3 || got.Pool.Reserve0 != "100" {
		t.Fatalf("snapshot mismatch: %+v", got)
	}
}

type failingSink struct{}

func (failingSink) PutResults(context.Context, []model.OperationResult) error {
	return errors.New("sink down")
}
