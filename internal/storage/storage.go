package storage

import (
	"context"

	"simpleSwap/internal/model"
)

// LogSink stores raw chain log records.
type LogSink interface {
	PutLogBatch(logs []model.LogRecord) error
}

// ResultSink stores applied operation results and the events they emitted.
type ResultSink interface {
	PutResults(ctx context.Context, results []model.OperationResult) error
}

// StateStore persists the engine snapshot between runs. SaveSnapshot also
// receives the results that produced the snapshot, so stores that can
// write both atomically do.
type StateStore interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, snap model.Snapshot, results []model.OperationResult) error
}

// MultiSink fans results out to every sink in order, stopping at the first
// error.
type MultiSink []ResultSink

func (m MultiSink) PutResults(ctx context.Context, results []model.OperationResult) error {
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PutResults(ctx, results); err != nil {
			return err
		}
	}
	return nil
}
