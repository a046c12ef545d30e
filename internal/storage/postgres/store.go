package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"simpleSwap/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pool_snapshots (
	pool_address TEXT PRIMARY KEY,
	sequence     BIGINT NOT NULL,
	snapshot     JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS pool_operations (
	pool_address TEXT NOT NULL,
	sequence     BIGINT NOT NULL,
	op_id        TEXT NOT NULL,
	op           TEXT NOT NULL,
	caller       TEXT NOT NULL,
	status       TEXT NOT NULL,
	error        TEXT,
	reserve0     NUMERIC(78, 0) NOT NULL,
	reserve1     NUMERIC(78, 0) NOT NULL,
	total_supply NUMERIC(78, 0) NOT NULL,
	ts           BIGINT NOT NULL,
	PRIMARY KEY (pool_address, sequence)
);
CREATE TABLE IF NOT EXISTS pool_events (
	pool_address TEXT NOT NULL,
	sequence     BIGINT NOT NULL,
	log_index    BIGINT NOT NULL,
	op_id        TEXT NOT NULL,
	contract     TEXT NOT NULL,
	event_name   TEXT NOT NULL,
	payload      JSONB NOT NULL,
	ts           BIGINT NOT NULL,
	PRIMARY KEY (pool_address, sequence, log_index)
);
`

// Store persists one pool's snapshot, operation results and events.
type Store struct {
	pool    *pgxpool.Pool
	address string
}

// NewStore connects to dsn. All rows are keyed by the pool address.
func NewStore(ctx context.Context, dsn, poolAddress string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if poolAddress == "" {
		return nil, fmt.Errorf("pool address is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, address: poolAddress}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// LoadSnapshot returns the last saved snapshot for the pool.
func (s *Store) LoadSnapshot(ctx context.Context) (model.Snapshot, bool, error) {
	var raw []byte
	row := s.pool.QueryRow(ctx, `SELECT snapshot FROM pool_snapshots WHERE pool_address=$1`, s.address)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, err
	}

	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, true, nil
}

// SaveSnapshot writes results, their events and the snapshot in a single
// transaction, so a reader never sees events without the matching state.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot, results []model.OperationResult) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.putResults(ctx, tx, results); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO pool_snapshots (pool_address, sequence, snapshot, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (pool_address) DO UPDATE
			SET sequence = EXCLUDED.sequence, snapshot = EXCLUDED.snapshot, updated_at = now()
		`, s.address, int64(snap.Sequence), raw)
		return err
	})
}

// PutResults writes results and their events without touching the snapshot.
func (s *Store) PutResults(ctx context.Context, results []model.OperationResult) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return s.putResults(ctx, tx, results)
	})
}

func (s *Store) putResults(ctx context.Context, tx pgx.Tx, results []model.OperationResult) error {
	if len(results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	queued := 0
	for _, result := range results {
		batch.Queue(`
			INSERT INTO pool_operations (
				pool_address, sequence, op_id, op, caller, status, error, reserve0, reserve1, total_supply, ts
			) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8::numeric, $9::numeric, $10::numeric, $11)
			ON CONFLICT (pool_address, sequence) DO NOTHING
		`,
			s.address,
			int64(result.Sequence),
			result.ID,
			result.Op,
			result.Caller,
			result.Status,
			result.Error,
			result.Reserve0,
			result.Reserve1,
			result.TotalSupply,
			int64(result.Timestamp),
		)
		queued++

		for _, event := range result.Events {
			payload, err := json.Marshal(event.Decoded)
			if err != nil {
				return fmt.Errorf("marshal %s payload: %w", event.EventName, err)
			}
			batch.Queue(`
				INSERT INTO pool_events (
					pool_address, sequence, log_index, op_id, contract, event_name, payload, ts
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (pool_address, sequence, log_index) DO NOTHING
			`,
				s.address,
				int64(result.Sequence),
				int64(event.LogIndex),
				result.ID,
				event.Address,
				event.EventName,
				payload,
				int64(event.Timestamp),
			)
			queued++
		}
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < queued; i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	return br.Close()
}
