package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"simpleSwap/internal/ledger"
	"simpleSwap/internal/model"
	"simpleSwap/internal/swap"
	"simpleSwap/internal/token"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrUnknownToken     = errors.New("unknown token")
	ErrInvalidRequest   = errors.New("invalid request")
)

// Config describes the deployment: one pool and its two tokens.
type Config struct {
	Pool   common.Address
	TokenA token.Config
	TokenB token.Config
	// Clock supplies the transaction time for operations without a timestamp.
	Clock func() uint64
}

// Engine owns the tokens and the pool and applies operations one at a time.
// Each operation either commits entirely or leaves no trace.
type Engine struct {
	mu       sync.Mutex
	journal  *ledger.Journal
	events   *ledger.EventLog
	tokenA   *token.Token
	tokenB   *token.Token
	pool     *swap.Pool
	clock    func() uint64
	now      uint64
	sequence uint64
	logger   *zap.Logger
}

// New deploys both tokens and the pool.
func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = func() uint64 { return uint64(time.Now().Unix()) }
	}

	e := &Engine{
		journal: ledger.NewJournal(),
		clock:   cfg.Clock,
		logger:  logger,
	}
	e.events = ledger.NewEventLog(e.journal)

	var err error
	e.tokenA, err = token.New(cfg.TokenA, e.journal, e.events)
	if err != nil {
		return nil, err
	}
	e.tokenB, err = token.New(cfg.TokenB, e.journal, e.events)
	if err != nil {
		return nil, err
	}
	e.pool, err = swap.New(swap.Config{
		Address: cfg.Pool,
		Token0:  e.tokenA,
		Token1:  e.tokenB,
		Journal: e.journal,
		Events:  e.events,
		Clock:   swap.ClockFunc(func() uint64 { return e.now }),
	})
	if err != nil {
		return nil, err
	}

	// Genesis mints are part of deployment, not of any operation.
	e.journal.Commit()
	e.events.Drain()
	return e, nil
}

// Pool returns the pool. Callers must not mutate it outside Apply.
func (e *Engine) Pool() *swap.Pool { return e.pool }

// Tokens returns the two collaborator tokens in pair order.
func (e *Engine) Tokens() (*token.Token, *token.Token) { return e.tokenA, e.tokenB }

// Sequence returns the number of operations applied so far.
func (e *Engine) Sequence() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sequence
}

// Apply executes op atomically and reports its outcome. A failed operation
// leaves every balance, allowance, reserve and share untouched.
func (e *Engine) Apply(op model.Operation) model.OperationResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if op.ID == "" {
		op.ID = uuid.Must(uuid.NewV4()).String()
	}
	e.now = op.Timestamp
	if e.now == 0 {
		e.now = e.clock()
	}
	e.sequence++

	result := model.OperationResult{
		ID:        op.ID,
		Op:        op.Op,
		Caller:    op.Caller,
		Sequence:  e.sequence,
		Timestamp: e.now,
	}

	snapshot := e.journal.Snapshot()
	outputs, err := e.dispatch(op)
	if err == nil {
		err = e.reconcile()
	}
	if err != nil {
		e.journal.RevertTo(snapshot)
		e.journal.Commit()
		result.Status = model.StatusFailed
		result.Error = err.Error()
		e.logger.Info("operation reverted", zap.String("id", op.ID), zap.String("op", op.Op), zap.Error(err))
	} else {
		e.journal.Commit()
		result.Status = model.StatusOK
		result.Outputs = outputs
		result.Events = e.stamp(e.events.Drain(), op.ID)
		e.logger.Debug("operation applied", zap.String("id", op.ID), zap.String("op", op.Op), zap.Int("events", len(result.Events)))
	}

	r0, r1 := e.pool.Reserves()
	result.Reserve0 = r0.String()
	result.Reserve1 = r1.String()
	result.TotalSupply = e.pool.TotalSupply().String()
	return result
}

func (e *Engine) reconcile() error {
	rec, err := e.pool.Reconcile()
	if err != nil {
		return err
	}
	if rec.HasSurplus() {
		e.logger.Debug("pool holds unaccounted tokens",
			zap.String("surplus0", rec.Surplus0.String()),
			zap.String("surplus1", rec.Surplus1.String()),
		)
	}
	return nil
}

func (e *Engine) stamp(events []model.TypedEvent, id string) []model.TypedEvent {
	for i := range events {
		events[i].TxID = id
		events[i].Timestamp = e.now
	}
	return events
}

// Snapshot returns the full engine state.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.Snapshot{
		Tokens:    []model.TokenState{e.tokenA.Export(), e.tokenB.Export()},
		Pool:      e.pool.Export(),
		Sequence:  e.sequence,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Restore replaces the engine state with snap.
func (e *Engine) Restore(snap model.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(snap.Tokens) != 2 {
		return fmt.Errorf("%w: expected 2 tokens, got %d", ledger.ErrInvalidState, len(snap.Tokens))
	}
	for _, state := range snap.Tokens {
		tok, err := e.token(state.Ledger.Address)
		if err != nil {
			return err
		}
		if err := tok.Restore(state); err != nil {
			return fmt.Errorf("restore %s: %w", state.Ledger.Symbol, err)
		}
	}
	if err := e.pool.Restore(snap.Pool); err != nil {
		return fmt.Errorf("restore pool: %w", err)
	}
	e.sequence = snap.Sequence
	if _, err := e.pool.Reconcile(); err != nil {
		return err
	}
	return nil
}

func (e *Engine) token(input string) (*token.Token, error) {
	if !common.IsHexAddress(input) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownToken, input)
	}
	addr := common.HexToAddress(input)
	switch addr {
	case e.tokenA.Address():
		return e.tokenA, nil
	case e.tokenB.Address():
		return e.tokenB, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, addr.Hex())
	}
}
