package engine

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"simpleSwap/internal/ledger"
	"simpleSwap/internal/model"
	"simpleSwap/internal/token"
)

// ConfigFromSnapshot rebuilds the deployment that produced snap, so that
// New followed by Restore reproduces it. No initial supply is minted; the
// balances come from the snapshot.
func ConfigFromSnapshot(snap model.Snapshot) (Config, error) {
	if len(snap.Tokens) != 2 {
		return Config{}, fmt.Errorf("%w: expected 2 tokens, got %d", ledger.ErrInvalidState, len(snap.Tokens))
	}
	if !common.IsHexAddress(snap.Pool.Address) {
		return Config{}, fmt.Errorf("%w: pool address %q", ledger.ErrInvalidState, snap.Pool.Address)
	}
	pool := common.HexToAddress(snap.Pool.Address)

	tokens := make([]token.Config, 0, 2)
	for _, state := range snap.Tokens {
		if !common.IsHexAddress(state.Ledger.Address) {
			return Config{}, fmt.Errorf("%w: token address %q", ledger.ErrInvalidState, state.Ledger.Address)
		}
		// A renounced token has no owner; any placeholder works since
		// Restore sets the real one.
		owner := common.HexToAddress(state.Owner)
		if owner == (common.Address{}) {
			owner = pool
		}
		tokens = append(tokens, token.Config{
			Address:  common.HexToAddress(state.Ledger.Address),
			Name:     state.Ledger.Name,
			Symbol:   state.Ledger.Symbol,
			Decimals: state.Ledger.Decimals,
			Owner:    owner,
		})
	}

	// The pool orders its pair as token0, token1; keep that order.
	if sameAddress(snap.Pool.Token0, tokens[1].Address) {
		tokens[0], tokens[1] = tokens[1], tokens[0]
	}
	return Config{Pool: pool, TokenA: tokens[0], TokenB: tokens[1]}, nil
}

// FromSnapshot deploys the engine described by snap and restores it.
func FromSnapshot(snap model.Snapshot, clock func() uint64, logger *zap.Logger) (*Engine, error) {
	cfg, err := ConfigFromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	cfg.Clock = clock
	e, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := e.Restore(snap); err != nil {
		return nil, err
	}
	return e, nil
}

func sameAddress(input string, addr common.Address) bool {
	return common.IsHexAddress(input) && common.HexToAddress(input) == addr
}
