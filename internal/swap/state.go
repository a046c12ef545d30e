package swap

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"simpleSwap/internal/ledger"
	"simpleSwap/internal/model"
)

// Export returns the serializable pool state.
func (p *Pool) Export() model.PoolState {
	return model.PoolState{
		Address:  p.address.Hex(),
		Token0:   p.token0.Address().Hex(),
		Token1:   p.token1.Address().Hex(),
		Reserve0: p.reserve0.String(),
		Reserve1: p.reserve1.String(),
		Shares:   p.shares.Export(),
	}
}

// Restore loads state into the pool. The pair must match the pool's tokens.
func (p *Pool) Restore(state model.PoolState) error {
	if !sameAddress(state.Token0, p.token0.Address()) || !sameAddress(state.Token1, p.token1.Address()) {
		return fmt.Errorf("%w: state pair %s/%s", ErrInvalidPair, state.Token0, state.Token1)
	}
	reserve0, err := model.ParseAmount(state.Reserve0)
	if err != nil {
		return fmt.Errorf("%w: reserve0: %v", ledger.ErrInvalidState, err)
	}
	reserve1, err := model.ParseAmount(state.Reserve1)
	if err != nil {
		return fmt.Errorf("%w: reserve1: %v", ledger.ErrInvalidState, err)
	}
	if err := p.shares.Restore(state.Shares); err != nil {
		return err
	}
	p.reserve0, p.reserve1 = reserve0, reserve1
	return nil
}

func sameAddress(input string, addr common.Address) bool {
	return common.IsHexAddress(input) && common.HexToAddress(input) == addr
}
