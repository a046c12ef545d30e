package swap

import (
	"fmt"
	"math/big"
)

// Reconciliation compares tracked reserves with the pool's token balances.
type Reconciliation struct {
	Reserve0 *big.Int
	Reserve1 *big.Int
	Balance0 *big.Int
	Balance1 *big.Int
	Surplus0 *big.Int
	Surplus1 *big.Int
}

// HasSurplus reports whether tokens were sent to the pool outside of its operations.
func (r Reconciliation) HasSurplus() bool {
	return r.Surplus0.Sign() > 0 || r.Surplus1.Sign() > 0
}

// Reconcile checks that the pool holds at least its tracked reserves. A
// deficit means the books are out of sync and is reported as ErrReserveDeficit.
func (p *Pool) Reconcile() (Reconciliation, error) {
	rec := Reconciliation{
		Reserve0: new(big.Int).Set(p.reserve0),
		Reserve1: new(big.Int).Set(p.reserve1),
		Balance0: p.token0.BalanceOf(p.address),
		Balance1: p.token1.BalanceOf(p.address),
	}
	rec.Surplus0 = new(big.Int).Sub(rec.Balance0, rec.Reserve0)
	rec.Surplus1 = new(big.Int).Sub(rec.Balance1, rec.Reserve1)
	if rec.Surplus0.Sign() < 0 {
		return rec, fmt.Errorf("%w: token0 reserve %s, balance %s", ErrReserveDeficit, rec.Reserve0, rec.Balance0)
	}
	if rec.Surplus1.Sign() < 0 {
		return rec, fmt.Errorf("%w: token1 reserve %s, balance %s", ErrReserveDeficit, rec.Reserve1, rec.Balance1)
	}
	// Shares exist exactly when both reserves are funded.
	supply := p.shares.TotalSupply()
	if supply.Sign() > 0 && (rec.Reserve0.Sign() == 0 || rec.Reserve1.Sign() == 0) {
		return rec, fmt.Errorf("%w: supply %s with reserves %s/%s", ErrReserveDeficit, supply, rec.Reserve0, rec.Reserve1)
	}
	if supply.Sign() == 0 && (rec.Reserve0.Sign() != 0 || rec.Reserve1.Sign() != 0) {
		return rec, fmt.Errorf("%w: reserves %s/%s without shares", ErrReserveDeficit, rec.Reserve0, rec.Reserve1)
	}
	return rec, nil
}
