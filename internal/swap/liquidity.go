package swap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"simpleSwap/internal/ledger"
	"simpleSwap/internal/model"
)

type AddLiquidityParams struct {
	TokenA         common.Address
	TokenB         common.Address
	AmountADesired *big.Int
	AmountBDesired *big.Int
	AmountAMin     *big.Int
	AmountBMin     *big.Int
	To             common.Address
	Deadline       uint64
}

// AddLiquidityResult is expressed in the caller's token order.
type AddLiquidityResult struct {
	AmountA   *big.Int
	AmountB   *big.Int
	Liquidity *big.Int
}

type RemoveLiquidityParams struct {
	TokenA     common.Address
	TokenB     common.Address
	Liquidity  *big.Int
	AmountAMin *big.Int
	AmountBMin *big.Int
	To         common.Address
	Deadline   uint64
}

type RemoveLiquidityResult struct {
	AmountA *big.Int
	AmountB *big.Int
}

// AddLiquidity deposits both tokens at the current ratio, or at the desired
// amounts when the pool is empty, and mints shares to params.To.
func (p *Pool) AddLiquidity(caller common.Address, params AddLiquidityParams) (AddLiquidityResult, error) {
	if err := p.checkDeadline(params.Deadline); err != nil {
		return AddLiquidityResult{}, err
	}
	pr, err := p.orient(params.TokenA, params.TokenB)
	if err != nil {
		return AddLiquidityResult{}, err
	}
	if err := checkAmounts(params.AmountADesired, params.AmountBDesired, params.AmountAMin, params.AmountBMin); err != nil {
		return AddLiquidityResult{}, err
	}

	amountA, amountB, err := optimalAmounts(pr, p.shares.TotalSupply(), params.AmountADesired, params.AmountBDesired)
	if err != nil {
		return AddLiquidityResult{}, err
	}
	if amountA.Cmp(params.AmountAMin) < 0 {
		return AddLiquidityResult{}, fmt.Errorf("%w: got %s, min %s", ErrInsufficientAAmount, amountA, params.AmountAMin)
	}
	if amountB.Cmp(params.AmountBMin) < 0 {
		return AddLiquidityResult{}, fmt.Errorf("%w: got %s, min %s", ErrInsufficientBAmount, amountB, params.AmountBMin)
	}

	liquidity := mintedShares(pr, p.shares.TotalSupply(), amountA, amountB)
	if liquidity.Sign() == 0 {
		return AddLiquidityResult{}, ErrInsufficientLiquidityMinted
	}

	err = p.journal.Atomic(func() error {
		if err := pr.tokenA.TransferFrom(p.address, caller, p.address, amountA); err != nil {
			return fmt.Errorf("transfer %s in: %w", pr.tokenA.Address().Hex(), err)
		}
		if err := pr.tokenB.TransferFrom(p.address, caller, p.address, amountB); err != nil {
			return fmt.Errorf("transfer %s in: %w", pr.tokenB.Address().Hex(), err)
		}
		if err := p.shares.Mint(params.To, liquidity); err != nil {
			return fmt.Errorf("mint shares: %w", err)
		}
		p.setReserves(pr,
			new(big.Int).Add(pr.reserveA, amountA),
			new(big.Int).Add(pr.reserveB, amountB),
		)
		p.emit(model.EventLiquidityAdded, model.LiquidityAddedEventData{
			Provider:  caller.Hex(),
			AmountA:   amountA.String(),
			AmountB:   amountB.String(),
			Liquidity: liquidity.String(),
		})
		return nil
	})
	if err != nil {
		return AddLiquidityResult{}, err
	}
	return AddLiquidityResult{AmountA: amountA, AmountB: amountB, Liquidity: liquidity}, nil
}

// RemoveLiquidity burns caller's shares and sends the pro-rata reserves to params.To.
func (p *Pool) RemoveLiquidity(caller common.Address, params RemoveLiquidityParams) (RemoveLiquidityResult, error) {
	if err := p.checkDeadline(params.Deadline); err != nil {
		return RemoveLiquidityResult{}, err
	}
	pr, err := p.orient(params.TokenA, params.TokenB)
	if err != nil {
		return RemoveLiquidityResult{}, err
	}
	if err := checkAmounts(params.Liquidity, params.AmountAMin, params.AmountBMin); err != nil {
		return RemoveLiquidityResult{}, err
	}
	if balance := p.shares.BalanceOf(caller); balance.Cmp(params.Liquidity) < 0 {
		return RemoveLiquidityResult{}, fmt.Errorf("%w: %s holds %s shares, needs %s",
			ledger.ErrInsufficientBalance, caller.Hex(), balance, params.Liquidity)
	}

	supply := p.shares.TotalSupply()
	if supply.Sign() == 0 {
		return RemoveLiquidityResult{}, ErrDivisionByZero
	}
	amountA := mulDiv(params.Liquidity, pr.reserveA, supply)
	amountB := mulDiv(params.Liquidity, pr.reserveB, supply)
	if amountA.Cmp(params.AmountAMin) < 0 {
		return RemoveLiquidityResult{}, fmt.Errorf("%w: got %s, min %s", ErrInsufficientAAmount, amountA, params.AmountAMin)
	}
	if amountB.Cmp(params.AmountBMin) < 0 {
		return RemoveLiquidityResult{}, fmt.Errorf("%w: got %s, min %s", ErrInsufficientBAmount, amountB, params.AmountBMin)
	}

	err = p.journal.Atomic(func() error {
		if err := p.shares.Burn(caller, params.Liquidity); err != nil {
			return fmt.Errorf("burn shares: %w", err)
		}
		if err := pr.tokenA.Transfer(p.address, params.To, amountA); err != nil {
			return fmt.Errorf("transfer %s out: %w", pr.tokenA.Address().Hex(), err)
		}
		if err := pr.tokenB.Transfer(p.address, params.To, amountB); err != nil {
			return fmt.Errorf("transfer %s out: %w", pr.tokenB.Address().Hex(), err)
		}
		p.setReserves(pr,
			new(big.Int).Sub(pr.reserveA, amountA),
			new(big.Int).Sub(pr.reserveB, amountB),
		)
		p.emit(model.EventLiquidityRemoved, model.LiquidityRemovedEventData{
			Provider:  caller.Hex(),
			AmountA:   amountA.String(),
			AmountB:   amountB.String(),
			Liquidity: params.Liquidity.String(),
		})
		return nil
	})
	if err != nil {
		return RemoveLiquidityResult{}, err
	}
	return RemoveLiquidityResult{AmountA: amountA, AmountB: amountB}, nil
}

// optimalAmounts picks the deposit that keeps the reserve ratio, never
// exceeding either desired amount.
func optimalAmounts(pr pair, supply, desiredA, desiredB *big.Int) (*big.Int, *big.Int, error) {
	if supply.Sign() == 0 {
		return new(big.Int).Set(desiredA), new(big.Int).Set(desiredB), nil
	}
	if pr.reserveA.Sign() == 0 || pr.reserveB.Sign() == 0 {
		return nil, nil, ErrDivisionByZero
	}
	optimalB := mulDiv(desiredA, pr.reserveB, pr.reserveA)
	if optimalB.Cmp(desiredB) <= 0 {
		return new(big.Int).Set(desiredA), optimalB, nil
	}
	optimalA := mulDiv(desiredB, pr.reserveA, pr.reserveB)
	return optimalA, new(big.Int).Set(desiredB), nil
}

// mintedShares is sqrt(a*b) for the first deposit and the smaller pro-rata
// share afterwards, both against pre-deposit reserves.
func mintedShares(pr pair, supply, amountA, amountB *big.Int) *big.Int {
	if supply.Sign() == 0 {
		return Sqrt(new(big.Int).Mul(amountA, amountB))
	}
	return minBig(
		mulDiv(amountA, supply, pr.reserveA),
		mulDiv(amountB, supply, pr.reserveB),
	)
}
