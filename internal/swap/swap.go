package swap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type SwapParams struct {
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Path         []common.Address
	To           common.Address
	Deadline     uint64
}

// SwapExactTokensForTokens sells exactly params.AmountIn of path[0] for
// path[1] and returns [amountIn, amountOut].
func (p *Pool) SwapExactTokensForTokens(caller common.Address, params SwapParams) ([]*big.Int, error) {
	if err := p.checkDeadline(params.Deadline); err != nil {
		return nil, err
	}
	if len(params.Path) != 2 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidPath, len(params.Path))
	}
	pr, err := p.orient(params.Path[0], params.Path[1])
	if err != nil {
		return nil, err
	}
	if err := checkAmounts(params.AmountIn, params.AmountOutMin); err != nil {
		return nil, err
	}
	// Both sides must be funded, otherwise the input would sit in a pool
	// without shares and skew the first deposit's ratio.
	if pr.reserveA.Sign() == 0 || pr.reserveB.Sign() == 0 {
		return nil, fmt.Errorf("%w: reserves %s/%s", ErrInsufficientLiquidity, pr.reserveA, pr.reserveB)
	}

	var amountOut *big.Int
	err = p.journal.Atomic(func() error {
		if err := pr.tokenA.TransferFrom(p.address, caller, p.address, params.AmountIn); err != nil {
			return fmt.Errorf("transfer %s in: %w", pr.tokenA.Address().Hex(), err)
		}
		out, err := GetAmountOut(params.AmountIn, pr.reserveA, pr.reserveB)
		if err != nil {
			return err
		}
		if out.Sign() == 0 {
			return fmt.Errorf("%w: zero output for %s in", ErrInsufficientOutputAmount, params.AmountIn)
		}
		if out.Cmp(params.AmountOutMin) < 0 {
			return fmt.Errorf("%w: got %s, min %s", ErrInsufficientOutputAmount, out, params.AmountOutMin)
		}
		if err := pr.tokenB.Transfer(p.address, params.To, out); err != nil {
			return fmt.Errorf("transfer %s out: %w", pr.tokenB.Address().Hex(), err)
		}
		p.setReserves(pr,
			new(big.Int).Add(pr.reserveA, params.AmountIn),
			new(big.Int).Sub(pr.reserveB, out),
		)
		amountOut = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []*big.Int{new(big.Int).Set(params.AmountIn), amountOut}, nil
}

// GetPrice returns the spot price of tokenIn in units of tokenOut, scaled by 1e18.
func (p *Pool) GetPrice(tokenIn, tokenOut common.Address) (*big.Int, error) {
	pr, err := p.orient(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	return Price(pr.reserveA, pr.reserveB)
}

// Quote returns what a swap of amountIn from tokenIn to tokenOut would pay
// out against the current reserves.
func (p *Pool) Quote(tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	pr, err := p.orient(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	return GetAmountOut(amountIn, pr.reserveA, pr.reserveB)
}
