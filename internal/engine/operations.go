package engine

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"simpleSwap/internal/model"
	"simpleSwap/internal/swap"
)

func (e *Engine) dispatch(op model.Operation) (map[string]string, error) {
	caller, err := parseAddress("caller", op.Caller)
	if err != nil {
		return nil, err
	}

	switch op.Op {
	case model.OpAddLiquidity:
		return e.addLiquidity(caller, op)
	case model.OpRemoveLiquidity:
		return e.removeLiquidity(caller, op)
	case model.OpSwapExactTokensForTokens:
		return e.swapExact(caller, op)
	case model.OpTransfer, model.OpTokenTransfer:
		return e.transfer(caller, op)
	case model.OpApprove, model.OpTokenApprove:
		return e.approve(caller, op)
	case model.OpTransferFrom:
		return e.transferFrom(caller, op)
	case model.OpTokenMint:
		return e.mint(caller, op)
	case model.OpTokenTransferOwnership:
		return e.transferOwnership(caller, op)
	case model.OpTokenRenounceOwnership:
		return e.renounceOwnership(caller, op)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op.Op)
	}
}

func (e *Engine) addLiquidity(caller common.Address, op model.Operation) (map[string]string, error) {
	var (
		p   swap.AddLiquidityParams
		err error
	)
	if p.TokenA, err = parseAddress("token_a", op.TokenA); err != nil {
		return nil, err
	}
	if p.TokenB, err = parseAddress("token_b", op.TokenB); err != nil {
		return nil, err
	}
	if p.To, err = parseAddress("to", op.To); err != nil {
		return nil, err
	}
	amounts, err := parseAmounts(map[string]string{
		"amount_a_desired": op.AmountADesired,
		"amount_b_desired": op.AmountBDesired,
		"amount_a_min":     op.AmountAMin,
		"amount_b_min":     op.AmountBMin,
	})
	if err != nil {
		return nil, err
	}
	p.AmountADesired = amounts["amount_a_desired"]
	p.AmountBDesired = amounts["amount_b_desired"]
	p.AmountAMin = amounts["amount_a_min"]
	p.AmountBMin = amounts["amount_b_min"]
	p.Deadline = op.Deadline

	res, err := e.pool.AddLiquidity(caller, p)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"amount_a":  res.AmountA.String(),
		"amount_b":  res.AmountB.String(),
		"liquidity": res.Liquidity.String(),
	}, nil
}

func (e *Engine) removeLiquidity(caller common.Address, op model.Operation) (map[string]string, error) {
	var (
		p   swap.RemoveLiquidityParams
		err error
	)
	if p.TokenA, err = parseAddress("token_a", op.TokenA); err != nil {
		return nil, err
	}
	if p.TokenB, err = parseAddress("token_b", op.TokenB); err != nil {
		return nil, err
	}
	if p.To, err = parseAddress("to", op.To); err != nil {
		return nil, err
	}
	amounts, err := parseAmounts(map[string]string{
		"liquidity":    op.Liquidity,
		"amount_a_min": op.AmountAMin,
		"amount_b_min": op.AmountBMin,
	})
	if err != nil {
		return nil, err
	}
	p.Liquidity = amounts["liquidity"]
	p.AmountAMin = amounts["amount_a_min"]
	p.AmountBMin = amounts["amount_b_min"]
	p.Deadline = op.Deadline

	res, err := e.pool.RemoveLiquidity(caller, p)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"amount_a": res.AmountA.String(),
		"amount_b": res.AmountB.String(),
	}, nil
}

func (e *Engine) swapExact(caller common.Address, op model.Operation) (map[string]string, error) {
	var (
		p   swap.SwapParams
		err error
	)
	for i, raw := range op.Path {
		addr, err := parseAddress(fmt.Sprintf("path[%d]", i), raw)
		if err != nil {
			return nil, err
		}
		p.Path = append(p.Path, addr)
	}
	if p.To, err = parseAddress("to", op.To); err != nil {
		return nil, err
	}
	amounts, err := parseAmounts(map[string]string{
		"amount_in":      op.AmountIn,
		"amount_out_min": op.AmountOutMin,
	})
	if err != nil {
		return nil, err
	}
	p.AmountIn = amounts["amount_in"]
	p.AmountOutMin = amounts["amount_out_min"]
	p.Deadline = op.Deadline

	out, err := e.pool.SwapExactTokensForTokens(caller, p)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"amount_in":  out[0].String(),
		"amount_out": out[1].String(),
	}, nil
}

// ledgerOps is the ERC20 surface shared by the pool shares and both tokens.
type ledgerOps interface {
	Transfer(from, to common.Address, amount *big.Int) error
	Approve(owner, spender common.Address, amount *big.Int) error
	TransferFrom(spender, from, to common.Address, amount *big.Int) error
}

func (e *Engine) target(op model.Operation) (ledgerOps, error) {
	switch op.Op {
	case model.OpTransfer, model.OpApprove, model.OpTransferFrom:
		if op.Token == "" {
			return e.pool, nil
		}
		if common.IsHexAddress(op.Token) && common.HexToAddress(op.Token) == e.pool.Address() {
			return e.pool, nil
		}
	}
	return e.token(op.Token)
}

func (e *Engine) transfer(caller common.Address, op model.Operation) (map[string]string, error) {
	target, err := e.target(op)
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", op.To)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", op.Amount)
	if err != nil {
		return nil, err
	}
	if err := target.Transfer(caller, to, amount); err != nil {
		return nil, err
	}
	return map[string]string{"amount": amount.String()}, nil
}

func (e *Engine) approve(caller common.Address, op model.Operation) (map[string]string, error) {
	target, err := e.target(op)
	if err != nil {
		return nil, err
	}
	spender, err := parseAddress("spender", op.Spender)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", op.Amount)
	if err != nil {
		return nil, err
	}
	if err := target.Approve(caller, spender, amount); err != nil {
		return nil, err
	}
	return map[string]string{"amount": amount.String()}, nil
}

func (e *Engine) transferFrom(caller common.Address, op model.Operation) (map[string]string, error) {
	target, err := e.target(op)
	if err != nil {
		return nil, err
	}
	from, err := parseAddress("from", op.From)
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", op.To)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", op.Amount)
	if err != nil {
		return nil, err
	}
	if err := target.TransferFrom(caller, from, to, amount); err != nil {
		return nil, err
	}
	return map[string]string{"amount": amount.String()}, nil
}

func (e *Engine) mint(caller common.Address, op model.Operation) (map[string]string, error) {
	tok, err := e.token(op.Token)
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", op.To)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", op.Amount)
	if err != nil {
		return nil, err
	}
	if err := tok.Mint(caller, to, amount); err != nil {
		return nil, err
	}
	return map[string]string{"amount": amount.String()}, nil
}

func (e *Engine) transferOwnership(caller common.Address, op model.Operation) (map[string]string, error) {
	tok, err := e.token(op.Token)
	if err != nil {
		return nil, err
	}
	newOwner, err := parseAddress("new_owner", op.NewOwner)
	if err != nil {
		return nil, err
	}
	if err := tok.TransferOwnership(caller, newOwner); err != nil {
		return nil, err
	}
	return map[string]string{"owner": newOwner.Hex()}, nil
}

func (e *Engine) renounceOwnership(caller common.Address, op model.Operation) (map[string]string, error) {
	tok, err := e.token(op.Token)
	if err != nil {
		return nil, err
	}
	if err := tok.RenounceOwnership(caller); err != nil {
		return nil, err
	}
	return map[string]string{"owner": common.Address{}.Hex()}, nil
}

func parseAddress(field, input string) (common.Address, error) {
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("%w: %s %q is not an address", ErrInvalidRequest, field, input)
	}
	return common.HexToAddress(input), nil
}

func parseAmount(field, input string) (*big.Int, error) {
	value, err := model.ParseAmount(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, field, err)
	}
	return value, nil
}

func parseAmounts(fields map[string]string) (map[string]*big.Int, error) {
	out := make(map[string]*big.Int, len(fields))
	for field, input := range fields {
		value, err := parseAmount(field, input)
		if err != nil {
			return nil, err
		}
		out[field] = value
	}
	return out, nil
}
