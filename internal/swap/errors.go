package swap

import (
	"errors"
	"fmt"
)

var (
	ErrExpired                     = errors.New("deadline passed")
	ErrInvalidPair                 = errors.New("invalid tokens")
	ErrInvalidPath                 = errors.New("invalid path")
	ErrInsufficientAmount          = errors.New("insufficient amount")
	ErrInsufficientOutputAmount    = errors.New("insufficient output amount")
	ErrDivisionByZero              = errors.New("no division")
	ErrInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")
	ErrInsufficientLiquidity       = errors.New("insufficient liquidity")
	ErrReserveDeficit              = errors.New("reserve exceeds token balance")

	ErrInsufficientAAmount = fmt.Errorf("%w: A", ErrInsufficientAmount)
	ErrInsufficientBAmount = fmt.Errorf("%w: B", ErrInsufficientAmount)
)
