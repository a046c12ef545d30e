package swap

import (
	"math/big"
)

// Scale is the fixed-point factor used by the price and output formulas.
var Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// GetAmountOut returns the output of a constant-product swap without fee:
//
//	floor(floor(amountIn * reserveOut * 1e18 / (amountIn + reserveIn)) / 1e18)
//
// The scale is applied before the first division and removed after it.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if err := checkAmounts(amountIn, reserveIn, reserveOut); err != nil {
		return nil, err
	}
	denominator := new(big.Int).Add(amountIn, reserveIn)
	if denominator.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	numerator := new(big.Int).Mul(amountIn, reserveOut)
	numerator.Mul(numerator, Scale)
	out := numerator.Quo(numerator, denominator)
	return out.Quo(out, Scale), nil
}

// Price returns reserveOut * 1e18 / reserveIn.
func Price(reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if err := checkAmounts(reserveIn, reserveOut); err != nil {
		return nil, err
	}
	if reserveIn.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	price := new(big.Int).Mul(reserveOut, Scale)
	return price.Quo(price, reserveIn), nil
}

// Sqrt returns floor(sqrt(x)).
func Sqrt(x *big.Int) *big.Int {
	if x == nil || x.Sign() <= 0 {
		return new(big.Int)
	}
	return new(big.Int).Sqrt(x)
}

// mulDiv returns floor(a * b / c). c must be positive.
func mulDiv(a, b, c *big.Int) *big.Int {
	out := new(big.Int).Mul(a, b)
	return out.Quo(out, c)
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
