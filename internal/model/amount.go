package model

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// ParseAmount parses a base-10 uint256 amount. An empty string is zero.
func ParseAmount(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return new(big.Int), nil
	}
	value, err := uint256.FromDecimal(input)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	return value.ToBig(), nil
}

// FormatAmount renders an amount as a base-10 string, nil as "0".
func FormatAmount(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
