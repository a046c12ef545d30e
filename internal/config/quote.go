package config

import (
	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for the quote command. With RPCURL set the
// reserves are read from the deployed pool, otherwise from the flags.
type QuoteConfig struct {
	RPCURL      string
	Pool        string
	TokenIn     string
	Block       uint64
	AmountIn    string
	ReserveIn   string
	ReserveOut  string
	DecimalsIn  int32
	DecimalsOut int32
	SlippageBps uint64
	LogLevel    string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"decimals-in":  18,
		"decimals-out": 18,
		"slippage-bps": uint64(50),
		"log-level":    "info",
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	return QuoteConfig{
		RPCURL:      v.GetString("rpc"),
		Pool:        v.GetString("pool"),
		TokenIn:     v.GetString("token-in"),
		Block:       v.GetUint64("block"),
		AmountIn:    v.GetString("amount-in"),
		ReserveIn:   v.GetString("reserve-in"),
		ReserveOut:  v.GetString("reserve-out"),
		DecimalsIn:  v.GetInt32("decimals-in"),
		DecimalsOut: v.GetInt32("decimals-out"),
		SlippageBps: v.GetUint64("slippage-bps"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}
