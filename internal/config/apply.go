package config

import (
	"github.com/spf13/pflag"
)

// GenesisConfig describes the deployment created on the first run, when no
// snapshot exists yet.
type GenesisConfig struct {
	Pool          string
	TokenA        string
	TokenB        string
	TokenAName    string
	TokenASymbol  string
	TokenBName    string
	TokenBSymbol  string
	Decimals      uint8
	Owner         string
	Recipient     string
	InitialSupply string
}

// InfluxConfig locates the InfluxDB bucket for reserve points.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// ApplyConfig holds configuration for the apply command.
type ApplyConfig struct {
	In        string
	Out       string
	Events    string
	Logs      string
	StateFile string
	PGDSN     string
	Influx    InfluxConfig
	Genesis   GenesisConfig
	LogLevel  string
}

// LoadApply merges config file, environment variables, and flags into ApplyConfig.
func LoadApply(cfgFile string, flags *pflag.FlagSet) (ApplyConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":            "./data/results.jsonl",
		"events":         "./data/events.jsonl",
		"state-file":     "./data/state.json",
		"token-a-name":   "tokenA",
		"token-a-symbol": "TOKA",
		"token-b-name":   "tokenB",
		"token-b-symbol": "TOKB",
		"decimals":       18,
		"log-level":      "info",
	})
	if err != nil {
		return ApplyConfig{}, err
	}

	return ApplyConfig{
		In:        v.GetString("in"),
		Out:       v.GetString("out"),
		Events:    v.GetString("events"),
		Logs:      v.GetString("logs"),
		StateFile: v.GetString("state-file"),
		PGDSN:     v.GetString("pg-dsn"),
		Influx: InfluxConfig{
			URL:    v.GetString("influx-url"),
			Token:  v.GetString("influx-token"),
			Org:    v.GetString("influx-org"),
			Bucket: v.GetString("influx-bucket"),
		},
		Genesis: GenesisConfig{
			Pool:          v.GetString("pool"),
			TokenA:        v.GetString("token-a"),
			TokenB:        v.GetString("token-b"),
			TokenAName:    v.GetString("token-a-name"),
			TokenASymbol:  v.GetString("token-a-symbol"),
			TokenBName:    v.GetString("token-b-name"),
			TokenBSymbol:  v.GetString("token-b-symbol"),
			Decimals:      uint8(v.GetUint("decimals")),
			Owner:         v.GetString("owner"),
			Recipient:     v.GetString("recipient"),
			InitialSupply: v.GetString("initial-supply"),
		},
		LogLevel: v.GetString("log-level"),
	}, nil
}
