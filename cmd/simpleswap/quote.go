package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/MixinNetwork/go-number"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"simpleSwap/internal/chain"
	"simpleSwap/internal/config"
	"simpleSwap/internal/dex"
	"simpleSwap/internal/model"
	"simpleSwap/internal/swap"
)

const bpsDenominator = 10000

// quoteResult is printed as one JSON object. Raw fields are base units;
// the display fields are scaled by the token decimals.
type quoteResult struct {
	Pool         string `json:"pool,omitempty"`
	TokenIn      string `json:"token_in,omitempty"`
	TokenOut     string `json:"token_out,omitempty"`
	Block        uint64 `json:"block,omitempty"`
	AmountIn     string `json:"amount_in"`
	ReserveIn    string `json:"reserve_in"`
	ReserveOut   string `json:"reserve_out"`
	AmountOut    string `json:"amount_out"`
	AmountOutMin string `json:"amount_out_min"`
	SlippageBps  uint64 `json:"slippage_bps"`
	Price        string `json:"price"`

	DisplayAmountIn     string `json:"display_amount_in"`
	DisplayAmountOut    string `json:"display_amount_out"`
	DisplayAmountOutMin string `json:"display_amount_out_min"`
	DisplayPrice        string `json:"display_price"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	amountIn, err := model.ParseAmount(cfg.AmountIn)
	if err != nil {
		return fmt.Errorf("amount-in: %w", err)
	}
	if cfg.SlippageBps > bpsDenominator {
		return fmt.Errorf("slippage-bps must be <= %d", bpsDenominator)
	}

	var result quoteResult
	if cfg.RPCURL == "" {
		reserveIn, err := model.ParseAmount(cfg.ReserveIn)
		if err != nil {
			return fmt.Errorf("reserve-in: %w", err)
		}
		reserveOut, err := model.ParseAmount(cfg.ReserveOut)
		if err != nil {
			return fmt.Errorf("reserve-out: %w", err)
		}
		result, err = computeQuote(amountIn, reserveIn, reserveOut, cfg.SlippageBps, cfg.DecimalsIn, cfg.DecimalsOut)
		if err != nil {
			return err
		}
	} else {
		result, err = chainQuote(cmd, cfg, amountIn, logger)
		if err != nil {
			return err
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func chainQuote(cmd *cobra.Command, cfg config.QuoteConfig, amountIn *big.Int, logger *zap.Logger) (quoteResult, error) {
	if !common.IsHexAddress(cfg.Pool) || !common.IsHexAddress(cfg.TokenIn) {
		return quoteResult{}, fmt.Errorf("pool and token-in addresses are required with rpc")
	}

	ctx, stop := signalContext()
	defer stop()

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return quoteResult{}, fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	var block *big.Int
	if cfg.Block > 0 {
		block = new(big.Int).SetUint64(cfg.Block)
	}
	state, err := client.PairState(ctx, common.HexToAddress(cfg.Pool), block)
	if err != nil {
		return quoteResult{}, fmt.Errorf("read pool: %w", err)
	}

	tokenIn := common.HexToAddress(cfg.TokenIn)
	reserveIn, reserveOut, tokenOut := state.Reserve0, state.Reserve1, state.Token1
	switch tokenIn {
	case common.HexToAddress(state.Token0):
	case common.HexToAddress(state.Token1):
		reserveIn, reserveOut, tokenOut = state.Reserve1, state.Reserve0, state.Token0
	default:
		return quoteResult{}, fmt.Errorf("%w: %s is not in pool %s", swap.ErrInvalidPath, tokenIn.Hex(), state.Address)
	}

	decimalsIn, decimalsOut := cfg.DecimalsIn, cfg.DecimalsOut
	if !cmd.Flags().Changed("decimals-in") {
		if meta, err := dex.FetchTokenMeta(ctx, client, tokenIn, logger); err == nil {
			decimalsIn = int32(meta.Decimals)
		}
	}
	if !cmd.Flags().Changed("decimals-out") {
		if meta, err := dex.FetchTokenMeta(ctx, client, common.HexToAddress(tokenOut), logger); err == nil {
			decimalsOut = int32(meta.Decimals)
		}
	}

	rIn, _ := new(big.Int).SetString(reserveIn, 10)
	rOut, _ := new(big.Int).SetString(reserveOut, 10)
	result, err := computeQuote(amountIn, rIn, rOut, cfg.SlippageBps, decimalsIn, decimalsOut)
	if err != nil {
		return quoteResult{}, err
	}
	result.Pool = state.Address
	result.TokenIn = tokenIn.Hex()
	result.TokenOut = tokenOut
	result.Block = state.BlockNumber

	logger.Debug("pool state",
		zap.String("pool", state.Address),
		zap.String("reserve0", state.Reserve0),
		zap.String("reserve1", state.Reserve1),
		zap.String("total_supply", state.TotalSupply),
	)
	return result, nil
}

// computeQuote applies the pool formulas to the given reserves and derives
// the minimum output accepted under slippageBps.
func computeQuote(amountIn, reserveIn, reserveOut *big.Int, slippageBps uint64, decimalsIn, decimalsOut int32) (quoteResult, error) {
	amountOut, err := swap.GetAmountOut(amountIn, reserveIn, reserveOut)
	if err != nil {
		return quoteResult{}, err
	}
	price, err := swap.Price(reserveIn, reserveOut)
	if err != nil {
		return quoteResult{}, err
	}

	minOut := new(big.Int).Mul(amountOut, big.NewInt(int64(bpsDenominator-slippageBps)))
	minOut.Quo(minOut, big.NewInt(bpsDenominator))

	displayIn := toDisplay(amountIn, decimalsIn)
	displayPrice := number.Zero()
	if reserveIn.Sign() > 0 {
		displayPrice = toDisplay(reserveOut, decimalsOut).Div(toDisplay(reserveIn, decimalsIn))
	}

	return quoteResult{
		AmountIn:     amountIn.String(),
		ReserveIn:    reserveIn.String(),
		ReserveOut:   reserveOut.String(),
		AmountOut:    amountOut.String(),
		AmountOutMin: minOut.String(),
		SlippageBps:  slippageBps,
		Price:        price.String(),

		DisplayAmountIn:     displayIn.Persist(),
		DisplayAmountOut:    toDisplay(amountOut, decimalsOut).Persist(),
		DisplayAmountOutMin: toDisplay(minOut, decimalsOut).Persist(),
		DisplayPrice:        displayPrice.RoundFloor(8).Persist(),
	}, nil
}

func toDisplay(amount *big.Int, decimals int32) number.Decimal {
	if decimals <= 0 {
		return number.FromString(amount.String())
	}
	unit := number.FromString("1" + strings.Repeat("0", int(decimals)))
	return number.FromString(amount.String()).Div(unit)
}
