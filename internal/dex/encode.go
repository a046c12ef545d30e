package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"simpleSwap/internal/model"
)

// EncodeLog renders a typed event as the log record the contract would have
// emitted, so locally produced events can go through the same decode path
// as indexed chain logs.
func EncodeLog(ev model.TypedEvent) (model.LogRecord, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return model.LogRecord{}, err
	}
	event, ok := poolABI.Events[ev.EventName]
	if !ok {
		return model.LogRecord{}, fmt.Errorf("unsupported event name: %s", ev.EventName)
	}

	var (
		indexed []string
		values  []string
	)
	switch data := ev.Decoded.(type) {
	case model.TransferEventData:
		indexed, values = []string{data.From, data.To}, []string{data.Value}
	case model.ApprovalEventData:
		indexed, values = []string{data.Owner, data.Spender}, []string{data.Value}
	case model.LiquidityAddedEventData:
		indexed, values = []string{data.Provider}, []string{data.AmountA, data.AmountB, data.Liquidity}
	case model.LiquidityRemovedEventData:
		indexed, values = []string{data.Provider}, []string{data.AmountA, data.AmountB, data.Liquidity}
	case model.OwnershipTransferredEventData:
		indexed = []string{data.PreviousOwner, data.NewOwner}
	default:
		return model.LogRecord{}, fmt.Errorf("unsupported payload %T for %s", ev.Decoded, ev.EventName)
	}
	if len(indexed) != len(indexedArguments(event.Inputs)) {
		return model.LogRecord{}, fmt.Errorf("payload %T does not match %s", ev.Decoded, ev.EventName)
	}

	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, event.ID.Hex())
	for _, input := range indexed {
		if !common.IsHexAddress(input) {
			return model.LogRecord{}, fmt.Errorf("invalid address in %s: %q", ev.EventName, input)
		}
		topics = append(topics, common.BytesToHash(common.HexToAddress(input).Bytes()).Hex())
	}

	args := make([]interface{}, 0, len(values))
	for _, input := range values {
		value, ok := new(big.Int).SetString(input, 10)
		if !ok {
			return model.LogRecord{}, fmt.Errorf("invalid amount in %s: %q", ev.EventName, input)
		}
		args = append(args, value)
	}
	data, err := event.Inputs.NonIndexed().Pack(args...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", ev.EventName, err)
	}

	return model.LogRecord{
		ChainID:     ev.ChainID,
		BlockNumber: ev.BlockNumber,
		BlockHash:   ev.BlockHash,
		TxHash:      ev.TxHash,
		LogIndex:    ev.LogIndex,
		Address:     ev.Address,
		Topics:      topics,
		Data:        hexutil.Encode(data),
		Timestamp:   ev.Timestamp,
	}, nil
}
