package dex

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"simpleSwap/internal/model"
)

// DecoderConfig configures decoder behavior. Logs emitted by Pool carry pair
// metadata; with no Pool set, only liquidity events do.
type DecoderConfig struct {
	Pool      common.Address
	Topic0Map map[string]string
}

// EventDecoder decodes pool and pair-token events.
type EventDecoder struct {
	poolABI     abi.ABI
	pool        common.Address
	topicToName map[string]string
}

// NewEventDecoder builds an event decoder.
func NewEventDecoder(cfg DecoderConfig) (*EventDecoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}

	topicToName := make(map[string]string, len(EventNames))
	for _, name := range EventNames {
		topicToName[strings.ToLower(poolABI.Events[name].ID.Hex())] = name
	}

	for topic0, name := range cfg.Topic0Map {
		original := name
		name = normalizeEventName(name)
		if name == "" {
			return nil, fmt.Errorf("unsupported event name in topic0 map: %s", original)
		}
		if topic0 == "" {
			continue
		}
		topicToName[strings.ToLower(topic0)] = name
	}

	return &EventDecoder{
		poolABI:     poolABI,
		pool:        cfg.Pool,
		topicToName: topicToName,
	}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *EventDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *EventDecoder) Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid contract address: %s", log.Address)
	}
	emitter := common.HexToAddress(log.Address)

	event := d.poolABI.Events[name]
	addrs, err := d.indexedAddresses(event, log.Topics)
	if err != nil {
		return nil, err
	}
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}
	amounts := make([]string, 0, len(values))
	for _, value := range values {
		amount, err := asBigInt(value)
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, amount.String())
	}

	var decoded interface{}
	switch name {
	case model.EventTransfer:
		if len(amounts) != 1 {
			return nil, fmt.Errorf("unexpected transfer values: %d", len(amounts))
		}
		decoded = model.TransferEventData{From: addrs[0].Hex(), To: addrs[1].Hex(), Value: amounts[0]}
	case model.EventApproval:
		if len(amounts) != 1 {
			return nil, fmt.Errorf("unexpected approval values: %d", len(amounts))
		}
		decoded = model.ApprovalEventData{Owner: addrs[0].Hex(), Spender: addrs[1].Hex(), Value: amounts[0]}
	case model.EventLiquidityAdded:
		if len(amounts) != 3 {
			return nil, fmt.Errorf("unexpected liquidity values: %d", len(amounts))
		}
		decoded = model.LiquidityAddedEventData{Provider: addrs[0].Hex(), AmountA: amounts[0], AmountB: amounts[1], Liquidity: amounts[2]}
	case model.EventLiquidityRemoved:
		if len(amounts) != 3 {
			return nil, fmt.Errorf("unexpected liquidity values: %d", len(amounts))
		}
		decoded = model.LiquidityRemovedEventData{Provider: addrs[0].Hex(), AmountA: amounts[0], AmountB: amounts[1], Liquidity: amounts[2]}
	case model.EventOwnershipTransferred:
		decoded = model.OwnershipTransferredEventData{PreviousOwner: addrs[0].Hex(), NewOwner: addrs[1].Hex()}
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}

	typed := buildTypedEvent(log, name, decoded)
	if d.isPool(emitter, name) {
		pair, err := getPairMeta(ctx, emitter)
		if err != nil {
			return nil, err
		}
		typed.Pair = pair
	}
	return typed, nil
}

func (d *EventDecoder) isPool(emitter common.Address, name string) bool {
	if d.pool != (common.Address{}) {
		return emitter == d.pool
	}
	return name == model.EventLiquidityAdded || name == model.EventLiquidityRemoved
}

func (d *EventDecoder) indexedAddresses(event abi.Event, topics []string) ([]common.Address, error) {
	indexedTopics, err := parseIndexedTopics(event, topics)
	if err != nil {
		return nil, err
	}
	addrs := make([]common.Address, 0, len(indexedTopics))
	for i, topic := range indexedTopics {
		if new(big.Int).SetBytes(topic.Bytes()).BitLen() > 160 {
			return nil, fmt.Errorf("topic %d is not an address: %s", i+1, topic.Hex())
		}
		addrs = append(addrs, common.BytesToAddress(topic.Bytes()))
	}
	return addrs, nil
}

func normalizeEventName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "transfer":
		return model.EventTransfer
	case "approval":
		return model.EventApproval
	case "liquidityadded":
		return model.EventLiquidityAdded
	case "liquidityremoved":
		return model.EventLiquidityRemoved
	case "ownershiptransferred":
		return model.EventOwnershipTransferred
	default:
		return ""
	}
}

func getPairMeta(ctx DecodeContext, pool common.Address) (*model.PairMeta, error) {
	if ctx.PairCache != nil {
		if meta, ok := ctx.PairCache.Get(pool); ok {
			return &meta, nil
		}
	}
	if ctx.Chain == nil {
		return nil, nil
	}

	callCtx := ctx.Context
	if callCtx == nil {
		callCtx = context.Background()
	}
	meta, err := FetchPairMeta(callCtx, ctx.Chain, pool, ctx.TokenMetaCache, ctx.Logger)
	if err != nil {
		return nil, err
	}
	if ctx.PairCache != nil {
		ctx.PairCache.Set(pool, meta)
	}
	return &meta, nil
}

func buildTypedEvent(log model.LogRecord, name string, decoded interface{}) *model.TypedEvent {
	raw := &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data}
	return &model.TypedEvent{
		ChainID:     log.ChainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		LogIndex:    log.LogIndex,
		Address:     log.Address,
		EventName:   name,
		Timestamp:   log.Timestamp,
		Decoded:     decoded,
		Raw:         raw,
	}
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	if len(event.Inputs.NonIndexed()) == 0 {
		return nil, nil
	}
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
