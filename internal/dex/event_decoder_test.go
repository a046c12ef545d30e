package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"simpleSwap/internal/model"
)

var (
	testPool   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testToken0 = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testToken1 = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func TestEventDecoderLiquidityAdded(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	pairCache := NewPairMetaCache()
	pairCache.Set(testPool, model.PairMeta{Token0: testToken0.Hex(), Token1: testToken1.Hex()})

	decoder, err := NewEventDecoder(DecoderConfig{Pool: testPool})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	ctx := DecodeContext{PairCache: pairCache, Logger: zap.NewNop()}

	provider := common.HexToAddress("0x2222222222222222222222222222222222222222")
	data, err := poolABI.Events["LiquidityAdded"].Inputs.NonIndexed().Pack(
		big.NewInt(100),
		big.NewInt(200),
		big.NewInt(141),
	)
	if err != nil {
		t.Fatalf("pack liquidity added: %v", err)
	}

	logRecord := buildLogRecord(testPool, poolABI.Events["LiquidityAdded"].ID, data, []common.Hash{
		topicFromAddress(provider),
	})

	if !decoder.CanDecode(logRecord.Topics[0]) {
		t.Fatalf("decoder should accept LiquidityAdded")
	}
	event, err := decoder.Decode(logRecord, ctx)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	added, ok := event.Decoded.(model.LiquidityAddedEventData)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", event.Decoded)
	}
	if added.AmountA != "100" || added.AmountB != "200" || added.Liquidity != "141" {
		t.Fatalf("amounts mismatch: %+v", added)
	}
	if added.Provider != provider.Hex() {
		t.Fatalf("provider mismatch: %s", added.Provider)
	}
	if event.Pair == nil || event.Pair.Token0 != testToken0.Hex() {
		t.Fatalf("pair meta mismatch: %+v", event.Pair)
	}
	if event.BlockNumber != 12345 || event.Raw == nil {
		t.Fatalf("log fields not carried over")
	}
}

func TestEventDecoderTransferApproval(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewEventDecoder(DecoderConfig{Pool: testPool})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	ctx := DecodeContext{Logger: zap.NewNop()}

	from := common.HexToAddress("0x3333333333333333333333333333333333333333")
	to := common.HexToAddress("0x4444444444444444444444444444444444444444")

	data, err := poolABI.Events["Transfer"].Inputs.NonIndexed().Pack(big.NewInt(0))
	if err != nil {
		t.Fatalf("pack transfer: %v", err)
	}
	event, err := decoder.Decode(buildLogRecord(testToken0, poolABI.Events["Transfer"].ID, data, []common.Hash{
		topicFromAddress(from),
		topicFromAddress(to),
	}), ctx)
	if err != nil {
		t.Fatalf("decode transfer: %v", err)
	}
	transfer, ok := event.Decoded.(model.TransferEventData)
	if !ok {
		t.Fatalf("transfer type mismatch")
	}
	if transfer.From != from.Hex() || transfer.To != to.Hex() || transfer.Value != "0" {
		t.Fatalf("transfer mismatch: %+v", transfer)
	}
	if event.Pair != nil {
		t.Fatalf("token log should not carry pair meta")
	}

	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	data, err = poolABI.Events["Approval"].Inputs.NonIndexed().Pack(max)
	if err != nil {
		t.Fatalf("pack approval: %v", err)
	}
	event, err = decoder.Decode(buildLogRecord(testPool, poolABI.Events["Approval"].ID, data, []common.Hash{
		topicFromAddress(from),
		topicFromAddress(to),
	}), ctx)
	if err != nil {
		t.Fatalf("decode approval: %v", err)
	}
	approval := event.Decoded.(model.ApprovalEventData)
	if approval.Value != max.String() || approval.Spender != to.Hex() {
		t.Fatalf("approval mismatch: %+v", approval)
	}
}

func TestEventDecoderRejectsMalformed(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewEventDecoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	data, _ := poolABI.Events["Transfer"].Inputs.NonIndexed().Pack(big.NewInt(1))
	short := buildLogRecord(testPool, poolABI.Events["Transfer"].ID, data, []common.Hash{
		topicFromAddress(testToken0),
	})
	if _, err := decoder.Decode(short, DecodeContext{}); err == nil {
		t.Fatalf("expected topic count error")
	}

	unknown := buildLogRecord(testPool, common.HexToHash("0x01"), data, nil)
	if decoder.CanDecode(unknown.Topics[0]) {
		t.Fatalf("unknown topic should not be decodable")
	}
	if _, err := decoder.Decode(unknown, DecodeContext{}); err == nil {
		t.Fatalf("expected unsupported topic error")
	}

	if _, err := NewEventDecoder(DecoderConfig{Topic0Map: map[string]string{"0x01": "Swap"}}); err == nil {
		t.Fatalf("expected unsupported event name error")
	}
}

func TestEventDecoderTopic0Map(t *testing.T) {
	decoder, err := NewEventDecoder(DecoderConfig{Topic0Map: map[string]string{"0xABCD": "liquidityadded"}})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	if !decoder.CanDecode("0xabcd") {
		t.Fatalf("custom topic not registered")
	}
}

func buildLogRecord(address common.Address, topic0 common.Hash, data []byte, indexed []common.Hash) model.LogRecord {
	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, topic0.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		ChainID:     31337,
		BlockNumber: 12345,
		BlockHash:   "0xabc",
		TxHash:      "0xdef",
		LogIndex:    1,
		Address:     address.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(data),
		Timestamp:   1700000000,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
