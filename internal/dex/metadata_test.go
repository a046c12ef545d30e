package dex

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

type fakeCall struct {
	parsed abi.ABI
	method string
	values []interface{}
}

// fakeCaller answers eth_call by contract address and selector.
type fakeCaller struct {
	t     *testing.T
	calls map[common.Address][]fakeCall
}

func newFakeCaller(t *testing.T) *fakeCaller {
	return &fakeCaller{t: t, calls: make(map[common.Address][]fakeCall)}
}

func (f *fakeCaller) on(contract common.Address, parsed abi.ABI, method string, values ...interface{}) {
	f.calls[contract] = append(f.calls[contract], fakeCall{parsed: parsed, method: method, values: values})
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("bad call")
	}
	for _, call := range f.calls[*msg.To] {
		method := call.parsed.Methods[call.method]
		if string(method.ID) != string(msg.Data[:4]) {
			continue
		}
		out, err := method.Outputs.Pack(call.values...)
		if err != nil {
			f.t.Fatalf("pack %s: %v", call.method, err)
		}
		return out, nil
	}
	return nil, errors.New("execution reverted")
}

func TestFetchPairState(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	erc20, err := erc20ABIStringInstance()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}

	caller := newFakeCaller(t)
	caller.on(testPool, poolABI, "token0", testToken0)
	caller.on(testPool, poolABI, "token1", testToken1)
	caller.on(testPool, poolABI, "totalSupply", big.NewInt(1414))
	caller.on(testToken0, erc20, "balanceOf", big.NewInt(1000))
	caller.on(testToken1, erc20, "balanceOf", big.NewInt(2000))

	state, err := FetchPairState(context.Background(), caller, testPool, big.NewInt(77))
	if err != nil {
		t.Fatalf("fetch pair state: %v", err)
	}
	if state.Token0 != testToken0.Hex() || state.Token1 != testToken1.Hex() {
		t.Fatalf("pair mismatch: %+v", state)
	}
	if state.Reserve0 != "1000" || state.Reserve1 != "2000" || state.TotalSupply != "1414" {
		t.Fatalf("state mismatch: %+v", state)
	}
	if state.BlockNumber != 77 {
		t.Fatalf("block mismatch: %d", state.BlockNumber)
	}

	if _, err := FetchPairState(context.Background(), nil, testPool, nil); err == nil {
		t.Fatalf("expected nil client error")
	}
}

func TestFetchTokenMetaBytes32Fallback(t *testing.T) {
	erc20, err := erc20ABIStringInstance()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		t.Fatalf("bytes32 abi: %v", err)
	}

	var symbol [32]byte
	copy(symbol[:], "TKB")

	caller := newFakeCaller(t)
	caller.on(testToken0, erc20, "decimals", uint8(18))
	caller.on(testToken0, erc20, "name", "Token A")
	caller.on(testToken0, erc20, "symbol", "TKA")
	caller.on(testToken1, erc20, "decimals", uint8(6))
	caller.on(testToken1, bytes32ABI, "symbol", symbol)

	meta, err := FetchTokenMeta(context.Background(), caller, testToken0, zap.NewNop())
	if err != nil {
		t.Fatalf("fetch token0: %v", err)
	}
	if meta.Symbol != "TKA" || meta.Name != "Token A" || meta.Decimals != 18 {
		t.Fatalf("token0 meta mismatch: %+v", meta)
	}

	meta, err = FetchTokenMeta(context.Background(), caller, testToken1, zap.NewNop())
	if err != nil {
		t.Fatalf("fetch token1: %v", err)
	}
	if meta.Symbol != "TKB" || meta.Name != "" || meta.Decimals != 6 {
		t.Fatalf("token1 meta mismatch: %+v", meta)
	}
}

func TestDecodeFetchesPairMetaOnMiss(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	caller := newFakeCaller(t)
	caller.on(testPool, poolABI, "token0", testToken0)
	caller.on(testPool, poolABI, "token1", testToken1)

	decoder, err := NewEventDecoder(DecoderConfig{Pool: testPool})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	pairCache := NewPairMetaCache()
	ctx := DecodeContext{Chain: caller, PairCache: pairCache, Logger: zap.NewNop()}

	data, err := poolABI.Events["Transfer"].Inputs.NonIndexed().Pack(big.NewInt(5))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	record := buildLogRecord(testPool, poolABI.Events["Transfer"].ID, data, []common.Hash{
		topicFromAddress(testToken0),
		topicFromAddress(testToken1),
	})
	event, err := decoder.Decode(record, ctx)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Pair == nil || event.Pair.Token1 != testToken1.Hex() {
		t.Fatalf("pair meta not fetched: %+v", event.Pair)
	}
	if _, ok := pairCache.Get(testPool); !ok {
		t.Fatalf("pair meta not cached")
	}
}
