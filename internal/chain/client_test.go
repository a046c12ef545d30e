package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"simpleSwap/internal/dex"
)

type fakeEth struct {
	chainID     uint64
	blockNumber uint64
	logs        []types.Log
	// calls[contract][selector] = abi-encoded result
	calls map[common.Address]map[string][]byte
}

func (f *fakeEth) ChainId(ctx context.Context) (*hexutil.Big, error) {
	return (*hexutil.Big)(new(big.Int).SetUint64(f.chainID)), nil
}

func (f *fakeEth) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	return hexutil.Uint64(f.blockNumber), nil
}

func (f *fakeEth) GetLogs(ctx context.Context, crit map[string]interface{}) ([]types.Log, error) {
	return f.logs, nil
}

func (f *fakeEth) Call(ctx context.Context, args map[string]interface{}, block string) (hexutil.Bytes, error) {
	to, _ := args["to"].(string)
	input, _ := args["input"].(string)
	if input == "" {
		input, _ = args["data"].(string)
	}
	data, err := hexutil.Decode(input)
	if err != nil || len(data) < 4 {
		return nil, errors.New("bad call data")
	}
	if out, ok := f.calls[common.HexToAddress(to)][hexutil.Encode(data[:4])]; ok {
		return out, nil
	}
	return nil, errors.New("execution reverted")
}

func newInprocClient(t *testing.T, fe *fakeEth) *Client {
	t.Helper()
	srv := gethrpc.NewServer()
	if err := srv.RegisterName("eth", fe); err != nil {
		t.Fatalf("register rpc service: %v", err)
	}
	client := NewClientFromRPC(gethrpc.DialInProc(srv))
	t.Cleanup(client.Close)
	return client
}

func TestClientChainReads(t *testing.T) {
	pool := common.HexToAddress("0x0000000000000000000000000000000000000abc")
	fe := &fakeEth{
		chainID:     31337,
		blockNumber: 42,
		logs: []types.Log{{
			Address: pool,
			Topics:  []common.Hash{common.HexToHash("0x01")},
			Data:    []byte{0x01},
			TxHash:  common.HexToHash("0xfeed"),
		}},
	}
	client := newInprocClient(t, fe)
	ctx := context.Background()

	id, err := client.ChainID(ctx)
	if err != nil || id != 31337 {
		t.Fatalf("chain id: %d %v", id, err)
	}
	fe.chainID = 1
	if id, _ := client.ChainID(ctx); id != 31337 {
		t.Fatalf("chain id should be cached, got %d", id)
	}

	latest, err := client.LatestBlockNumber(ctx)
	if err != nil || latest != 42 {
		t.Fatalf("latest block: %d %v", latest, err)
	}

	logs, err := client.FilterLogs(ctx, 1, 42, []common.Address{pool}, []common.Hash{common.HexToHash("0x01")})
	if err != nil {
		t.Fatalf("filter logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Address != pool || logs[0].TxHash != common.HexToHash("0xfeed") {
		t.Fatalf("logs mismatch: %+v", logs)
	}
}

func TestClientPairState(t *testing.T) {
	pool := common.HexToAddress("0x0000000000000000000000000000000000000abc")
	token0 := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	token1 := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	poolABI, err := dex.PoolABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	pack := func(method string, value interface{}) (string, []byte) {
		out, err := poolABI.Methods[method].Outputs.Pack(value)
		if err != nil {
			t.Fatalf("pack %s: %v", method, err)
		}
		return strings.ToLower(hexutil.Encode(poolABI.Methods[method].ID)), out
	}

	calls := map[common.Address]map[string][]byte{pool: {}, token0: {}, token1: {}}
	sel, out := pack("token0", token0)
	calls[pool][sel] = out
	sel, out = pack("token1", token1)
	calls[pool][sel] = out
	sel, out = pack("totalSupply", big.NewInt(100))
	calls[pool][sel] = out
	sel, out = pack("balanceOf", big.NewInt(150))
	calls[token0][sel] = out
	sel, out = pack("balanceOf", big.NewInt(70))
	calls[token1][sel] = out

	client := newInprocClient(t, &fakeEth{chainID: 1, calls: calls})
	state, err := client.PairState(context.Background(), pool, nil)
	if err != nil {
		t.Fatalf("pair state: %v", err)
	}
	if state.Reserve0 != "150" || state.Reserve1 != "70" || state.TotalSupply != "100" {
		t.Fatalf("pair state mismatch: %+v", state)
	}
	if state.Token0 != token0.Hex() || state.Token1 != token1.Hex() {
		t.Fatalf("pair tokens mismatch: %+v", state)
	}
}
