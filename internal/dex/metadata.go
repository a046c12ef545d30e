package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"simpleSwap/internal/model"
)

// PairMetaCache caches pool pair metadata by pool address.
type PairMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.PairMeta
}

func NewPairMetaCache() *PairMetaCache {
	return &PairMetaCache{data: make(map[common.Address]model.PairMeta)}
}

func (c *PairMetaCache) Get(address common.Address) (model.PairMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *PairMetaCache) Set(address common.Address, meta model.PairMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]model.TokenMeta)}
}

func (c *TokenMetaCache) Get(address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// FetchPairMeta loads the immutable token pair of a pool, attaching token
// metadata when a cache is supplied.
func FetchPairMeta(ctx context.Context, caller ContractCaller, pool common.Address, tokenCache *TokenMetaCache, logger *zap.Logger) (model.PairMeta, error) {
	if caller == nil {
		return model.PairMeta{}, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	token0, token1, err := fetchPair(ctx, caller, pool, nil)
	if err != nil {
		return model.PairMeta{}, err
	}
	meta := model.PairMeta{
		Token0: token0.Hex(),
		Token1: token1.Hex(),
	}

	if tokenCache != nil {
		meta.Meta0 = cachedTokenMeta(ctx, caller, token0, tokenCache, logger)
		meta.Meta1 = cachedTokenMeta(ctx, caller, token1, tokenCache, logger)
	}
	return meta, nil
}

func cachedTokenMeta(ctx context.Context, caller ContractCaller, token common.Address, cache *TokenMetaCache, logger *zap.Logger) *model.TokenMeta {
	if meta, ok := cache.Get(token); ok {
		return &meta
	}
	meta, err := FetchTokenMeta(ctx, caller, token, logger)
	if err != nil {
		logger.Warn("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
	}
	cache.Set(token, meta)
	return &meta
}

// FetchPairState reads the pool's pair, its token balances and its share
// supply at a block height. A nil block reads the latest state.
func FetchPairState(ctx context.Context, caller ContractCaller, pool common.Address, block *big.Int) (model.PairState, error) {
	if caller == nil {
		return model.PairState{}, fmt.Errorf("chain client is nil")
	}
	poolABI, err := PoolABI()
	if err != nil {
		return model.PairState{}, fmt.Errorf("parse pool abi: %w", err)
	}

	token0, token1, err := fetchPair(ctx, caller, pool, block)
	if err != nil {
		return model.PairState{}, err
	}

	values, err := callMethod(ctx, caller, pool, poolABI, "totalSupply", block)
	if err != nil {
		return model.PairState{}, err
	}
	supply, err := asBigInt(values[0])
	if err != nil {
		return model.PairState{}, fmt.Errorf("total supply: %w", err)
	}

	reserve0, err := FetchBalance(ctx, caller, token0, pool, block)
	if err != nil {
		return model.PairState{}, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := FetchBalance(ctx, caller, token1, pool, block)
	if err != nil {
		return model.PairState{}, fmt.Errorf("reserve1: %w", err)
	}

	state := model.PairState{
		Address:     pool.Hex(),
		Token0:      token0.Hex(),
		Token1:      token1.Hex(),
		Reserve0:    reserve0.String(),
		Reserve1:    reserve1.String(),
		TotalSupply: supply.String(),
	}
	if block != nil {
		state.BlockNumber = block.Uint64()
	}
	return state, nil
}

// FetchBalance reads token.balanceOf(account).
func FetchBalance(ctx context.Context, caller ContractCaller, token, account common.Address, block *big.Int) (*big.Int, error) {
	parsed, err := erc20ABIStringInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callMethod(ctx, caller, token, parsed, "balanceOf", block, account)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

func fetchPair(ctx context.Context, caller ContractCaller, pool common.Address, block *big.Int) (common.Address, common.Address, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := callMethod(ctx, caller, pool, poolABI, "token0", block)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, "token1", block)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token1: %w", err)
	}
	return token0, token1, nil
}

func callMethod(ctx context.Context, caller ContractCaller, contract common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &contract, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

// FetchTokenMeta loads token metadata via ERC20 calls. Tokens returning
// bytes32 names and symbols are supported.
func FetchTokenMeta(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("chain client is nil")
	}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := callMethod(ctx, caller, token, stringABI, "decimals", nil)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	meta.Symbol = fetchText(ctx, caller, token, "symbol", stringABI, bytes32ABI, logger)
	meta.Name = fetchText(ctx, caller, token, "name", stringABI, bytes32ABI, logger)
	return meta, nil
}

func fetchText(ctx context.Context, caller ContractCaller, token common.Address, method string, stringABI, bytes32ABI abi.ABI, logger *zap.Logger) string {
	if values, err := callMethod(ctx, caller, token, stringABI, method, nil); err == nil {
		if text, ok := values[0].(string); ok {
			return text
		}
	}
	values, err := callMethod(ctx, caller, token, bytes32ABI, method, nil)
	if err == nil {
		if text, ok := bytes32ToString(values[0]); ok {
			return text
		}
	} else if logger != nil {
		logger.Debug(method+" call failed", zap.String("token", token.Hex()), zap.Error(err))
	}
	return ""
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("decimals out of range: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
