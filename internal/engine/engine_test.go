package engine

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simpleSwap/internal/ledger"
	"simpleSwap/internal/model"
	"simpleSwap/internal/token"
)

const (
	owner    = "0x000000000000000000000000000000000000aAaA"
	trader   = "0x000000000000000000000000000000000000bBbB"
	poolHex  = "0x3000000000000000000000000000000000000003"
	tokenAHx = "0x1000000000000000000000000000000000000001"
	tokenBHx = "0x2000000000000000000000000000000000000002"
	maxU256  = "115792089237316195423570985008687907853269984665640564039457584007913129639935"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{
		Pool: common.HexToAddress(poolHex),
		TokenA: token.Config{
			Address: common.HexToAddress(tokenAHx), Name: "tokenA", Symbol: "TOKA", Decimals: 18,
			Owner: common.HexToAddress(owner), InitialSupply: token.DefaultInitialSupply,
		},
		TokenB: token.Config{
			Address: common.HexToAddress(tokenBHx), Name: "tokenB", Symbol: "TOKB", Decimals: 18,
			Owner: common.HexToAddress(owner), InitialSupply: token.DefaultInitialSupply,
		},
		Clock: func() uint64 { return 500 },
	}, nil)
	require.NoError(t, err)
	return e
}

func approveAll(t *testing.T, e *Engine, caller string) {
	t.Helper()
	for _, tok := range []string{tokenAHx, tokenBHx} {
		res := e.Apply(model.Operation{Op: model.OpTokenApprove, Caller: caller, Token: tok, Spender: poolHex, Amount: maxU256})
		require.Equal(t, model.StatusOK, res.Status, res.Error)
	}
}

func addLiquidity(a, b string) model.Operation {
	return model.Operation{
		Op: model.OpAddLiquidity, Caller: owner, Deadline: 1000,
		TokenA: tokenAHx, TokenB: tokenBHx,
		AmountADesired: a, AmountBDesired: b, AmountAMin: "0", AmountBMin: "0",
		To: owner,
	}
}

func TestApplyLifecycle(t *testing.T) {
	assert := assert.New(t)
	e := newTestEngine(t)
	approveAll(t, e, owner)

	res := e.Apply(addLiquidity("100", "200"))
	require.Equal(t, model.StatusOK, res.Status, res.Error)
	assert.Equal("141", res.Outputs["liquidity"])
	assert.Equal("100", res.Reserve0)
	assert.Equal("200", res.Reserve1)
	assert.Equal("141", res.TotalSupply)
	assert.NotEmpty(res.ID)
	assert.Equal(uint64(500), res.Timestamp)
	require.Len(t, res.Events, 4)
	assert.Equal(res.ID, res.Events[3].TxID)
	assert.Equal(model.EventLiquidityAdded, res.Events[3].EventName)

	res = e.Apply(model.Operation{Op: model.OpTokenTransfer, Caller: owner, Token: tokenAHx, To: trader, Amount: "50"})
	require.Equal(t, model.StatusOK, res.Status, res.Error)
	approveAll(t, e, trader)

	res = e.Apply(model.Operation{
		ID: "swap-1", Op: model.OpSwapExactTokensForTokens, Caller: trader, Deadline: 1000,
		AmountIn: "10", AmountOutMin: "18", Path: []string{tokenAHx, tokenBHx}, To: trader,
	})
	require.Equal(t, model.StatusOK, res.Status, res.Error)
	assert.Equal("swap-1", res.ID)
	assert.Equal("18", res.Outputs["amount_out"])
	assert.Equal("110", res.Reserve0)
	assert.Equal("182", res.Reserve1)

	res = e.Apply(model.Operation{
		Op: model.OpRemoveLiquidity, Caller: owner, Deadline: 1000,
		TokenA: tokenAHx, TokenB: tokenBHx, Liquidity: "141", AmountAMin: "0", AmountBMin: "0", To: owner,
	})
	require.Equal(t, model.StatusOK, res.Status, res.Error)
	assert.Equal("0", res.Reserve0)
	assert.Equal("0", res.Reserve1)
	assert.Equal("0", res.TotalSupply)
}

func TestApplyFailureLeavesNoTrace(t *testing.T) {
	e := newTestEngine(t)
	approveAll(t, e, owner)
	require.Equal(t, model.StatusOK, e.Apply(addLiquidity("1000", "1000")).Status)
	before := e.Snapshot()

	res := e.Apply(model.Operation{
		Op: model.OpSwapExactTokensForTokens, Caller: owner, Deadline: 1000,
		AmountIn: "10", AmountOutMin: "10", Path: []string{tokenAHx, tokenBHx}, To: owner,
	})
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Contains(t, res.Error, "insufficient output amount")
	assert.Empty(t, res.Events)

	res = e.Apply(model.Operation{
		Op: model.OpSwapExactTokensForTokens, Caller: owner, Timestamp: 2000, Deadline: 1000,
		AmountIn: "10", AmountOutMin: "0", Path: []string{tokenAHx, tokenBHx}, To: owner,
	})
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Contains(t, res.Error, "deadline passed")

	after := e.Snapshot()
	assert.Equal(t, before.Tokens, after.Tokens)
	assert.Equal(t, before.Pool, after.Pool)
	assert.Equal(t, before.Sequence+2, after.Sequence)
}

func TestApplyRejectsBadRequests(t *testing.T) {
	e := newTestEngine(t)

	res := e.Apply(model.Operation{Op: "flash_loan", Caller: owner})
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Contains(t, res.Error, ErrUnknownOperation.Error())

	res = e.Apply(model.Operation{Op: model.OpTransfer, Caller: "nobody"})
	assert.Contains(t, res.Error, ErrInvalidRequest.Error())

	res = e.Apply(model.Operation{Op: model.OpTokenTransfer, Caller: owner, Token: poolHex, To: trader, Amount: "1"})
	assert.Contains(t, res.Error, ErrUnknownToken.Error())

	res = e.Apply(model.Operation{Op: model.OpTokenTransfer, Caller: owner, Token: tokenAHx, To: trader, Amount: "-5"})
	assert.Contains(t, res.Error, ErrInvalidRequest.Error())
}

func TestApplyMintAndShareOps(t *testing.T) {
	assert := assert.New(t)
	e := newTestEngine(t)
	approveAll(t, e, owner)

	res := e.Apply(model.Operation{Op: model.OpTokenMint, Caller: trader, Token: tokenBHx, To: trader, Amount: "1"})
	assert.Equal(model.StatusFailed, res.Status)
	assert.Contains(res.Error, token.ErrUnauthorized.Error())

	res = e.Apply(model.Operation{Op: model.OpTokenMint, Caller: owner, Token: tokenBHx, To: trader, Amount: "7"})
	require.Equal(t, model.StatusOK, res.Status, res.Error)

	require.Equal(t, model.StatusOK, e.Apply(addLiquidity("400", "100")).Status)

	res = e.Apply(model.Operation{Op: model.OpTransfer, Caller: owner, To: trader, Amount: "0"})
	require.Equal(t, model.StatusOK, res.Status, res.Error)
	require.Len(t, res.Events, 1)
	assert.Equal(poolHex, res.Events[0].Address)

	res = e.Apply(model.Operation{Op: model.OpApprove, Caller: owner, Spender: trader, Amount: maxU256})
	require.Equal(t, model.StatusOK, res.Status, res.Error)

	res = e.Apply(model.Operation{Op: model.OpTransferFrom, Caller: trader, From: owner, To: trader, Amount: "150"})
	require.Equal(t, model.StatusOK, res.Status, res.Error)
	assert.Equal("150", e.Pool().BalanceOf(common.HexToAddress(trader)).String())
	assert.Equal(0, e.Pool().Allowance(common.HexToAddress(owner), common.HexToAddress(trader)).Cmp(ledger.MaxAllowance))

	res = e.Apply(model.Operation{Op: model.OpTransfer, Caller: trader, To: owner, Amount: "151"})
	assert.Contains(res.Error, ledger.ErrInsufficientBalance.Error())
}

func TestSnapshotRestore(t *testing.T) {
	e := newTestEngine(t)
	approveAll(t, e, owner)
	require.Equal(t, model.StatusOK, e.Apply(addLiquidity("100", "100")).Status)
	snap := e.Snapshot()

	fresh := newTestEngine(t)
	require.NoError(t, fresh.Restore(snap))
	assert.Equal(t, snap.Sequence, fresh.Sequence())
	assert.Equal(t, "100", fresh.Pool().BalanceOf(common.HexToAddress(owner)).String())

	res := fresh.Apply(model.Operation{
		Op: model.OpRemoveLiquidity, Caller: owner, Deadline: 1000,
		TokenA: tokenBHx, TokenB: tokenAHx, Liquidity: "100", AmountAMin: "100", AmountBMin: "100", To: owner,
	})
	require.Equal(t, model.StatusOK, res.Status, res.Error)

	snap.Tokens = snap.Tokens[:1]
	assert.ErrorIs(t, fresh.Restore(snap), ledger.ErrInvalidState)
}

func TestApplyOwnership(t *testing.T) {
	e := newTestEngine(t)

	res := e.Apply(model.Operation{Op: model.OpTokenTransferOwnership, Caller: owner, Token: tokenAHx, NewOwner: trader})
	require.Equal(t, model.StatusOK, res.Status, res.Error)
	require.Len(t, res.Events, 1)
	assert.Equal(t, model.EventOwnershipTransferred, res.Events[0].EventName)

	res = e.Apply(model.Operation{Op: model.OpTokenMint, Caller: owner, Token: tokenAHx, To: owner, Amount: "1"})
	assert.Equal(t, model.StatusFailed, res.Status)

	res = e.Apply(model.Operation{Op: model.OpTokenRenounceOwnership, Caller: trader, Token: tokenAHx})
	require.Equal(t, model.StatusOK, res.Status, res.Error)

	a, _ := e.Tokens()
	assert.Equal(t, common.Address{}, a.Owner())

	snap := e.Snapshot()
	fresh := newTestEngine(t)
	require.NoError(t, fresh.Restore(snap))
	fa, _ := fresh.Tokens()
	assert.Equal(t, common.Address{}, fa.Owner())
}
