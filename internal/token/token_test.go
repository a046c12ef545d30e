package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simpleSwap/internal/ledger"
	"simpleSwap/internal/model"
)

var (
	owner    = common.HexToAddress("0x000000000000000000000000000000000000aaaa")
	stranger = common.HexToAddress("0x000000000000000000000000000000000000bbbb")
	tokenA   = common.HexToAddress("0x2000000000000000000000000000000000000001")
)

func newTokenA(t *testing.T) *Token {
	t.Helper()
	tok, err := New(Config{
		Address:       tokenA,
		Name:          "tokenA",
		Symbol:        "TOKA",
		Decimals:      18,
		Owner:         owner,
		InitialSupply: DefaultInitialSupply,
	}, nil, nil)
	require.NoError(t, err)
	return tok
}

func TestTokenInitialSupply(t *testing.T) {
	tok := newTokenA(t)
	assert.Equal(t, "tokenA", tok.Name())
	assert.Equal(t, "TOKA", tok.Symbol())
	assert.Equal(t, uint8(18), tok.Decimals())
	assert.Equal(t, "1000000000000000000000000000000000000", tok.BalanceOf(owner).String())
	assert.Equal(t, tok.BalanceOf(owner).String(), tok.TotalSupply().String())
}

func TestTokenMintOnlyOwner(t *testing.T) {
	tok := newTokenA(t)
	supply := tok.TotalSupply()

	err := tok.Mint(stranger, stranger, big.NewInt(1000))
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, supply.String(), tok.TotalSupply().String())

	require.NoError(t, tok.Mint(owner, stranger, big.NewInt(1000)))
	assert.Equal(t, "1000", tok.BalanceOf(stranger).String())
	assert.Equal(t, new(big.Int).Add(supply, big.NewInt(1000)).String(), tok.TotalSupply().String())

	require.ErrorIs(t, tok.Mint(owner, common.Address{}, big.NewInt(1)), ledger.ErrInvalidReceiver)
}

func TestTokenRequiresOwner(t *testing.T) {
	_, err := New(Config{Address: tokenA, Symbol: "TOKA"}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidOwner)
}

func TestTokenOwnership(t *testing.T) {
	tok := newTokenA(t)
	tok.Events().Drain()

	require.ErrorIs(t, tok.TransferOwnership(stranger, stranger), ErrUnauthorized)
	require.ErrorIs(t, tok.TransferOwnership(owner, common.Address{}), ErrInvalidOwner)

	require.NoError(t, tok.TransferOwnership(owner, stranger))
	assert.Equal(t, stranger, tok.Owner())
	events := tok.Events().Drain()
	require.Len(t, events, 1)
	assert.Equal(t, model.OwnershipTransferredEventData{PreviousOwner: owner.Hex(), NewOwner: stranger.Hex()}, events[0].Decoded)

	require.ErrorIs(t, tok.Mint(owner, owner, big.NewInt(1)), ErrUnauthorized)
	require.NoError(t, tok.Mint(stranger, owner, big.NewInt(1)))

	require.NoError(t, tok.RenounceOwnership(stranger))
	assert.Equal(t, common.Address{}, tok.Owner())
	require.ErrorIs(t, tok.Mint(stranger, owner, big.NewInt(1)), ErrUnauthorized)
	require.ErrorIs(t, tok.Mint(common.Address{}, owner, big.NewInt(1)), ErrUnauthorized)
}

func TestTokenOwnershipReverts(t *testing.T) {
	tok := newTokenA(t)
	journal := tok.Journal()
	journal.Commit()

	err := journal.Atomic(func() error {
		if err := tok.TransferOwnership(owner, stranger); err != nil {
			return err
		}
		return tok.Mint(owner, stranger, big.NewInt(1))
	})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, owner, tok.Owner())
}

func TestTokenExportRestore(t *testing.T) {
	tok := newTokenA(t)
	require.NoError(t, tok.Transfer(owner, stranger, big.NewInt(5)))

	state := tok.Export()
	fresh, err := New(Config{Address: tokenA, Owner: stranger}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, fresh.Restore(state))
	assert.Equal(t, owner, fresh.Owner())
	assert.Equal(t, "5", fresh.BalanceOf(stranger).String())
	assert.Equal(t, "TOKA", fresh.Symbol())
}

func TestTokenSupplyOnlyGrowsThroughOwnerMint(t *testing.T) {
	tok := newTokenA(t)

	var surface interface{} = tok
	_, canBurn := surface.(interface {
		Burn(from common.Address, amount *big.Int) error
	})
	assert.False(t, canBurn, "token must not expose burn")
	_, canMintFreely := surface.(interface {
		Mint(to common.Address, amount *big.Int) error
	})
	assert.False(t, canMintFreely, "mint must take the caller")

	supply := tok.TotalSupply()
	require.NoError(t, tok.Transfer(owner, stranger, big.NewInt(10)))
	require.NoError(t, tok.Approve(stranger, owner, big.NewInt(4)))
	require.NoError(t, tok.TransferFrom(owner, stranger, owner, big.NewInt(4)))
	assert.Equal(t, "6", tok.BalanceOf(stranger).String())
	assert.Equal(t, "0", tok.Allowance(stranger, owner).String())
	assert.Equal(t, supply.String(), tok.TotalSupply().String())
}
