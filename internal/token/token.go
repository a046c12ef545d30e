package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"simpleSwap/internal/ledger"
	"simpleSwap/internal/model"
)

var (
	ErrUnauthorized = errors.New("caller is not the owner")
	ErrInvalidOwner = errors.New("invalid owner")
)

// DefaultInitialSupply is 10^18 whole tokens at 18 decimals.
var DefaultInitialSupply = new(big.Int).Exp(big.NewInt(10), big.NewInt(36), nil)

// Config describes a collaborator token.
type Config struct {
	Address       common.Address
	Name          string
	Symbol        string
	Decimals      uint8
	Owner         common.Address
	Recipient     common.Address
	InitialSupply *big.Int
}

// Token is an ERC20 token whose owner may mint new supply. Supply only
// grows through Mint; there is no burn.
type Token struct {
	erc20 *ledger.Ledger
	owner common.Address
}

// New creates the token and mints the initial supply to the recipient.
func New(cfg Config, journal *ledger.Journal, events *ledger.EventLog) (*Token, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("token %s: %w", cfg.Symbol, ErrInvalidOwner)
	}
	t := &Token{
		erc20: ledger.New(ledger.Config{
			Address:  cfg.Address,
			Name:     cfg.Name,
			Symbol:   cfg.Symbol,
			Decimals: cfg.Decimals,
		}, journal, events),
		owner: cfg.Owner,
	}
	if cfg.InitialSupply != nil && cfg.InitialSupply.Sign() > 0 {
		recipient := cfg.Recipient
		if recipient == (common.Address{}) {
			recipient = cfg.Owner
		}
		if err := t.erc20.Mint(recipient, cfg.InitialSupply); err != nil {
			return nil, fmt.Errorf("token %s: initial mint: %w", cfg.Symbol, err)
		}
	}
	return t, nil
}

func (t *Token) Address() common.Address { return t.erc20.Address() }
func (t *Token) Name() string            { return t.erc20.Name() }
func (t *Token) Symbol() string          { return t.erc20.Symbol() }
func (t *Token) Decimals() uint8         { return t.erc20.Decimals() }
func (t *Token) TotalSupply() *big.Int   { return t.erc20.TotalSupply() }

func (t *Token) BalanceOf(account common.Address) *big.Int {
	return t.erc20.BalanceOf(account)
}

func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	return t.erc20.Allowance(owner, spender)
}

// Transfer moves amount from one account to another.
func (t *Token) Transfer(from, to common.Address, amount *big.Int) error {
	return t.erc20.Transfer(from, to, amount)
}

// Approve lets spender move up to amount of owner's tokens.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) error {
	return t.erc20.Approve(owner, spender, amount)
}

// TransferFrom moves amount from one account to another using spender's allowance.
func (t *Token) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	return t.erc20.TransferFrom(spender, from, to, amount)
}

// Journal returns the journal the token records into.
func (t *Token) Journal() *ledger.Journal { return t.erc20.Journal() }

// Events returns the event log the token emits into.
func (t *Token) Events() *ledger.EventLog { return t.erc20.Events() }

// Owner returns the account allowed to mint.
func (t *Token) Owner() common.Address { return t.owner }

// Mint creates amount tokens for to. Only the owner may call it.
func (t *Token) Mint(caller, to common.Address, amount *big.Int) error {
	if err := t.checkOwner(caller); err != nil {
		return err
	}
	return t.erc20.Mint(to, amount)
}

// TransferOwnership hands the mint right to newOwner.
func (t *Token) TransferOwnership(caller, newOwner common.Address) error {
	if err := t.checkOwner(caller); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return ErrInvalidOwner
	}
	t.setOwner(newOwner)
	return nil
}

// RenounceOwnership leaves the token without an owner. No one can mint afterwards.
func (t *Token) RenounceOwnership(caller common.Address) error {
	if err := t.checkOwner(caller); err != nil {
		return err
	}
	t.setOwner(common.Address{})
	return nil
}

func (t *Token) checkOwner(caller common.Address) error {
	if t.owner == (common.Address{}) || caller != t.owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	return nil
}

func (t *Token) setOwner(newOwner common.Address) {
	prev := t.owner
	t.owner = newOwner
	t.Journal().Append(func() { t.owner = prev })
	decoded := model.OwnershipTransferredEventData{
		PreviousOwner: prev.Hex(),
		NewOwner:      newOwner.Hex(),
	}
	t.Events().Emit(model.TypedEvent{
		Address:   t.Address().Hex(),
		EventName: model.EventOwnershipTransferred,
		Decoded:   decoded,
	})
}

// Export returns the token ledger and its owner.
func (t *Token) Export() model.TokenState {
	return model.TokenState{
		Owner:  t.owner.Hex(),
		Ledger: t.erc20.Export(),
	}
}

// Restore replaces the token contents with state.
func (t *Token) Restore(state model.TokenState) error {
	if !common.IsHexAddress(state.Owner) {
		return fmt.Errorf("%w: owner %q", ledger.ErrInvalidState, state.Owner)
	}
	if err := t.erc20.Restore(state.Ledger); err != nil {
		return err
	}
	t.owner = common.HexToAddress(state.Owner)
	return nil
}
