package ledger

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"simpleSwap/internal/model"
)

// MaxAllowance is the allowance value that is never decremented by TransferFrom.
var MaxAllowance = math.MaxBig256

// Config describes a ledger's identity.
type Config struct {
	Address  common.Address
	Name     string
	Symbol   string
	Decimals uint8
}

// Ledger is a fungible-token ledger with ERC20 semantics. Every mutation is
// recorded in the shared journal and every notification goes to the shared
// event log, so callers can revert a group of changes across ledgers.
type Ledger struct {
	cfg         Config
	journal     *Journal
	events      *EventLog
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
}

// New creates an empty ledger. A nil journal or event log gets a private one.
func New(cfg Config, journal *Journal, events *EventLog) *Ledger {
	if journal == nil {
		journal = NewJournal()
	}
	if events == nil {
		events = NewEventLog(journal)
	}
	return &Ledger{
		cfg:         cfg,
		journal:     journal,
		events:      events,
		totalSupply: new(big.Int),
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (l *Ledger) Address() common.Address { return l.cfg.Address }
func (l *Ledger) Name() string            { return l.cfg.Name }
func (l *Ledger) Symbol() string          { return l.cfg.Symbol }
func (l *Ledger) Decimals() uint8         { return l.cfg.Decimals }

// Journal returns the journal the ledger records into.
func (l *Ledger) Journal() *Journal { return l.journal }

// Events returns the event log the ledger emits into.
func (l *Ledger) Events() *EventLog { return l.events }

// TotalSupply returns a copy of the total supply.
func (l *Ledger) TotalSupply() *big.Int {
	return new(big.Int).Set(l.totalSupply)
}

// BalanceOf returns a copy of the balance held by account.
func (l *Ledger) BalanceOf(account common.Address) *big.Int {
	if bal, ok := l.balances[account]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Allowance returns a copy of the amount spender may move on behalf of owner.
func (l *Ledger) Allowance(owner, spender common.Address) *big.Int {
	if byOwner, ok := l.allowances[owner]; ok {
		if value, ok := byOwner[spender]; ok {
			return new(big.Int).Set(value)
		}
	}
	return new(big.Int)
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if from == (common.Address{}) {
		return ErrInvalidSender
	}
	if to == (common.Address{}) {
		return ErrInvalidReceiver
	}
	return l.journal.Atomic(func() error {
		return l.update(from, to, amount)
	})
}

// Approve sets the allowance of spender over owner's tokens.
func (l *Ledger) Approve(owner, spender common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return l.journal.Atomic(func() error {
		return l.approve(owner, spender, amount, true)
	})
}

// TransferFrom moves amount from one account to another using spender's
// allowance. An allowance of MaxAllowance is left untouched.
func (l *Ledger) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return l.journal.Atomic(func() error {
		if err := l.spendAllowance(from, spender, amount); err != nil {
			return err
		}
		if from == (common.Address{}) {
			return ErrInvalidSender
		}
		if to == (common.Address{}) {
			return ErrInvalidReceiver
		}
		return l.update(from, to, amount)
	})
}

// Mint creates amount tokens for to.
func (l *Ledger) Mint(to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return ErrInvalidReceiver
	}
	return l.journal.Atomic(func() error {
		return l.update(common.Address{}, to, amount)
	})
}

// Burn destroys amount tokens held by from.
func (l *Ledger) Burn(from common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if from == (common.Address{}) {
		return ErrInvalidSender
	}
	return l.journal.Atomic(func() error {
		return l.update(from, common.Address{}, amount)
	})
}

// update moves value between accounts, minting when from is zero and
// burning when to is zero.
func (l *Ledger) update(from, to common.Address, value *big.Int) error {
	if from == (common.Address{}) {
		supply := new(big.Int).Add(l.totalSupply, value)
		if supply.Cmp(math.MaxBig256) > 0 {
			return ErrSupplyOverflow
		}
		l.setSupply(supply)
	} else {
		balance := l.BalanceOf(from)
		if balance.Cmp(value) < 0 {
			return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), balance, value)
		}
		l.setBalance(from, balance.Sub(balance, value))
	}

	if to == (common.Address{}) {
		l.setSupply(new(big.Int).Sub(l.totalSupply, value))
	} else {
		l.setBalance(to, new(big.Int).Add(l.BalanceOf(to), value))
	}

	l.emit(model.EventTransfer, model.TransferEventData{
		From:  from.Hex(),
		To:    to.Hex(),
		Value: value.String(),
	})
	return nil
}

func (l *Ledger) approve(owner, spender common.Address, value *big.Int, emit bool) error {
	if owner == (common.Address{}) {
		return ErrInvalidApprover
	}
	if spender == (common.Address{}) {
		return ErrInvalidSpender
	}
	l.setAllowance(owner, spender, new(big.Int).Set(value))
	if emit {
		l.emit(model.EventApproval, model.ApprovalEventData{
			Owner:   owner.Hex(),
			Spender: spender.Hex(),
			Value:   value.String(),
		})
	}
	return nil
}

func (l *Ledger) spendAllowance(owner, spender common.Address, value *big.Int) error {
	current := l.Allowance(owner, spender)
	if current.Cmp(MaxAllowance) == 0 {
		return nil
	}
	if current.Cmp(value) < 0 {
		return fmt.Errorf("%w: %s allows %s %s, needs %s", ErrInsufficientAllowance, owner.Hex(), spender.Hex(), current, value)
	}
	return l.approve(owner, spender, current.Sub(current, value), false)
}

func (l *Ledger) setSupply(value *big.Int) {
	prev := l.totalSupply
	l.totalSupply = value
	l.journal.Append(func() { l.totalSupply = prev })
}

func (l *Ledger) setBalance(account common.Address, value *big.Int) {
	prev, existed := l.balances[account]
	l.balances[account] = value
	l.journal.Append(func() {
		if existed {
			l.balances[account] = prev
		} else {
			delete(l.balances, account)
		}
	})
}

func (l *Ledger) setAllowance(owner, spender common.Address, value *big.Int) {
	byOwner, ok := l.allowances[owner]
	if !ok {
		byOwner = make(map[common.Address]*big.Int)
		l.allowances[owner] = byOwner
	}
	prev, existed := byOwner[spender]
	byOwner[spender] = value
	l.journal.Append(func() {
		if existed {
			byOwner[spender] = prev
		} else {
			delete(byOwner, spender)
		}
	})
}

func (l *Ledger) emit(name string, decoded interface{}) {
	l.events.Emit(model.TypedEvent{
		Address:   l.cfg.Address.Hex(),
		EventName: name,
		Decoded:   decoded,
	})
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 || amount.Cmp(math.MaxBig256) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return nil
}

// Export returns the serializable ledger state. Zero balances are omitted.
func (l *Ledger) Export() model.LedgerState {
	state := model.LedgerState{
		Address:     l.cfg.Address.Hex(),
		Name:        l.cfg.Name,
		Symbol:      l.cfg.Symbol,
		Decimals:    l.cfg.Decimals,
		TotalSupply: l.totalSupply.String(),
		Balances:    make(map[string]string, len(l.balances)),
	}
	for account, bal := range l.balances {
		if bal.Sign() == 0 {
			continue
		}
		state.Balances[account.Hex()] = bal.String()
	}
	for owner, byOwner := range l.allowances {
		for spender, value := range byOwner {
			if value.Sign() == 0 {
				continue
			}
			if state.Allowances == nil {
				state.Allowances = make(map[string]map[string]string)
			}
			if state.Allowances[owner.Hex()] == nil {
				state.Allowances[owner.Hex()] = make(map[string]string)
			}
			state.Allowances[owner.Hex()][spender.Hex()] = value.String()
		}
	}
	return state
}

// Restore replaces the ledger contents with state. The balances must sum to
// the total supply. Restore is not journaled.
func (l *Ledger) Restore(state model.LedgerState) error {
	supply, err := model.ParseAmount(state.TotalSupply)
	if err != nil {
		return fmt.Errorf("%w: total supply: %v", ErrInvalidState, err)
	}

	balances := make(map[common.Address]*big.Int, len(state.Balances))
	sum := new(big.Int)
	for _, key := range sortedKeys(state.Balances) {
		account, err := parseAddress(key)
		if err != nil {
			return err
		}
		bal, err := model.ParseAmount(state.Balances[key])
		if err != nil {
			return fmt.Errorf("%w: balance of %s: %v", ErrInvalidState, key, err)
		}
		balances[account] = bal
		sum.Add(sum, bal)
	}
	if sum.Cmp(supply) != 0 {
		return fmt.Errorf("%w: balances sum to %s, total supply is %s", ErrInvalidState, sum, supply)
	}

	allowances := make(map[common.Address]map[common.Address]*big.Int, len(state.Allowances))
	for ownerKey, bySpender := range state.Allowances {
		owner, err := parseAddress(ownerKey)
		if err != nil {
			return err
		}
		allowances[owner] = make(map[common.Address]*big.Int, len(bySpender))
		for spenderKey, raw := range bySpender {
			spender, err := parseAddress(spenderKey)
			if err != nil {
				return err
			}
			value, err := model.ParseAmount(raw)
			if err != nil {
				return fmt.Errorf("%w: allowance %s/%s: %v", ErrInvalidState, ownerKey, spenderKey, err)
			}
			allowances[owner][spender] = value
		}
	}

	if state.Name != "" {
		l.cfg.Name = state.Name
	}
	if state.Symbol != "" {
		l.cfg.Symbol = state.Symbol
	}
	l.totalSupply = supply
	l.balances = balances
	l.allowances = allowances
	return nil
}

func parseAddress(input string) (common.Address, error) {
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("%w: address %q", ErrInvalidState, input)
	}
	return common.HexToAddress(input), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
