package swap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"simpleSwap/internal/ledger"
	"simpleSwap/internal/model"
)

// Share token identity.
const (
	ShareName     = "Liquidity"
	ShareSymbol   = "LIQ"
	ShareDecimals = 18
)

// Token is the collaborator ledger interface consumed by the pool.
type Token interface {
	Address() common.Address
	Decimals() uint8
	BalanceOf(account common.Address) *big.Int
	Transfer(from, to common.Address, amount *big.Int) error
	TransferFrom(spender, from, to common.Address, amount *big.Int) error
}

// Clock reports the current transaction time in unix seconds.
type Clock interface {
	Now() uint64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() uint64

func (f ClockFunc) Now() uint64 { return f() }

// Config wires a pool to its pair and to the shared journal and event log.
type Config struct {
	Address common.Address
	Token0  Token
	Token1  Token
	Journal *ledger.Journal
	Events  *ledger.EventLog
	Clock   Clock
}

// Pool is a constant-product pool for one fixed token pair. Its liquidity
// shares are an ERC20 ledger living at the pool address. A Pool is not safe
// for concurrent use.
type Pool struct {
	address  common.Address
	token0   Token
	token1   Token
	reserve0 *big.Int
	reserve1 *big.Int
	shares   *ledger.Ledger
	journal  *ledger.Journal
	events   *ledger.EventLog
	clock    Clock
}

// New creates an empty pool.
func New(cfg Config) (*Pool, error) {
	if cfg.Token0 == nil || cfg.Token1 == nil {
		return nil, fmt.Errorf("%w: both tokens are required", ErrInvalidPair)
	}
	if cfg.Token0.Address() == cfg.Token1.Address() {
		return nil, fmt.Errorf("%w: identical tokens %s", ErrInvalidPair, cfg.Token0.Address().Hex())
	}
	if cfg.Journal == nil {
		cfg.Journal = ledger.NewJournal()
	}
	if cfg.Events == nil {
		cfg.Events = ledger.NewEventLog(cfg.Journal)
	}
	if cfg.Clock == nil {
		cfg.Clock = ClockFunc(func() uint64 { return 0 })
	}
	return &Pool{
		address:  cfg.Address,
		token0:   cfg.Token0,
		token1:   cfg.Token1,
		reserve0: new(big.Int),
		reserve1: new(big.Int),
		shares: ledger.New(ledger.Config{
			Address:  cfg.Address,
			Name:     ShareName,
			Symbol:   ShareSymbol,
			Decimals: ShareDecimals,
		}, cfg.Journal, cfg.Events),
		journal: cfg.Journal,
		events:  cfg.Events,
		clock:   cfg.Clock,
	}, nil
}

func (p *Pool) Address() common.Address { return p.address }
func (p *Pool) Token0() common.Address  { return p.token0.Address() }
func (p *Pool) Token1() common.Address  { return p.token1.Address() }

// Reserves returns copies of the tracked reserves in pair order.
func (p *Pool) Reserves() (*big.Int, *big.Int) {
	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1)
}

// Share token surface.

func (p *Pool) Name() string          { return p.shares.Name() }
func (p *Pool) Symbol() string        { return p.shares.Symbol() }
func (p *Pool) Decimals() uint8       { return p.shares.Decimals() }
func (p *Pool) TotalSupply() *big.Int { return p.shares.TotalSupply() }
func (p *Pool) BalanceOf(account common.Address) *big.Int {
	return p.shares.BalanceOf(account)
}

func (p *Pool) Allowance(owner, spender common.Address) *big.Int {
	return p.shares.Allowance(owner, spender)
}

// Transfer moves shares from caller to to.
func (p *Pool) Transfer(caller, to common.Address, amount *big.Int) error {
	return p.shares.Transfer(caller, to, amount)
}

// Approve lets spender move up to amount of caller's shares.
func (p *Pool) Approve(caller, spender common.Address, amount *big.Int) error {
	return p.shares.Approve(caller, spender, amount)
}

// TransferFrom moves shares from one holder to another using caller's allowance.
func (p *Pool) TransferFrom(caller, from, to common.Address, amount *big.Int) error {
	return p.shares.TransferFrom(caller, from, to, amount)
}

// pair is a view of the pool in the caller's token order.
type pair struct {
	flipped  bool
	tokenA   Token
	tokenB   Token
	reserveA *big.Int
	reserveB *big.Int
}

func (p *Pool) orient(tokenA, tokenB common.Address) (pair, error) {
	if tokenA == tokenB {
		return pair{}, fmt.Errorf("%w: identical tokens %s", ErrInvalidPair, tokenA.Hex())
	}
	t0, t1 := p.token0.Address(), p.token1.Address()
	switch {
	case tokenA == t0 && tokenB == t1:
		return pair{tokenA: p.token0, tokenB: p.token1, reserveA: p.reserve0, reserveB: p.reserve1}, nil
	case tokenA == t1 && tokenB == t0:
		return pair{flipped: true, tokenA: p.token1, tokenB: p.token0, reserveA: p.reserve1, reserveB: p.reserve0}, nil
	default:
		return pair{}, fmt.Errorf("%w: %s/%s", ErrInvalidPair, tokenA.Hex(), tokenB.Hex())
	}
}

// setReserves stores new reserves given in the caller's token order.
func (p *Pool) setReserves(pr pair, reserveA, reserveB *big.Int) {
	if pr.flipped {
		reserveA, reserveB = reserveB, reserveA
	}
	prev0, prev1 := p.reserve0, p.reserve1
	p.reserve0, p.reserve1 = reserveA, reserveB
	p.journal.Append(func() {
		p.reserve0, p.reserve1 = prev0, prev1
	})
}

func (p *Pool) checkDeadline(deadline uint64) error {
	if now := p.clock.Now(); now > deadline {
		return fmt.Errorf("%w: now %d, deadline %d", ErrExpired, now, deadline)
	}
	return nil
}

func (p *Pool) emit(name string, decoded interface{}) {
	p.events.Emit(model.TypedEvent{
		Address:   p.address.Hex(),
		EventName: name,
		Decoded:   decoded,
	})
}

func checkAmounts(values ...*big.Int) error {
	for _, v := range values {
		if v == nil || v.Sign() < 0 || v.Cmp(math.MaxBig256) > 0 {
			return fmt.Errorf("%w: %v", ledger.ErrInvalidAmount, v)
		}
	}
	return nil
}
