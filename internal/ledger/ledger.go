// Package ledger implements the UPX capped-supply token: balances, allowances,
// owner-gated minting and an owner-gated pause switch for transfers.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/crypto"
)

const (
	Name     = "UnityPay Token"
	Symbol   = "UPX"
	Decimals = 18
)

var (
	unit = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals))

	// MaxSupply is 1,000,000,000 UPX in base units.
	MaxSupply = new(uint256.Int).Mul(uint256.NewInt(1_000_000_000), unit)

	maxAllowance = new(uint256.Int).SetAllOne()
)

// RecentEvents is how many events a ledger keeps in memory for Events.
const RecentEvents = 1000

// Journal durably records events before they are applied.
type Journal interface {
	Append(ctx context.Context, ev Event) error
	Load(ctx context.Context) ([]Event, error)
}

// Info is a snapshot of the token's global state.
type Info struct {
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	Decimals       int     `json:"decimals"`
	TotalSupply    string  `json:"totalSupply"`
	MaxSupply      string  `json:"maxSupply"`
	MintableSupply string  `json:"mintableSupply"`
	Owner          Address `json:"owner"`
	Paused         bool    `json:"paused"`
	Holders        int     `json:"holders"`
	LastSeq        uint64  `json:"lastSeq"`
}

// Ledger is safe for concurrent use. Every operation runs under one mutex,
// appends its event to the journal and only then mutates state.
type Ledger struct {
	mu          sync.Mutex
	owner       Address
	paused      bool
	totalSupply *uint256.Int
	balances    map[Address]*uint256.Int
	allowances  map[Address]map[Address]*uint256.Int
	seq         uint64
	events      []Event
	retain      int
	journal     Journal
	now         func() time.Time
}

// New creates an empty ledger owned by owner. journal may be nil.
func New(owner Address, journal Journal) (*Ledger, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner must be set", ErrInvalidAddress)
	}
	return &Ledger{
		owner:       owner,
		totalSupply: new(uint256.Int),
		balances:    make(map[Address]*uint256.Int),
		allowances:  make(map[Address]map[Address]*uint256.Int),
		retain:      RecentEvents,
		journal:     journal,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Mint creates amount tokens for to. Owner only; ignores pause.
func (l *Ledger) Mint(ctx context.Context, caller, to Address, amount *uint256.Int) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	g := CanMint(MintContext{Caller: caller, Owner: l.owner, To: to, Amount: amount, TotalSupply: l.totalSupply})
	if err := g.Error(); err != nil {
		return Event{}, err
	}
	return l.commit(ctx, Event{Kind: KindMint, From: caller, To: to, Amount: amount})
}

// Burn destroys amount tokens from the caller's own balance. Ignores pause.
func (l *Ledger) Burn(ctx context.Context, caller Address, amount *uint256.Int) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	g := CanBurn(BurnContext{Caller: caller, Amount: amount, Balance: l.balanceOf(caller)})
	if err := g.Error(); err != nil {
		return Event{}, err
	}
	return l.commit(ctx, Event{Kind: KindBurn, From: caller, Amount: amount})
}

// Transfer moves amount from the caller to to.
func (l *Ledger) Transfer(ctx context.Context, caller, to Address, amount *uint256.Int) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	g := CanTransfer(TransferContext{From: caller, To: to, Amount: amount, Balance: l.balanceOf(caller), Paused: l.paused})
	if err := g.Error(); err != nil {
		return Event{}, err
	}
	return l.commit(ctx, Event{Kind: KindTransfer, From: caller, To: to, Amount: amount})
}

// TransferFrom moves amount from from to to, spending the caller's allowance.
// An allowance of 2^256-1 is treated as unlimited and never decreases.
func (l *Ledger) TransferFrom(ctx context.Context, caller, from, to Address, amount *uint256.Int) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.paused {
		return Event{}, CanTransfer(TransferContext{Paused: true}).Error()
	}
	g := CanSpendAllowance(AllowanceContext{Owner: from, Spender: caller, Amount: amount, Allowance: l.allowance(from, caller)})
	if err := g.Error(); err != nil {
		return Event{}, err
	}
	g = CanTransfer(TransferContext{From: from, To: to, Amount: amount, Balance: l.balanceOf(from)})
	if err := g.Error(); err != nil {
		return Event{}, err
	}
	return l.commit(ctx, Event{Kind: KindTransfer, From: from, To: to, Operator: caller, Amount: amount})
}

// Approve sets the spender's allowance over the caller's balance.
func (l *Ledger) Approve(ctx context.Context, caller, spender Address, amount *uint256.Int) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := CanApprove(ApproveContext{Owner: caller, Spender: spender}).Error(); err != nil {
		return Event{}, err
	}
	return l.commit(ctx, Event{Kind: KindApproval, From: caller, To: spender, Amount: amount})
}

// Pause blocks transfers. Owner only.
func (l *Ledger) Pause(ctx context.Context, caller Address) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := CanPause(PauseContext{Caller: caller, Owner: l.owner, Paused: l.paused}).Error(); err != nil {
		return Event{}, err
	}
	return l.commit(ctx, Event{Kind: KindPause, From: caller, Amount: new(uint256.Int)})
}

// Unpause re-enables transfers. Owner only.
func (l *Ledger) Unpause(ctx context.Context, caller Address) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := CanUnpause(PauseContext{Caller: caller, Owner: l.owner, Paused: l.paused}).Error(); err != nil {
		return Event{}, err
	}
	return l.commit(ctx, Event{Kind: KindUnpause, From: caller, Amount: new(uint256.Int)})
}

// commit journals ev and applies it. Must hold l.mu.
func (l *Ledger) commit(ctx context.Context, ev Event) (Event, error) {
	ev.Seq = l.seq + 1
	ev.ID = crypto.NewSortableID()
	ev.Time = l.now()
	ev.Amount = ev.Amount.Clone()

	if l.journal != nil {
		if err := l.journal.Append(ctx, ev); err != nil {
			return Event{}, fmt.Errorf("journal event %d: %w", ev.Seq, err)
		}
	}
	l.apply(ev)
	return ev, nil
}

// apply mutates state for an already validated event. Must hold l.mu.
func (l *Ledger) apply(ev Event) {
	switch ev.Kind {
	case KindMint:
		l.totalSupply.Add(l.totalSupply, ev.Amount)
		l.credit(ev.To, ev.Amount)
	case KindBurn:
		l.totalSupply.Sub(l.totalSupply, ev.Amount)
		l.debit(ev.From, ev.Amount)
	case KindTransfer:
		if ev.Operator != "" {
			current := l.allowance(ev.From, ev.Operator)
			if !current.Eq(maxAllowance) {
				l.setAllowance(ev.From, ev.Operator, new(uint256.Int).Sub(current, ev.Amount))
			}
		}
		l.debit(ev.From, ev.Amount)
		l.credit(ev.To, ev.Amount)
	case KindApproval:
		l.setAllowance(ev.From, ev.To, ev.Amount)
	case KindPause:
		l.paused = true
	case KindUnpause:
		l.paused = false
	}
	l.seq = ev.Seq
	l.events = append(l.events, ev)
	if len(l.events) >= 2*l.retain {
		n := copy(l.events, l.events[len(l.events)-l.retain:])
		clear(l.events[n:])
		l.events = l.events[:n]
	}
}

func (l *Ledger) credit(a Address, amount *uint256.Int) {
	b := l.balanceOf(a)
	l.balances[a] = new(uint256.Int).Add(b, amount)
}

func (l *Ledger) debit(a Address, amount *uint256.Int) {
	b := new(uint256.Int).Sub(l.balanceOf(a), amount)
	if b.IsZero() {
		delete(l.balances, a)
		return
	}
	l.balances[a] = b
}

func (l *Ledger) setAllowance(owner, spender Address, amount *uint256.Int) {
	m, ok := l.allowances[owner]
	if !ok {
		m = make(map[Address]*uint256.Int)
		l.allowances[owner] = m
	}
	m[spender] = amount.Clone()
}

func (l *Ledger) balanceOf(a Address) *uint256.Int {
	if b, ok := l.balances[a]; ok {
		return b
	}
	return new(uint256.Int)
}

func (l *Ledger) allowance(owner, spender Address) *uint256.Int {
	if a, ok := l.allowances[owner][spender]; ok {
		return a
	}
	return new(uint256.Int)
}

// Restore replays journaled events into an empty ledger. Each event is
// re-checked against the value guards; authorization is not, since the
// owner may have been rotated through configuration since the event was
// recorded.
func (l *Ledger) Restore(events []Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seq != 0 {
		return fmt.Errorf("restore into non-empty ledger (seq %d)", l.seq)
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	for i, ev := range sorted {
		if want := uint64(i + 1); ev.Seq != want {
			return fmt.Errorf("journal gap: expected seq %d, got %d", want, ev.Seq)
		}
		if err := l.validateReplay(ev); err != nil {
			return fmt.Errorf("replay event %d (%s): %w", ev.Seq, ev.Kind, err)
		}
		l.apply(ev)
	}
	return l.checkInvariants()
}

func (l *Ledger) validateReplay(ev Event) error {
	if !ev.Kind.valid() {
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if ev.Amount == nil {
		return fmt.Errorf("%w: missing amount", ErrInvalidAmount)
	}
	switch ev.Kind {
	case KindMint:
		return CanMint(MintContext{Caller: l.owner, Owner: l.owner, To: ev.To, Amount: ev.Amount, TotalSupply: l.totalSupply}).Error()
	case KindBurn:
		return CanBurn(BurnContext{Caller: ev.From, Amount: ev.Amount, Balance: l.balanceOf(ev.From)}).Error()
	case KindTransfer:
		if ev.Operator != "" {
			g := CanSpendAllowance(AllowanceContext{Owner: ev.From, Spender: ev.Operator, Amount: ev.Amount, Allowance: l.allowance(ev.From, ev.Operator)})
			if err := g.Error(); err != nil {
				return err
			}
		}
		return CanTransfer(TransferContext{From: ev.From, To: ev.To, Amount: ev.Amount, Balance: l.balanceOf(ev.From), Paused: l.paused}).Error()
	case KindApproval:
		return CanApprove(ApproveContext{Owner: ev.From, Spender: ev.To}).Error()
	case KindPause:
		if l.paused {
			return ErrAlreadyPaused
		}
	case KindUnpause:
		if !l.paused {
			return ErrNotPaused
		}
	}
	return nil
}

// checkInvariants verifies supply cap and conservation. Must hold l.mu.
func (l *Ledger) checkInvariants() error {
	if l.totalSupply.Gt(MaxSupply) {
		return fmt.Errorf("%w: total supply %s", ErrSupplyExceeded, l.totalSupply.Dec())
	}
	sum := new(uint256.Int)
	for _, b := range l.balances {
		sum.Add(sum, b)
	}
	if !sum.Eq(l.totalSupply) {
		return fmt.Errorf("balances sum %s does not match total supply %s", sum.Dec(), l.totalSupply.Dec())
	}
	return nil
}

// CheckInvariants reports a violated ledger invariant, if any.
func (l *Ledger) CheckInvariants() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.checkInvariants()
}

// TotalSupply returns the current supply in base units.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalSupply.Clone()
}

// MintableSupply returns MaxSupply - totalSupply.
func (l *Ledger) MintableSupply() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(uint256.Int).Sub(MaxSupply, l.totalSupply)
}

// BalanceOf returns the balance of a.
func (l *Ledger) BalanceOf(a Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceOf(a).Clone()
}

// Allowance returns how much spender may still move on owner's behalf.
func (l *Ledger) Allowance(owner, spender Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowance(owner, spender).Clone()
}

// Paused reports whether transfers are currently blocked.
func (l *Ledger) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// Owner returns the privileged address.
func (l *Ledger) Owner() Address {
	return l.owner
}

// Seq returns the sequence number of the last applied event.
func (l *Ledger) Seq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// Info returns a snapshot of the token's global state.
func (l *Ledger) Info() Info {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Info{
		Name:           Name,
		Symbol:         Symbol,
		Decimals:       Decimals,
		TotalSupply:    l.totalSupply.Dec(),
		MaxSupply:      MaxSupply.Dec(),
		MintableSupply: new(uint256.Int).Sub(MaxSupply, l.totalSupply).Dec(),
		Owner:          l.owner,
		Paused:         l.paused,
		Holders:        len(l.balances),
		LastSeq:        l.seq,
	}
}

// Events returns up to limit of the most recent events, newest first.
// Only the last RecentEvents are kept in memory; the journal has the rest.
// limit <= 0 returns all retained events.
func (l *Ledger) Events(limit int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.events
	if len(recent) > l.retain {
		recent = recent[len(recent)-l.retain:]
	}
	n := len(recent)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, recent[i])
	}
	return out
}
