package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

const (
	// Chain tags ledger rows in the transactions table.
	Chain    = "unitypay-ledger"
	Currency = Symbol
)

// TransactionStore is the subset of the data store the journal needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
}

// TransactionJournal persists ledger events as transaction rows.
type TransactionJournal struct {
	store TransactionStore
}

// NewTransactionJournal creates a journal backed by store.
func NewTransactionJournal(store TransactionStore) *TransactionJournal {
	return &TransactionJournal{store: store}
}

// Append writes ev as a completed transaction.
func (j *TransactionJournal) Append(ctx context.Context, ev Event) error {
	tx := ToTransaction(ev)
	return j.store.CreateTransaction(ctx, &tx)
}

// Load reads every ledger row back in order. Sequence numbers are assigned
// from the row order; ids are ULIDs so they sort in commit order.
func (j *TransactionJournal) Load(ctx context.Context) ([]Event, error) {
	rows, err := j.store.ListTransactions(ctx, models.TransactionFilter{Chain: Chain, Ascending: true})
	if err != nil {
		return nil, fmt.Errorf("load ledger journal: %w", err)
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].ID < rows[b].ID })

	events := make([]Event, 0, len(rows))
	for i, row := range rows {
		ev, err := FromTransaction(row)
		if err != nil {
			return nil, fmt.Errorf("decode journal row %s: %w", row.ID, err)
		}
		ev.Seq = uint64(i + 1)
		events = append(events, ev)
	}
	return events, nil
}

// ToTransaction maps an event onto the transactions table.
func ToTransaction(ev Event) models.Transaction {
	amount := "0"
	if ev.Amount != nil {
		amount = ev.Amount.Dec()
	}
	return models.Transaction{
		ID:        ev.ID,
		Type:      string(ev.Kind),
		From:      string(ev.From),
		To:        string(ev.To),
		Operator:  string(ev.Operator),
		Amount:    amount,
		Currency:  Currency,
		Status:    models.TxCompleted,
		TxHash:    ev.Hash(),
		Chain:     Chain,
		CreatedAt: ev.Time,
	}
}

// FromTransaction is the inverse of ToTransaction. Seq is left zero.
func FromTransaction(tx models.Transaction) (Event, error) {
	amount, err := ParseAmount(tx.Amount)
	if err != nil {
		return Event{}, err
	}
	kind := EventKind(tx.Type)
	if !kind.valid() {
		return Event{}, fmt.Errorf("unknown event kind %q", tx.Type)
	}
	return Event{
		ID:       tx.ID,
		Kind:     kind,
		From:     Address(tx.From),
		To:       Address(tx.To),
		Operator: Address(tx.Operator),
		Amount:   amount,
		Time:     tx.CreatedAt,
	}, nil
}

// MemoryJournal keeps events in process memory.
type MemoryJournal struct {
	mu     sync.Mutex
	events []Event
	// Fail, when set, is returned by Append.
	Fail error
}

// Append records ev unless Fail is set.
func (j *MemoryJournal) Append(_ context.Context, ev Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Fail != nil {
		return j.Fail
	}
	j.events = append(j.events, ev)
	return nil
}

// Load returns a copy of the recorded events.
func (j *MemoryJournal) Load(_ context.Context) ([]Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Event, len(j.events))
	copy(out, j.events)
	return out, nil
}

// Open loads the journal into a new ledger. When the journal is empty and
// genesis is non-zero, the owner mints genesis to itself.
func Open(ctx context.Context, owner Address, journal Journal, genesis *uint256.Int) (*Ledger, error) {
	l, err := New(owner, journal)
	if err != nil {
		return nil, err
	}
	if journal != nil {
		events, err := journal.Load(ctx)
		if err != nil {
			return nil, err
		}
		if len(events) > 0 {
			if err := l.Restore(events); err != nil {
				return nil, err
			}
			return l, nil
		}
	}
	if genesis != nil && !genesis.IsZero() {
		if _, err := l.Mint(ctx, owner, owner, genesis); err != nil {
			return nil, fmt.Errorf("mint genesis supply: %w", err)
		}
	}
	return l, nil
}
