package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/holiman/uint256"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/crypto"
)

// EventKind names a ledger state change.
type EventKind string

const (
	KindMint     EventKind = "mint"
	KindBurn     EventKind = "burn"
	KindTransfer EventKind = "transfer"
	KindApproval EventKind = "approval"
	KindPause    EventKind = "pause"
	KindUnpause  EventKind = "unpause"
)

func (k EventKind) valid() bool {
	switch k {
	case KindMint, KindBurn, KindTransfer, KindApproval, KindPause, KindUnpause:
		return true
	}
	return false
}

// Event is one applied ledger operation.
//
// For transfers made through an allowance, Operator is the spender. For
// approvals From is the owner and To the spender. Pause toggles record the
// caller in From.
type Event struct {
	Seq      uint64
	ID       string
	Kind     EventKind
	From     Address
	To       Address
	Operator Address
	Amount   *uint256.Int
	Time     time.Time
}

type eventJSON struct {
	Seq      uint64    `json:"seq"`
	ID       string    `json:"id"`
	Kind     EventKind `json:"kind"`
	From     Address   `json:"from,omitempty"`
	To       Address   `json:"to,omitempty"`
	Operator Address   `json:"operator,omitempty"`
	Amount   string    `json:"amount"`
	Time     time.Time `json:"timestamp"`
}

// MarshalJSON renders Amount as a base-unit decimal string.
func (e Event) MarshalJSON() ([]byte, error) {
	amount := "0"
	if e.Amount != nil {
		amount = e.Amount.Dec()
	}
	return json.Marshal(eventJSON{
		Seq: e.Seq, ID: e.ID, Kind: e.Kind, From: e.From, To: e.To,
		Operator: e.Operator, Amount: amount, Time: e.Time,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount, err := ParseAmount(raw.Amount)
	if err != nil {
		return err
	}
	*e = Event{
		Seq: raw.Seq, ID: raw.ID, Kind: raw.Kind, From: raw.From, To: raw.To,
		Operator: raw.Operator, Amount: amount, Time: raw.Time,
	}
	return nil
}

// Hash is the Keccak-256 of the canonical event encoding, hex with 0x prefix.
// Seq and ID are excluded so the hash only depends on what happened and when.
func (e Event) Hash() string {
	amount := "0"
	if e.Amount != nil {
		amount = e.Amount.Dec()
	}
	canonical := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		e.Kind, e.From, e.To, e.Operator, amount, strconv.FormatInt(e.Time.UnixNano(), 10))
	return fmt.Sprintf("0x%x", crypto.Keccak256([]byte(canonical)))
}
