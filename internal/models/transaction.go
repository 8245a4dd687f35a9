package models

import "time"

// Transaction is a token movement or purchase record.
type Transaction struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"userId,omitempty"`
	Type      string    `json:"type"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Operator  string    `json:"operator,omitempty"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	TxHash    string    `json:"txHash,omitempty"`
	Chain     string    `json:"chain"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transaction statuses.
const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
)

// TransactionFilter narrows a transaction listing. Zero values match everything.
type TransactionFilter struct {
	UserID    string
	Chain     string
	Limit     int
	Ascending bool // oldest first; default is newest first
}
