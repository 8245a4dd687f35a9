package crypto

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewID returns a random UUID string for reports, chat messages and users.
func NewID() string {
	return uuid.NewString()
}

// NewSortableID returns a ULID. ULIDs from one process sort in creation order,
// which the ledger journal relies on.
func NewSortableID() string {
	return ulid.Make().String()
}
