package domain

import (
	"time"

	"github.com/google/uuid"
)

type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// LedgerEntry is one side of a transaction. Entries are append-only:
// once written they are never updated or deleted, so corrections must be
// modeled as new offsetting transactions.
type LedgerEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	EntryType     EntryType
	Amount        int64
	CreatedAt     time.Time
}
