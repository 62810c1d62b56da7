package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction records a single balanced movement of money. It carries no
// account references itself; the two ledger entries written alongside it
// identify the debited and credited accounts.
type Transaction struct {
	ID          uuid.UUID
	Type        TransactionType
	Status      TransactionStatus
	Amount      int64
	Currency    Currency
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}
