// Package ledger implements the three transaction protocols of the
// double-entry engine: deposit, withdrawal, and transfer. Each protocol
// runs as a single database transaction; the involved account rows are
// locked in a fixed global order before any balance is read, so a
// read-check-write sequence can never race with another writer on the
// same account.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/domain"
)

type accountRepo interface {
	GetManyByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	GetSystemByCurrency(ctx context.Context, tx *sql.Tx, currency domain.Currency) (*domain.Account, error)
	InsertSystemAccount(ctx context.Context, tx *sql.Tx, account *domain.Account) error
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error
	MarkCompleted(ctx context.Context, tx *sql.Tx, id uuid.UUID, completedAt time.Time) error
}

type entryRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	GetByAccountIDTx(ctx context.Context, tx *sql.Tx, accountID uuid.UUID) ([]domain.LedgerEntry, error)
}

type Service struct {
	accounts     accountRepo
	transactions transactionRepo
	entries      entryRepo
	db           *sql.DB
}

func NewService(accounts accountRepo, transactions transactionRepo, entries entryRepo, db *sql.DB) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		entries:      entries,
		db:           db,
	}
}

func verifyAccountActive(acct *domain.Account, role string) error {
	if acct.Status == domain.AccountStatusFrozen {
		return fmt.Errorf("%s: %w", role, domain.ErrAccountFrozen)
	}
	if acct.Status != domain.AccountStatusActive {
		return fmt.Errorf("%s: %w", role, domain.ErrAccountClosed)
	}
	return nil
}

// balanceOf derives the account's balance from its entries as seen by the
// open transaction. Callers must hold the account's row lock.
func (s *Service) balanceOf(ctx context.Context, tx *sql.Tx, accountID uuid.UUID) (int64, error) {
	entries, err := s.entries.GetByAccountIDTx(ctx, tx, accountID)
	if err != nil {
		return 0, fmt.Errorf("balanceOf: %w", err)
	}
	return domain.Balance(entries), nil
}

// newPendingTransaction builds and persists the transaction row in pending
// status. It is the first durable write of every protocol run.
func (s *Service) newPendingTransaction(ctx context.Context, tx *sql.Tx, txnType domain.TransactionType, amount int64, currency domain.Currency, description string, now time.Time) (*domain.Transaction, error) {
	txn := &domain.Transaction{
		ID:          uuid.New(),
		Type:        txnType,
		Status:      domain.TransactionStatusPending,
		Amount:      amount,
		Currency:    currency,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("newPendingTransaction: %w", err)
	}
	return txn, nil
}

// writeEntryPair writes the balanced debit/credit pair for a transaction.
func (s *Service) writeEntryPair(ctx context.Context, tx *sql.Tx, txn *domain.Transaction, debitAccountID, creditAccountID uuid.UUID) error {
	debit := &domain.LedgerEntry{
		ID:            uuid.New(),
		TransactionID: txn.ID,
		AccountID:     debitAccountID,
		EntryType:     domain.EntryTypeDebit,
		Amount:        txn.Amount,
		CreatedAt:     txn.CreatedAt,
	}
	if err := s.entries.Create(ctx, tx, debit); err != nil {
		return fmt.Errorf("writeEntryPair: debit: %w", err)
	}

	credit := &domain.LedgerEntry{
		ID:            uuid.New(),
		TransactionID: txn.ID,
		AccountID:     creditAccountID,
		EntryType:     domain.EntryTypeCredit,
		Amount:        txn.Amount,
		CreatedAt:     txn.CreatedAt,
	}
	if err := s.entries.Create(ctx, tx, credit); err != nil {
		return fmt.Errorf("writeEntryPair: credit: %w", err)
	}

	return nil
}

func (s *Service) completeTransaction(ctx context.Context, tx *sql.Tx, txn *domain.Transaction, now time.Time) error {
	if err := s.transactions.MarkCompleted(ctx, tx, txn.ID, now); err != nil {
		return fmt.Errorf("completeTransaction: %w", err)
	}
	txn.Status = domain.TransactionStatusCompleted
	txn.UpdatedAt = now
	txn.CompletedAt = &now
	return nil
}

// lockAccountsInOrder acquires FOR UPDATE locks on the given accounts in
// ascending id order, so two transfers moving money in opposite directions
// between the same pair of accounts cannot deadlock.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepo, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range sorted {
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = acct
	}
	return result, nil
}
