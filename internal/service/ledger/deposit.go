package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/domain"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/logging"
)

type DepositRequest struct {
	AccountID   uuid.UUID
	Amount      int64
	Currency    domain.Currency
	Description string
}

func (r DepositRequest) validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("validate: %w", domain.ErrInvalidAmount)
	}
	if !r.Currency.IsValid() {
		return fmt.Errorf("validate: %w", domain.ErrInvalidCurrency)
	}
	return nil
}

// Deposit credits the target account and debits the system counterparty
// for the same currency. The system account's balance may go negative; it
// models net external cash flow and has no floor.
func (s *Service) Deposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Deposit: begin tx: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accounts.GetForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Deposit: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	if err := verifyAccountActive(account, "account"); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	if account.Currency != req.Currency {
		return nil, fmt.Errorf("Deposit: %w", domain.ErrCurrencyMismatch)
	}

	system, err := s.getOrCreateSystemAccount(ctx, tx, req.Currency)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	now := time.Now().UTC()
	txn, err := s.newPendingTransaction(ctx, tx, domain.TransactionTypeDeposit, req.Amount, req.Currency, req.Description, now)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	if err := s.writeEntryPair(ctx, tx, txn, system.ID, account.ID); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	if err := s.completeTransaction(ctx, tx, txn, now); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Deposit: commit: %w", err)
	}

	log.Info("deposit completed",
		"transaction_id", txn.ID,
		"account_id", account.ID,
		"amount", req.Amount,
		"currency", req.Currency,
	)

	return txn, nil
}
