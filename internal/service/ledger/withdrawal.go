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

type WithdrawalRequest struct {
	AccountID   uuid.UUID
	Amount      int64
	Currency    domain.Currency
	Description string
}

func (r WithdrawalRequest) validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("validate: %w", domain.ErrInvalidAmount)
	}
	if !r.Currency.IsValid() {
		return fmt.Errorf("validate: %w", domain.ErrInvalidCurrency)
	}
	return nil
}

// Withdraw debits the account and credits the system counterparty. The
// balance check and the entry inserts happen under the account's row lock
// in one transaction, so two concurrent withdrawals cannot both pass the
// check against a stale balance and jointly overdraw the account.
func (s *Service) Withdraw(ctx context.Context, req WithdrawalRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: begin tx: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accounts.GetForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Withdraw: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	if err := verifyAccountActive(account, "account"); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	if account.Currency != req.Currency {
		return nil, fmt.Errorf("Withdraw: %w", domain.ErrCurrencyMismatch)
	}

	balance, err := s.balanceOf(ctx, tx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	if req.Amount > balance {
		return nil, fmt.Errorf("Withdraw: %w", domain.ErrInsufficientBalance)
	}

	system, err := s.getOrCreateSystemAccount(ctx, tx, req.Currency)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	now := time.Now().UTC()
	txn, err := s.newPendingTransaction(ctx, tx, domain.TransactionTypeWithdrawal, req.Amount, req.Currency, req.Description, now)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	if err := s.writeEntryPair(ctx, tx, txn, account.ID, system.ID); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	if err := s.completeTransaction(ctx, tx, txn, now); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Withdraw: commit: %w", err)
	}

	log.Info("withdrawal completed",
		"transaction_id", txn.ID,
		"account_id", account.ID,
		"amount", req.Amount,
		"currency", req.Currency,
	)

	return txn, nil
}
