package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/domain"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/logging"
)

type TransferRequest struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        int64
	Currency      domain.Currency
	Description   string
}

func (r TransferRequest) validate() error {
	if r.FromAccountID == r.ToAccountID {
		return fmt.Errorf("validate: %w", domain.ErrSelfTransfer)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("validate: %w", domain.ErrInvalidAmount)
	}
	if !r.Currency.IsValid() {
		return fmt.Errorf("validate: %w", domain.ErrInvalidCurrency)
	}
	return nil
}

// Transfer debits the source account and credits the destination. Both
// account rows are locked in ascending id order before the source balance
// is read, which rules out both overdraft races and the deadlock two
// opposite-direction transfers between the same pair would otherwise risk.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	if err := s.resolveTransferAccounts(ctx, req); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Transfer: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, req.FromAccountID, req.ToAccountID)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	from, to := locked[req.FromAccountID], locked[req.ToAccountID]

	if err := verifyAccountActive(from, "source"); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if err := verifyAccountActive(to, "destination"); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if from.Currency != req.Currency || to.Currency != req.Currency {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrCurrencyMismatch)
	}

	balance, err := s.balanceOf(ctx, tx, from.ID)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if req.Amount > balance {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrInsufficientBalance)
	}

	now := time.Now().UTC()
	txn, err := s.newPendingTransaction(ctx, tx, domain.TransactionTypeTransfer, req.Amount, req.Currency, req.Description, now)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	if err := s.writeEntryPair(ctx, tx, txn, from.ID, to.ID); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	if err := s.completeTransaction(ctx, tx, txn, now); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Transfer: commit: %w", err)
	}

	log.Info("transfer completed",
		"transaction_id", txn.ID,
		"from_account_id", from.ID,
		"to_account_id", to.ID,
		"amount", req.Amount,
		"currency", req.Currency,
	)

	return txn, nil
}

// resolveTransferAccounts batch-loads both accounts before the locking
// transaction starts, so a request naming a missing account fails fast
// without taking any row locks. Existence and currency are re-checked on
// the locked rows inside the transaction.
func (s *Service) resolveTransferAccounts(ctx context.Context, req TransferRequest) error {
	accounts, err := s.accounts.GetManyByIDs(ctx, []uuid.UUID{req.FromAccountID, req.ToAccountID})
	if err != nil {
		return fmt.Errorf("resolveTransferAccounts: %w", err)
	}

	found := make(map[uuid.UUID]*domain.Account, len(accounts))
	for i := range accounts {
		found[accounts[i].ID] = &accounts[i]
	}
	for _, id := range []uuid.UUID{req.FromAccountID, req.ToAccountID} {
		if _, ok := found[id]; !ok {
			return fmt.Errorf("resolveTransferAccounts: %s: %w", id, domain.ErrAccountNotFound)
		}
	}

	return nil
}
