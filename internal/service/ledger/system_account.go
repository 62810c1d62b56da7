package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/domain"
)

// getOrCreateSystemAccount resolves the per-currency counterparty account
// inside the caller's open transaction, creating it on first use. Two
// concurrent first uses of a currency are arbitrated by the partial unique
// index on system accounts: the losing insert is a no-op and the re-read
// returns the winner, so the race never surfaces to callers and at most
// one system account exists per currency.
func (s *Service) getOrCreateSystemAccount(ctx context.Context, tx *sql.Tx, currency domain.Currency) (*domain.Account, error) {
	acct, err := s.accounts.GetSystemByCurrency(ctx, tx, currency)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("getOrCreateSystemAccount: %w", err)
	}

	candidate := &domain.Account{
		ID:          uuid.New(),
		OwnerID:     domain.SystemOwnerID,
		AccountType: domain.AccountTypeSystem,
		Currency:    currency,
		Status:      domain.AccountStatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.accounts.InsertSystemAccount(ctx, tx, candidate); err != nil {
		return nil, fmt.Errorf("getOrCreateSystemAccount: %w", err)
	}

	acct, err = s.accounts.GetSystemByCurrency(ctx, tx, currency)
	if err != nil {
		return nil, fmt.Errorf("getOrCreateSystemAccount: re-read: %w", err)
	}
	return acct, nil
}
