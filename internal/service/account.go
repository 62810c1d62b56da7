package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/domain"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/logging"
)

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
}

type entryRepo interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) ([]domain.LedgerEntry, error)
}

type AccountService struct {
	accounts accountRepo
	entries  entryRepo
}

func NewAccountService(accounts accountRepo, entries entryRepo) *AccountService {
	return &AccountService{accounts: accounts, entries: entries}
}

// AccountDetails pairs an account with its balance derived from the
// ledger. Balances are never stored; the entry log is the source of truth.
type AccountDetails struct {
	Account domain.Account
	Balance int64
}

// CreateAccount opens a user account. Owner ids are opaque to this service
// and uniqueness of accounts per owner is the caller's concern. System
// accounts cannot be created here: they exist only through the engine's
// find-or-create path, which is what guarantees one per currency.
func (s *AccountService) CreateAccount(ctx context.Context, ownerID uuid.UUID, accountType domain.AccountType, currency domain.Currency) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	if !currency.IsValid() {
		return nil, fmt.Errorf("CreateAccount: %w", domain.ErrInvalidCurrency)
	}
	if accountType != domain.AccountTypeUser {
		return nil, fmt.Errorf("CreateAccount: %q: %w", accountType, domain.ErrInvalidAccountType)
	}

	account := &domain.Account{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		AccountType: domain.AccountTypeUser,
		Currency:    currency,
		Status:      domain.AccountStatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	log.Info("account created",
		"account_id", account.ID,
		"owner_id", ownerID,
		"currency", currency,
	)

	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID uuid.UUID) (*AccountDetails, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}

	entries, err := s.entries.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}

	return &AccountDetails{
		Account: *account,
		Balance: domain.Balance(entries),
	}, nil
}

// GetLedger returns the account's entries ascending by creation time.
func (s *AccountService) GetLedger(ctx context.Context, accountID uuid.UUID) ([]domain.LedgerEntry, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, fmt.Errorf("GetLedger: %w", err)
	}

	entries, err := s.entries.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetLedger: %w", err)
	}
	return entries, nil
}
