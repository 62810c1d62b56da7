package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/domain"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/logging"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/service"
)

type accountService interface {
	CreateAccount(ctx context.Context, ownerID uuid.UUID, accountType domain.AccountType, currency domain.Currency) (*domain.Account, error)
	GetAccount(ctx context.Context, accountID uuid.UUID) (*service.AccountDetails, error)
	GetLedger(ctx context.Context, accountID uuid.UUID) ([]domain.LedgerEntry, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type createAccountRequest struct {
	OwnerID     string `json:"owner_id"`
	AccountType string `json:"account_type"`
	Currency    string `json:"currency"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.OwnerID == "" {
		errs = append(errs, FieldError{Field: "owner_id", Message: "required"})
	} else if _, err := uuid.Parse(r.OwnerID); err != nil {
		errs = append(errs, FieldError{Field: "owner_id", Message: "must be a valid UUID"})
	}
	if r.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	} else if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be USD, EUR, or GBP"})
	}
	return errs
}

type accountDTO struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	AccountType string    `json:"account_type"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type accountDetailsDTO struct {
	accountDTO
	Balance        int64  `json:"balance"`
	BalanceDisplay string `json:"balance_display"`
}

type ledgerEntryDTO struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	AccountID     uuid.UUID `json:"account_id"`
	EntryType     string    `json:"entry_type"`
	Amount        int64     `json:"amount"`
	AmountDisplay string    `json:"amount_display"`
	CreatedAt     time.Time `json:"created_at"`
}

// displayAmount renders a minor-unit amount at the currency's scale,
// e.g. 12345 USD minor units as "123.45".
func displayAmount(amount int64, currency domain.Currency) string {
	return decimal.New(amount, -currency.Exponent()).StringFixed(currency.Exponent())
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:          a.ID,
		OwnerID:     a.OwnerID,
		AccountType: string(a.AccountType),
		Currency:    string(a.Currency),
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
	}
}

func toLedgerEntryDTO(e *domain.LedgerEntry, currency domain.Currency) ledgerEntryDTO {
	return ledgerEntryDTO{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		AccountID:     e.AccountID,
		EntryType:     string(e.EntryType),
		Amount:        e.Amount,
		AmountDisplay: displayAmount(e.Amount, currency),
		CreatedAt:     e.CreatedAt,
	}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	accountType := domain.AccountType(req.AccountType)
	if req.AccountType == "" {
		accountType = domain.AccountTypeUser
	}

	account, err := h.accounts.CreateAccount(r.Context(), uuid.MustParse(req.OwnerID), accountType, domain.Currency(req.Currency))
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	details, err := h.accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, accountDetailsDTO{
		accountDTO:     toAccountDTO(&details.Account),
		Balance:        details.Balance,
		BalanceDisplay: displayAmount(details.Balance, details.Account.Currency),
	})
}

func (h *AccountHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	details, err := h.accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get account", "error", err)
		RespondDomainError(w, err)
		return
	}

	entries, err := h.accounts.GetLedger(r.Context(), accountID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get ledger", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]ledgerEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = toLedgerEntryDTO(&entries[i], details.Account.Currency)
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func accountIDFromPath(r *http.Request) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}
