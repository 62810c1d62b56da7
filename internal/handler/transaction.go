package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/domain"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/logging"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/service/ledger"
)

type ledgerEngine interface {
	Deposit(ctx context.Context, req ledger.DepositRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req ledger.WithdrawalRequest) (*domain.Transaction, error)
	Transfer(ctx context.Context, req ledger.TransferRequest) (*domain.Transaction, error)
}

type TransactionHandler struct {
	engine ledgerEngine
}

func NewTransactionHandler(engine ledgerEngine) *TransactionHandler {
	return &TransactionHandler{engine: engine}
}

type createTransactionRequest struct {
	AccountID   string `json:"account_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

func (r createTransactionRequest) Validate() []FieldError {
	var errs []FieldError
	if r.AccountID == "" {
		errs = append(errs, FieldError{Field: "account_id", Message: "required"})
	} else if _, err := uuid.Parse(r.AccountID); err != nil {
		errs = append(errs, FieldError{Field: "account_id", Message: "must be a valid UUID"})
	}
	errs = append(errs, validateAmountCurrency(r.Amount, r.Currency)...)
	return errs
}

type createTransferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Description   string `json:"description"`
}

func (r createTransferRequest) Validate() []FieldError {
	var errs []FieldError
	if r.FromAccountID == "" {
		errs = append(errs, FieldError{Field: "from_account_id", Message: "required"})
	} else if _, err := uuid.Parse(r.FromAccountID); err != nil {
		errs = append(errs, FieldError{Field: "from_account_id", Message: "must be a valid UUID"})
	}
	if r.ToAccountID == "" {
		errs = append(errs, FieldError{Field: "to_account_id", Message: "required"})
	} else if _, err := uuid.Parse(r.ToAccountID); err != nil {
		errs = append(errs, FieldError{Field: "to_account_id", Message: "must be a valid UUID"})
	}
	errs = append(errs, validateAmountCurrency(r.Amount, r.Currency)...)
	return errs
}

func validateAmountCurrency(amount int64, currency string) []FieldError {
	var errs []FieldError
	if amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	} else if !domain.Currency(currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be USD, EUR, or GBP"})
	}
	return errs
}

type transactionDTO struct {
	ID            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"`
	AmountDisplay string     `json:"amount_display"`
	Currency      string     `json:"currency"`
	Description   string     `json:"description"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:            t.ID,
		Type:          string(t.Type),
		Status:        string(t.Status),
		Amount:        t.Amount,
		AmountDisplay: displayAmount(t.Amount, t.Currency),
		Currency:      string(t.Currency),
		Description:   t.Description,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
	}
}

func (h *TransactionHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txn, err := h.engine.Deposit(r.Context(), ledger.DepositRequest{
		AccountID:   uuid.MustParse(req.AccountID),
		Amount:      req.Amount,
		Currency:    domain.Currency(req.Currency),
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create deposit", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(txn))
}

func (h *TransactionHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txn, err := h.engine.Withdraw(r.Context(), ledger.WithdrawalRequest{
		AccountID:   uuid.MustParse(req.AccountID),
		Amount:      req.Amount,
		Currency:    domain.Currency(req.Currency),
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create withdrawal", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(txn))
}

func (h *TransactionHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txn, err := h.engine.Transfer(r.Context(), ledger.TransferRequest{
		FromAccountID: uuid.MustParse(req.FromAccountID),
		ToAccountID:   uuid.MustParse(req.ToAccountID),
		Amount:        req.Amount,
		Currency:      domain.Currency(req.Currency),
		Description:   req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create transfer", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(txn))
}
