package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidCurrency     = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrInvalidAccountType  = &AppError{http.StatusBadRequest, "INVALID_ACCOUNT_TYPE", "Invalid account type"}
	ErrAccountNotFound     = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrCurrencyMismatch    = &AppError{http.StatusUnprocessableEntity, "CURRENCY_MISMATCH", "Currency mismatch"}
	ErrSelfTransfer        = &AppError{http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED", "Cannot transfer to the same account"}
	ErrInsufficientBalance = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "Insufficient balance"}
	ErrAccountFrozen       = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_FROZEN", "Account is frozen"}
	ErrAccountClosed       = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_CLOSED", "Account is closed"}
)
