package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrInvalidAccountType  = errors.New("invalid account type")
	ErrCurrencyMismatch    = errors.New("currency mismatch")
	ErrSelfTransfer        = errors.New("cannot transfer to same account")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountFrozen       = errors.New("account frozen")
	ErrAccountClosed       = errors.New("account closed")
)
