package domain

import (
	"time"

	"github.com/google/uuid"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}

// Exponent is the number of minor-unit digits for the currency.
// Amounts are stored as int64 minor units; the exponent only matters
// when rendering them for display.
func (c Currency) Exponent() int32 {
	return 2
}

type AccountType string

const (
	AccountTypeUser   AccountType = "user"
	AccountTypeSystem AccountType = "system"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusFrozen AccountStatus = "frozen"
	AccountStatusClosed AccountStatus = "closed"
)

// SystemOwnerID owns every per-currency system counterparty account.
var SystemOwnerID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type Account struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	AccountType AccountType
	Currency    Currency
	Status      AccountStatus
	CreatedAt   time.Time
}
