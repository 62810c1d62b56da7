package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/domain"
)

func SeedAccount(t *testing.T, db *sql.DB, ownerID uuid.UUID, currency string) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		AccountType: domain.AccountTypeUser,
		Currency:    domain.Currency(currency),
		Status:      domain.AccountStatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO accounts (id, owner_id, account_type, currency, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.OwnerID, a.AccountType, a.Currency, a.Status, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed account %s/%s: %v", ownerID, currency, err)
	}
	return a
}

func SeedFrozenAccount(t *testing.T, db *sql.DB, ownerID uuid.UUID, currency string) *domain.Account {
	t.Helper()

	a := SeedAccount(t, db, ownerID, currency)
	if _, err := db.Exec(`UPDATE accounts SET status = 'frozen' WHERE id = $1`, a.ID); err != nil {
		t.Fatalf("freeze account %s: %v", a.ID, err)
	}
	a.Status = domain.AccountStatusFrozen
	return a
}

func CountSystemAccounts(t *testing.T, db *sql.DB, currency string) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM accounts WHERE account_type = 'system' AND currency = $1`,
		currency,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count system accounts for %s: %v", currency, err)
	}
	return count
}

func CountLedgerEntries(t *testing.T, db *sql.DB, transactionID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM ledger_entries WHERE transaction_id = $1`, transactionID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for transaction %s: %v", transactionID, err)
	}
	return count
}

func CountTransactions(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return count
}

// DerivedBalance recomputes an account balance straight from the entry
// log, bypassing the service layer.
func DerivedBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(
		`SELECT COALESCE(SUM(CASE WHEN entry_type = 'credit' THEN amount ELSE -amount END), 0)
		 FROM ledger_entries WHERE account_id = $1`, accountID,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("derive balance for account %s: %v", accountID, err)
	}
	return balance
}
