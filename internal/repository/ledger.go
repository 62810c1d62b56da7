package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/domain"
)

const ledgerColumns = `id, transaction_id, account_id, entry_type, amount, created_at`

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (
			id, transaction_id, account_id, entry_type, amount, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.TransactionID, entry.AccountID, entry.EntryType,
		entry.Amount, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE account_id = $1 ORDER BY created_at, id`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByAccountID: %w", err)
	}
	return collectEntries(rows, "GetByAccountID")
}

// GetByAccountIDTx reads an account's entries inside an open transaction.
// The engine uses it for balance checks after locking the account row, so
// the sum it feeds into domain.Balance cannot be invalidated by a
// concurrent writer before this transaction commits.
func (r *LedgerRepository) GetByAccountIDTx(ctx context.Context, tx *sql.Tx, accountID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE account_id = $1 ORDER BY created_at, id`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByAccountIDTx: %w", err)
	}
	return collectEntries(rows, "GetByAccountIDTx")
}

func (r *LedgerRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE transaction_id = $1 ORDER BY created_at, id`, transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByTransactionID: %w", err)
	}
	return collectEntries(rows, "GetByTransactionID")
}

func collectEntries(rows *sql.Rows, op string) ([]domain.LedgerEntry, error) {
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return entries, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(
		&e.ID, &e.TransactionID, &e.AccountID, &e.EntryType, &e.Amount, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
