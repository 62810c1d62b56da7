package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/domain"
)

const accountColumns = `id, owner_id, account_type, currency, status, created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetManyByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1)`, pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("GetManyByIDs: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("GetManyByIDs: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetManyByIDs: rows: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, owner_id, account_type, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.OwnerID, account.AccountType, account.Currency,
		account.Status, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetSystemByCurrency(ctx context.Context, tx *sql.Tx, currency domain.Currency) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		WHERE account_type = $1 AND currency = $2`,
		domain.AccountTypeSystem, currency,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetSystemByCurrency: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetSystemByCurrency: %w", err)
	}
	return a, nil
}

// InsertSystemAccount inserts the per-currency system account unless one
// already exists. The partial unique index on (currency) where
// account_type = 'system' arbitrates concurrent first use: the loser's
// insert becomes a no-op instead of aborting the surrounding transaction.
func (r *AccountRepository) InsertSystemAccount(ctx context.Context, tx *sql.Tx, account *domain.Account) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (id, owner_id, account_type, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (currency) WHERE account_type = 'system' DO NOTHING`,
		account.ID, account.OwnerID, account.AccountType, account.Currency,
		account.Status, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("InsertSystemAccount: %w", err)
	}
	return nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.ID, &a.OwnerID, &a.AccountType, &a.Currency, &a.Status, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
