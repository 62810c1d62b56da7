package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/domain"
)

const transactionColumns = `id, type, status, amount, currency, description,
	created_at, updated_at, completed_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, type, status, amount, currency, description,
			created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		txn.ID, txn.Type, txn.Status, txn.Amount, txn.Currency, txn.Description,
		txn.CreatedAt, txn.UpdatedAt, txn.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) MarkCompleted(ctx context.Context, tx *sql.Tx, id uuid.UUID, completedAt time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET status = $1, completed_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4`,
		domain.TransactionStatusCompleted, completedAt, id, domain.TransactionStatusPending,
	)
	if err != nil {
		return fmt.Errorf("MarkCompleted: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkCompleted: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("MarkCompleted: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.Type, &t.Status, &t.Amount, &t.Currency, &t.Description,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
