package repository

import (
	"database/sql"
	"fmt"

	"github.com/generationsbank/guardian-bank/internal/models"
)

// TransactionRepository persists transactions in PostgreSQL.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Save inserts the transaction or overwrites its status when the ID already
// exists (approval decisions rewrite the same row).
func (r *TransactionRepository) Save(tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, from_name, to_name, amount, status, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status
	`
	_, err := r.db.Exec(query,
		tx.ID, tx.AccountID, tx.FromName, tx.ToName,
		tx.Amount, string(tx.Status), nullString(tx.Category), tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) FindByID(id string) (*models.Transaction, error) {
	query := `
		SELECT id, account_id, from_name, to_name, amount, status, category, created_at
		FROM transactions
		WHERE id = $1
	`
	tx, err := scanTransaction(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// FindByAccountID returns the account's transactions oldest first, preserving
// the order they were appended in.
func (r *TransactionRepository) FindByAccountID(accountID string) ([]models.Transaction, error) {
	query := `
		SELECT id, account_id, from_name, to_name, amount, status, category, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var status string
	var category sql.NullString
	if err := row.Scan(
		&tx.ID, &tx.AccountID, &tx.FromName, &tx.ToName,
		&tx.Amount, &status, &category, &tx.CreatedAt,
	); err != nil {
		return nil, err
	}
	tx.Status = models.TransactionStatus(status)
	tx.Category = category.String
	return &tx, nil
}
