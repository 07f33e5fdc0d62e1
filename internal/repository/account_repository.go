package repository

import (
	"database/sql"
	"fmt"

	"github.com/generationsbank/guardian-bank/internal/models"
)

// AccountRepository persists accounts in PostgreSQL, the source of truth for
// balances and guardian-configured controls.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Save inserts the account or overwrites its mutable columns when the ID
// already exists.
func (r *AccountRepository) Save(account *models.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, balance, spending_limit, max_daily, max_weekly, max_monthly,
			restriction_start, restriction_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET balance = EXCLUDED.balance, spending_limit = EXCLUDED.spending_limit,
			max_daily = EXCLUDED.max_daily, max_weekly = EXCLUDED.max_weekly,
			max_monthly = EXCLUDED.max_monthly,
			restriction_start = EXCLUDED.restriction_start,
			restriction_end = EXCLUDED.restriction_end,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(query,
		account.ID, account.UserID, account.Balance,
		nullFloat(account.SpendingLimit), nullFloat(account.MaxDaily),
		nullFloat(account.MaxWeekly), nullFloat(account.MaxMonthly),
		nullString(account.RestrictionStart), nullString(account.RestrictionEnd),
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByID(id string) (*models.Account, error) {
	return r.findOne(`WHERE id = $1`, id)
}

// FindByUserID resolves the one account owned by a user.
func (r *AccountRepository) FindByUserID(userID string) (*models.Account, error) {
	return r.findOne(`WHERE user_id = $1`, userID)
}

func (r *AccountRepository) findOne(where string, arg any) (*models.Account, error) {
	query := `
		SELECT id, user_id, balance, spending_limit, max_daily, max_weekly, max_monthly,
			   restriction_start, restriction_end, created_at, updated_at
		FROM accounts ` + where
	var account models.Account
	var spending, daily, weekly, monthly sql.NullFloat64
	var restrictionStart, restrictionEnd sql.NullString
	err := r.db.QueryRow(query, arg).Scan(
		&account.ID, &account.UserID, &account.Balance,
		&spending, &daily, &weekly, &monthly,
		&restrictionStart, &restrictionEnd,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	account.SpendingLimit = floatPtr(spending)
	account.MaxDaily = floatPtr(daily)
	account.MaxWeekly = floatPtr(weekly)
	account.MaxMonthly = floatPtr(monthly)
	account.RestrictionStart = restrictionStart.String
	account.RestrictionEnd = restrictionEnd.String
	return &account, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
