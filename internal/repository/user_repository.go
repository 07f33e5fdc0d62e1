package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/generationsbank/guardian-bank/internal/models"
)

// UserRepository persists users in PostgreSQL. Dependent links are stored as
// an ordered text array on the guardian row, so the guardian owns the
// collection and no cyclic references exist between rows.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Save inserts the user or, when the ID already exists, overwrites the
// mutable columns. Unique violations on email surface as ErrDuplicateEmail
// and on username as ErrDuplicateUsername.
func (r *UserRepository) Save(user *models.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, age, address, phone, verified, role, dependent_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, username = EXCLUDED.username,
			password_hash = EXCLUDED.password_hash, age = EXCLUDED.age,
			address = EXCLUDED.address, phone = EXCLUDED.phone,
			verified = EXCLUDED.verified, role = EXCLUDED.role,
			dependent_ids = EXCLUDED.dependent_ids, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.Age,
		user.Address, user.Phone, user.Verified, string(user.Role),
		pq.Array(user.DependentIDs), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "username") {
				return models.ErrDuplicateUsername
			}
			return models.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(id string) (*models.User, error) {
	return r.findOne(`WHERE id = $1`, id)
}

// FindByEmail matches case-insensitively; emails are stored lowercased but
// lookups normalise again so callers don't have to.
func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	return r.findOne(`WHERE email = $1`, strings.ToLower(email))
}

func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	return r.findOne(`WHERE username = $1`, username)
}

func (r *UserRepository) findOne(where string, arg any) (*models.User, error) {
	query := `
		SELECT id, email, username, password_hash, age, address, phone, verified, role, dependent_ids, created_at, updated_at
		FROM users ` + where
	var user models.User
	var role string
	err := r.db.QueryRow(query, arg).Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Age,
		&user.Address, &user.Phone, &user.Verified, &role,
		pq.Array(&user.DependentIDs), &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Role = models.Role(role)
	return &user, nil
}
