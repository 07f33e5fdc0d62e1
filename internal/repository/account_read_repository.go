package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/generationsbank/guardian-bank/internal/models"
	"github.com/generationsbank/guardian-bank/internal/redisstore"
)

const accountViewTTL = 5 * time.Minute

// AccountReadRepository serves the account projection (balance, limits,
// restriction window, owning user) keyed by the owning user's ID. Redis is
// tried first; misses fall back to a PostgreSQL join and warm the cache.
type AccountReadRepository struct {
	db    *sql.DB
	cache *redisstore.ProjectionCache[models.AccountView]
}

func NewAccountReadRepository(db *sql.DB, redisClient *redis.Client) *AccountReadRepository {
	return &AccountReadRepository{
		db:    db,
		cache: redisstore.NewProjectionCache[models.AccountView](redisClient, "account:view:", accountViewTTL, nil),
	}
}

// GetByUserID returns the account projection for a user, resolving the user
// and their account in one query. Either miss is ErrNotFound.
func (r *AccountReadRepository) GetByUserID(ctx context.Context, userID string) (*models.AccountView, error) {
	if view, ok := r.cache.Get(ctx, userID); ok {
		return view, nil
	}

	query := `
		SELECT a.id, a.balance, a.max_daily, a.max_weekly, a.max_monthly, a.spending_limit,
			   a.restriction_start, a.restriction_end,
			   u.id, u.email, u.username, u.age, u.address, u.phone, u.verified, u.role
		FROM users u
		JOIN accounts a ON a.user_id = u.id
		WHERE u.id = $1
	`
	var view models.AccountView
	var daily, weekly, monthly, spending sql.NullFloat64
	var restrictionStart, restrictionEnd sql.NullString
	var role string

	err := r.db.QueryRow(query, userID).Scan(
		&view.ID, &view.Balance, &daily, &weekly, &monthly, &spending,
		&restrictionStart, &restrictionEnd,
		&view.User.ID, &view.User.Email, &view.User.Username, &view.User.Age,
		&view.User.Address, &view.User.Phone, &view.User.Verified, &role,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account view: %w", err)
	}
	view.MaxDaily = floatPtr(daily)
	view.MaxWeekly = floatPtr(weekly)
	view.MaxMonthly = floatPtr(monthly)
	view.SpendingLimit = floatPtr(spending)
	view.RestrictionStart = restrictionStart.String
	view.RestrictionEnd = restrictionEnd.String
	view.User.Role = models.Role(role)

	r.cache.Put(ctx, userID, &view)
	return &view, nil
}

// Invalidate drops the cached projection for a user. Called by the command
// service after any mutation that changes what the projection would show.
func (r *AccountReadRepository) Invalidate(ctx context.Context, userID string) {
	r.cache.Invalidate(ctx, userID)
}
