package query

import (
	"context"
	"strings"
	"time"

	"github.com/generationsbank/guardian-bank/internal/cqrs"
	"github.com/generationsbank/guardian-bank/internal/models"
)

// UserReader is the identity store surface the query service reads through.
type UserReader interface {
	FindByID(id string) (*models.User, error)
}

// AccountReader resolves accounts for transaction listings.
type AccountReader interface {
	FindByID(id string) (*models.Account, error)
}

// TransactionReader lists an account's transactions in append order.
type TransactionReader interface {
	FindByAccountID(accountID string) ([]models.Transaction, error)
}

// AccountViewSource serves the cached account projection keyed by owner.
type AccountViewSource interface {
	GetByUserID(ctx context.Context, userID string) (*models.AccountView, error)
}

// GuardianQueryService serves the read side: dependent listings, filtered
// transaction histories, and account projections.
type GuardianQueryService struct {
	users        UserReader
	accounts     AccountReader
	transactions TransactionReader
	accountViews AccountViewSource
}

func NewGuardianQueryService(
	users UserReader,
	accounts AccountReader,
	transactions TransactionReader,
	accountViews AccountViewSource,
) *GuardianQueryService {
	return &GuardianQueryService{
		users:        users,
		accounts:     accounts,
		transactions: transactions,
		accountViews: accountViews,
	}
}

// ViewDependents returns the guardian's dependents in the order they were
// linked.
func (s *GuardianQueryService) ViewDependents(q cqrs.ViewDependentsQuery) ([]models.UserView, error) {
	guardian, err := s.users.FindByID(q.GuardianID)
	if err != nil {
		return nil, err
	}
	views := make([]models.UserView, 0, len(guardian.DependentIDs))
	for _, id := range guardian.DependentIDs {
		dependent, err := s.users.FindByID(id)
		if err != nil {
			return nil, err
		}
		views = append(views, userToView(dependent))
	}
	return views, nil
}

// ViewTransactions lists an account's transactions. The date window applies
// only when both bounds are supplied and is inclusive at calendar-day
// granularity; the category filter is case-insensitive and skipped when
// empty. Both filters compose.
func (s *GuardianQueryService) ViewTransactions(q cqrs.ViewTransactionsQuery) ([]models.TransactionView, error) {
	if _, err := s.accounts.FindByID(q.AccountID); err != nil {
		return nil, err
	}
	txs, err := s.transactions.FindByAccountID(q.AccountID)
	if err != nil {
		return nil, err
	}

	views := make([]models.TransactionView, 0, len(txs))
	for _, tx := range txs {
		if q.StartDate != nil && q.EndDate != nil {
			day := truncateToDay(tx.CreatedAt)
			if day.Before(truncateToDay(*q.StartDate)) || day.After(truncateToDay(*q.EndDate)) {
				continue
			}
		}
		if q.Category != "" && !strings.EqualFold(tx.Category, q.Category) {
			continue
		}
		views = append(views, models.TransactionView{
			ID:        tx.ID,
			From:      tx.FromName,
			To:        tx.ToName,
			Amount:    tx.Amount,
			Status:    tx.Status,
			CreatedAt: tx.CreatedAt,
		})
	}
	return views, nil
}

// GetAccountByUserID returns the account projection for a user: balance, the
// periodic limits, spending limit, restriction window, and the owning user.
func (s *GuardianQueryService) GetAccountByUserID(q cqrs.GetAccountQuery) (*models.AccountView, error) {
	return s.accountViews.GetByUserID(context.Background(), q.UserID)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func userToView(u *models.User) models.UserView {
	return models.UserView{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Age:      u.Age,
		Address:  u.Address,
		Phone:    u.Phone,
		Verified: u.Verified,
		Role:     u.Role,
	}
}
