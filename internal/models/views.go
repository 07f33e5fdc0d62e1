package models

import "time"

// UserView is the read-optimised projection of a user.
// It never exposes PasswordHash.
type UserView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Age      int    `json:"age"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Verified bool   `json:"verified"`
	Role     Role   `json:"role"`
}

// AccountView is the projection returned for account lookups: balance,
// every configured limit, the restriction window, and the owning user.
type AccountView struct {
	ID               string   `json:"id"`
	Balance          float64  `json:"balance"`
	MaxDaily         *float64 `json:"maxDaily,omitempty"`
	MaxWeekly        *float64 `json:"maxWeekly,omitempty"`
	MaxMonthly       *float64 `json:"maxMonthly,omitempty"`
	SpendingLimit    *float64 `json:"spendingLimit,omitempty"`
	RestrictionStart string   `json:"restrictionStart,omitempty"`
	RestrictionEnd   string   `json:"restrictionEnd,omitempty"`
	User             UserView `json:"user"`
}

// TransactionView is the projection returned from transaction queries.
type TransactionView struct {
	ID        string            `json:"id"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	Amount    float64           `json:"amount"`
	Status    TransactionStatus `json:"status"`
	CreatedAt time.Time         `json:"createdTimestamp"`
}
