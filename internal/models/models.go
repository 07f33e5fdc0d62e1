package models

import "time"

// Role classifies a user within a family group.
type Role string

const (
	RoleGuardian  Role = "GUARDIAN"
	RoleDependent Role = "DEPENDENT"
)

// TransactionStatus tracks a transaction through its approval lifecycle.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusRejected TransactionStatus = "REJECTED"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Age          int       `json:"age"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	Verified     bool      `json:"verified"`
	Role         Role      `json:"role"`
	DependentIDs []string  `json:"-"`
	CreatedAt    time.Time `json:"createdTimestamp"`
	UpdatedAt    time.Time `json:"updatedTimestamp"`
}

// Account holds a user's funds together with the guardian-configured controls.
// Limit fields are nil until a guardian sets them; zero is a valid limit.
// Restriction times are wall-clock values in "HH:mm" form, empty until set.
type Account struct {
	ID               string    `json:"id"`
	UserID           string    `json:"-"`
	Balance          float64   `json:"balance"`
	SpendingLimit    *float64  `json:"spendingLimit,omitempty"`
	MaxDaily         *float64  `json:"maxDaily,omitempty"`
	MaxWeekly        *float64  `json:"maxWeekly,omitempty"`
	MaxMonthly       *float64  `json:"maxMonthly,omitempty"`
	RestrictionStart string    `json:"restrictionStart,omitempty"`
	RestrictionEnd   string    `json:"restrictionEnd,omitempty"`
	CreatedAt        time.Time `json:"createdTimestamp"`
	UpdatedAt        time.Time `json:"updatedTimestamp"`
}

type Transaction struct {
	ID        string            `json:"id"`
	AccountID string            `json:"-"`
	FromName  string            `json:"from"`
	ToName    string            `json:"to"`
	Amount    float64           `json:"amount"`
	Status    TransactionStatus `json:"status"`
	Category  string            `json:"category,omitempty"`
	CreatedAt time.Time         `json:"createdTimestamp"`
}
