package cqrs

import "time"

// ViewDependentsQuery lists the dependents linked to a guardian.
type ViewDependentsQuery struct {
	GuardianID string
}

// ViewTransactionsQuery lists an account's transactions. The date window is
// applied only when both bounds are present (inclusive, calendar-day
// granularity); Category filters case-insensitively when non-empty.
type ViewTransactionsQuery struct {
	AccountID string
	StartDate *time.Time
	EndDate   *time.Time
	Category  string
}

// GetAccountQuery fetches the account projection for a user.
type GetAccountQuery struct {
	UserID string
}
