package events

import "time"

// Event types
const (
	UserRegistered      = "user.registered"
	UserVerified        = "user.verified"
	DependentLinked     = "dependent.linked"
	TransactionApproved = "transaction.approved"
	TransactionRejected = "transaction.rejected"
	BalanceUpdated      = "balance.updated"
)

// LedgerEventsStream carries every account and transaction event. Consumers
// (statement generation, fraud screening) run out of process.
const LedgerEventsStream = "ledger.events"

// Event is the envelope written to the stream.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type UserRegisteredEvent struct {
	UserID    string `json:"userId"`
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type UserVerifiedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type DependentLinkedEvent struct {
	GuardianID  string `json:"guardianId"`
	DependentID string `json:"dependentId"`
}

type TransactionDecidedEvent struct {
	TransactionID string  `json:"transactionId"`
	AccountID     string  `json:"accountId"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
}

type BalanceUpdatedEvent struct {
	AccountID  string  `json:"accountId"`
	NewBalance float64 `json:"newBalance"`
	Change     float64 `json:"change"`
}
