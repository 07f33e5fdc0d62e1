package cqrs

// RegisterUserCommand creates a user together with their account.
// Role defaults to GUARDIAN when empty; InitialBalance is the decimal string
// supplied at registration, empty meaning a zero opening balance.
type RegisterUserCommand struct {
	Email          string
	Username       string
	Password       string
	Age            int
	Address        string
	Phone          string
	Role           string
	InitialBalance string
}

type TransferCommand struct {
	FromAccountID string
	ToAccountID   string
	Amount        float64
}

type AddDependentCommand struct {
	GuardianID  string
	DependentID string
}

type SetLimitCommand struct {
	AccountID string
	Limit     float64
}

type SetTimeRestrictionsCommand struct {
	AccountID string
	Start     string
	End       string
}

type ApproveTransactionCommand struct {
	TransactionID string
	Approve       bool
}

type VerifyUserCommand struct {
	Token string
}
