package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/generationsbank/guardian-bank/internal/cqrs"
	"github.com/generationsbank/guardian-bank/internal/events"
	"github.com/generationsbank/guardian-bank/internal/models"
	"github.com/generationsbank/guardian-bank/internal/notify"
	"github.com/generationsbank/guardian-bank/internal/utils"
)

// UserStore is the identity store surface the command service writes through.
type UserStore interface {
	FindByID(id string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	Save(user *models.User) error
}

// AccountStore is the ledger store surface for accounts.
type AccountStore interface {
	FindByID(id string) (*models.Account, error)
	FindByUserID(userID string) (*models.Account, error)
	Save(account *models.Account) error
}

// TransactionStore is the ledger store surface for transactions.
type TransactionStore interface {
	FindByID(id string) (*models.Transaction, error)
	Save(tx *models.Transaction) error
}

// TokenIssuer issues and verifies the tokens carried in verification messages.
type TokenIssuer interface {
	Issue(email string) (string, error)
	Verify(token string) (string, error)
}

// PasswordHasher turns a plaintext password into its stored one-way hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// ViewInvalidator drops cached account projections after a mutation.
type ViewInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// EventPublisher appends ledger events after successful writes.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data any)
}

// GuardianCommandService enforces every write-side business rule: account
// creation, transfers, dependent management, limits, restrictions, and
// transaction approval. It assumes the stores provide per-call isolation and
// takes no locks of its own.
type GuardianCommandService struct {
	users        UserStore
	accounts     AccountStore
	transactions TransactionStore
	tokens       TokenIssuer
	notifier     notify.Notifier
	hasher       PasswordHasher
	views        ViewInvalidator
	publisher    EventPublisher
	logger       *log.Logger
}

func NewGuardianCommandService(
	users UserStore,
	accounts AccountStore,
	transactions TransactionStore,
	tokens TokenIssuer,
	notifier notify.Notifier,
	hasher PasswordHasher,
	views ViewInvalidator,
	publisher EventPublisher,
	logger *log.Logger,
) *GuardianCommandService {
	if logger == nil {
		logger = log.Default()
	}
	return &GuardianCommandService{
		users:        users,
		accounts:     accounts,
		transactions: transactions,
		tokens:       tokens,
		notifier:     notifier,
		hasher:       hasher,
		views:        views,
		publisher:    publisher,
		logger:       logger,
	}
}

// RegisterUser creates a user and their account in one registration. The
// verification message is dispatched before anything is persisted, so a
// delivery failure leaves no records behind. The account is only created
// after the user save succeeds; a failed account save is not rolled back.
func (s *GuardianCommandService) RegisterUser(cmd cqrs.RegisterUserCommand) (*models.User, *models.Account, error) {
	required := []struct {
		field string
		value string
	}{
		{"email", cmd.Email},
		{"username", cmd.Username},
		{"password", cmd.Password},
		{"address", cmd.Address},
		{"phone", cmd.Phone},
	}
	for _, f := range required {
		if f.value == "" {
			return nil, nil, &models.ValidationError{Field: f.field}
		}
	}

	role := models.RoleGuardian
	if cmd.Role != "" {
		role = models.Role(cmd.Role)
		if role != models.RoleGuardian && role != models.RoleDependent {
			return nil, nil, &models.ValidationError{Field: "role"}
		}
	}

	balance := 0.0
	if cmd.InitialBalance != "" {
		parsed, err := strconv.ParseFloat(cmd.InitialBalance, 64)
		if err != nil {
			return nil, nil, &models.ValidationError{Field: "initialBalance"}
		}
		if parsed < 0 {
			return nil, nil, models.ErrInvalidAmount
		}
		balance = parsed
	}

	email := strings.ToLower(cmd.Email)
	if _, err := s.users.FindByEmail(email); err == nil {
		return nil, nil, models.ErrDuplicateEmail
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, nil, err
	}
	if _, err := s.users.FindByUsername(cmd.Username); err == nil {
		return nil, nil, models.ErrDuplicateUsername
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, nil, err
	}

	verificationToken, err := s.tokens.Issue(email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue verification token: %w", err)
	}
	if err := s.notifier.SendVerification(email, verificationToken, cmd.Username); err != nil {
		return nil, nil, models.ErrNotification
	}

	passwordHash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           utils.GenerateID("usr"),
		Email:        email,
		Username:     cmd.Username,
		PasswordHash: passwordHash,
		Age:          cmd.Age,
		Address:      cmd.Address,
		Phone:        cmd.Phone,
		Verified:     false,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Save(user); err != nil {
		return nil, nil, err
	}

	account := &models.Account{
		ID:        utils.GenerateID("acc"),
		UserID:    user.ID,
		Balance:   balance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accounts.Save(account); err != nil {
		// The user record is left in place: callers see the error and the
		// inconsistency is resolved out of band.
		return nil, nil, err
	}

	s.publish(events.UserRegistered, events.UserRegisteredEvent{
		UserID:    user.ID,
		AccountID: account.ID,
		Email:     user.Email,
		Role:      string(user.Role),
	})
	return user, account, nil
}

// VerifyUser marks the account owner identified by a verification token as
// verified.
func (s *GuardianCommandService) VerifyUser(cmd cqrs.VerifyUserCommand) (*models.User, error) {
	email, err := s.tokens.Verify(cmd.Token)
	if err != nil {
		return nil, models.ErrTokenInvalid
	}
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	user.Verified = true
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Save(user); err != nil {
		return nil, err
	}
	s.invalidate(user.ID)
	s.publish(events.UserVerified, events.UserVerifiedEvent{UserID: user.ID, Email: user.Email})
	return user, nil
}

// Transfer moves amount from one account to another and records an APPROVED
// transaction under the sender's account. Only guardians may transfer; a
// non-guardian sender is rejected with ErrInvalidRole rather than silently
// ignored. A transfer into the originating account still records a
// transaction but leaves the balance unchanged.
func (s *GuardianCommandService) Transfer(cmd cqrs.TransferCommand) (*models.Transaction, error) {
	sender, err := s.accounts.FindByID(cmd.FromAccountID)
	if err != nil {
		return nil, err
	}
	// Same-account transfers work on the single loaded row so the debit and
	// credit net to zero instead of compounding through two copies.
	receiver := sender
	if cmd.ToAccountID != cmd.FromAccountID {
		receiver, err = s.accounts.FindByID(cmd.ToAccountID)
		if err != nil {
			return nil, err
		}
	}
	if cmd.Amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if sender.Balance < cmd.Amount {
		return nil, models.ErrInsufficientBalance
	}

	senderUser, err := s.users.FindByID(sender.UserID)
	if err != nil {
		return nil, err
	}
	if senderUser.Role != models.RoleGuardian {
		return nil, models.ErrInvalidRole
	}
	receiverUser := senderUser
	if receiver != sender {
		receiverUser, err = s.users.FindByID(receiver.UserID)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	sender.Balance -= cmd.Amount
	sender.UpdatedAt = now
	receiver.Balance += cmd.Amount
	receiver.UpdatedAt = now
	if err := s.accounts.Save(sender); err != nil {
		return nil, err
	}
	if receiver != sender {
		if err := s.accounts.Save(receiver); err != nil {
			return nil, err
		}
	}

	tx := &models.Transaction{
		ID:        utils.GenerateID("tan"),
		AccountID: sender.ID,
		FromName:  senderUser.Username,
		ToName:    receiverUser.Username,
		Amount:    cmd.Amount,
		Status:    models.StatusApproved,
		CreatedAt: now,
	}
	if err := s.transactions.Save(tx); err != nil {
		return nil, err
	}

	s.invalidate(sender.UserID)
	s.publish(events.TransactionApproved, events.TransactionDecidedEvent{
		TransactionID: tx.ID,
		AccountID:     sender.ID,
		Amount:        tx.Amount,
		Status:        string(tx.Status),
	})
	if receiver != sender {
		s.invalidate(receiver.UserID)
		s.publish(events.BalanceUpdated, events.BalanceUpdatedEvent{
			AccountID:  sender.ID,
			NewBalance: sender.Balance,
			Change:     -cmd.Amount,
		})
		s.publish(events.BalanceUpdated, events.BalanceUpdatedEvent{
			AccountID:  receiver.ID,
			NewBalance: receiver.Balance,
			Change:     cmd.Amount,
		})
	}
	return tx, nil
}

// AddDependent links a dependent to a guardian. Linking the same pair twice
// fails with ErrAlreadyLinked.
func (s *GuardianCommandService) AddDependent(cmd cqrs.AddDependentCommand) error {
	guardian, err := s.users.FindByID(cmd.GuardianID)
	if err != nil {
		return err
	}
	dependent, err := s.users.FindByID(cmd.DependentID)
	if err != nil {
		return err
	}
	if dependent.Role != models.RoleDependent {
		return models.ErrInvalidRole
	}
	if guardian.Role != models.RoleGuardian {
		return models.ErrInvalidRole
	}
	for _, id := range guardian.DependentIDs {
		if id == dependent.ID {
			return models.ErrAlreadyLinked
		}
	}
	guardian.DependentIDs = append(guardian.DependentIDs, dependent.ID)
	guardian.UpdatedAt = time.Now().UTC()
	if err := s.users.Save(guardian); err != nil {
		return err
	}
	s.publish(events.DependentLinked, events.DependentLinkedEvent{
		GuardianID:  guardian.ID,
		DependentID: dependent.ID,
	})
	return nil
}

// SetSpendingLimit caps the per-transaction amount allowed on an account.
func (s *GuardianCommandService) SetSpendingLimit(cmd cqrs.SetLimitCommand) error {
	return s.setLimit(cmd, func(a *models.Account, v *float64) { a.SpendingLimit = v })
}

// SetTransactionLimitDaily caps the account's daily transaction volume.
func (s *GuardianCommandService) SetTransactionLimitDaily(cmd cqrs.SetLimitCommand) error {
	return s.setLimit(cmd, func(a *models.Account, v *float64) { a.MaxDaily = v })
}

// SetTransactionLimitWeekly caps the account's weekly transaction volume.
func (s *GuardianCommandService) SetTransactionLimitWeekly(cmd cqrs.SetLimitCommand) error {
	return s.setLimit(cmd, func(a *models.Account, v *float64) { a.MaxWeekly = v })
}

// SetTransactionLimitMonthly caps the account's monthly transaction volume.
func (s *GuardianCommandService) SetTransactionLimitMonthly(cmd cqrs.SetLimitCommand) error {
	return s.setLimit(cmd, func(a *models.Account, v *float64) { a.MaxMonthly = v })
}

func (s *GuardianCommandService) setLimit(cmd cqrs.SetLimitCommand, assign func(*models.Account, *float64)) error {
	account, err := s.accounts.FindByID(cmd.AccountID)
	if err != nil {
		return err
	}
	if cmd.Limit < 0 {
		return models.ErrInvalidAmount
	}
	limit := cmd.Limit
	assign(account, &limit)
	account.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Save(account); err != nil {
		return err
	}
	s.invalidate(account.UserID)
	return nil
}

// SetTimeRestrictions sets the account's blackout window. Start and end must
// be wall-clock times in HH:mm form; they are stored exactly as supplied. No
// ordering check is performed: a window may wrap midnight.
func (s *GuardianCommandService) SetTimeRestrictions(cmd cqrs.SetTimeRestrictionsCommand) error {
	account, err := s.accounts.FindByID(cmd.AccountID)
	if err != nil {
		return err
	}
	if _, err := time.Parse("15:04", cmd.Start); err != nil {
		return models.ErrTimeFormat
	}
	if _, err := time.Parse("15:04", cmd.End); err != nil {
		return models.ErrTimeFormat
	}
	account.RestrictionStart = cmd.Start
	account.RestrictionEnd = cmd.End
	account.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Save(account); err != nil {
		return err
	}
	s.logger.Printf("restriction window set for account %s: %s-%s", account.ID, cmd.Start, cmd.End)
	s.invalidate(account.UserID)
	return nil
}

// ApproveTransaction decides a pending transaction. Approval debits the
// owning account by the transaction amount; if the balance cannot cover it
// the transaction is left untouched. Rejection never moves money.
func (s *GuardianCommandService) ApproveTransaction(cmd cqrs.ApproveTransactionCommand) (*models.Transaction, error) {
	tx, err := s.transactions.FindByID(cmd.TransactionID)
	if err != nil {
		return nil, err
	}

	if !cmd.Approve {
		tx.Status = models.StatusRejected
		if err := s.transactions.Save(tx); err != nil {
			return nil, err
		}
		s.publish(events.TransactionRejected, events.TransactionDecidedEvent{
			TransactionID: tx.ID,
			AccountID:     tx.AccountID,
			Amount:        tx.Amount,
			Status:        string(tx.Status),
		})
		return tx, nil
	}

	account, err := s.accounts.FindByID(tx.AccountID)
	if err != nil {
		return nil, err
	}
	if account.Balance < tx.Amount {
		return nil, models.ErrInsufficientBalance
	}
	account.Balance -= tx.Amount
	account.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Save(account); err != nil {
		return nil, err
	}
	tx.Status = models.StatusApproved
	if err := s.transactions.Save(tx); err != nil {
		return nil, err
	}

	s.invalidate(account.UserID)
	s.publish(events.TransactionApproved, events.TransactionDecidedEvent{
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Amount:        tx.Amount,
		Status:        string(tx.Status),
	})
	s.publish(events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountID:  account.ID,
		NewBalance: account.Balance,
		Change:     -tx.Amount,
	})
	return tx, nil
}

func (s *GuardianCommandService) publish(eventType string, data any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(context.Background(), eventType, data)
}

func (s *GuardianCommandService) invalidate(userID string) {
	if s.views == nil {
		return
	}
	s.views.Invalidate(context.Background(), userID)
}
