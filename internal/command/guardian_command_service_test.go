package command

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/generationsbank/guardian-bank/internal/cqrs"
	"github.com/generationsbank/guardian-bank/internal/models"
)

// ---- in-memory fakes ----

type fakeUserStore struct {
	users   map[string]*models.User
	saveErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (f *fakeUserStore) FindByID(id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeUserStore) FindByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			return copyUser(u), nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUserStore) FindByUsername(username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUserStore) Save(user *models.User) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.users[user.ID] = copyUser(user)
	return nil
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.DependentIDs = append([]string(nil), u.DependentIDs...)
	return &c
}

type fakeAccountStore struct {
	accounts map[string]*models.Account
	saveErr  error
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: map[string]*models.Account{}}
}

func (f *fakeAccountStore) FindByID(id string) (*models.Account, error) {
	if a, ok := f.accounts[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeAccountStore) FindByUserID(userID string) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.UserID == userID {
			c := *a
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeAccountStore) Save(account *models.Account) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	c := *account
	f.accounts[account.ID] = &c
	return nil
}

type fakeTransactionStore struct {
	transactions map[string]*models.Transaction
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{transactions: map[string]*models.Transaction{}}
}

func (f *fakeTransactionStore) FindByID(id string) (*models.Transaction, error) {
	if tx, ok := f.transactions[id]; ok {
		c := *tx
		return &c, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeTransactionStore) Save(tx *models.Transaction) error {
	c := *tx
	f.transactions[tx.ID] = &c
	return nil
}

type stubTokens struct{}

func (stubTokens) Issue(email string) (string, error) { return "tok:" + email, nil }

func (stubTokens) Verify(token string) (string, error) {
	email, ok := strings.CutPrefix(token, "tok:")
	if !ok {
		return "", models.ErrTokenInvalid
	}
	return email, nil
}

type stubNotifier struct {
	err  error
	sent []string
}

func (n *stubNotifier) SendVerification(email, token, username string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, email)
	return nil
}

type stubHasher struct{}

func (stubHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

type recordPublisher struct {
	types []string
}

func (p *recordPublisher) Publish(_ context.Context, eventType string, _ any) {
	p.types = append(p.types, eventType)
}

type recordInvalidator struct {
	userIDs []string
}

func (r *recordInvalidator) Invalidate(_ context.Context, userID string) {
	r.userIDs = append(r.userIDs, userID)
}

func (r *recordInvalidator) invalidated(userID string) bool {
	for _, id := range r.userIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ---- fixture ----

type fixture struct {
	svc          *GuardianCommandService
	users        *fakeUserStore
	accounts     *fakeAccountStore
	transactions *fakeTransactionStore
	notifier     *stubNotifier
	views        *recordInvalidator
	published    *recordPublisher
}

func newFixture() *fixture {
	f := &fixture{
		users:        newFakeUserStore(),
		accounts:     newFakeAccountStore(),
		transactions: newFakeTransactionStore(),
		notifier:     &stubNotifier{},
		views:        &recordInvalidator{},
		published:    &recordPublisher{},
	}
	f.svc = NewGuardianCommandService(
		f.users, f.accounts, f.transactions,
		stubTokens{}, f.notifier, stubHasher{},
		f.views, f.published, log.New(io.Discard, "", 0),
	)
	return f
}

func (f *fixture) seedUser(id, username string, role models.Role) *models.User {
	u := &models.User{
		ID:       id,
		Email:    strings.ToLower(username) + "@example.com",
		Username: username,
		Role:     role,
	}
	f.users.users[id] = u
	return u
}

func (f *fixture) seedAccount(id, userID string, balance float64) *models.Account {
	a := &models.Account{ID: id, UserID: userID, Balance: balance}
	f.accounts.accounts[id] = a
	return a
}

func validRegistration() cqrs.RegisterUserCommand {
	return cqrs.RegisterUserCommand{
		Email:    "Parent@Example.com",
		Username: "parent",
		Password: "secret-password",
		Age:      42,
		Address:  "1 Bank Street",
		Phone:    "555-0100",
	}
}

// ---- RegisterUser ----

func TestRegisterUser(t *testing.T) {
	t.Run("defaults balance to zero and role to guardian", func(t *testing.T) {
		f := newFixture()
		user, account, err := f.svc.RegisterUser(validRegistration())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.Balance != 0 {
			t.Errorf("expected zero balance, got %v", account.Balance)
		}
		if user.Role != models.RoleGuardian {
			t.Errorf("expected GUARDIAN role, got %s", user.Role)
		}
		if user.Verified {
			t.Error("new user must start unverified")
		}
		if account.UserID != user.ID {
			t.Errorf("account not linked to user: %s != %s", account.UserID, user.ID)
		}
	})

	t.Run("parses the supplied initial balance", func(t *testing.T) {
		f := newFixture()
		cmd := validRegistration()
		cmd.InitialBalance = "100.0"
		_, account, err := f.svc.RegisterUser(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.Balance != 100.0 {
			t.Errorf("expected balance 100.0, got %v", account.Balance)
		}
	})

	t.Run("lowercases the email and hashes the password", func(t *testing.T) {
		f := newFixture()
		user, _, err := f.svc.RegisterUser(validRegistration())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Email != "parent@example.com" {
			t.Errorf("email not lowercased: %s", user.Email)
		}
		if user.PasswordHash == "secret-password" {
			t.Error("password stored as plaintext")
		}
	})

	t.Run("reports the first missing field", func(t *testing.T) {
		mutations := []struct {
			field  string
			mutate func(*cqrs.RegisterUserCommand)
		}{
			{"email", func(c *cqrs.RegisterUserCommand) { c.Email = "" }},
			{"username", func(c *cqrs.RegisterUserCommand) { c.Username = "" }},
			{"password", func(c *cqrs.RegisterUserCommand) { c.Password = "" }},
			{"address", func(c *cqrs.RegisterUserCommand) { c.Address = "" }},
			{"phone", func(c *cqrs.RegisterUserCommand) { c.Phone = "" }},
		}
		for _, m := range mutations {
			f := newFixture()
			cmd := validRegistration()
			m.mutate(&cmd)
			_, _, err := f.svc.RegisterUser(cmd)
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("[%s] expected ValidationError, got %v", m.field, err)
			}
			if vErr.Field != m.field {
				t.Errorf("expected field %q, got %q", m.field, vErr.Field)
			}
		}
	})

	t.Run("rejects a malformed initial balance", func(t *testing.T) {
		f := newFixture()
		cmd := validRegistration()
		cmd.InitialBalance = "lots"
		_, _, err := f.svc.RegisterUser(cmd)
		var vErr *models.ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "initialBalance" {
			t.Fatalf("expected ValidationError on initialBalance, got %v", err)
		}
	})

	t.Run("rejects a negative initial balance", func(t *testing.T) {
		f := newFixture()
		cmd := validRegistration()
		cmd.InitialBalance = "-10"
		_, _, err := f.svc.RegisterUser(cmd)
		if !errors.Is(err, models.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("rejects a duplicate email case-insensitively", func(t *testing.T) {
		f := newFixture()
		if _, _, err := f.svc.RegisterUser(validRegistration()); err != nil {
			t.Fatalf("seed registration failed: %v", err)
		}
		cmd := validRegistration()
		cmd.Email = "PARENT@EXAMPLE.COM"
		cmd.Username = "other"
		_, _, err := f.svc.RegisterUser(cmd)
		if !errors.Is(err, models.ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("rejects a duplicate username", func(t *testing.T) {
		f := newFixture()
		if _, _, err := f.svc.RegisterUser(validRegistration()); err != nil {
			t.Fatalf("seed registration failed: %v", err)
		}
		cmd := validRegistration()
		cmd.Email = "other@example.com"
		_, _, err := f.svc.RegisterUser(cmd)
		if !errors.Is(err, models.ErrDuplicateUsername) {
			t.Fatalf("expected ErrDuplicateUsername, got %v", err)
		}
	})

	t.Run("persists nothing when the verification message fails", func(t *testing.T) {
		f := newFixture()
		f.notifier.err = errors.New("smtp down")
		_, _, err := f.svc.RegisterUser(validRegistration())
		if !errors.Is(err, models.ErrNotification) {
			t.Fatalf("expected ErrNotification, got %v", err)
		}
		if len(f.users.users) != 0 || len(f.accounts.accounts) != 0 {
			t.Error("registration persisted records despite notification failure")
		}
	})

	t.Run("accepts an explicit dependent role", func(t *testing.T) {
		f := newFixture()
		cmd := validRegistration()
		cmd.Role = "DEPENDENT"
		user, _, err := f.svc.RegisterUser(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Role != models.RoleDependent {
			t.Errorf("expected DEPENDENT role, got %s", user.Role)
		}
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		f := newFixture()
		cmd := validRegistration()
		cmd.Role = "ADMIN"
		_, _, err := f.svc.RegisterUser(cmd)
		var vErr *models.ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "role" {
			t.Fatalf("expected ValidationError on role, got %v", err)
		}
	})
}

// ---- VerifyUser ----

func TestVerifyUser(t *testing.T) {
	f := newFixture()
	user, _, err := f.svc.RegisterUser(validRegistration())
	if err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	verified, err := f.svc.VerifyUser(cqrs.VerifyUserCommand{Token: "tok:" + user.Email})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verified.Verified {
		t.Error("user not marked verified")
	}
	if stored := f.users.users[user.ID]; !stored.Verified {
		t.Error("verified flag not persisted")
	}
	if !f.views.invalidated(user.ID) {
		t.Error("account projection not invalidated after verification")
	}

	if _, err := f.svc.VerifyUser(cqrs.VerifyUserCommand{Token: "garbage"}); !errors.Is(err, models.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

// ---- Transfer ----

func TestTransfer(t *testing.T) {
	setup := func() *fixture {
		f := newFixture()
		f.seedUser("usr-g", "parent", models.RoleGuardian)
		f.seedUser("usr-d", "child", models.RoleDependent)
		f.seedAccount("acc-1", "usr-g", 100)
		f.seedAccount("acc-2", "usr-d", 10)
		return f
	}

	t.Run("debits sender, credits receiver, records an approved transaction", func(t *testing.T) {
		f := setup()
		tx, err := f.svc.Transfer(cqrs.TransferCommand{FromAccountID: "acc-1", ToAccountID: "acc-2", Amount: 40})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sender := f.accounts.accounts["acc-1"]
		receiver := f.accounts.accounts["acc-2"]
		if sender.Balance != 60 || receiver.Balance != 50 {
			t.Errorf("expected balances 60/50, got %v/%v", sender.Balance, receiver.Balance)
		}
		if sender.Balance+receiver.Balance != 110 {
			t.Errorf("total balance not conserved: %v", sender.Balance+receiver.Balance)
		}
		if tx.Status != models.StatusApproved {
			t.Errorf("expected APPROVED transaction, got %s", tx.Status)
		}
		if tx.AccountID != "acc-1" {
			t.Errorf("transaction recorded under %s, want acc-1", tx.AccountID)
		}
		if tx.FromName != "parent" || tx.ToName != "child" {
			t.Errorf("unexpected names %s -> %s", tx.FromName, tx.ToName)
		}
		if len(f.transactions.transactions) != 1 {
			t.Errorf("expected 1 stored transaction, got %d", len(f.transactions.transactions))
		}
	})

	t.Run("transfer into the originating account conserves the balance", func(t *testing.T) {
		f := setup()
		tx, err := f.svc.Transfer(cqrs.TransferCommand{FromAccountID: "acc-1", ToAccountID: "acc-1", Amount: 40})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.accounts.accounts["acc-1"].Balance; got != 100 {
			t.Errorf("expected balance 100 after self-transfer, got %v", got)
		}
		if tx.FromName != "parent" || tx.ToName != "parent" {
			t.Errorf("unexpected names %s -> %s", tx.FromName, tx.ToName)
		}
		if len(f.transactions.transactions) != 1 {
			t.Errorf("expected 1 stored transaction, got %d", len(f.transactions.transactions))
		}
	})

	t.Run("failure matrix mutates nothing", func(t *testing.T) {
		tests := []struct {
			name    string
			from    string
			to      string
			amount  float64
			wantErr error
		}{
			{"unknown sender", "acc-missing", "acc-2", 40, models.ErrNotFound},
			{"unknown receiver", "acc-1", "acc-missing", 40, models.ErrNotFound},
			{"zero amount", "acc-1", "acc-2", 0, models.ErrInvalidAmount},
			{"negative amount", "acc-1", "acc-2", -5, models.ErrInvalidAmount},
			{"insufficient balance", "acc-1", "acc-2", 100.01, models.ErrInsufficientBalance},
			{"non-guardian sender", "acc-2", "acc-1", 5, models.ErrInvalidRole},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := setup()
				_, err := f.svc.Transfer(cqrs.TransferCommand{FromAccountID: tt.from, ToAccountID: tt.to, Amount: tt.amount})
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if f.accounts.accounts["acc-1"].Balance != 100 || f.accounts.accounts["acc-2"].Balance != 10 {
					t.Error("failed transfer mutated balances")
				}
				if len(f.transactions.transactions) != 0 {
					t.Error("failed transfer recorded a transaction")
				}
			})
		}
	})
}

// ---- AddDependent ----

func TestAddDependent(t *testing.T) {
	setup := func() *fixture {
		f := newFixture()
		f.seedUser("usr-g", "parent", models.RoleGuardian)
		f.seedUser("usr-d", "child", models.RoleDependent)
		return f
	}

	t.Run("links once, rejects the second link", func(t *testing.T) {
		f := setup()
		cmd := cqrs.AddDependentCommand{GuardianID: "usr-g", DependentID: "usr-d"}
		if err := f.svc.AddDependent(cmd); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := f.users.users["usr-g"].DependentIDs
		if len(got) != 1 || got[0] != "usr-d" {
			t.Fatalf("unexpected dependent list %v", got)
		}
		if err := f.svc.AddDependent(cmd); !errors.Is(err, models.ErrAlreadyLinked) {
			t.Fatalf("expected ErrAlreadyLinked, got %v", err)
		}
	})

	t.Run("role and resolution failures", func(t *testing.T) {
		tests := []struct {
			name      string
			guardian  string
			dependent string
			wantErr   error
		}{
			{"unknown guardian", "usr-missing", "usr-d", models.ErrNotFound},
			{"unknown dependent", "usr-g", "usr-missing", models.ErrNotFound},
			{"dependent is a guardian", "usr-g", "usr-g2", models.ErrInvalidRole},
			{"guardian is a dependent", "usr-d", "usr-d2", models.ErrInvalidRole},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := setup()
				f.seedUser("usr-g2", "parent2", models.RoleGuardian)
				f.seedUser("usr-d2", "child2", models.RoleDependent)
				err := f.svc.AddDependent(cqrs.AddDependentCommand{GuardianID: tt.guardian, DependentID: tt.dependent})
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})
}

// ---- limits & restrictions ----

func TestSetLimits(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*GuardianCommandService, cqrs.SetLimitCommand) error
		field func(*models.Account) *float64
	}{
		{"spending", (*GuardianCommandService).SetSpendingLimit, func(a *models.Account) *float64 { return a.SpendingLimit }},
		{"daily", (*GuardianCommandService).SetTransactionLimitDaily, func(a *models.Account) *float64 { return a.MaxDaily }},
		{"weekly", (*GuardianCommandService).SetTransactionLimitWeekly, func(a *models.Account) *float64 { return a.MaxWeekly }},
		{"monthly", (*GuardianCommandService).SetTransactionLimitMonthly, func(a *models.Account) *float64 { return a.MaxMonthly }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.seedAccount("acc-1", "usr-1", 0)

			if err := tt.apply(f.svc, cqrs.SetLimitCommand{AccountID: "acc-missing", Limit: 10}); !errors.Is(err, models.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if err := tt.apply(f.svc, cqrs.SetLimitCommand{AccountID: "acc-1", Limit: -5}); !errors.Is(err, models.ErrInvalidAmount) {
				t.Errorf("expected ErrInvalidAmount, got %v", err)
			}
			if got := tt.field(f.accounts.accounts["acc-1"]); got != nil {
				t.Errorf("failed set persisted a limit: %v", *got)
			}

			if err := tt.apply(f.svc, cqrs.SetLimitCommand{AccountID: "acc-1", Limit: 0}); err != nil {
				t.Errorf("zero limit rejected: %v", err)
			}
			if got := tt.field(f.accounts.accounts["acc-1"]); got == nil || *got != 0 {
				t.Errorf("zero limit not persisted: %v", got)
			}

			if err := tt.apply(f.svc, cqrs.SetLimitCommand{AccountID: "acc-1", Limit: 75.5}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if got := tt.field(f.accounts.accounts["acc-1"]); got == nil || *got != 75.5 {
				t.Errorf("limit not persisted: %v", got)
			}
		})
	}
}

func TestSetTimeRestrictions(t *testing.T) {
	f := newFixture()
	f.seedAccount("acc-1", "usr-1", 0)

	err := f.svc.SetTimeRestrictions(cqrs.SetTimeRestrictionsCommand{AccountID: "acc-1", Start: "09:00", End: "18:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	account := f.accounts.accounts["acc-1"]
	if account.RestrictionStart != "09:00" || account.RestrictionEnd != "18:00" {
		t.Errorf("window not persisted verbatim: %s-%s", account.RestrictionStart, account.RestrictionEnd)
	}

	err = f.svc.SetTimeRestrictions(cqrs.SetTimeRestrictionsCommand{AccountID: "acc-1", Start: "9am", End: "18:00"})
	if !errors.Is(err, models.ErrTimeFormat) {
		t.Errorf("expected ErrTimeFormat, got %v", err)
	}

	err = f.svc.SetTimeRestrictions(cqrs.SetTimeRestrictionsCommand{AccountID: "acc-missing", Start: "09:00", End: "18:00"})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ---- ApproveTransaction ----

func TestApproveTransaction(t *testing.T) {
	setup := func(balance float64) *fixture {
		f := newFixture()
		f.seedAccount("acc-1", "usr-1", balance)
		f.transactions.transactions["tan-1"] = &models.Transaction{
			ID:        "tan-1",
			AccountID: "acc-1",
			Amount:    30,
			Status:    models.StatusPending,
		}
		return f
	}

	t.Run("approval debits exactly once", func(t *testing.T) {
		f := setup(50)
		tx, err := f.svc.ApproveTransaction(cqrs.ApproveTransactionCommand{TransactionID: "tan-1", Approve: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx.Status != models.StatusApproved {
			t.Errorf("expected APPROVED, got %s", tx.Status)
		}
		if got := f.accounts.accounts["acc-1"].Balance; got != 20 {
			t.Errorf("expected balance 20, got %v", got)
		}
		if f.transactions.transactions["tan-1"].Status != models.StatusApproved {
			t.Error("approved status not persisted")
		}
	})

	t.Run("approval with insufficient balance changes nothing", func(t *testing.T) {
		f := setup(10)
		_, err := f.svc.ApproveTransaction(cqrs.ApproveTransactionCommand{TransactionID: "tan-1", Approve: true})
		if !errors.Is(err, models.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
		if got := f.accounts.accounts["acc-1"].Balance; got != 10 {
			t.Errorf("balance mutated to %v", got)
		}
		if f.transactions.transactions["tan-1"].Status != models.StatusPending {
			t.Error("transaction status mutated")
		}
	})

	t.Run("rejection never moves money", func(t *testing.T) {
		f := setup(50)
		tx, err := f.svc.ApproveTransaction(cqrs.ApproveTransactionCommand{TransactionID: "tan-1", Approve: false})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx.Status != models.StatusRejected {
			t.Errorf("expected REJECTED, got %s", tx.Status)
		}
		if got := f.accounts.accounts["acc-1"].Balance; got != 50 {
			t.Errorf("rejection changed balance to %v", got)
		}
		if f.transactions.transactions["tan-1"].Status != models.StatusRejected {
			t.Error("rejected status not persisted")
		}
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := setup(50)
		_, err := f.svc.ApproveTransaction(cqrs.ApproveTransactionCommand{TransactionID: "tan-missing", Approve: true})
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
