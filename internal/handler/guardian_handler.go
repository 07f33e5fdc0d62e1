package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/generationsbank/guardian-bank/internal/cqrs"
	"github.com/generationsbank/guardian-bank/internal/middleware"
	"github.com/generationsbank/guardian-bank/internal/models"
)

// GuardianCommander defines the write-side operations used by GuardianHandler.
type GuardianCommander interface {
	RegisterUser(cqrs.RegisterUserCommand) (*models.User, *models.Account, error)
	VerifyUser(cqrs.VerifyUserCommand) (*models.User, error)
	Transfer(cqrs.TransferCommand) (*models.Transaction, error)
	AddDependent(cqrs.AddDependentCommand) error
	SetSpendingLimit(cqrs.SetLimitCommand) error
	SetTransactionLimitDaily(cqrs.SetLimitCommand) error
	SetTransactionLimitWeekly(cqrs.SetLimitCommand) error
	SetTransactionLimitMonthly(cqrs.SetLimitCommand) error
	SetTimeRestrictions(cqrs.SetTimeRestrictionsCommand) error
	ApproveTransaction(cqrs.ApproveTransactionCommand) (*models.Transaction, error)
}

// GuardianQuerier defines the read-side operations used by GuardianHandler.
type GuardianQuerier interface {
	ViewDependents(cqrs.ViewDependentsQuery) ([]models.UserView, error)
	ViewTransactions(cqrs.ViewTransactionsQuery) ([]models.TransactionView, error)
	GetAccountByUserID(cqrs.GetAccountQuery) (*models.AccountView, error)
}

// GuardianHandler routes requests to the command or query service as
// appropriate. It owns no business rules: field-presence rules for
// registration live in the command service so they apply to every caller,
// not just HTTP.
type GuardianHandler struct {
	commands GuardianCommander
	queries  GuardianQuerier
}

func NewGuardianHandler(commands GuardianCommander, queries GuardianQuerier) *GuardianHandler {
	return &GuardianHandler{commands: commands, queries: queries}
}

// Register wires the guardian-bank routes onto a gin router group.
func (h *GuardianHandler) Register(r *gin.RouterGroup) {
	r.POST("/users", h.RegisterUser)
	r.POST("/users/verify", h.VerifyUser)
	r.GET("/users/:userId/account", h.GetAccount)
	r.POST("/transfers", h.Transfer)
	r.POST("/guardians/:guardianId/dependents", h.AddDependent)
	r.GET("/guardians/:guardianId/dependents", h.ViewDependents)
	r.GET("/accounts/:accountId/transactions", h.ViewTransactions)
	r.PUT("/accounts/:accountId/limits/spending", h.SetSpendingLimit)
	r.PUT("/accounts/:accountId/limits/daily", h.SetDailyLimit)
	r.PUT("/accounts/:accountId/limits/weekly", h.SetWeeklyLimit)
	r.PUT("/accounts/:accountId/limits/monthly", h.SetMonthlyLimit)
	r.PUT("/accounts/:accountId/restrictions", h.SetTimeRestrictions)
	r.POST("/transactions/:transactionId/decision", h.DecideTransaction)
}

type RegisterUserRequest struct {
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Age            int    `json:"age"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	Role           string `json:"role"`
	InitialBalance string `json:"initialBalance"`
}

type RegisterUserResponse struct {
	User    *models.User    `json:"user"`
	Account *models.Account `json:"account"`
}

func (h *GuardianHandler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, account, err := h.commands.RegisterUser(cqrs.RegisterUserCommand{
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		Age:            req.Age,
		Address:        req.Address,
		Phone:          req.Phone,
		Role:           req.Role,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, RegisterUserResponse{User: user, Account: account})
}

type VerifyUserRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *GuardianHandler) VerifyUser(c *gin.Context) {
	var req VerifyUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.commands.VerifyUser(cqrs.VerifyUserCommand{Token: req.Token})
	if err != nil {
		middleware.RespondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type TransferRequest struct {
	FromAccountID string  `json:"fromAccountId" validate:"required"`
	ToAccountID   string  `json:"toAccountId" validate:"required"`
	Amount        float64 `json:"amount"`
}

func (h *GuardianHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	tx, err := h.commands.Transfer(cqrs.TransferCommand{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

type AddDependentRequest struct {
	DependentID string `json:"dependentId" validate:"required"`
}

func (h *GuardianHandler) AddDependent(c *gin.Context) {
	var req AddDependentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	err := h.commands.AddDependent(cqrs.AddDependentCommand{
		GuardianID:  c.Param("guardianId"),
		DependentID: req.DependentID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type ViewDependentsResponse struct {
	Dependents []models.UserView `json:"dependents"`
}

func (h *GuardianHandler) ViewDependents(c *gin.Context) {
	views, err := h.queries.ViewDependents(cqrs.ViewDependentsQuery{
		GuardianID: c.Param("guardianId"),
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ViewDependentsResponse{Dependents: views})
}

type ViewTransactionsResponse struct {
	Transactions []models.TransactionView `json:"transactions"`
}

// ViewTransactions supports optional startDate/endDate query params in
// YYYY-MM-DD form (both required for the window to apply) and an optional
// category filter.
func (h *GuardianHandler) ViewTransactions(c *gin.Context) {
	q := cqrs.ViewTransactionsQuery{
		AccountID: c.Param("accountId"),
		Category:  c.Query("category"),
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"startDate", &q.StartDate},
		{"endDate", &q.EndDate},
	} {
		if raw := c.Query(p.name); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				middleware.RespondWithError(c, http.StatusBadRequest, p.name+" must be in YYYY-MM-DD form")
				return
			}
			*p.dst = &parsed
		}
	}

	views, err := h.queries.ViewTransactions(q)
	if err != nil {
		middleware.RespondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ViewTransactionsResponse{Transactions: views})
}

type SetLimitRequest struct {
	Limit float64 `json:"limit"`
}

func (h *GuardianHandler) SetSpendingLimit(c *gin.Context) {
	h.setLimit(c, h.commands.SetSpendingLimit)
}

func (h *GuardianHandler) SetDailyLimit(c *gin.Context) {
	h.setLimit(c, h.commands.SetTransactionLimitDaily)
}

func (h *GuardianHandler) SetWeeklyLimit(c *gin.Context) {
	h.setLimit(c, h.commands.SetTransactionLimitWeekly)
}

func (h *GuardianHandler) SetMonthlyLimit(c *gin.Context) {
	h.setLimit(c, h.commands.SetTransactionLimitMonthly)
}

func (h *GuardianHandler) setLimit(c *gin.Context, apply func(cqrs.SetLimitCommand) error) {
	var req SetLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := apply(cqrs.SetLimitCommand{AccountID: c.Param("accountId"), Limit: req.Limit}); err != nil {
		middleware.RespondWithDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type SetTimeRestrictionsRequest struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

func (h *GuardianHandler) SetTimeRestrictions(c *gin.Context) {
	var req SetTimeRestrictionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	err := h.commands.SetTimeRestrictions(cqrs.SetTimeRestrictionsCommand{
		AccountID: c.Param("accountId"),
		Start:     req.Start,
		End:       req.End,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type DecideTransactionRequest struct {
	Approve *bool `json:"approve"`
}

func (h *GuardianHandler) DecideTransaction(c *gin.Context) {
	var req DecideTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Approve == nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "approve is required")
		return
	}

	tx, err := h.commands.ApproveTransaction(cqrs.ApproveTransactionCommand{
		TransactionID: c.Param("transactionId"),
		Approve:       *req.Approve,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *GuardianHandler) GetAccount(c *gin.Context) {
	view, err := h.queries.GetAccountByUserID(cqrs.GetAccountQuery{
		UserID: c.Param("userId"),
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
