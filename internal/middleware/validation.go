package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/generationsbank/guardian-bank/internal/models"
)

var validate = validator.New()

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type BadRequestErrorResponse struct {
	Message string            `json:"message"`
	Details []ValidationError `json:"details"`
}

// ValidateRequest runs the validator/v10 tags declared on a request struct
// and returns the failures, or nil when the struct is valid.
func ValidateRequest(obj any) []ValidationError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var validationErrors []ValidationError
	for _, err := range err.(validator.ValidationErrors) {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: getErrorMsg(err),
			Type:    err.Tag(),
		})
	}
	return validationErrors
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "oneof":
		return "Value must be one of: " + err.Param()
	case "gt":
		return "Value must be greater than " + err.Param()
	case "gte":
		return "Value must be greater than or equal to " + err.Param()
	default:
		return "Invalid value"
	}
}

func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: validationErrors,
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}

// RespondWithDomainError maps a domain error onto its HTTP status. Unknown
// errors become a 500 without leaking internals.
func RespondWithDomainError(c *gin.Context, err error) {
	var fieldErr *models.ValidationError
	if errors.As(err, &fieldErr) {
		RespondWithError(c, http.StatusBadRequest, fieldErr.Error())
		return
	}
	switch {
	case errors.Is(err, models.ErrNotFound):
		RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrTimeFormat), errors.Is(err, models.ErrTokenInvalid):
		RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrDuplicateEmail), errors.Is(err, models.ErrDuplicateUsername), errors.Is(err, models.ErrAlreadyLinked):
		RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidRole):
		RespondWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrInsufficientBalance):
		RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, models.ErrNotification):
		RespondWithError(c, http.StatusBadGateway, err.Error())
	default:
		RespondWithError(c, http.StatusInternalServerError, "internal error")
	}
}
