package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes shared by the review engine, the blacklist commands and the panel.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidState        = "INVALID_STATE"
	CodeNotFound            = "NOT_FOUND"
	CodeCollaboratorFailure = "COLLABORATOR_FAILURE"
	CodeInternal            = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error    string   `json:"error"`
	Code     string   `json:"code,omitempty"`
	Details  string   `json:"details,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code     string
	Message  string
	Problems []string
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string, problems ...string) *AppError {
	return &AppError{
		Code:     CodeValidation,
		Message:  message,
		Problems: problems,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewInvalidStateError reports an operation attempted against a case that already left pending.
func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidState,
		Message: message,
	}
}

// NewCollaboratorError wraps a failed call to Discord or another required collaborator.
func NewCollaboratorError(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeCollaboratorFailure,
		Message: operation + " failed",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// ErrorCode returns the AppError code carried anywhere in err's chain, or "".
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given AppError code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// StatusFor maps an error to the HTTP status the panel answers with.
func StatusFor(err error) int {
	switch ErrorCode(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState:
		return http.StatusConflict
	case CodeCollaboratorFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:    appErr.Message,
			Code:     appErr.Code,
			Problems: appErr.Problems,
		}
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
