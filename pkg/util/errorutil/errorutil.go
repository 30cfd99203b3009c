package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sweet-shop/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHENTICATED", message, http.StatusUnauthorized, nil)
}

func NewRateLimited(message string) error {
	return NewDomainError("RATE_LIMITED", message, http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

type mapping struct {
	target  error
	code    string
	message string
	status  int
}

var domainMappings = []mapping{
	{domain.ErrDuplicateEmail, "DUPLICATE_EMAIL", "Email already registered", http.StatusBadRequest},
	{domain.ErrInvalidCredentials, "INVALID_CREDENTIALS", "Invalid credentials", http.StatusUnauthorized},
	{domain.ErrUnauthenticated, "UNAUTHENTICATED", "Not authenticated", http.StatusUnauthorized},
	{domain.ErrInvalidToken, "INVALID_TOKEN", "Invalid token", http.StatusUnauthorized},
	{domain.ErrUserNotFound, "INVALID_TOKEN", "Invalid token", http.StatusUnauthorized},
	{domain.ErrForbidden, "FORBIDDEN", "Insufficient permissions", http.StatusForbidden},
	{domain.ErrSweetNotFound, "NOT_FOUND", "Sweet not found", http.StatusNotFound},
	{domain.ErrOutOfStock, "OUT_OF_STOCK", "Sweet is out of stock", http.StatusBadRequest},
	{domain.ErrInvalidQuantity, "INVALID_QUANTITY", "Quantity must be positive", http.StatusBadRequest},
	{domain.ErrInvalidPrice, "INVALID_PRICE", "Price must be greater than zero", http.StatusBadRequest},
	{domain.ErrBlankField, "VALIDATION_FAILED", "Name and category must not be blank", http.StatusBadRequest},
	{domain.ErrInvalidRole, "VALIDATION_FAILED", "Invalid role", http.StatusBadRequest},
	{domain.ErrPasswordTooLong, "VALIDATION_FAILED", "Password must not exceed 72 bytes", http.StatusBadRequest},
	{domain.ErrTooManyAttempts, "TOO_MANY_ATTEMPTS", "Too many login attempts", http.StatusTooManyRequests},
}

// ToDomainError converts any error into a DomainError. Unknown errors become
// a 500 that keeps the cause for logging.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	for _, m := range domainMappings {
		if errors.Is(err, m.target) {
			return &DomainError{Code: m.code, Message: m.message, HTTPStatus: m.status, Err: err}
		}
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{
			Code:       codeForStatus(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestTimeout:
		return "TIMEOUT"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}
