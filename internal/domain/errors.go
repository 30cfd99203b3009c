package domain

import "errors"

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrUserNotFound       = errors.New("user not found")
	ErrSweetNotFound      = errors.New("sweet not found")
	ErrOutOfStock         = errors.New("sweet is out of stock")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvalidPrice       = errors.New("price must be greater than zero")
	ErrBlankField         = errors.New("name and category must not be blank")
	ErrInvalidRole        = errors.New("invalid role")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)
