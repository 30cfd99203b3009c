package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sweet-shop/internal/domain"
)

// RequireAdmin fails with ErrForbidden unless user is an admin.
func RequireAdmin(user *domain.User) error {
	if user == nil {
		return domain.ErrUnauthenticated
	}
	if !user.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// RequireAuthenticated fails unless a user is present.
func RequireAuthenticated(user *domain.User) error {
	if user == nil {
		return domain.ErrUnauthenticated
	}
	return nil
}

// AdminOnly ensures the authenticated principal holds the admin role.
// It must run after AuthMiddleware.Handle.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, _ := PrincipalFromContext(c)
		if err := RequireAdmin(user); err != nil {
			return err
		}
		return c.Next()
	}
}
