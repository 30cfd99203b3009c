package domain

import "time"

// User is an account that can sign in to the shop.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user may manage the catalog.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
