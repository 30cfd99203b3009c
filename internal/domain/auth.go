package domain

import "time"

// TokenTypeBearer is the only token type the API issues.
const TokenTypeBearer = "bearer"

// Session is the result of a successful register, login or refresh.
type Session struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	User             *User
}
