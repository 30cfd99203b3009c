package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/sweet-shop/internal/domain"
)

// TokenManager issues and validates HS256 tokens signed with a single secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	tm := &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// Claims describes the JWT payload: sub, iat and exp.
type Claims struct {
	jwt.RegisteredClaims
}

// Issue signs a token for subject.
func (tm *TokenManager) Issue(subject string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject is required")
	}
	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify validates signature, algorithm, expiry and subject. Every failure
// wraps domain.ErrInvalidToken.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	return claims, nil
}

// TokenPair issues access and refresh tokens from independent secrets.
type TokenPair struct {
	Access  *TokenManager
	Refresh *TokenManager
}

// NewTokenPair builds the access and refresh managers.
func NewTokenPair(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, opts ...TokenOption) *TokenPair {
	return &TokenPair{
		Access:  NewTokenManager(accessSecret, accessTTL, opts...),
		Refresh: NewTokenManager(refreshSecret, refreshTTL, opts...),
	}
}

// IssueSession signs both tokens for user.
func (p *TokenPair) IssueSession(user *domain.User) (*domain.Session, error) {
	access, accessExp, err := p.Access.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := p.Refresh.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		User:             user,
	}, nil
}
