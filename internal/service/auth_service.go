package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/sweet-shop/internal/auth"
	"github.com/spec-kit/sweet-shop/internal/config"
	"github.com/spec-kit/sweet-shop/internal/domain"
	"github.com/spec-kit/sweet-shop/internal/repository"
)

// RegisterInput carries a sign-up request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthService coordinates registration, login and token resolution.
type AuthService struct {
	users           repository.UserRepository
	tokens          *auth.TokenPair
	attempts        auth.AttemptTracker
	logger          *zap.Logger
	bcryptCost      int
	allowRoleSignup bool

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Tokens   *auth.TokenPair
	Attempts auth.AttemptTracker
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	attempts := deps.Attempts
	if attempts == nil {
		attempts = auth.NoopAttemptTracker{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenPair(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	}
	return &AuthService{
		users:           deps.UserRepo,
		tokens:          tokens,
		attempts:        attempts,
		logger:          logger,
		bcryptCost:      cfg.BcryptCost,
		allowRoleSignup: cfg.AllowRoleSignup,
	}
}

// Register creates an account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Session, error) {
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleAdmin && !s.allowRoleSignup {
		return nil, domain.ErrForbidden
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", role.String()))
	return s.tokens.IssueSession(user)
}

// Login checks credentials. Unknown email and wrong password produce the
// same error and take comparable time.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	if err := s.attempts.Check(ctx, email); err != nil {
		if errors.Is(err, domain.ErrTooManyAttempts) {
			return nil, err
		}
		s.logger.Warn("login attempt check failed", zap.Error(err))
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	if user == nil {
		auth.VerifyPassword(password, s.fallbackHash())
		s.recordFailure(ctx, email)
		return nil, domain.ErrInvalidCredentials
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		s.recordFailure(ctx, email)
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.attempts.Reset(ctx, email); err != nil {
		s.logger.Warn("login attempt reset failed", zap.Error(err))
	}
	return s.tokens.IssueSession(user)
}

// Refresh exchanges a valid refresh token for a new session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	claims, err := s.tokens.Refresh.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.resolve(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return s.tokens.IssueSession(user)
}

// Authenticate verifies an access token and loads the user it names.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.tokens.Access.Verify(accessToken)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, claims.Subject)
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error {
	if err := auth.RequireAuthenticated(user); err != nil {
		return err
	}
	stored, err := s.resolve(ctx, user.ID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(currentPassword, stored.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, stored.ID, hash); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("user_id", stored.ID))
	return nil
}

func (s *AuthService) resolve(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: subject no longer exists", domain.ErrInvalidToken)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if err := s.attempts.RecordFailure(ctx, email); err != nil {
		s.logger.Warn("login attempt record failed", zap.Error(err))
	}
}

// fallbackHash is compared against when the email is unknown.
func (s *AuthService) fallbackHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("sweet-shop-placeholder", s.bcryptCost)
		if err != nil {
			s.logger.Error("build fallback hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
