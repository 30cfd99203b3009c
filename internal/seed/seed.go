// Package seed loads an initial admin account and a sample catalog.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/sweet-shop/internal/auth"
	"github.com/spec-kit/sweet-shop/internal/domain"
	"github.com/spec-kit/sweet-shop/internal/repository"
)

// AdminAccount describes the account EnsureAdmin creates or promotes.
type AdminAccount struct {
	Name     string
	Email    string
	Password string
}

// DefaultAdmin is the development admin account.
var DefaultAdmin = AdminAccount{
	Name:     "Admin",
	Email:    "admin@sweetshop.com",
	Password: "admin123",
}

// Seeder writes seed data through the repositories.
type Seeder struct {
	users      repository.UserRepository
	sweets     repository.SweetRepository
	bcryptCost int
	logger     *zap.Logger
}

// New constructs a Seeder.
func New(users repository.UserRepository, sweets repository.SweetRepository, bcryptCost int, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{users: users, sweets: sweets, bcryptCost: bcryptCost, logger: logger}
}

// EnsureAdmin creates the admin account, or promotes an existing account
// with the same email. The password of an existing account is left alone.
func (s *Seeder) EnsureAdmin(ctx context.Context, account AdminAccount) (*domain.User, error) {
	existing, err := s.users.GetByEmail(ctx, account.Email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			s.logger.Info("admin already present", zap.String("email", account.Email))
			return existing, nil
		}
		if err := s.users.SetRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
			return nil, fmt.Errorf("promote %s: %w", account.Email, err)
		}
		existing.Role = domain.RoleAdmin
		s.logger.Info("promoted user to admin", zap.String("email", account.Email))
		return existing, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	hash, err := auth.HashPassword(account.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         account.Name,
		Email:        account.Email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("admin created", zap.String("email", account.Email), zap.String("user_id", user.ID))
	return user, nil
}

// Sweets inserts the sample catalog when the catalog is empty and returns
// the number of rows written.
func (s *Seeder) Sweets(ctx context.Context) (int, error) {
	existing, err := s.sweets.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		s.logger.Info("catalog not empty; skipping sample sweets", zap.Int("count", len(existing)))
		return 0, nil
	}

	for _, sample := range SampleSweets() {
		sweet := sample
		if err := s.sweets.Create(ctx, &sweet); err != nil {
			return 0, fmt.Errorf("create %s: %w", sweet.Name, err)
		}
	}
	s.logger.Info("sample sweets added", zap.Int("count", len(SampleSweets())))
	return len(SampleSweets()), nil
}

// SampleSweets returns a fresh copy of the sample catalog.
func SampleSweets() []domain.Sweet {
	return []domain.Sweet{
		sample("Gulab Jamun", "Traditional", "Soft, syrupy fried dough balls soaked in cardamom syrup.", 50, 20),
		sample("Jalebi", "Traditional", "Crispy, spiral sweet soaked in saffron sugar syrup.", 40, 25),
		sample("Milk Barfi", "Milk Sweet", "Creamy fudge made from condensed milk and sugar.", 45, 18),
		sample("Kalakand", "Milk Sweet", "Grainy, rich milk cake topped with pistachios.", 60, 12),
		sample("Kaju Katli", "Dry Fruit", "Cashew diamond fudge, rich and smooth.", 100, 10),
		sample("Badam Halwa", "Dry Fruit", "Ground almond pudding cooked in ghee and milk.", 90, 8),
		sample("Motichoor Ladoo", "Festive", "Golden pearls of gram flour bound with ghee and sugar.", 35, 30),
		sample("Besan Ladoo", "Festive", "Roasted gram flour balls with cardamom flavor.", 30, 22),
		sample("Rasgulla", "Bengali", "Spongy cottage cheese balls soaked in sugar syrup.", 40, 15),
		sample("Sandesh", "Bengali", "Delicate milk sweet infused with rose and cardamom.", 55, 14),
		sample("Chocolate Barfi", "Fusion", "Layered barfi with rich chocolate and vanilla flavors.", 70, 10),
		sample("Coconut Ladoo", "Coconut", "Soft, chewy coconut sweets made with milk and sugar.", 25, 28),
	}
}

func sample(name, category, description string, price float64, quantity int) domain.Sweet {
	return domain.Sweet{
		Name:        name,
		Category:    category,
		Description: &description,
		Price:       price,
		Quantity:    quantity,
	}
}
