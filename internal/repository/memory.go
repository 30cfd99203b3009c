package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sweet-shop/internal/domain"
)

// MemoryUserRepository keeps accounts in process memory. It backs local
// development without Postgres and the service tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryUserRepository returns an empty in-memory account directory.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return domain.ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	now := r.now()
	user.CreatedAt, user.UpdatedAt = now, now

	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = r.now()
	r.byID[id] = user
	return nil
}

func (r *MemoryUserRepository) SetRole(_ context.Context, id string, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Role = role
	user.UpdatedAt = r.now()
	r.byID[id] = user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := r.byID[id]
	return &user, nil
}

// Count returns the number of stored accounts with the given email.
func (r *MemoryUserRepository) Count(email string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, user := range r.byID {
		if user.Email == email {
			n++
		}
	}
	return n
}

// MemorySweetRepository keeps the catalog in process memory.
type MemorySweetRepository struct {
	mu     sync.Mutex
	sweets map[string]*memorySweet
	seq    int64
	now    func() time.Time
}

type memorySweet struct {
	sweet domain.Sweet
	seq   int64
}

// NewMemorySweetRepository returns an empty in-memory catalog.
func NewMemorySweetRepository() *MemorySweetRepository {
	return &MemorySweetRepository{
		sweets: make(map[string]*memorySweet),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemorySweetRepository) Create(_ context.Context, sweet *domain.Sweet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sweet.ID == "" {
		sweet.ID = uuid.NewString()
	}
	now := r.now()
	sweet.CreatedAt, sweet.UpdatedAt = now, now
	r.seq++
	r.sweets[sweet.ID] = &memorySweet{sweet: cloneSweet(*sweet), seq: r.seq}
	return nil
}

func (r *MemorySweetRepository) GetByID(_ context.Context, id string) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	sweet := cloneSweet(entry.sweet)
	return &sweet, nil
}

func (r *MemorySweetRepository) List(ctx context.Context) ([]domain.Sweet, error) {
	return r.Search(ctx, domain.SweetFilter{})
}

func (r *MemorySweetRepository) Search(_ context.Context, filter domain.SweetFilter) ([]domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]*memorySweet, 0, len(r.sweets))
	for _, entry := range r.sweets {
		if filter.Matches(&entry.sweet) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.sweet.CreatedAt.Equal(b.sweet.CreatedAt) {
			return a.sweet.CreatedAt.Before(b.sweet.CreatedAt)
		}
		return a.seq < b.seq
	})

	sweets := make([]domain.Sweet, 0, len(entries))
	for _, entry := range entries {
		sweets = append(sweets, cloneSweet(entry.sweet))
	}
	return sweets, nil
}

func (r *MemorySweetRepository) Update(_ context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	if !patch.Empty() {
		patch.Apply(&entry.sweet)
		entry.sweet.UpdatedAt = r.now()
	}
	sweet := cloneSweet(entry.sweet)
	return &sweet, nil
}

func (r *MemorySweetRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sweets[id]; !ok {
		return domain.ErrSweetNotFound
	}
	delete(r.sweets, id)
	return nil
}

func (r *MemorySweetRepository) Purchase(_ context.Context, id string) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	if !entry.sweet.InStock() {
		return nil, domain.ErrOutOfStock
	}
	entry.sweet.Quantity--
	entry.sweet.UpdatedAt = r.now()
	sweet := cloneSweet(entry.sweet)
	return &sweet, nil
}

func (r *MemorySweetRepository) Restock(_ context.Context, id string, delta int) (*domain.Sweet, error) {
	if delta <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	if !entry.sweet.CanRestock(delta) {
		return nil, domain.ErrInvalidQuantity
	}
	entry.sweet.Quantity += delta
	entry.sweet.UpdatedAt = r.now()
	sweet := cloneSweet(entry.sweet)
	return &sweet, nil
}

func cloneSweet(s domain.Sweet) domain.Sweet {
	if s.Description != nil {
		desc := *s.Description
		s.Description = &desc
	}
	return s
}
