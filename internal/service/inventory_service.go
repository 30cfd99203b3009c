package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sweet-shop/internal/auth"
	"github.com/spec-kit/sweet-shop/internal/domain"
	"github.com/spec-kit/sweet-shop/internal/events"
	"github.com/spec-kit/sweet-shop/internal/repository"
)

// CreateSweetInput carries the fields of a new catalog item.
type CreateSweetInput struct {
	Name        string
	Category    string
	Description *string
	Price       float64
	Quantity    int
}

// InventoryService orchestrates catalog reads and mutations. Mutations take
// the acting user explicitly and check its role before touching the store.
type InventoryService struct {
	sweets     repository.SweetRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewInventoryService constructs the service.
func NewInventoryService(sweets repository.SweetRepository, dispatcher events.Dispatcher, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{sweets: sweets, dispatcher: dispatcher, logger: logger}
}

// Create adds a sweet to the catalog. Admin only.
func (s *InventoryService) Create(ctx context.Context, actor *domain.User, in CreateSweetInput) (*domain.Sweet, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	sweet := &domain.Sweet{
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Description: normalizeDescription(in.Description),
		Price:       in.Price,
		Quantity:    in.Quantity,
	}
	if err := sweet.Validate(); err != nil {
		return nil, err
	}
	if err := s.sweets.Create(ctx, sweet); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventSweetCreated, sweet.ID, actor, changedPayload(sweet)))
	return sweet, nil
}

// List returns the whole catalog in creation order.
func (s *InventoryService) List(ctx context.Context) ([]domain.Sweet, error) {
	return s.sweets.List(ctx)
}

// Search returns sweets matching every predicate set in filter.
func (s *InventoryService) Search(ctx context.Context, filter domain.SweetFilter) ([]domain.Sweet, error) {
	return s.sweets.Search(ctx, filter)
}

// Get returns a single sweet.
func (s *InventoryService) Get(ctx context.Context, id string) (*domain.Sweet, error) {
	return s.sweets.GetByID(ctx, id)
}

// Update applies a partial change. Admin only.
func (s *InventoryService) Update(ctx context.Context, actor *domain.User, id string, patch domain.SweetPatch) (*domain.Sweet, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if patch.Price != nil && *patch.Price <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	if patch.Quantity != nil && (*patch.Quantity < 0 || *patch.Quantity > domain.MaxQuantity) {
		return nil, domain.ErrInvalidQuantity
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.ErrBlankField
		}
		patch.Name = &name
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		if category == "" {
			return nil, domain.ErrBlankField
		}
		patch.Category = &category
	}

	sweet, err := s.sweets.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.EventSweetUpdated, sweet.ID, actor, changedPayload(sweet)))
	return sweet, nil
}

// Delete removes a sweet. Admin only.
func (s *InventoryService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.sweets.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(events.EventSweetDeleted, id, actor, nil))
	return nil
}

// Purchase takes one unit out of stock. Any authenticated user may buy.
func (s *InventoryService) Purchase(ctx context.Context, actor *domain.User, id string) (*domain.Sweet, error) {
	if err := auth.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	sweet, err := s.sweets.Purchase(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.EventSweetPurchased, sweet.ID, actor, events.StockChangedPayload{
		Name:     sweet.Name,
		Delta:    -1,
		Quantity: sweet.Quantity,
	}))
	return sweet, nil
}

// Restock adds delta units. Admin only. The resulting stock must not
// exceed domain.MaxQuantity.
func (s *InventoryService) Restock(ctx context.Context, actor *domain.User, id string, delta int) (*domain.Sweet, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if delta <= 0 || delta > domain.MaxQuantity {
		return nil, domain.ErrInvalidQuantity
	}
	sweet, err := s.sweets.Restock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.EventSweetRestocked, sweet.ID, actor, events.StockChangedPayload{
		Name:     sweet.Name,
		Delta:    delta,
		Quantity: sweet.Quantity,
	}))
	return sweet, nil
}

func (s *InventoryService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("inventory event handler failed",
			zap.String("type", string(event.Type)),
			zap.String("sweet_id", event.SweetID),
			zap.Error(err))
	}
}

func changedPayload(sweet *domain.Sweet) events.SweetChangedPayload {
	return events.SweetChangedPayload{
		Name:     sweet.Name,
		Category: sweet.Category,
		Price:    sweet.Price,
		Quantity: sweet.Quantity,
	}
}

func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
