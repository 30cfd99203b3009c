package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/sweet-shop/internal/config"
	"github.com/spec-kit/sweet-shop/internal/domain"
	"github.com/spec-kit/sweet-shop/internal/events"
	"github.com/spec-kit/sweet-shop/internal/repository"
)

var (
	admin    = &domain.User{ID: "admin-1", Role: domain.RoleAdmin}
	customer = &domain.User{ID: "user-1", Role: domain.RoleUser}
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newInventory(t *testing.T) (*InventoryService, *recorder, events.Dispatcher) {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorder{}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, rec.handle)
	}
	return NewInventoryService(repository.NewMemorySweetRepository(), dispatcher, zap.NewNop()), rec, dispatcher
}

func createSweet(t *testing.T, svc *InventoryService, name string, qty int) *domain.Sweet {
	t.Helper()
	sweet, err := svc.Create(context.Background(), admin, CreateSweetInput{
		Name:     name,
		Category: "Candy",
		Price:    1.5,
		Quantity: qty,
	})
	require.NoError(t, err)
	return sweet
}

func TestInventoryServiceMutationsRequireAdmin(t *testing.T) {
	ctx := context.Background()
	svc, rec, _ := newInventory(t)
	sweet := createSweet(t, svc, "Fudge", 3)
	price := 2.0

	_, err := svc.Create(ctx, customer, CreateSweetInput{Name: "X", Category: "Y", Price: 1})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Update(ctx, customer, sweet.ID, domain.SweetPatch{Price: &price})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, customer, sweet.ID), domain.ErrForbidden)
	_, err = svc.Restock(ctx, customer, sweet.ID, 5)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Create(ctx, nil, CreateSweetInput{Name: "X", Category: "Y", Price: 1})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = svc.Purchase(ctx, nil, sweet.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	got, err := svc.Get(ctx, sweet.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.Price)
	assert.Equal(t, []events.EventType{events.EventSweetCreated}, rec.types())
}

func TestInventoryServiceCreateValidates(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)

	_, err := svc.Create(ctx, admin, CreateSweetInput{Name: "  ", Category: "Candy", Price: 1})
	assert.ErrorIs(t, err, domain.ErrBlankField)
	_, err = svc.Create(ctx, admin, CreateSweetInput{Name: "Fudge", Category: "Candy", Price: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	_, err = svc.Create(ctx, admin, CreateSweetInput{Name: "Fudge", Category: "Candy", Price: 1, Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	blank := "   "
	sweet, err := svc.Create(ctx, admin, CreateSweetInput{Name: " Fudge ", Category: "Candy", Price: 1, Description: &blank})
	require.NoError(t, err)
	assert.Equal(t, "Fudge", sweet.Name)
	assert.Nil(t, sweet.Description)
}

func TestInventoryServicePurchaseAndRestock(t *testing.T) {
	ctx := context.Background()
	svc, rec, _ := newInventory(t)
	sweet := createSweet(t, svc, "Fudge", 1)

	got, err := svc.Purchase(ctx, customer, sweet.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)

	_, err = svc.Purchase(ctx, customer, sweet.ID)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)

	_, err = svc.Restock(ctx, admin, sweet.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	got, err = svc.Restock(ctx, admin, sweet.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)

	assert.Equal(t, []events.EventType{
		events.EventSweetCreated,
		events.EventSweetPurchased,
		events.EventSweetRestocked,
	}, rec.types())

	purchase := rec.events[1]
	assert.Equal(t, customer.ID, purchase.Actor.UserID)
	assert.Equal(t, events.StockChangedPayload{Name: "Fudge", Delta: -1, Quantity: 0}, purchase.Payload)
}

func TestInventoryServiceRestockNeverOverflowsStock(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)
	sweet := createSweet(t, svc, "Jalebi", 1)

	_, err := svc.Restock(ctx, admin, sweet.ID, math.MaxInt)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	got, err := svc.Purchase(ctx, customer, sweet.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)

	tooMany := domain.MaxQuantity + 1
	_, err = svc.Update(ctx, admin, sweet.ID, domain.SweetPatch{Quantity: &tooMany})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestInventoryServiceUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)
	sweet := createSweet(t, svc, "Fudge", 1)

	blank, negative, zero := " ", -1, 0.0
	_, err := svc.Update(ctx, admin, sweet.ID, domain.SweetPatch{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrBlankField)
	_, err = svc.Update(ctx, admin, sweet.ID, domain.SweetPatch{Quantity: &negative})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = svc.Update(ctx, admin, sweet.ID, domain.SweetPatch{Price: &zero})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	name := "  Vanilla Fudge "
	got, err := svc.Update(ctx, admin, sweet.ID, domain.SweetPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Vanilla Fudge", got.Name)
	assert.Equal(t, "Candy", got.Category)

	_, err = svc.Update(ctx, admin, "missing", domain.SweetPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrSweetNotFound)
}

func TestInventoryServiceHandlerFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	svc, _, dispatcher := newInventory(t)
	dispatcher.Subscribe(events.EventSweetDeleted, func(context.Context, events.Event) error {
		return errors.New("audit sink down")
	})
	sweet := createSweet(t, svc, "Fudge", 1)

	require.NoError(t, svc.Delete(ctx, admin, sweet.ID))
	_, err := svc.Get(ctx, sweet.ID)
	assert.ErrorIs(t, err, domain.ErrSweetNotFound)
}

func TestStockAlertServiceWarnsOnLowStock(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewStockAlertService(dispatcher, zap.New(core), nil, config.InventoryConfig{LowStockThreshold: 2}).RegisterHandlers()
	svc := NewInventoryService(repository.NewMemorySweetRepository(), dispatcher, zap.NewNop())

	sweet := createSweet(t, svc, "Fudge", 4)
	_, err := svc.Purchase(ctx, customer, sweet.ID)
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("sweet stock is low").Len())

	_, err = svc.Purchase(ctx, customer, sweet.ID)
	require.NoError(t, err)
	alerts := logs.FilterMessage("sweet stock is low").All()
	require.Len(t, alerts, 1)
	assert.Equal(t, int64(2), alerts[0].ContextMap()["quantity"])

	assert.Equal(t, 3, logs.FilterMessage("inventory event").Len())
}
