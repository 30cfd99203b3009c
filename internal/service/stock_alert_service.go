package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/sweet-shop/internal/config"
	"github.com/spec-kit/sweet-shop/internal/events"
	"github.com/spec-kit/sweet-shop/internal/observability"
)

// StockAlertService audits catalog events and raises low-stock alerts.
type StockAlertService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.InventoryConfig
}

// NewStockAlertService creates the service.
func NewStockAlertService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, cfg config.InventoryConfig) *StockAlertService {
	return &StockAlertService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (s *StockAlertService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		s.dispatcher.Subscribe(eventType, s.handleAudit)
	}
	s.dispatcher.Subscribe(events.EventSweetPurchased, s.handleLowStock)
}

func (s *StockAlertService) handleAudit(_ context.Context, event events.Event) error {
	s.metrics.RecordInventoryEvent(string(event.Type))
	s.logger.Info("inventory event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("sweet_id", event.SweetID),
		zap.String("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	return nil
}

func (s *StockAlertService) handleLowStock(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StockChangedPayload)
	if !ok || s.cfg.LowStockThreshold <= 0 {
		return nil
	}
	if payload.Quantity > s.cfg.LowStockThreshold {
		return nil
	}
	s.metrics.RecordLowStock()
	s.logger.Warn("sweet stock is low",
		zap.String("sweet_id", event.SweetID),
		zap.String("name", payload.Name),
		zap.Int("quantity", payload.Quantity),
		zap.Int("threshold", s.cfg.LowStockThreshold))
	return nil
}
