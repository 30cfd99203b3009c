package worker

import (
	"github.com/spec-kit/sweet-shop/internal/service"
)

// StartStockAlertWorker subscribes the stock alert handlers to the dispatcher.
func StartStockAlertWorker(alerts *service.StockAlertService) {
	if alerts == nil {
		return
	}
	alerts.RegisterHandlers()
}
