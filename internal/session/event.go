package session

import (
	"time"

	"swingbot/models"
)

// OrderEvent is the normalized order-update record delivered to
// consumers. Events look the same whether they came from the live
// stream or the REST fallback poller.
type OrderEvent struct {
	OrderID         string
	Status          models.OrderStatus
	Symbol          string
	Side            models.OrderSide
	OrigQty         float64
	Price           float64
	CumFilledQty    float64
	LastFillQty     float64
	LastFillPrice   float64
	Commission      float64
	CommissionAsset string
	EventTime       time.Time
}

// NormalizeStatus maps an exchange-native status onto the closed
// vocabulary. Anything unknown maps to REJECTED; callers log the raw
// value before dropping further processing on it.
func NormalizeStatus(raw string) (models.OrderStatus, bool) {
	switch raw {
	case "NEW", "OPEN":
		return models.OrderStatusOpen, true
	case "PARTIALLY_FILLED":
		return models.OrderStatusPartiallyFilled, true
	case "FILLED":
		return models.OrderStatusFilled, true
	case "CANCELED", "CANCELLED":
		return models.OrderStatusCancelled, true
	case "REJECTED":
		return models.OrderStatusRejected, true
	case "EXPIRED", "EXPIRED_IN_MATCH":
		return models.OrderStatusExpired, true
	}

	return models.OrderStatusRejected, false
}
