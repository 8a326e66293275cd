package models

import (
	"fmt"
	"time"
)

// OrderStatus is the normalized status vocabulary. Exchange-native
// statuses outside this set are mapped to REJECTED on ingress.
type OrderStatus string

const (
	OrderStatusOpen            OrderStatus = "OPEN"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusOpen,
		OrderStatusPartiallyFilled,
		OrderStatusFilled,
		OrderStatusCancelled,
		OrderStatusRejected,
		OrderStatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled,
		OrderStatusCancelled,
		OrderStatusRejected,
		OrderStatusExpired:
		return true
	}
	return false
}

type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"

	// OrderTypePartialFill marks a synthetic row materialized for a
	// discrete fill of a BUY order, treated as an independent
	// cost-basis lot.
	OrderTypePartialFill OrderType = "PARTIAL_FILL"
)

type Order struct {
	ID              string      `db:"id"`
	OrderID         string      `db:"order_id"`
	Symbol          string      `db:"symbol"`
	Side            OrderSide   `db:"side"`
	Quantity        float64     `db:"quantity"`
	FilledQuantity  float64     `db:"filled_quantity"`
	Price           float64     `db:"price"`
	AvgFillPrice    float64     `db:"avg_fill_price"`
	Status          OrderStatus `db:"status"`
	Type            OrderType   `db:"type"`
	RelatedOrderID  string      `db:"related_order_id"`
	Commission      float64     `db:"commission"`
	CommissionAsset string      `db:"commission_asset"`
	CreatedAt       time.Time   `db:"created_at"`
	StatusUpdatedAt time.Time   `db:"status_updated_at"`
}

// LotOrderID builds the synthetic order id for a partial-fill lot.
func LotOrderID(parentOrderID string, eventTime time.Time) string {
	return fmt.Sprintf("%s_fill_%d", parentOrderID, eventTime.UnixMilli())
}
