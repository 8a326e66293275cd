package postgres

import (
	"swingbot/models"
)

//go:generate mockery --case=snake --name=OrderRepo
//go:generate mockery --case=snake --name=StateRepo

// OrderRepo is the persistence contract for order rows. InTx hands the
// callback a repository bound to one transaction; everything done
// through it commits or rolls back as a unit. Savepoint is a no-op
// outside a transaction.
type OrderRepo interface {
	InTx(fn func(repo OrderRepo) error) error
	Savepoint(name string, fn func() error) error
	Store(m *models.Order) error
	GetByOrderID(orderID string) (*models.Order, error)
	GetRelated(orderID string) ([]models.Order, error)
	GetOpen(symbol string) ([]models.Order, error)
	GetBuyParents(symbol string) ([]models.Order, error)
	GetUnsoldLots(symbol, baseAsset string, minQuantity float64) ([]models.Order, error)
	SetStatusFill(orderID string, status models.OrderStatus, filledQty, avgPrice float64) error
}

type StateRepo interface {
	Get() (*models.SystemState, error)
	SetStreamStatus(channel, status, lastError string, attempts int) error
	SetPositions(count int, oldestAgeSeconds int64) error
}
