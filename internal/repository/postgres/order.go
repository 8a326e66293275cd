package postgres

import (
	"fmt"
	"time"

	"swingbot/models"

	"github.com/jmoiron/sqlx"
)

type OrderRepository struct {
	conn *sqlx.DB
	ext  sqlx.Ext
}

func NewOrderRepository(conn *sqlx.DB) OrderRepo {
	return &OrderRepository{
		conn: conn,
		ext:  conn,
	}
}

func (r *OrderRepository) InTx(fn func(repo OrderRepo) error) error {
	if r.conn == nil {
		// Already transaction-bound, reuse it.
		return fn(r)
	}

	tx, err := r.conn.Beginx()
	if err != nil {
		return err
	}

	if err := fn(&OrderRepository{ext: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *OrderRepository) Savepoint(name string, fn func() error) error {
	tx, ok := r.ext.(*sqlx.Tx)
	if !ok {
		return fn()
	}

	if _, err := tx.Exec(fmt.Sprintf("SAVEPOINT %s", name)); err != nil {
		return err
	}

	if err := fn(); err != nil {
		if _, rbErr := tx.Exec(fmt.Sprintf("ROLLBACK TO SAVEPOINT %s", name)); rbErr != nil {
			return rbErr
		}
		return err
	}

	_, err := tx.Exec(fmt.Sprintf("RELEASE SAVEPOINT %s", name))

	return err
}

func (r *OrderRepository) Store(m *models.Order) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.StatusUpdatedAt.IsZero() {
		m.StatusUpdatedAt = m.CreatedAt
	}

	if _, err := sqlx.NamedExec(r.ext,
		`INSERT INTO orders
		(id,order_id,symbol,side,quantity,filled_quantity,price,avg_fill_price,status,type,related_order_id,commission,commission_asset,created_at,status_updated_at)
		VALUES
		(:id,:order_id,:symbol,:side,:quantity,:filled_quantity,:price,:avg_fill_price,:status,:type,:related_order_id,:commission,:commission_asset,:created_at,:status_updated_at)`,
		m); err != nil {
		return err
	}

	return nil
}

func (r *OrderRepository) GetByOrderID(orderID string) (*models.Order, error) {
	var order models.Order

	if err := r.ext.QueryRowx("SELECT * FROM orders WHERE order_id = $1 LIMIT 1", orderID).StructScan(&order); err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *OrderRepository) GetRelated(orderID string) ([]models.Order, error) {
	var orders []models.Order

	if err := sqlx.Select(r.ext, &orders, "SELECT * FROM orders WHERE related_order_id = $1 ORDER BY created_at;", orderID); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *OrderRepository) GetOpen(symbol string) ([]models.Order, error) {
	var orders []models.Order

	if err := sqlx.Select(r.ext, &orders,
		"SELECT * FROM orders WHERE symbol = $1 AND status IN ($2, $3) ORDER BY created_at;",
		symbol, models.OrderStatusOpen, models.OrderStatusPartiallyFilled); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *OrderRepository) GetBuyParents(symbol string) ([]models.Order, error) {
	var orders []models.Order

	if err := sqlx.Select(r.ext, &orders,
		"SELECT * FROM orders WHERE symbol = $1 AND side = $2 AND type <> $3 ORDER BY created_at;",
		symbol, models.SideBuy, models.OrderTypePartialFill); err != nil {
		return nil, err
	}

	return orders, nil
}

// GetUnsoldLots returns FILLED partial-fill lots still holding a
// sellable remainder of at least minQuantity. The sellable quantity
// deducts a base-asset commission and the non-cancelled sells already
// placed, so sold-out and dust lots leave the sweep set.
func (r *OrderRepository) GetUnsoldLots(symbol, baseAsset string, minQuantity float64) ([]models.Order, error) {
	var orders []models.Order

	if err := sqlx.Select(r.ext, &orders,
		`SELECT l.* FROM orders l
		WHERE l.symbol = $1 AND l.type = $2 AND l.status = $3
		AND l.filled_quantity
			- CASE WHEN l.commission_asset = $4 THEN l.commission ELSE 0 END
			- COALESCE(
				(SELECT SUM(s.quantity) FROM orders s
				 WHERE s.related_order_id = l.order_id AND s.side = $5 AND s.status <> $6), 0)
			>= $7
		ORDER BY l.created_at;`,
		symbol, models.OrderTypePartialFill, models.OrderStatusFilled,
		baseAsset, models.SideSell, models.OrderStatusCancelled, minQuantity); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *OrderRepository) SetStatusFill(orderID string, status models.OrderStatus, filledQty, avgPrice float64) error {
	if _, err := r.ext.Exec(
		"UPDATE orders SET status = $1, filled_quantity = $2, avg_fill_price = $3, status_updated_at = $4 WHERE order_id = $5;",
		status, filledQty, avgPrice, time.Now().UTC(), orderID); err != nil {
		return err
	}

	return nil
}
