package usecasees

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"swingbot/models"
)

func Test_ValidateTransition(t *testing.T) {
	terminals := []models.OrderStatus{
		models.OrderStatusFilled,
		models.OrderStatusCancelled,
		models.OrderStatusRejected,
		models.OrderStatusExpired,
	}

	all := append([]models.OrderStatus{
		models.OrderStatusOpen,
		models.OrderStatusPartiallyFilled,
	}, terminals...)

	t.Run("open fans out everywhere", func(t *testing.T) {
		for _, next := range all {
			assert.NoError(t, ValidateTransition(models.OrderStatusOpen, next), "OPEN -> %s", next)
		}
	})

	t.Run("partial fill narrows", func(t *testing.T) {
		assert.NoError(t, ValidateTransition(models.OrderStatusPartiallyFilled, models.OrderStatusPartiallyFilled))
		assert.NoError(t, ValidateTransition(models.OrderStatusPartiallyFilled, models.OrderStatusFilled))
		assert.NoError(t, ValidateTransition(models.OrderStatusPartiallyFilled, models.OrderStatusCancelled))

		assert.ErrorIs(t,
			ValidateTransition(models.OrderStatusPartiallyFilled, models.OrderStatusOpen),
			ErrInvalidTransition)
		assert.ErrorIs(t,
			ValidateTransition(models.OrderStatusPartiallyFilled, models.OrderStatusRejected),
			ErrInvalidTransition)
		assert.ErrorIs(t,
			ValidateTransition(models.OrderStatusPartiallyFilled, models.OrderStatusExpired),
			ErrInvalidTransition)
	})

	t.Run("terminal statuses are closed", func(t *testing.T) {
		for _, terminal := range terminals {
			for _, next := range all {
				assert.ErrorIs(t,
					ValidateTransition(terminal, next),
					ErrInvalidTransition,
					"%s -> %s", terminal, next)
			}
		}
	})
}

func Test_ValidateFillUpdate(t *testing.T) {
	order := &models.Order{
		OrderID:        "100001",
		Quantity:       100,
		FilledQuantity: 30,
	}

	t.Run("growth is fine", func(t *testing.T) {
		assert.NoError(t, ValidateFillUpdate(order, 30))
		assert.NoError(t, ValidateFillUpdate(order, 70))
		assert.NoError(t, ValidateFillUpdate(order, 100))
	})

	t.Run("regression rejected", func(t *testing.T) {
		assert.ErrorIs(t, ValidateFillUpdate(order, 29.9), ErrFillRegression)
	})

	t.Run("overfill rejected", func(t *testing.T) {
		assert.ErrorIs(t, ValidateFillUpdate(order, 100.1), ErrQuantityExceeded)
	})

	t.Run("parse noise tolerated", func(t *testing.T) {
		assert.NoError(t, ValidateFillUpdate(order, 100+1e-12))
		assert.NoError(t, ValidateFillUpdate(order, 30-1e-12))
	})
}

func Test_ValidateSellPlacement(t *testing.T) {
	lot := &models.Order{
		OrderID:        "100001_fill_1661000000000",
		Status:         models.OrderStatusFilled,
		Quantity:       30,
		FilledQuantity: 30,
	}

	t.Run("plain sell passes", func(t *testing.T) {
		assert.NoError(t, ValidateSellPlacement(lot, 30, nil, 100, 10000))
	})

	t.Run("cancelled sells free their quantity", func(t *testing.T) {
		existing := []models.Order{
			{Side: models.SideSell, Status: models.OrderStatusCancelled, Quantity: 30},
		}
		assert.NoError(t, ValidateSellPlacement(lot, 30, existing, 100, 10000))
	})

	t.Run("live sells count against the lot", func(t *testing.T) {
		existing := []models.Order{
			{Side: models.SideSell, Status: models.OrderStatusOpen, Quantity: 20},
		}
		assert.ErrorIs(t,
			ValidateSellPlacement(lot, 15, existing, 100, 10000),
			ErrQuantityExceeded)
		assert.NoError(t, ValidateSellPlacement(lot, 10, existing, 100, 10000))
	})

	t.Run("unfilled lot is not sellable", func(t *testing.T) {
		open := &models.Order{
			OrderID:  "100002",
			Status:   models.OrderStatusOpen,
			Quantity: 30,
		}
		assert.ErrorIs(t, ValidateSellPlacement(open, 30, nil, 100, 10000), ErrInvalidState)
	})

	t.Run("notional cap", func(t *testing.T) {
		assert.ErrorIs(t,
			ValidateSellPlacement(lot, 30, nil, 1000, 10000),
			ErrSizeLimitExceeded)
	})
}

func Test_ValidateNewOrder(t *testing.T) {
	assert.NoError(t, ValidateNewOrder("BTCBUSD", "BTCBUSD", 0.001, 20000, 100))
	assert.ErrorIs(t, ValidateNewOrder("ETHBUSD", "BTCBUSD", 0.001, 20000, 100), ErrInvalidInput)
	assert.ErrorIs(t, ValidateNewOrder("BTCBUSD", "BTCBUSD", 0, 20000, 100), ErrInvalidInput)
	assert.ErrorIs(t, ValidateNewOrder("BTCBUSD", "BTCBUSD", 0.01, 20000, 100), ErrSizeLimitExceeded)
}
