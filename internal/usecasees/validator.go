package usecasees

import (
	"github.com/pkg/errors"

	"swingbot/models"
)

// validTransitions enumerates every permitted status move. Terminal
// statuses have no outgoing edges and are rejected before the lookup.
var validTransitions = map[models.OrderStatus]map[models.OrderStatus]struct{}{
	models.OrderStatusOpen: {
		models.OrderStatusPartiallyFilled: {},
		models.OrderStatusFilled:          {},
		models.OrderStatusCancelled:       {},
		models.OrderStatusRejected:        {},
		models.OrderStatusExpired:         {},
	},
	models.OrderStatusPartiallyFilled: {
		models.OrderStatusPartiallyFilled: {},
		models.OrderStatusFilled:          {},
		models.OrderStatusCancelled:       {},
	},
}

// ValidateTransition checks a status move against the lifecycle table.
// Any move out of a terminal status fails, including to itself.
func ValidateTransition(current, next models.OrderStatus) error {
	if current.Terminal() {
		return errors.Wrapf(ErrInvalidTransition, "%s is terminal, got %s", current, next)
	}

	if current == next {
		return nil
	}

	if _, ok := validTransitions[current][next]; !ok {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", current, next)
	}

	return nil
}

// ValidateNewOrder vets the parameters of an order before it is
// submitted to the exchange.
func ValidateNewOrder(symbol, expectedSymbol string, quantity, price, maxNotional float64) error {
	switch {
	case symbol != expectedSymbol:
		return errors.Wrapf(ErrInvalidInput, "symbol %s, expected %s", symbol, expectedSymbol)
	case quantity <= 0:
		return errors.Wrap(ErrInvalidInput, "quantity must be positive")
	case price <= 0:
		return errors.Wrap(ErrInvalidInput, "price must be positive")
	}

	if maxNotional > 0 && quantity*price > maxNotional {
		return errors.Wrapf(ErrSizeLimitExceeded, "notional %.8f over limit %.8f", quantity*price, maxNotional)
	}

	return nil
}

// ValidateFillUpdate enforces fill monotonicity: the cumulative filled
// quantity may only grow and may never exceed the order quantity.
// Comparisons carry quantityEpsilon so an exact full fill perturbed by
// parse noise is not rejected.
func ValidateFillUpdate(order *models.Order, newCumQty float64) error {
	if newCumQty < order.FilledQuantity-quantityEpsilon {
		return errors.Wrapf(ErrFillRegression, "order %s: %.8f -> %.8f", order.OrderID, order.FilledQuantity, newCumQty)
	}

	if newCumQty > order.Quantity+quantityEpsilon {
		return errors.Wrapf(ErrQuantityExceeded, "order %s: filled %.8f of %.8f", order.OrderID, newCumQty, order.Quantity)
	}

	return nil
}

// ValidateSellPlacement checks that a prospective sell against a lot
// does not over-commit the lot and stays inside the notional cap.
// existing must hold the sells already linked to the lot, any status.
func ValidateSellPlacement(lot *models.Order, sellQty float64, existing []models.Order, price, maxNotional float64) error {
	if lot.Status != models.OrderStatusFilled && lot.Status != models.OrderStatusPartiallyFilled {
		return errors.Wrapf(ErrInvalidState, "lot %s is %s", lot.OrderID, lot.Status)
	}

	if sellQty <= 0 {
		return errors.Wrap(ErrInvalidInput, "sell quantity must be positive")
	}

	committed := 0.0
	for _, sell := range existing {
		if sell.Side != models.SideSell || sell.Status == models.OrderStatusCancelled {
			continue
		}
		committed += sell.Quantity
	}

	if committed+sellQty > lot.FilledQuantity {
		return errors.Wrapf(ErrQuantityExceeded,
			"lot %s: committed %.8f + new %.8f over filled %.8f",
			lot.OrderID, committed, sellQty, lot.FilledQuantity)
	}

	if maxNotional > 0 && sellQty*price > maxNotional {
		return errors.Wrapf(ErrSizeLimitExceeded, "notional %.8f over limit %.8f", sellQty*price, maxNotional)
	}

	return nil
}
