package usecasees

import "github.com/pkg/errors"

// epsilonGuard bumps the computed sell price by a hair so float64
// rounding can never leave the realized profit under the target.
const epsilonGuard = 1.00001

// CalculateMinSellPrice returns the lowest limit price at which selling
// quantity units bought at buyPrice nets at least minProfitPct of the
// raw cost after paying feeRate on both legs.
//
// required = cost*(1+feeRate) + cost*minProfitPct
// price    = required / (quantity*(1-feeRate))
func CalculateMinSellPrice(buyPrice, quantity, minProfitPct, feeRate float64) (float64, error) {
	switch {
	case buyPrice <= 0:
		return 0, errors.Wrap(ErrInvalidInput, "buy price must be positive")
	case quantity <= 0:
		return 0, errors.Wrap(ErrInvalidInput, "quantity must be positive")
	case minProfitPct < 0:
		return 0, errors.Wrap(ErrInvalidInput, "min profit must not be negative")
	case feeRate < 0 || feeRate >= 1:
		return 0, errors.Wrap(ErrInvalidInput, "fee rate must be in [0,1)")
	}

	cost := buyPrice * quantity
	required := cost*(1+feeRate) + cost*minProfitPct

	price := required / (quantity * (1 - feeRate))
	if price*quantity*(1-feeRate) < required {
		price *= epsilonGuard
	}

	return price, nil
}

// CalculateNetProfit returns the realized profit of a round trip after
// fees on both legs. Negative output means a loss.
func CalculateNetProfit(buyPrice, sellPrice, quantity, feeRate float64) (float64, error) {
	switch {
	case buyPrice <= 0 || sellPrice <= 0:
		return 0, errors.Wrap(ErrInvalidInput, "prices must be positive")
	case quantity <= 0:
		return 0, errors.Wrap(ErrInvalidInput, "quantity must be positive")
	case feeRate < 0 || feeRate >= 1:
		return 0, errors.Wrap(ErrInvalidInput, "fee rate must be in [0,1)")
	}

	proceeds := sellPrice * quantity * (1 - feeRate)
	spent := buyPrice * quantity * (1 + feeRate)

	return proceeds - spent, nil
}
