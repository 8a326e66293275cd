package usecasees

import "github.com/pkg/errors"

// Validation failures are typed so callers can tell an expected
// rejection from an infrastructure fault.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidState      = errors.New("order is not in a sellable state")
	ErrInvalidTransition = errors.New("status transition not permitted")
	ErrFillRegression    = errors.New("cumulative fill quantity decreased")
	ErrQuantityExceeded  = errors.New("quantity exceeds available fill")
	ErrSizeLimitExceeded = errors.New("order notional exceeds configured maximum")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTradingDisabled   = errors.New("trading disabled for symbol")
)
