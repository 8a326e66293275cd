package usecasees

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_CalculateMinSellPrice(t *testing.T) {
	t.Run("covers fees and profit target", func(t *testing.T) {
		price, err := CalculateMinSellPrice(100, 1, 0.002, 0.001)
		assert.NoError(t, err)

		// cost 100, buy fee 0.1, profit target 0.2, sell leg keeps
		// 99.9% of proceeds.
		assert.InDelta(t, 100.3/0.999, price, 0.01)

		profit, err := CalculateNetProfit(100, price, 1, 0.001)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, profit, 0.2)
	})

	t.Run("small position", func(t *testing.T) {
		price, err := CalculateMinSellPrice(1.0, 100, 0.003, 0.001)
		assert.NoError(t, err)
		assert.InDelta(t, 1.00501, price, 1e-4)
	})

	t.Run("zero fee", func(t *testing.T) {
		price, err := CalculateMinSellPrice(100, 2, 0.01, 0)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, price, 101.0)
		assert.InDelta(t, 101, price, 0.01)
	})

	t.Run("profit never below target", func(t *testing.T) {
		cases := []struct {
			buyPrice  float64
			quantity  float64
			minProfit float64
			feeRate   float64
		}{
			{19632.17, 0.0006, 0.002, 0.001},
			{0.067321, 1500, 0.005, 0.00075},
			{1.0000003, 3.0000001, 0.0001, 0.001},
			{100000, 0.00001, 0.01, 0.001},
		}

		for _, c := range cases {
			price, err := CalculateMinSellPrice(c.buyPrice, c.quantity, c.minProfit, c.feeRate)
			assert.NoError(t, err)

			profit, err := CalculateNetProfit(c.buyPrice, price, c.quantity, c.feeRate)
			assert.NoError(t, err)

			target := c.buyPrice * c.quantity * c.minProfit
			assert.GreaterOrEqual(t, profit, target,
				"buy %.8f qty %.8f", c.buyPrice, c.quantity)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := CalculateMinSellPrice(0, 1, 0.002, 0.001)
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = CalculateMinSellPrice(100, 0, 0.002, 0.001)
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = CalculateMinSellPrice(100, 1, -0.002, 0.001)
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = CalculateMinSellPrice(100, 1, 0.002, 1)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func Test_CalculateNetProfit(t *testing.T) {
	t.Run("loss comes out negative", func(t *testing.T) {
		profit, err := CalculateNetProfit(100, 99, 1, 0.001)
		assert.NoError(t, err)
		assert.Less(t, profit, 0.0)
	})

	t.Run("breakeven price loses the fees", func(t *testing.T) {
		profit, err := CalculateNetProfit(100, 100, 1, 0.001)
		assert.NoError(t, err)
		assert.InDelta(t, -0.2, profit, 1e-9)
	})
}
