package usecasees

import (
	"time"

	mongoStructs "swingbot/internal/repository/mongo/structs"
)

// Config carries the static trading knobs for one symbol. Runtime
// overrides come from the settings collection; these values seed it
// and serve as the fallback when the collection is unreachable.
type Config struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string

	MinProfitPercent float64
	FeeRate          float64
	MaxOrderValue    float64
	MinOrderQuantity float64

	PositionAlertThreshold time.Duration
	PositionCheckInterval  time.Duration
}

func (c Config) defaultSettings() mongoStructs.Settings {
	return mongoStructs.Settings{
		Symbol:           c.Symbol,
		MinProfitPercent: c.MinProfitPercent,
		FeeRate:          c.FeeRate,
		MaxOrderValue:    c.MaxOrderValue,
		MinOrderQuantity: c.MinOrderQuantity,
		PositionAlertSec: int64(c.PositionAlertThreshold / time.Second),
		Status:           mongoStructs.Enabled.ToString(),
	}
}
