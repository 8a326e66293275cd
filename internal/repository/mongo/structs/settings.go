package structs

import "go.mongodb.org/mongo-driver/bson/primitive"

type SymbolStatus string

const (
	Enabled  SymbolStatus = "ENABLED"
	Disabled SymbolStatus = "DISABLED"
)

func (s SymbolStatus) ToString() string {
	return string(s)
}

// Settings holds the per-symbol trading knobs that can be tuned at
// runtime without a restart. Percentages are fractions (0.003 = 0.3%).
type Settings struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Symbol            string             `bson:"symbol"`
	MinProfitPercent  float64            `bson:"minProfitPercent"`
	FeeRate           float64            `bson:"feeRate"`
	MaxOrderValue     float64            `bson:"maxOrderValue"`
	MinOrderQuantity  float64            `bson:"minOrderQuantity"`
	PositionAlertSec  int64              `bson:"positionAlertSec"`
	Status            string             `bson:"status"`
}
