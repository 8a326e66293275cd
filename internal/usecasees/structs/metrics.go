package structs

import "github.com/prometheus/client_golang/prometheus"

type MetricConst string

const (
	MetricOrderEventApplied  MetricConst = "order_events_applied_total"
	MetricOrderEventRejected MetricConst = "order_events_rejected_total"
	MetricFillLotCreated     MetricConst = "fill_lots_created_total"
	MetricSellOrderPlaced    MetricConst = "sell_orders_placed_total"
	MetricPositionAlert      MetricConst = "position_alerts_total"
)

func (m MetricConst) ToString() string {
	return string(m)
}

// PositionGauges mirror the position fields of the persisted system
// state for scraping.
type PositionGauges struct {
	OpenPositions     prometheus.Gauge
	OldestPositionAge prometheus.Gauge
}
