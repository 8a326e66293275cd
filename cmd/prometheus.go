package main

import (
	"swingbot/internal/usecasees/structs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Order     map[structs.MetricConst]prometheus.Counter
	Positions *structs.PositionGauges
}

func (a *App) InitMetrics() {
	metrics := Metrics{Order: map[structs.MetricConst]prometheus.Counter{}}

	for _, name := range []structs.MetricConst{
		structs.MetricOrderEventApplied,
		structs.MetricOrderEventRejected,
		structs.MetricFillLotCreated,
		structs.MetricSellOrderPlaced,
		structs.MetricPositionAlert,
	} {
		metrics.Order[name] = promauto.NewCounter(prometheus.CounterOpts{
			Name: name.ToString(),
			Help: name.ToString(),
		})
	}

	metrics.Positions = &structs.PositionGauges{
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "open_positions",
			Help: "open_positions",
		}),
		OldestPositionAge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "oldest_position_age_seconds",
			Help: "oldest_position_age_seconds",
		}),
	}

	a.Metrics = &metrics
}
