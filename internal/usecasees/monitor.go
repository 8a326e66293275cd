package usecasees

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"swingbot/internal/usecasees/structs"
	"swingbot/models"
)

// PositionMonitoring starts the background sweep that measures how
// long bought inventory has sat unsold and alerts once per position
// when it crosses the configured threshold.
func (u *orderUseCase) PositionMonitoring(ctx context.Context) {
	ticker := time.NewTicker(u.cfg.PositionCheckInterval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := u.checkPositions(); err != nil {
					u.logger.
						WithError(err).
						Error("position check failed")
				}
			}
		}
	}()
}

func (u *orderUseCase) checkPositions() error {
	settings := u.tradingSettings()
	threshold := time.Duration(settings.PositionAlertSec) * time.Second
	now := time.Now()

	parents, err := u.orderRepo.GetBuyParents(u.cfg.Symbol)
	if err != nil {
		return err
	}

	openCount := 0
	var oldest time.Duration
	active := make(map[string]struct{})

	for i := range parents {
		parent := &parents[i]

		if parent.FilledQuantity <= quantityEpsilon {
			continue
		}

		sold, opened, err := u.positionProgress(parent)
		if err != nil {
			return err
		}

		if sold+quantityEpsilon >= parent.FilledQuantity {
			continue
		}

		openCount++
		active[parent.OrderID] = struct{}{}

		age := now.Sub(opened)
		if age > oldest {
			oldest = age
		}

		if threshold > 0 && age > threshold {
			u.alertPosition(parent, age, parent.FilledQuantity-sold)
		}
	}

	u.prunePositionAlerts(active)

	if err := u.stateRepo.SetPositions(openCount, int64(oldest.Seconds())); err != nil {
		return err
	}

	if u.gauges != nil {
		u.gauges.OpenPositions.Set(float64(openCount))
		u.gauges.OldestPositionAge.Set(oldest.Seconds())
	}

	return nil
}

// positionProgress walks a buy order's lot children and their sells.
// It returns the filled-then-sold quantity and the position's opening
// time, the earliest timestamp among the order and its lots.
func (u *orderUseCase) positionProgress(parent *models.Order) (float64, time.Time, error) {
	opened := parent.CreatedAt
	sold := 0.0

	children, err := u.orderRepo.GetRelated(parent.OrderID)
	if err != nil {
		return 0, opened, err
	}

	for i := range children {
		child := &children[i]

		switch {
		case child.Type == models.OrderTypePartialFill:
			if child.CreatedAt.Before(opened) {
				opened = child.CreatedAt
			}

			sells, err := u.orderRepo.GetRelated(child.OrderID)
			if err != nil {
				return 0, opened, err
			}

			for _, sell := range sells {
				if sell.Side == models.SideSell && sell.Status == models.OrderStatusFilled {
					sold += sell.FilledQuantity
				}
			}
		case child.Side == models.SideSell && child.Status == models.OrderStatusFilled:
			sold += child.FilledQuantity
		}
	}

	return sold, opened, nil
}

func (u *orderUseCase) alertPosition(parent *models.Order, age time.Duration, unsold float64) {
	u.mu.Lock()
	if _, ok := u.alerted[parent.OrderID]; ok {
		u.mu.Unlock()
		return
	}
	u.alerted[parent.OrderID] = struct{}{}
	u.mu.Unlock()

	u.incMetric(structs.MetricPositionAlert)

	u.logger.
		WithField("orderId", parent.OrderID).
		WithField("ageSeconds", int64(age.Seconds())).
		WithField("unsold", unsold).
		Warn("position exceeds age threshold")

	if err := u.tgmController.Send(fmt.Sprintf(
		"[ POSITION ALERT ]\nSymbol:\t%s\nOrder:\t%s\nUnsold:\t%.8f\nAge:\t%s",
		parent.Symbol, parent.OrderID, unsold, age.Round(time.Second),
	)); err != nil {
		u.logger.WithError(err).Error(string(debug.Stack()))
	}
}

// prunePositionAlerts forgets alerts for positions that have closed so
// a reopened position alerts again.
func (u *orderUseCase) prunePositionAlerts(active map[string]struct{}) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for id := range u.alerted {
		if _, ok := active[id]; !ok {
			delete(u.alerted, id)
		}
	}
}
