package usecasees

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ic2hrmk/promtail"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"swingbot/internal/controllers"
	"swingbot/internal/repository/mongo"
	mongoStructs "swingbot/internal/repository/mongo/structs"
	"swingbot/internal/repository/postgres"
	"swingbot/internal/session"
	"swingbot/internal/usecasees/structs"
	"swingbot/models"
)

const (
	orderURLPath = "/v3/order"

	// lotSweepInterval throttles the price-driven retry of unsold
	// lots. Every tick updates the cached price; at most one sweep
	// per interval touches the database.
	lotSweepInterval = time.Second

	// quantityEpsilon absorbs float64 noise when comparing filled
	// against sold quantities.
	quantityEpsilon = 1e-9
)

// PriceSource yields the current market price, preferring the live
// stream cache over a REST round trip.
type PriceSource interface {
	CurrentPrice() (float64, error)
}

// OrderTracker registers order ids with the session layer so the REST
// fallback poller covers them while the user stream is down.
type OrderTracker interface {
	Track(orderID string)
	Untrack(orderID string)
}

// FillEvent is one recorded increment of an order's fill.
type FillEvent struct {
	Quantity float64
	Price    float64
	Time     time.Time
}

// MonitoredOrder is the in-memory view of an order still moving
// through its lifecycle.
type MonitoredOrder struct {
	OrderID     string
	TotalFilled float64
	LastUpdate  time.Time
	Fills       []FillEvent
}

type orderUseCase struct {
	clientController controllers.ClientCtrl
	cryptoController controllers.CryptoCtrl
	tgmController    controllers.TgmCtrl

	orderRepo    postgres.OrderRepo
	stateRepo    postgres.StateRepo
	settingsRepo mongo.SettingsRepo

	prices  PriceSource
	tracker OrderTracker

	cfg Config
	url string

	metrics map[structs.MetricConst]prometheus.Counter
	gauges  *structs.PositionGauges

	logger   *logrus.Logger
	promTail promtail.Client

	mu        sync.Mutex
	monitored map[string]*MonitoredOrder
	alerted   map[string]struct{}
	lastSweep time.Time

	// orderLocks serializes the lookup-validate-update sequence per
	// order id. The stream and the REST fallback poller can report
	// the same order concurrently during a reconnect window; without
	// the lock both would read the stale fill and double-book the
	// delta.
	orderLocksMu sync.Mutex
	orderLocks   map[string]*sync.Mutex
}

func NewOrderUseCase(
	client controllers.ClientCtrl,
	crypto controllers.CryptoCtrl,
	tgmController controllers.TgmCtrl,
	orderRepo postgres.OrderRepo,
	stateRepo postgres.StateRepo,
	settingsRepo mongo.SettingsRepo,
	prices PriceSource,
	tracker OrderTracker,
	cfg Config,
	url string,
	metrics map[structs.MetricConst]prometheus.Counter,
	gauges *structs.PositionGauges,
	logger *logrus.Logger,
	promTail promtail.Client,
) *orderUseCase {
	return &orderUseCase{
		clientController: client,
		cryptoController: crypto,
		tgmController:    tgmController,
		orderRepo:        orderRepo,
		stateRepo:        stateRepo,
		settingsRepo:     settingsRepo,
		prices:           prices,
		tracker:          tracker,
		cfg:              cfg,
		url:              url,
		metrics:          metrics,
		gauges:           gauges,
		logger:           logger,
		promTail:         promTail,
		monitored:        make(map[string]*MonitoredOrder),
		alerted:          make(map[string]struct{}),
		orderLocks:       make(map[string]*sync.Mutex),
	}
}

func (u *orderUseCase) lockOrder(orderID string) func() {
	u.orderLocksMu.Lock()
	l, ok := u.orderLocks[orderID]
	if !ok {
		l = &sync.Mutex{}
		u.orderLocks[orderID] = l
	}
	u.orderLocksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// HandleOrderEvent is the session callback for order updates. Rejected
// events leave the stored state untouched.
func (u *orderUseCase) HandleOrderEvent(event session.OrderEvent) {
	if event.Symbol != u.cfg.Symbol {
		return
	}

	if err := u.processOrderEvent(&event); err != nil {
		u.incMetric(structs.MetricOrderEventRejected)

		u.logger.
			WithError(err).
			WithField("orderId", event.OrderID).
			WithField("status", event.Status).
			Error("order event rejected")

		u.errorf("order %s event rejected: %s", event.OrderID, err)

		return
	}

	u.incMetric(structs.MetricOrderEventApplied)
}

func (u *orderUseCase) processOrderEvent(event *session.OrderEvent) error {
	unlock := u.lockOrder(event.OrderID)
	defer unlock()

	order, err := u.orderRepo.GetByOrderID(event.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u.adoptOrder(event)
		}

		return errors.Wrap(err, "load order")
	}

	// Same status with no fill progress is the exchange repeating
	// itself, not a violation.
	if order.Status == event.Status && event.CumFilledQty == order.FilledQuantity {
		u.touchMonitored(order.OrderID, event.EventTime)
		return nil
	}

	if err := ValidateTransition(order.Status, event.Status); err != nil {
		return err
	}

	if err := ValidateFillUpdate(order, event.CumFilledQty); err != nil {
		return err
	}

	if err := u.checkSellCoverage(order, event.CumFilledQty); err != nil {
		return err
	}

	delta := event.CumFilledQty - order.FilledQuantity
	avgPrice := weightedAvgPrice(order, event, delta)

	var lot *models.Order

	if err := u.orderRepo.InTx(func(repo postgres.OrderRepo) error {
		if err := repo.SetStatusFill(order.OrderID, event.Status, event.CumFilledQty, avgPrice); err != nil {
			return errors.Wrap(err, "update order")
		}

		if delta <= 0 || order.Side != models.SideBuy || order.Type == models.OrderTypePartialFill {
			return nil
		}

		l := buildLot(order, event, delta)

		// The lot insert rides a savepoint so a conflict on the
		// synthetic id cannot take down the status update.
		if err := repo.Savepoint("lot", func() error {
			return repo.Store(l)
		}); err != nil {
			return errors.Wrap(err, "store fill lot")
		}

		lot = l

		return nil
	}); err != nil {
		return err
	}

	u.recordFill(event, delta)

	if lot != nil {
		u.incMetric(structs.MetricFillLotCreated)
		u.sellLot(lot)
	}

	if event.Status.Terminal() {
		u.dropMonitored(event.OrderID)
		u.tracker.Untrack(event.OrderID)
	}

	return nil
}

// adoptOrder creates a row for an order first seen through the stream,
// typically one placed outside the bot. Anything past OPEN is dropped:
// without the original row there is no base to apply fills against.
func (u *orderUseCase) adoptOrder(event *session.OrderEvent) error {
	if event.Status != models.OrderStatusOpen {
		u.logger.
			WithField("orderId", event.OrderID).
			WithField("status", event.Status).
			Warn("update for unknown order dropped")
		return nil
	}

	now := event.EventTime
	order := &models.Order{
		ID:              uuid.NewString(),
		OrderID:         event.OrderID,
		Symbol:          event.Symbol,
		Side:            event.Side,
		Quantity:        event.OrigQty,
		Price:           event.Price,
		Status:          models.OrderStatusOpen,
		Type:            models.OrderTypeLimit,
		CreatedAt:       now,
		StatusUpdatedAt: now,
	}

	if err := u.orderRepo.InTx(func(repo postgres.OrderRepo) error {
		return repo.Store(order)
	}); err != nil {
		return errors.Wrap(err, "adopt order")
	}

	u.watch(order.OrderID, now)

	return nil
}

// checkSellCoverage rejects a fill on a sell order that would exceed
// what its source lot actually holds.
func (u *orderUseCase) checkSellCoverage(order *models.Order, newCumQty float64) error {
	if order.Side != models.SideSell || order.RelatedOrderID == "" {
		return nil
	}

	lot, err := u.orderRepo.GetByOrderID(order.RelatedOrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(ErrOrderNotFound, "lot %s for sell %s", order.RelatedOrderID, order.OrderID)
		}

		return errors.Wrap(err, "load lot")
	}

	if newCumQty > lot.FilledQuantity+quantityEpsilon {
		return errors.Wrapf(ErrQuantityExceeded,
			"sell %s fill %.8f over lot %s quantity %.8f",
			order.OrderID, newCumQty, lot.OrderID, lot.FilledQuantity)
	}

	return nil
}

func weightedAvgPrice(order *models.Order, event *session.OrderEvent, delta float64) float64 {
	if delta <= 0 || event.LastFillPrice <= 0 {
		return order.AvgFillPrice
	}

	return (order.AvgFillPrice*order.FilledQuantity + event.LastFillPrice*delta) / event.CumFilledQty
}

// buildLot turns one fill increment of a buy order into an independent
// position lot carrying its own cost basis.
func buildLot(parent *models.Order, event *session.OrderEvent, delta float64) *models.Order {
	fillPrice := event.LastFillPrice
	if fillPrice <= 0 {
		fillPrice = parent.Price
	}

	return &models.Order{
		ID:              uuid.NewString(),
		OrderID:         models.LotOrderID(parent.OrderID, event.EventTime),
		Symbol:          parent.Symbol,
		Side:            models.SideBuy,
		Quantity:        delta,
		FilledQuantity:  delta,
		Price:           fillPrice,
		AvgFillPrice:    fillPrice,
		Status:          models.OrderStatusFilled,
		Type:            models.OrderTypePartialFill,
		RelatedOrderID:  parent.OrderID,
		Commission:      event.Commission,
		CommissionAsset: event.CommissionAsset,
		CreatedAt:       event.EventTime,
		StatusUpdatedAt: event.EventTime,
	}
}

// sellLot places the profit-guaranteed sell for a freshly created lot.
// Placement failures are logged, never propagated: the lot row is
// already committed and the price sweep retries it later.
func (u *orderUseCase) sellLot(lot *models.Order) {
	settings := u.tradingSettings()

	if settings.Status == mongoStructs.Disabled.ToString() {
		u.logger.
			WithField("lotId", lot.OrderID).
			Warn("trading disabled for symbol, lot left unsold")
		return
	}

	sellable := lot.Quantity
	if lot.CommissionAsset == u.cfg.BaseAsset {
		sellable -= lot.Commission
	}

	if sellable < settings.MinOrderQuantity {
		u.logger.
			WithField("lotId", lot.OrderID).
			WithField("quantity", sellable).
			Warn("lot below minimum order size, stranded as dust")
		return
	}

	if _, err := u.PlaceSellOrder(lot.OrderID, sellable, settings.MinProfitPercent); err != nil {
		u.logger.
			WithError(err).
			WithField("lotId", lot.OrderID).
			Error("sell placement failed")

		u.errorf("sell placement failed for lot %s: %s", lot.OrderID, err)
	}
}

// PlaceSellOrder submits a limit sell against a lot at the lowest
// price that still clears the profit target. The sell row is persisted
// only after the exchange acknowledges the order.
func (u *orderUseCase) PlaceSellOrder(lotOrderID string, quantity, minProfitPct float64) (string, error) {
	settings := u.tradingSettings()

	lot, err := u.orderRepo.GetByOrderID(lotOrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errors.Wrapf(ErrOrderNotFound, "lot %s", lotOrderID)
		}

		return "", errors.Wrap(err, "load lot")
	}

	siblings, err := u.orderRepo.GetRelated(lotOrderID)
	if err != nil {
		return "", errors.Wrap(err, "load related sells")
	}

	currentPrice, err := u.prices.CurrentPrice()
	if err != nil {
		return "", errors.Wrap(err, "current price")
	}

	if err := ValidateSellPlacement(lot, quantity, siblings, currentPrice, settings.MaxOrderValue); err != nil {
		return "", err
	}

	basis := lot.AvgFillPrice
	if basis <= 0 {
		basis = lot.Price
	}

	sellPrice, err := CalculateMinSellPrice(basis, quantity, minProfitPct, settings.FeeRate)
	if err != nil {
		return "", err
	}

	ack, err := u.submitOrder(models.SideSell, models.OrderTypeLimit, quantity, sellPrice)
	if err != nil {
		return "", errors.Wrap(err, "submit sell order")
	}

	now := time.Now()
	sell := &models.Order{
		ID:              uuid.NewString(),
		OrderID:         strconv.FormatInt(ack.OrderID, 10),
		Symbol:          u.cfg.Symbol,
		Side:            models.SideSell,
		Quantity:        quantity,
		Price:           sellPrice,
		Status:          models.OrderStatusOpen,
		Type:            models.OrderTypeLimit,
		RelatedOrderID:  lot.OrderID,
		CreatedAt:       now,
		StatusUpdatedAt: now,
	}

	if err := u.orderRepo.InTx(func(repo postgres.OrderRepo) error {
		return repo.Store(sell)
	}); err != nil {
		return "", errors.Wrap(err, "store sell order")
	}

	u.watch(sell.OrderID, now)
	u.incMetric(structs.MetricSellOrderPlaced)

	if err := u.tgmController.Send(fmt.Sprintf(
		"[ SELL ]\nSymbol:\t%s\nQuantity:\t%.8f\nPrice:\t%.8f\nLot:\t%s",
		u.cfg.Symbol, quantity, sellPrice, lot.OrderID,
	)); err != nil {
		u.logger.WithError(err).Error(string(debug.Stack()))
	}

	return sell.OrderID, nil
}

// PlaceBuyOrder submits a buy for the configured symbol. A positive
// price places a limit order; price zero goes out at market. The row
// is persisted only after the exchange acknowledges the order.
func (u *orderUseCase) PlaceBuyOrder(quantity, price float64) (string, error) {
	settings := u.tradingSettings()

	if settings.Status == mongoStructs.Disabled.ToString() {
		return "", errors.Wrapf(ErrTradingDisabled, "symbol %s", u.cfg.Symbol)
	}

	orderType := models.OrderTypeLimit
	effPrice := price

	if price <= 0 {
		orderType = models.OrderTypeMarket

		current, err := u.prices.CurrentPrice()
		if err != nil {
			return "", errors.Wrap(err, "current price")
		}
		effPrice = current
	}

	if err := ValidateNewOrder(u.cfg.Symbol, u.cfg.Symbol, quantity, effPrice, settings.MaxOrderValue); err != nil {
		return "", err
	}

	if quantity < settings.MinOrderQuantity {
		return "", errors.Wrapf(ErrInvalidInput,
			"quantity %.8f below minimum %.8f", quantity, settings.MinOrderQuantity)
	}

	ack, err := u.submitOrder(models.SideBuy, orderType, quantity, price)
	if err != nil {
		return "", errors.Wrap(err, "submit buy order")
	}

	now := time.Now()
	buy := &models.Order{
		ID:              uuid.NewString(),
		OrderID:         strconv.FormatInt(ack.OrderID, 10),
		Symbol:          u.cfg.Symbol,
		Side:            models.SideBuy,
		Quantity:        quantity,
		Price:           effPrice,
		Status:          models.OrderStatusOpen,
		Type:            orderType,
		CreatedAt:       now,
		StatusUpdatedAt: now,
	}

	if err := u.orderRepo.InTx(func(repo postgres.OrderRepo) error {
		return repo.Store(buy)
	}); err != nil {
		return "", errors.Wrap(err, "store buy order")
	}

	u.watch(buy.OrderID, now)

	if err := u.tgmController.Send(fmt.Sprintf(
		"[ BUY ]\nSymbol:\t%s\nType:\t%s\nQuantity:\t%.8f\nPrice:\t%.8f",
		u.cfg.Symbol, orderType, quantity, effPrice,
	)); err != nil {
		u.logger.WithError(err).Error(string(debug.Stack()))
	}

	return buy.OrderID, nil
}

func (u *orderUseCase) submitOrder(side models.OrderSide, orderType models.OrderType, quantity, price float64) (*structs.LimitOrder, error) {
	baseURL, err := url.Parse(u.url)
	if err != nil {
		return nil, err
	}

	baseURL.Path = path.Join(baseURL.Path, orderURLPath)

	q := baseURL.Query()
	q.Set("symbol", u.cfg.Symbol)
	q.Set("side", string(side))
	q.Set("type", string(orderType))
	q.Set("quantity", strconv.FormatFloat(quantity, 'f', -1, 64))
	if orderType == models.OrderTypeLimit {
		q.Set("timeInForce", "GTC")
		q.Set("price", strconv.FormatFloat(price, 'f', 8, 64))
	}
	q.Set("recvWindow", "60000")
	q.Set("timestamp", fmt.Sprintf("%d", time.Now().UnixMilli()))

	sig := u.cryptoController.GetSignature(q.Encode())
	q.Set("signature", sig)

	baseURL.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	body, err := u.clientController.Send(ctx, http.MethodPost, baseURL, nil, true)
	if err != nil {
		return nil, err
	}

	var ack structs.LimitOrder
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, errors.Wrap(err, "decode order ack")
	}

	if ack.OrderID == 0 {
		return nil, errors.Errorf("order not acknowledged: %s", string(body))
	}

	return &ack, nil
}

// HandlePriceUpdate is the session callback for market trades. It
// retries unsold lots at most once per sweep interval.
func (u *orderUseCase) HandlePriceUpdate(price float64) {
	u.mu.Lock()
	if time.Since(u.lastSweep) < lotSweepInterval {
		u.mu.Unlock()
		return
	}
	u.lastSweep = time.Now()
	u.mu.Unlock()

	settings := u.tradingSettings()

	minQty := settings.MinOrderQuantity
	if minQty < quantityEpsilon {
		minQty = quantityEpsilon
	}

	lots, err := u.orderRepo.GetUnsoldLots(u.cfg.Symbol, u.cfg.BaseAsset, minQty)
	if err != nil {
		u.logger.
			WithError(err).
			Error("unsold lot sweep failed")
		return
	}

	for i := range lots {
		u.sellLot(&lots[i])
	}
}

// RestoreMonitoredOrders rebuilds the in-memory monitoring state from
// persisted open orders after a restart.
func (u *orderUseCase) RestoreMonitoredOrders() error {
	open, err := u.orderRepo.GetOpen(u.cfg.Symbol)
	if err != nil {
		return errors.Wrap(err, "load open orders")
	}

	for i := range open {
		order := &open[i]

		mon := &MonitoredOrder{
			OrderID:     order.OrderID,
			TotalFilled: order.FilledQuantity,
			LastUpdate:  order.StatusUpdatedAt,
		}

		lots, err := u.orderRepo.GetRelated(order.OrderID)
		if err != nil {
			return errors.Wrap(err, "load fill lots")
		}

		for _, lot := range lots {
			if lot.Type != models.OrderTypePartialFill {
				continue
			}

			mon.Fills = append(mon.Fills, FillEvent{
				Quantity: lot.Quantity,
				Price:    lot.Price,
				Time:     lot.CreatedAt,
			})
		}

		u.mu.Lock()
		u.monitored[order.OrderID] = mon
		u.mu.Unlock()

		u.tracker.Track(order.OrderID)
	}

	u.logger.
		WithField("count", len(open)).
		Info("monitored orders restored")

	return nil
}

// MonitoredOrders returns a snapshot of the in-memory lifecycle state.
func (u *orderUseCase) MonitoredOrders() []MonitoredOrder {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]MonitoredOrder, 0, len(u.monitored))
	for _, mon := range u.monitored {
		out = append(out, *mon)
	}

	return out
}

func (u *orderUseCase) watch(orderID string, at time.Time) {
	u.mu.Lock()
	u.monitored[orderID] = &MonitoredOrder{OrderID: orderID, LastUpdate: at}
	u.mu.Unlock()

	u.tracker.Track(orderID)
}

func (u *orderUseCase) touchMonitored(orderID string, at time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if mon, ok := u.monitored[orderID]; ok {
		mon.LastUpdate = at
	}
}

func (u *orderUseCase) recordFill(event *session.OrderEvent, delta float64) {
	u.mu.Lock()
	defer u.mu.Unlock()

	mon, ok := u.monitored[event.OrderID]
	if !ok {
		mon = &MonitoredOrder{OrderID: event.OrderID}
		u.monitored[event.OrderID] = mon
	}

	mon.TotalFilled = event.CumFilledQty
	mon.LastUpdate = event.EventTime

	if delta > 0 {
		mon.Fills = append(mon.Fills, FillEvent{
			Quantity: delta,
			Price:    event.LastFillPrice,
			Time:     event.EventTime,
		})
	}
}

func (u *orderUseCase) dropMonitored(orderID string) {
	u.mu.Lock()
	delete(u.monitored, orderID)
	u.mu.Unlock()
}

// tradingSettings loads the runtime knobs for the symbol, falling back
// to the static config when the collection is unreachable.
func (u *orderUseCase) tradingSettings() mongoStructs.Settings {
	settings, err := u.settingsRepo.Load(u.cfg.Symbol)
	if err != nil {
		u.logger.
			WithError(err).
			Debug("settings load failed, using defaults")
		return u.cfg.defaultSettings()
	}

	return *settings
}

func (u *orderUseCase) incMetric(name structs.MetricConst) {
	if counter, ok := u.metrics[name]; ok {
		counter.Inc()
	}
}

func (u *orderUseCase) errorf(format string, args ...interface{}) {
	if u.promTail != nil {
		u.promTail.Errorf(format, args...)
	}
}
