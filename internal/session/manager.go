package session

import (
	"context"
	"sync"
	"time"

	"github.com/ic2hrmk/promtail"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"swingbot/internal/controllers"
	"swingbot/internal/repository/postgres"
)

// Manager keeps the market-data stream and the private order stream
// alive and is the only source of truth for exchange reachability and
// the last traded price. Consumers subscribe through named callbacks
// and never learn whether an event came from the live stream or the
// REST fallback poller.
type Manager struct {
	cfg Config

	clientController controllers.ClientCtrl
	cryptoController controllers.CryptoCtrl

	stateRepo postgres.StateRepo

	logger   *logrus.Logger
	promTail promtail.Client

	market *channel
	user   *channel

	cbMu           sync.RWMutex
	priceCallbacks map[string]func(price float64)
	orderCallbacks map[string]func(event OrderEvent)

	priceMu     sync.RWMutex
	lastPrice   float64
	lastPriceAt time.Time

	trackMu sync.Mutex
	tracked map[string]struct{}

	keyMu     sync.Mutex
	listenKey string
}

func NewManager(
	cfg Config,
	client controllers.ClientCtrl,
	crypto controllers.CryptoCtrl,
	stateRepo postgres.StateRepo,
	onFatal func(channel string, err error),
	logger *logrus.Logger,
	promTail promtail.Client,
) *Manager {
	cfg = cfg.withDefaults()

	m := &Manager{
		cfg:              cfg,
		clientController: client,
		cryptoController: crypto,
		stateRepo:        stateRepo,
		logger:           logger,
		promTail:         promTail,
		priceCallbacks:   make(map[string]func(float64)),
		orderCallbacks:   make(map[string]func(OrderEvent)),
		tracked:          make(map[string]struct{}),
	}

	m.market = &channel{
		name:          postgres.ChannelMarket,
		cfg:           cfg,
		dial:          m.dialMarket,
		handleMessage: m.handleMarketMessage,
		fallback:      m.marketFallback,
		stateRepo:     stateRepo,
		onFatal:       onFatal,
		logger:        logger,
		promTail:      promTail,
	}

	m.user = &channel{
		name:          postgres.ChannelUser,
		cfg:           cfg,
		dial:          m.dialUser,
		handleMessage: m.handleUserMessage,
		fallback:      m.userFallback,
		onStop:        m.deleteListenKey,
		stateRepo:     stateRepo,
		onFatal:       onFatal,
		logger:        logger,
		promTail:      promTail,
	}

	return m
}

// Start launches the channel workers. They stop when ctx is cancelled
// or when a channel goes fatal.
func (m *Manager) Start(ctx context.Context) {
	go m.market.run(ctx)
	go m.market.healthLoop(ctx)
	go m.user.run(ctx)
	go m.user.healthLoop(ctx)
	go m.keepAliveLoop(ctx)
}

func (m *Manager) Close() {
	m.market.close()
	m.user.close()
}

func (m *Manager) RegisterPriceCallback(name string, cb func(price float64)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.priceCallbacks[name] = cb
}

func (m *Manager) RemovePriceCallback(name string) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	delete(m.priceCallbacks, name)
}

func (m *Manager) RegisterOrderCallback(name string, cb func(event OrderEvent)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.orderCallbacks[name] = cb
}

func (m *Manager) RemoveOrderCallback(name string) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	delete(m.orderCallbacks, name)
}

// Track adds an order id to the set the user-channel fallback poller
// queries individually, so terminal transitions are observed even when
// the order has left the open-orders snapshot.
func (m *Manager) Track(orderID string) {
	m.trackMu.Lock()
	defer m.trackMu.Unlock()
	m.tracked[orderID] = struct{}{}
}

func (m *Manager) Untrack(orderID string) {
	m.trackMu.Lock()
	defer m.trackMu.Unlock()
	delete(m.tracked, orderID)
}

func (m *Manager) trackedIDs() []string {
	m.trackMu.Lock()
	defer m.trackMu.Unlock()

	out := make([]string, 0, len(m.tracked))
	for id := range m.tracked {
		out = append(out, id)
	}
	return out
}

// CurrentPrice returns the cached last trade price, falling back to a
// REST snapshot when no tick has been seen yet.
func (m *Manager) CurrentPrice() (float64, error) {
	m.priceMu.RLock()
	price := m.lastPrice
	seen := !m.lastPriceAt.IsZero()
	m.priceMu.RUnlock()

	if seen {
		return price, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	price, err := m.fetchTickerPrice(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "price unavailable")
	}

	return price, nil
}

func (m *Manager) LastPriceAge() time.Duration {
	m.priceMu.RLock()
	defer m.priceMu.RUnlock()

	if m.lastPriceAt.IsZero() {
		return -1
	}
	return time.Since(m.lastPriceAt)
}

// Status reports both channel states for the healthcheck endpoint.
func (m *Manager) Status() map[string]ChannelStatus {
	return map[string]ChannelStatus{
		postgres.ChannelMarket: m.market.Status(),
		postgres.ChannelUser:   m.user.Status(),
	}
}

func (m *Manager) dispatchPrice(price float64) {
	m.priceMu.Lock()
	m.lastPrice = price
	m.lastPriceAt = time.Now()
	m.priceMu.Unlock()

	m.cbMu.RLock()
	defer m.cbMu.RUnlock()
	for _, cb := range m.priceCallbacks {
		cb(price)
	}
}

func (m *Manager) dispatchOrder(event OrderEvent) {
	m.cbMu.RLock()
	defer m.cbMu.RUnlock()
	for _, cb := range m.orderCallbacks {
		cb(event)
	}
}
