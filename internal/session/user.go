package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"swingbot/models"
)

const (
	listenKeyURLPath  = "/v3/userDataStream"
	orderURLPath      = "/v3/order"
	openOrdersURLPath = "/v3/openOrders"
)

type executionReport struct {
	EventType       string `json:"e"`
	EventTime       int64  `json:"E"`
	Symbol          string `json:"s"`
	OrderID         int64  `json:"i"`
	Side            string `json:"S"`
	OrderStatus     string `json:"X"`
	OrderQty        string `json:"q"`
	OrderPrice      string `json:"p"`
	LastExecQty     string `json:"l"`
	CumulativeQty   string `json:"z"`
	LastExecPrice   string `json:"L"`
	Commission      string `json:"n"`
	CommissionAsset string `json:"N"`
	TransactionTime int64  `json:"T"`
}

type restOrder struct {
	Symbol      string `json:"symbol"`
	OrderID     int64  `json:"orderId"`
	Price       string `json:"price"`
	OrigQty     string `json:"origQty"`
	ExecutedQty string `json:"executedQty"`
	Status      string `json:"status"`
	Side        string `json:"side"`
	UpdateTime  int64  `json:"updateTime"`
}

func (m *Manager) dialUser(ctx context.Context) (*websocket.Conn, error) {
	key, err := m.ensureListenKey(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listen key")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, fmt.Sprintf("%s/ws/%s", m.cfg.StreamURL, key), nil)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

func (m *Manager) handleUserMessage(data []byte) {
	var probe struct {
		EventType string `json:"e"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		m.logger.
			WithError(err).
			WithField("payload", string(data)).
			Error("invalid user stream payload")
		return
	}

	switch probe.EventType {
	case "executionReport":
		var report executionReport
		if err := json.Unmarshal(data, &report); err != nil {
			m.logger.
				WithError(err).
				Error("invalid execution report")
			return
		}
		m.handleExecutionReport(&report)
	case "outboundAccountPosition", "balanceUpdate":
		// Balance updates carry nothing the order lifecycle needs.
	default:
		m.logger.
			WithField("eventType", probe.EventType).
			Debug("unhandled user stream event")
	}
}

func (m *Manager) handleExecutionReport(report *executionReport) {
	if report.Symbol != m.cfg.Symbol {
		return
	}

	status, known := NormalizeStatus(report.OrderStatus)
	if !known {
		m.logger.
			WithField("status", report.OrderStatus).
			WithField("orderId", report.OrderID).
			Warn("unknown exchange order status, treating as REJECTED")
	}

	origQty, err := strconv.ParseFloat(report.OrderQty, 64)
	if err != nil {
		m.logger.WithError(err).Error("invalid order quantity in execution report")
		return
	}

	cumQty, err := strconv.ParseFloat(report.CumulativeQty, 64)
	if err != nil {
		m.logger.WithError(err).Error("invalid cumulative quantity in execution report")
		return
	}

	orderPrice, _ := strconv.ParseFloat(report.OrderPrice, 64)
	lastQty, _ := strconv.ParseFloat(report.LastExecQty, 64)
	lastPrice, _ := strconv.ParseFloat(report.LastExecPrice, 64)
	commission, _ := strconv.ParseFloat(report.Commission, 64)

	eventTime := report.TransactionTime
	if eventTime == 0 {
		eventTime = report.EventTime
	}

	m.dispatchOrder(OrderEvent{
		OrderID:         strconv.FormatInt(report.OrderID, 10),
		Status:          status,
		Symbol:          report.Symbol,
		Side:            models.OrderSide(report.Side),
		OrigQty:         origQty,
		Price:           orderPrice,
		CumFilledQty:    cumQty,
		LastFillQty:     lastQty,
		LastFillPrice:   lastPrice,
		Commission:      commission,
		CommissionAsset: report.CommissionAsset,
		EventTime:       time.UnixMilli(eventTime),
	})
}

// userFallback polls the open-order snapshot plus every tracked order
// id so terminal transitions are seen while the stream is down. Events
// are normalized to the same record the stream produces.
func (m *Manager) userFallback(ctx context.Context) {
	m.logger.Info("user REST fallback active")

	ticker := time.NewTicker(m.cfg.RESTPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("user REST fallback stopped")
			return
		case <-ticker.C:
			m.pollOrders(ctx)
		}
	}
}

func (m *Manager) pollOrders(ctx context.Context) {
	open, err := m.fetchOpenOrders(ctx)
	if err != nil {
		m.logger.
			WithError(err).
			Error("fallback open-orders poll failed")
		return
	}

	seen := make(map[string]struct{}, len(open))
	for i := range open {
		id := strconv.FormatInt(open[i].OrderID, 10)
		seen[id] = struct{}{}
		m.dispatchRESTOrder(&open[i])
	}

	for _, id := range m.trackedIDs() {
		if _, ok := seen[id]; ok {
			continue
		}

		order, err := m.fetchOrder(ctx, id)
		if err != nil {
			m.logger.
				WithError(err).
				WithField("orderId", id).
				Error("fallback order poll failed")
			continue
		}

		m.dispatchRESTOrder(order)
	}
}

func (m *Manager) dispatchRESTOrder(order *restOrder) {
	status, known := NormalizeStatus(order.Status)
	if !known {
		m.logger.
			WithField("status", order.Status).
			WithField("orderId", order.OrderID).
			Warn("unknown exchange order status, treating as REJECTED")
	}

	origQty, err := strconv.ParseFloat(order.OrigQty, 64)
	if err != nil {
		m.logger.WithError(err).Error("invalid order quantity in order snapshot")
		return
	}

	cumQty, err := strconv.ParseFloat(order.ExecutedQty, 64)
	if err != nil {
		m.logger.WithError(err).Error("invalid executed quantity in order snapshot")
		return
	}

	price, _ := strconv.ParseFloat(order.Price, 64)

	// Snapshots carry no per-fill breakdown; consumers derive deltas
	// from the cumulative quantity.
	m.dispatchOrder(OrderEvent{
		OrderID:      strconv.FormatInt(order.OrderID, 10),
		Status:       status,
		Symbol:       order.Symbol,
		Side:         models.OrderSide(order.Side),
		OrigQty:      origQty,
		Price:        price,
		CumFilledQty: cumQty,
		EventTime:    time.UnixMilli(order.UpdateTime),
	})
}

func (m *Manager) fetchOpenOrders(ctx context.Context) ([]restOrder, error) {
	baseURL, err := url.Parse(m.cfg.APIURL)
	if err != nil {
		return nil, err
	}

	baseURL.Path = path.Join(baseURL.Path, openOrdersURLPath)

	q := baseURL.Query()
	q.Set("symbol", m.cfg.Symbol)
	q.Set("recvWindow", "60000")
	q.Set("timestamp", fmt.Sprintf("%d", time.Now().UnixMilli()))

	sig := m.cryptoController.GetSignature(q.Encode())
	q.Set("signature", sig)

	baseURL.RawQuery = q.Encode()

	body, err := m.clientController.Send(ctx, http.MethodGet, baseURL, nil, true)
	if err != nil {
		return nil, err
	}

	var out []restOrder

	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (m *Manager) fetchOrder(ctx context.Context, orderID string) (*restOrder, error) {
	baseURL, err := url.Parse(m.cfg.APIURL)
	if err != nil {
		return nil, err
	}

	baseURL.Path = path.Join(baseURL.Path, orderURLPath)

	q := baseURL.Query()
	q.Set("symbol", m.cfg.Symbol)
	q.Set("orderId", orderID)
	q.Set("recvWindow", "60000")
	q.Set("timestamp", fmt.Sprintf("%d", time.Now().UnixMilli()))

	sig := m.cryptoController.GetSignature(q.Encode())
	q.Set("signature", sig)

	baseURL.RawQuery = q.Encode()

	body, err := m.clientController.Send(ctx, http.MethodGet, baseURL, nil, true)
	if err != nil {
		return nil, err
	}

	var out restOrder

	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (m *Manager) ensureListenKey(ctx context.Context) (string, error) {
	m.keyMu.Lock()
	defer m.keyMu.Unlock()

	if m.listenKey != "" {
		return m.listenKey, nil
	}

	baseURL, err := url.Parse(m.cfg.APIURL)
	if err != nil {
		return "", err
	}

	baseURL.Path = path.Join(baseURL.Path, listenKeyURLPath)

	body, err := m.clientController.Send(ctx, http.MethodPost, baseURL, nil, true)
	if err != nil {
		return "", err
	}

	var out struct {
		ListenKey string `json:"listenKey"`
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if out.ListenKey == "" {
		return "", errors.New("empty listen key")
	}

	m.listenKey = out.ListenKey

	return m.listenKey, nil
}

// keepAliveLoop renews the listen key before half its validity window
// elapses. A failed renewal invalidates the key and forces the user
// channel through the reconnect path.
func (m *Manager) keepAliveLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.renewListenKey(ctx); err != nil {
				m.logger.
					WithError(err).
					Error("listen key renewal failed, forcing reconnect")

				m.keyMu.Lock()
				m.listenKey = ""
				m.keyMu.Unlock()

				m.user.forceClose()
			}
		}
	}
}

func (m *Manager) renewListenKey(ctx context.Context) error {
	m.keyMu.Lock()
	key := m.listenKey
	m.keyMu.Unlock()

	if key == "" {
		return nil
	}

	baseURL, err := url.Parse(m.cfg.APIURL)
	if err != nil {
		return err
	}

	baseURL.Path = path.Join(baseURL.Path, listenKeyURLPath)

	q := baseURL.Query()
	q.Set("listenKey", key)
	baseURL.RawQuery = q.Encode()

	if _, err := m.clientController.Send(ctx, http.MethodPut, baseURL, nil, true); err != nil {
		return err
	}

	return nil
}

func (m *Manager) deleteListenKey() {
	m.keyMu.Lock()
	key := m.listenKey
	m.listenKey = ""
	m.keyMu.Unlock()

	if key == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	baseURL, err := url.Parse(m.cfg.APIURL)
	if err != nil {
		return
	}

	baseURL.Path = path.Join(baseURL.Path, listenKeyURLPath)

	q := baseURL.Query()
	q.Set("listenKey", key)
	baseURL.RawQuery = q.Encode()

	if _, err := m.clientController.Send(ctx, http.MethodDelete, baseURL, nil, true); err != nil {
		m.logger.
			WithError(err).
			Error("failed to delete listen key")
	}
}
