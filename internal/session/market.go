package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const tickerPriceURLPath = "/v3/ticker/price"

type tradeStreamEvent struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	Quantity  string `json:"q"`
	TradeTime int64  `json:"T"`
}

func (m *Manager) dialMarket(ctx context.Context) (*websocket.Conn, error) {
	streamURL := fmt.Sprintf("%s/ws/%s@trade", m.cfg.StreamURL, strings.ToLower(m.cfg.Symbol))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// handleMarketMessage parses one market-stream payload. Malformed or
// unknown payloads are logged and dropped, never raised.
func (m *Manager) handleMarketMessage(data []byte) {
	var event tradeStreamEvent

	if err := json.Unmarshal(data, &event); err != nil {
		m.logger.
			WithError(err).
			WithField("payload", string(data)).
			Error("invalid market stream payload")
		return
	}

	if event.EventType != "trade" {
		m.logger.
			WithField("eventType", event.EventType).
			Debug("unhandled market stream event")
		return
	}

	price, err := strconv.ParseFloat(event.Price, 64)
	if err != nil {
		m.logger.
			WithError(err).
			WithField("price", event.Price).
			Error("invalid trade price")
		return
	}

	m.dispatchPrice(price)
}

// marketFallback polls the ticker price on a fixed interval while the
// stream is down, feeding the same price callbacks.
func (m *Manager) marketFallback(ctx context.Context) {
	m.logger.Info("market REST fallback active")

	ticker := time.NewTicker(m.cfg.RESTPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("market REST fallback stopped")
			return
		case <-ticker.C:
			price, err := m.fetchTickerPrice(ctx)
			if err != nil {
				m.logger.
					WithError(err).
					Error("fallback price poll failed")
				continue
			}

			m.dispatchPrice(price)
		}
	}
}

func (m *Manager) fetchTickerPrice(ctx context.Context) (float64, error) {
	baseURL, err := url.Parse(m.cfg.APIURL)
	if err != nil {
		return 0, err
	}

	baseURL.Path = path.Join(baseURL.Path, tickerPriceURLPath)

	q := baseURL.Query()
	q.Set("symbol", m.cfg.Symbol)
	baseURL.RawQuery = q.Encode()

	body, err := m.clientController.Send(ctx, http.MethodGet, baseURL, nil, false)
	if err != nil {
		return 0, err
	}

	var out struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return 0, err
	}

	return strconv.ParseFloat(out.Price, 64)
}
