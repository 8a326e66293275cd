package session

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	ctrlMocks "swingbot/internal/controllers/mocks"
	"swingbot/models"
)

func testManager() (*Manager, *ctrlMocks.ClientCtrl) {
	clientCtrl := &ctrlMocks.ClientCtrl{}
	cryptoCtrl := &ctrlMocks.CryptoCtrl{}
	cryptoCtrl.On("GetSignature", mock.AnythingOfType("string")).
		Return("630e26f39d6728d0e7feffb9")

	m := NewManager(
		Config{
			Symbol:    "BTCBUSD",
			APIURL:    "https://api.binance.com/api",
			StreamURL: "wss://stream.binance.com:9443",
		},
		clientCtrl,
		cryptoCtrl,
		testStateRepo(),
		nil,
		testLogger(),
		nil,
	)

	return m, clientCtrl
}

func Test_Manager_MarketMessages(t *testing.T) {
	t.Run("trade tick reaches callbacks and the cache", func(t *testing.T) {
		m, _ := testManager()

		prices := make(chan float64, 1)
		m.RegisterPriceCallback("test", func(price float64) {
			prices <- price
		})

		m.handleMarketMessage([]byte(`{"e":"trade","E":1661000000000,"s":"BTCBUSD","p":"20123.45","q":"0.001","T":1661000000000}`))

		select {
		case price := <-prices:
			assert.Equal(t, 20123.45, price)
		default:
			t.Fatal("price callback not invoked")
		}

		cached, err := m.CurrentPrice()
		assert.NoError(t, err)
		assert.Equal(t, 20123.45, cached)
		assert.GreaterOrEqual(t, m.LastPriceAge(), time.Duration(0))
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		m, _ := testManager()

		called := false
		m.RegisterPriceCallback("test", func(price float64) {
			called = true
		})

		m.handleMarketMessage([]byte(`{"e":"trade","p":"not-a-price"}`))
		m.handleMarketMessage([]byte(`not even json`))

		assert.False(t, called)
	})

	t.Run("non trade events are ignored", func(t *testing.T) {
		m, _ := testManager()

		called := false
		m.RegisterPriceCallback("test", func(price float64) {
			called = true
		})

		m.handleMarketMessage([]byte(`{"e":"kline","s":"BTCBUSD"}`))

		assert.False(t, called)
	})
}

func Test_Manager_UserMessages(t *testing.T) {
	t.Run("execution report becomes a normalized event", func(t *testing.T) {
		m, _ := testManager()

		events := make(chan OrderEvent, 1)
		m.RegisterOrderCallback("test", func(event OrderEvent) {
			events <- event
		})

		m.handleUserMessage([]byte(`{
			"e":"executionReport","E":1661000001000,"s":"BTCBUSD","i":100001,
			"S":"BUY","X":"PARTIALLY_FILLED","q":"100.0","p":"100.0",
			"l":"30.0","z":"30.0","L":"100.0","n":"0.03","N":"BTC","T":1661000000500
		}`))

		select {
		case event := <-events:
			assert.Equal(t, "100001", event.OrderID)
			assert.Equal(t, models.OrderStatusPartiallyFilled, event.Status)
			assert.Equal(t, models.SideBuy, event.Side)
			assert.Equal(t, 100.0, event.OrigQty)
			assert.Equal(t, 30.0, event.CumFilledQty)
			assert.Equal(t, 30.0, event.LastFillQty)
			assert.Equal(t, 100.0, event.LastFillPrice)
			assert.Equal(t, 0.03, event.Commission)
			assert.Equal(t, "BTC", event.CommissionAsset)
			assert.Equal(t, time.UnixMilli(1661000000500), event.EventTime)
		default:
			t.Fatal("order callback not invoked")
		}
	})

	t.Run("unknown status still maps to REJECTED", func(t *testing.T) {
		m, _ := testManager()

		events := make(chan OrderEvent, 1)
		m.RegisterOrderCallback("test", func(event OrderEvent) {
			events <- event
		})

		m.handleUserMessage([]byte(`{
			"e":"executionReport","E":1661000001000,"s":"BTCBUSD","i":100002,
			"S":"BUY","X":"PENDING_NEW","q":"1.0","z":"0.0","T":1661000000500
		}`))

		select {
		case event := <-events:
			assert.Equal(t, models.OrderStatusRejected, event.Status)
		default:
			t.Fatal("order callback not invoked")
		}
	})

	t.Run("foreign symbol is filtered", func(t *testing.T) {
		m, _ := testManager()

		called := false
		m.RegisterOrderCallback("test", func(event OrderEvent) {
			called = true
		})

		m.handleUserMessage([]byte(`{
			"e":"executionReport","E":1661000001000,"s":"ETHBUSD","i":100003,
			"S":"BUY","X":"FILLED","q":"1.0","z":"1.0","T":1661000000500
		}`))

		assert.False(t, called)
	})

	t.Run("balance updates are ignored", func(t *testing.T) {
		m, _ := testManager()

		called := false
		m.RegisterOrderCallback("test", func(event OrderEvent) {
			called = true
		})

		m.handleUserMessage([]byte(`{"e":"outboundAccountPosition"}`))
		m.handleUserMessage([]byte(`{"e":"balanceUpdate"}`))

		assert.False(t, called)
	})
}

func Test_Manager_RESTFallbackPolling(t *testing.T) {
	m, clientCtrl := testManager()

	openOrdersJSON := []byte(`[
		{"symbol":"BTCBUSD","orderId":100001,"price":"100.0","origQty":"100.0",
		 "executedQty":"30.0","status":"PARTIALLY_FILLED","side":"BUY","updateTime":1661000000500}
	]`)
	trackedJSON := []byte(`{"symbol":"BTCBUSD","orderId":100002,"price":"101.0","origQty":"50.0",
		"executedQty":"50.0","status":"FILLED","side":"SELL","updateTime":1661000000900}`)

	clientCtrl.On("Send",
		mock.Anything,
		"GET",
		mock.MatchedBy(func(input *url.URL) bool {
			return input.Path == "/api/v3/openOrders"
		}),
		[]byte(nil),
		true,
	).Return(openOrdersJSON, nil)

	clientCtrl.On("Send",
		mock.Anything,
		"GET",
		mock.MatchedBy(func(input *url.URL) bool {
			return input.Path == "/api/v3/order"
		}),
		[]byte(nil),
		true,
	).Return(trackedJSON, nil)

	m.Track("100002")

	events := make(chan OrderEvent, 4)
	m.RegisterOrderCallback("test", func(event OrderEvent) {
		events <- event
	})

	m.pollOrders(context.Background())

	byID := map[string]OrderEvent{}
	for i := 0; i < 2; i++ {
		select {
		case event := <-events:
			byID[event.OrderID] = event
		default:
			t.Fatal("expected two polled order events")
		}
	}

	open, ok := byID["100001"]
	assert.True(t, ok)
	assert.Equal(t, models.OrderStatusPartiallyFilled, open.Status)
	assert.Equal(t, 30.0, open.CumFilledQty)

	tracked, ok := byID["100002"]
	assert.True(t, ok)
	assert.Equal(t, models.OrderStatusFilled, tracked.Status)
	assert.Equal(t, models.SideSell, tracked.Side)

	// Tracked ids already present in the open-order snapshot are not
	// fetched twice.
	m.Untrack("100002")
	m.Track("100001")

	for len(events) > 0 {
		<-events
	}

	m.pollOrders(context.Background())

	assert.Len(t, events, 1)
}
