package usecasees

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	ctrlMocks "swingbot/internal/controllers/mocks"
	mongoMocks "swingbot/internal/repository/mongo/mocks"
	mongoStructs "swingbot/internal/repository/mongo/structs"
	"swingbot/internal/repository/postgres"
	pgMocks "swingbot/internal/repository/postgres/mocks"
	orderStructs "swingbot/internal/usecasees/structs"
	"swingbot/models"
)

type stubPrices struct {
	price float64
}

func (s *stubPrices) CurrentPrice() (float64, error) {
	return s.price, nil
}

type stubTracker struct {
	mu        sync.Mutex
	tracked   map[string]struct{}
	untracked []string
}

func newStubTracker() *stubTracker {
	return &stubTracker{tracked: make(map[string]struct{})}
}

func (s *stubTracker) Track(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked[orderID] = struct{}{}
}

func (s *stubTracker) Untrack(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tracked, orderID)
	s.untracked = append(s.untracked, orderID)
}

// mockGen wires the engine against an in-memory order store driven
// through the repository mock, so lifecycle scenarios can replay
// realistic event sequences.
type mockGen struct {
	clientCtrl   *ctrlMocks.ClientCtrl
	cryptoCtrl   *ctrlMocks.CryptoCtrl
	tgmCtrl      *ctrlMocks.TgmCtrl
	orderRepo    *pgMocks.OrderRepo
	stateRepo    *pgMocks.StateRepo
	settingsRepo *mongoMocks.SettingsRepo

	prices  *stubPrices
	tracker *stubTracker

	mu         sync.Mutex
	orders     map[string]*models.Order
	nextSellID int64
	settings   *mongoStructs.Settings

	logger *logrus.Logger
}

func newMockGen() *mockGen {
	mockGen := &mockGen{
		clientCtrl:   &ctrlMocks.ClientCtrl{},
		cryptoCtrl:   &ctrlMocks.CryptoCtrl{},
		tgmCtrl:      &ctrlMocks.TgmCtrl{},
		orderRepo:    &pgMocks.OrderRepo{},
		stateRepo:    &pgMocks.StateRepo{},
		settingsRepo: &mongoMocks.SettingsRepo{},
		prices:       &stubPrices{price: 100},
		tracker:      newStubTracker(),
		orders:       make(map[string]*models.Order),
		nextSellID:   20000,
	}

	mockGen.initLogger()
	mockGen.clientMocks()
	mockGen.cryptoMocks()
	mockGen.tgmMocks()
	mockGen.orderMocks()
	mockGen.settingsMocks()

	return mockGen
}

func (mockGen *mockGen) initLogger() {
	mockGen.logger = logrus.New()
	mockGen.logger.SetLevel(logrus.ErrorLevel)
}

func (mockGen *mockGen) clientMocks() {
	mockGen.clientCtrl.On("Send",
		mock.Anything,
		"POST",
		mock.MatchedBy(func(input *url.URL) bool {
			return input.Path == "/api/v3/order"
		}),
		[]byte(nil),
		true,
	).Return(
		func(_ context.Context, _ string, _ *url.URL, _ []byte, _ bool) []byte {
			mockGen.mu.Lock()
			mockGen.nextSellID++
			id := mockGen.nextSellID
			mockGen.mu.Unlock()

			ack, _ := json.Marshal(&orderStructs.LimitOrder{OrderID: id, Status: "NEW"})
			return ack
		},
		nil,
	)
}

func (mockGen *mockGen) cryptoMocks() {
	mockGen.cryptoCtrl.On("GetSignature", mock.AnythingOfType("string")).
		Return("630e26f39d6728d0e7feffb9")
}

func (mockGen *mockGen) tgmMocks() {
	mockGen.tgmCtrl.On("Send", mock.AnythingOfType("string")).Return(nil)
}

func (mockGen *mockGen) orderMocks() {
	mockGen.orderRepo.On("InTx", mock.AnythingOfType("func(postgres.OrderRepo) error")).
		Return(func(fn func(postgres.OrderRepo) error) error {
			return fn(mockGen.orderRepo)
		})

	mockGen.orderRepo.On("Savepoint", mock.AnythingOfType("string"), mock.AnythingOfType("func() error")).
		Return(func(_ string, fn func() error) error {
			return fn()
		})

	mockGen.orderRepo.On("Store", mock.AnythingOfType("*models.Order")).
		Return(func(m *models.Order) error {
			mockGen.mu.Lock()
			defer mockGen.mu.Unlock()

			cp := *m
			mockGen.orders[m.OrderID] = &cp
			return nil
		})

	mockGen.orderRepo.On("GetByOrderID", mock.AnythingOfType("string")).
		Return(
			func(orderID string) *models.Order {
				mockGen.mu.Lock()
				defer mockGen.mu.Unlock()

				if order, ok := mockGen.orders[orderID]; ok {
					cp := *order
					return &cp
				}
				return nil
			},
			func(orderID string) error {
				mockGen.mu.Lock()
				defer mockGen.mu.Unlock()

				if _, ok := mockGen.orders[orderID]; !ok {
					return sql.ErrNoRows
				}
				return nil
			},
		)

	mockGen.orderRepo.On("GetRelated", mock.AnythingOfType("string")).
		Return(
			func(orderID string) []models.Order {
				mockGen.mu.Lock()
				defer mockGen.mu.Unlock()

				var out []models.Order
				for _, order := range mockGen.orders {
					if order.RelatedOrderID == orderID {
						out = append(out, *order)
					}
				}
				return out
			},
			nil,
		)

	mockGen.orderRepo.On("GetOpen", mock.AnythingOfType("string")).
		Return(
			func(symbol string) []models.Order {
				mockGen.mu.Lock()
				defer mockGen.mu.Unlock()

				var out []models.Order
				for _, order := range mockGen.orders {
					if order.Symbol == symbol && !order.Status.Terminal() {
						out = append(out, *order)
					}
				}
				return out
			},
			nil,
		)

	mockGen.orderRepo.On("GetBuyParents", mock.AnythingOfType("string")).
		Return(
			func(symbol string) []models.Order {
				mockGen.mu.Lock()
				defer mockGen.mu.Unlock()

				var out []models.Order
				for _, order := range mockGen.orders {
					if order.Symbol == symbol &&
						order.Side == models.SideBuy &&
						order.Type != models.OrderTypePartialFill {
						out = append(out, *order)
					}
				}
				return out
			},
			nil,
		)

	mockGen.orderRepo.On("SetStatusFill",
		mock.AnythingOfType("string"),
		mock.AnythingOfType("models.OrderStatus"),
		mock.AnythingOfType("float64"),
		mock.AnythingOfType("float64"),
	).Return(func(orderID string, status models.OrderStatus, filledQty, avgPrice float64) error {
		mockGen.mu.Lock()
		defer mockGen.mu.Unlock()

		order, ok := mockGen.orders[orderID]
		if !ok {
			return sql.ErrNoRows
		}

		order.Status = status
		order.FilledQuantity = filledQty
		order.AvgFillPrice = avgPrice
		order.StatusUpdatedAt = time.Now()
		return nil
	})

	mockGen.stateRepo.On("SetPositions", mock.AnythingOfType("int"), mock.AnythingOfType("int64")).
		Return(nil)
}

func (mockGen *mockGen) settingsMocks() {
	mockGen.settings = &mongoStructs.Settings{
		ID:               primitive.NewObjectID(),
		Symbol:           "BTCBUSD",
		MinProfitPercent: 0.002,
		FeeRate:          0.001,
		MaxOrderValue:    1000000,
		MinOrderQuantity: 0.0005,
		PositionAlertSec: 3600,
		Status:           mongoStructs.Enabled.ToString(),
	}

	mockGen.settingsRepo.On("Load", "BTCBUSD").Return(mockGen.settings, nil)
}

func (mockGen *mockGen) disableSymbol() {
	mockGen.settings.Status = mongoStructs.Disabled.ToString()
}

func (mockGen *mockGen) seedOrder(order *models.Order) {
	mockGen.mu.Lock()
	defer mockGen.mu.Unlock()

	cp := *order
	mockGen.orders[order.OrderID] = &cp
}

func (mockGen *mockGen) order(orderID string) *models.Order {
	mockGen.mu.Lock()
	defer mockGen.mu.Unlock()

	if order, ok := mockGen.orders[orderID]; ok {
		cp := *order
		return &cp
	}
	return nil
}

func (mockGen *mockGen) lotsOf(parentID string) []models.Order {
	mockGen.mu.Lock()
	defer mockGen.mu.Unlock()

	var out []models.Order
	for _, order := range mockGen.orders {
		if order.RelatedOrderID == parentID && order.Type == models.OrderTypePartialFill {
			out = append(out, *order)
		}
	}
	return out
}

func (mockGen *mockGen) sellsOf(lotID string) []models.Order {
	mockGen.mu.Lock()
	defer mockGen.mu.Unlock()

	var out []models.Order
	for _, order := range mockGen.orders {
		if order.RelatedOrderID == lotID && order.Side == models.SideSell {
			out = append(out, *order)
		}
	}
	return out
}

func (mockGen *mockGen) sells() []models.Order {
	mockGen.mu.Lock()
	defer mockGen.mu.Unlock()

	var out []models.Order
	for _, order := range mockGen.orders {
		if order.Side == models.SideSell {
			out = append(out, *order)
		}
	}
	return out
}

func (mockGen *mockGen) sellRequests() int {
	count := 0
	for _, call := range mockGen.clientCtrl.Calls {
		if call.Method != "Send" {
			continue
		}
		if u, ok := call.Arguments.Get(2).(*url.URL); ok && strings.HasSuffix(u.Path, "/v3/order") {
			count++
		}
	}
	return count
}

func (mockGen *mockGen) initOrderUseCase() *orderUseCase {
	return NewOrderUseCase(
		mockGen.clientCtrl,
		mockGen.cryptoCtrl,
		mockGen.tgmCtrl,
		mockGen.orderRepo,
		mockGen.stateRepo,
		mockGen.settingsRepo,
		mockGen.prices,
		mockGen.tracker,
		Config{
			Symbol:                 "BTCBUSD",
			BaseAsset:              "BTC",
			QuoteAsset:             "BUSD",
			MinProfitPercent:       0.002,
			FeeRate:                0.001,
			MaxOrderValue:          1000000,
			MinOrderQuantity:       0.0005,
			PositionAlertThreshold: time.Hour,
			PositionCheckInterval:  time.Minute,
		},
		"https://api.binance.com/api",
		nil,
		nil,
		mockGen.logger,
		nil,
	)
}
