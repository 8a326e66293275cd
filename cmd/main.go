package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	api "swingbot/internal/api/http"
	"swingbot/internal/controllers"
	"swingbot/internal/repository/mongo"
	mongoStructs "swingbot/internal/repository/mongo/structs"
	"swingbot/internal/repository/postgres"
	"swingbot/internal/session"
	"swingbot/internal/usecasees"
)

func main() {
	var app App
	var confFileName string

	flag.StringVar(&confFileName, "config", ".env", "")
	flag.Parse()

	app.Name = "swingbot"

	if err := app.loadConfig(confFileName); err != nil {
		panic(err)
	}

	app.initLogger()

	if err := app.initTgBot(); err != nil {
		panic(err)
	}

	if err := app.InitDB(); err != nil {
		panic(err)
	}

	if err := app.initMongo(); err != nil {
		panic(err)
	}

	if err := app.initLoki(); err != nil {
		panic(err)
	}

	app.initHTTPClient()
	app.InitMetrics()

	chatId, err := strconv.ParseInt(app.Config.TelegramChatID, 10, 64)
	if err != nil {
		panic(err)
	}

	orderRepo := postgres.NewOrderRepository(app.DB)
	stateRepo := postgres.NewStateRepository(app.DB)
	settingsRepo := mongo.NewSettingsRepository(app.Mongo)

	clientController := controllers.NewClientController(
		app.HTTPClient,
		app.Config.BinanceApiKey,
		app.Logger,
	)
	cryptoController := controllers.NewCryptoController(
		app.Config.BinanceSecretKey,
	)
	tgmController := controllers.NewTgmController(
		app.TGM,
		chatId,
	)

	if err := settingsRepo.SetDefault(mongoStructs.Settings{
		Symbol:           app.Config.Symbol,
		MinProfitPercent: app.Config.MinProfitPercent,
		FeeRate:          app.Config.FeeRate,
		MaxOrderValue:    app.Config.MaxOrderValue,
		MinOrderQuantity: app.Config.MinOrderQuantity,
		PositionAlertSec: int64(app.Config.PositionAlertThreshold / time.Second),
		Status:           mongoStructs.Enabled.ToString(),
	}); err != nil {
		app.Logger.WithError(err).Error(string(debug.Stack()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fatalStop int32

	sessionManager := session.NewManager(
		session.Config{
			Symbol:    app.Config.Symbol,
			APIURL:    app.Config.BinanceUrl,
			StreamURL: app.Config.BinanceStreamUrl,
		},
		clientController,
		cryptoController,
		stateRepo,
		func(channel string, err error) {
			atomic.StoreInt32(&fatalStop, 1)

			app.Logger.
				WithError(err).
				WithField("channel", channel).
				Error("channel fatally stopped, shutting down")

			if tgmErr := tgmController.Send(fmt.Sprintf(
				"[ FATAL ]\nChannel:\t%s\nError:\t%s\nBot is stopping.",
				channel, err,
			)); tgmErr != nil {
				app.Logger.WithError(tgmErr).Error(string(debug.Stack()))
			}

			cancel()
		},
		app.Logger,
		app.PromTail,
	)

	orderUseCase := usecasees.NewOrderUseCase(
		clientController,
		cryptoController,
		tgmController,
		orderRepo,
		stateRepo,
		settingsRepo,
		sessionManager,
		sessionManager,
		usecasees.Config{
			Symbol:                 app.Config.Symbol,
			BaseAsset:              app.Config.BaseAsset,
			QuoteAsset:             app.Config.QuoteAsset,
			MinProfitPercent:       app.Config.MinProfitPercent,
			FeeRate:                app.Config.FeeRate,
			MaxOrderValue:          app.Config.MaxOrderValue,
			MinOrderQuantity:       app.Config.MinOrderQuantity,
			PositionAlertThreshold: app.Config.PositionAlertThreshold,
			PositionCheckInterval:  app.Config.PositionCheckInterval,
		},
		app.Config.BinanceUrl,
		app.Metrics.Order,
		app.Metrics.Positions,
		app.Logger,
		app.PromTail,
	)

	if state, err := stateRepo.Get(); err != nil {
		app.Logger.WithError(err).Warn("no previous system state")
	} else {
		app.Logger.
			WithField("marketStream", state.MarketStreamStatus).
			WithField("userStream", state.UserStreamStatus).
			WithField("openPositions", state.OpenPositionCount).
			WithField("lastError", state.LastError).
			Info("previous system state")
	}

	if err := orderUseCase.RestoreMonitoredOrders(); err != nil {
		app.Logger.WithError(err).Error(string(debug.Stack()))
	}

	sessionManager.RegisterOrderCallback("orderLifecycle", orderUseCase.HandleOrderEvent)
	sessionManager.RegisterPriceCallback("lotSweep", orderUseCase.HandlePriceUpdate)

	sessionManager.Start(ctx)
	defer sessionManager.Close()

	orderUseCase.PositionMonitoring(ctx)

	tgmUseCase := usecasees.NewTgmUseCase(
		orderUseCase,
		stateRepo,
		settingsRepo,
		tgmController,
		app.Logger,
	)
	go tgmUseCase.CommandProcessor()

	fiberApp := fiber.New()
	api.RegisterHTTPEndpoints(fiberApp, sessionManager, app.Logger)

	go func() {
		if err := fiberApp.Listen(app.Config.HTTPAddr); err != nil {
			app.Logger.WithError(err).Error("http server stopped")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		app.Logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	if err := fiberApp.Shutdown(); err != nil {
		app.Logger.WithError(err).Error("http shutdown failed")
	}

	// A channel that hit its reconnection ceiling ends the process
	// loudly so supervisors restart or page instead of seeing a clean
	// exit.
	if atomic.LoadInt32(&fatalStop) == 1 {
		os.Exit(1)
	}
}
