package usecasees

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"swingbot/internal/controllers"
	"swingbot/internal/repository/mongo"
	mongoStructs "swingbot/internal/repository/mongo/structs"
	"swingbot/internal/repository/postgres"
)

type tgmUseCase struct {
	orderUseCase  *orderUseCase
	stateRepo     postgres.StateRepo
	settingsRepo  mongo.SettingsRepo
	tgmController controllers.TgmCtrl
	logger        *logrus.Logger
}

func NewTgmUseCase(
	orderUseCase *orderUseCase,
	stateRepo postgres.StateRepo,
	settingsRepo mongo.SettingsRepo,
	tgmController controllers.TgmCtrl,
	logger *logrus.Logger,
) *tgmUseCase {
	return &tgmUseCase{
		orderUseCase:  orderUseCase,
		stateRepo:     stateRepo,
		settingsRepo:  settingsRepo,
		tgmController: tgmController,
		logger:        logger,
	}
}

func (u *tgmUseCase) CommandProcessor() {
	for update := range u.tgmController.GetUpdates() {
		if update.Message == nil {
			continue
		}

		if !u.tgmController.CheckChatID(update.Message.Chat.ID) {
			continue
		}

		switch update.Message.Command() {
		case "ping":
			u.pingProc()
		case "stat":
			u.statProc()
		case "positions":
			u.positionsProc()
		case "buy":
			u.buyProc(update.Message.CommandArguments())
		case "enable":
			u.statusProc(mongoStructs.Enabled)
		case "disable":
			u.statusProc(mongoStructs.Disabled)
		}
	}
}

// buyProc handles "/buy <quantity> [price]". Without a price the order
// goes out at market.
func (u *tgmUseCase) buyProc(args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		u.reply("usage: /buy <quantity> [price]")
		return
	}

	quantity, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		u.reply(fmt.Sprintf("bad quantity %q", fields[0]))
		return
	}

	var price float64
	if len(fields) == 2 {
		price, err = strconv.ParseFloat(fields[1], 64)
		if err != nil {
			u.reply(fmt.Sprintf("bad price %q", fields[1]))
			return
		}
	}

	orderID, err := u.orderUseCase.PlaceBuyOrder(quantity, price)
	if err != nil {
		u.reply(fmt.Sprintf("buy rejected: %s", err))
		return
	}

	u.reply(fmt.Sprintf("buy order %s placed", orderID))
}

// statusProc toggles trading for the configured symbol.
func (u *tgmUseCase) statusProc(status mongoStructs.SymbolStatus) {
	settings, err := u.settingsRepo.Load(u.orderUseCase.cfg.Symbol)
	if err != nil {
		u.logger.
			WithError(err).
			Error(string(debug.Stack()))
		u.reply(fmt.Sprintf("settings unavailable: %s", err))
		return
	}

	if err := u.settingsRepo.UpdateStatus(settings.ID, status); err != nil {
		u.logger.
			WithError(err).
			Error(string(debug.Stack()))
		u.reply(fmt.Sprintf("status update failed: %s", err))
		return
	}

	u.reply(fmt.Sprintf("trading %s for %s", status.ToString(), u.orderUseCase.cfg.Symbol))
}

func (u *tgmUseCase) reply(text string) {
	if err := u.tgmController.Send(text); err != nil {
		u.logger.WithError(err).Debug("telegram reply failed")
	}
}

func (u *tgmUseCase) pingProc() {
	if err := u.tgmController.Send(
		fmt.Sprintf("PONG [ %s ]", time.Now().UTC().Format(time.RFC822)),
	); err != nil {
		u.logger.WithField("method", "pingProc").Debug(err)
	}
}

func (u *tgmUseCase) statProc() {
	state, err := u.stateRepo.Get()
	if err != nil {
		u.logger.
			WithError(err).
			Error(string(debug.Stack()))
		return
	}

	msg := fmt.Sprintf(
		"[ System Stat ]\n"+
			"Market stream:\t%s\n"+
			"User stream:\t%s\n"+
			"Reconnect attempts:\t%d\n"+
			"Open positions:\t%d\n"+
			"Oldest position:\t%s\n",
		state.MarketStreamStatus,
		state.UserStreamStatus,
		state.ReconnectionAttempts,
		state.OpenPositionCount,
		(time.Duration(state.OldestPositionAgeSeconds) * time.Second).String(),
	)

	if state.LastError != "" {
		msg += fmt.Sprintf("Last error:\t%s\n", state.LastError)
	}

	if err := u.tgmController.Send(msg); err != nil {
		u.logger.
			WithError(err).
			Error(string(debug.Stack()))
	}
}

func (u *tgmUseCase) positionsProc() {
	monitored := u.orderUseCase.MonitoredOrders()

	if len(monitored) == 0 {
		if err := u.tgmController.Send("[ Positions ]\nno orders in flight"); err != nil {
			u.logger.WithField("method", "positionsProc").Debug(err)
		}
		return
	}

	msg := "[ Positions ]\n"
	for _, mon := range monitored {
		msg += fmt.Sprintf(
			"Order:\t%s\nFilled:\t%.8f\nFills:\t%d\nUpdated:\t%s\n\n",
			mon.OrderID,
			mon.TotalFilled,
			len(mon.Fills),
			mon.LastUpdate.UTC().Format(time.RFC822),
		)
	}

	if err := u.tgmController.Send(msg); err != nil {
		u.logger.
			WithError(err).
			Error(string(debug.Stack()))
	}
}
