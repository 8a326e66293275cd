package usecasees

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	mongoStructs "swingbot/internal/repository/mongo/structs"
	"swingbot/models"
)

func commandUpdate(chatID int64, text string) tgbotapi.Update {
	cmdLen := len(text)
	if i := strings.Index(text, " "); i >= 0 {
		cmdLen = i
	}

	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			Chat: &tgbotapi.Chat{ID: chatID},
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: cmdLen},
			},
		},
	}
}

func Test_CommandProcessor(t *testing.T) {
	mockGen := newMockGen()
	uc := mockGen.initOrderUseCase()

	updates := make(chan tgbotapi.Update, 5)
	updates <- commandUpdate(200, "/disable")
	updates <- commandUpdate(100, "/disable")
	updates <- commandUpdate(100, "/enable")
	updates <- commandUpdate(100, "/buy 0.5 19500")
	updates <- commandUpdate(100, "/buy nonsense")
	close(updates)

	mockGen.tgmCtrl.On("GetUpdates").Return(tgbotapi.UpdatesChannel(updates))
	mockGen.tgmCtrl.On("CheckChatID", int64(100)).Return(true)
	mockGen.tgmCtrl.On("CheckChatID", int64(200)).Return(false)

	mockGen.settingsRepo.On("UpdateStatus", mockGen.settings.ID, mongoStructs.Disabled).Return(nil)
	mockGen.settingsRepo.On("UpdateStatus", mockGen.settings.ID, mongoStructs.Enabled).Return(nil)

	tgm := NewTgmUseCase(uc, mockGen.stateRepo, mockGen.settingsRepo, mockGen.tgmCtrl, mockGen.logger)
	tgm.CommandProcessor()

	// The foreign chat never toggled anything: one disable, one enable.
	mockGen.settingsRepo.AssertNumberOfCalls(t, "UpdateStatus", 2)
	mockGen.settingsRepo.AssertCalled(t, "UpdateStatus", mockGen.settings.ID, mongoStructs.Disabled)
	mockGen.settingsRepo.AssertCalled(t, "UpdateStatus", mockGen.settings.ID, mongoStructs.Enabled)

	buy := mockGen.order("20001")
	assert.NotNil(t, buy)
	assert.Equal(t, models.SideBuy, buy.Side)
	assert.Equal(t, models.OrderTypeLimit, buy.Type)
	assert.Equal(t, 0.5, buy.Quantity)

	// The malformed quantity never reached the exchange.
	assert.Equal(t, 1, mockGen.sellRequests())
}
