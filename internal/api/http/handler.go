package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"swingbot/internal/session"
)

// StatusSource exposes the session picture the health endpoint reports.
type StatusSource interface {
	Status() map[string]session.ChannelStatus
	LastPriceAge() time.Duration
}

type Handler struct {
	fiber   *fiber.App
	session StatusSource
	logger  *logrus.Logger
}

func NewHandler(f *fiber.App, s StatusSource, l *logrus.Logger) *Handler {
	return &Handler{
		fiber:   f,
		session: s,
		logger:  l,
	}
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	statuses := h.session.Status()

	body := struct {
		Status       bool              `json:"status"`
		Channels     map[string]string `json:"channels"`
		PriceAgeMsec int64             `json:"priceAgeMsec"`
	}{
		Status:   true,
		Channels: make(map[string]string, len(statuses)),
	}

	for name, status := range statuses {
		body.Channels[name] = status.ToString()

		if !status.Delivering() {
			body.Status = false
		}
	}

	if age := h.session.LastPriceAge(); age >= 0 {
		body.PriceAgeMsec = age.Milliseconds()
	}

	if !body.Status {
		c.Status(fiber.StatusServiceUnavailable)
	}

	if err := c.JSON(body); err != nil {
		return err
	}

	return nil
}
