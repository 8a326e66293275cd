package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func RegisterHTTPEndpoints(f *fiber.App, s StatusSource, l *logrus.Logger) {
	NewMiddleware(f).useMetrics()

	h := NewHandler(f, s, l)

	router := f.Group("api")
	router.Get("/healthcheck", h.HealthCheck)
}
