package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App, handler *Handler, allowOrigins string) {
	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: "GET,POST,HEAD,OPTIONS",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} ${pid} ${locals:requestid} ${status} - ${method} ${path}\n",
		TimeFormat: time.RFC3339,
	}))

	// Persisted searches
	app.Post("/api/search", handler.SaveSearch)

	// API v1 routes
	api := app.Group("/api/v1")

	api.Get("/health", handler.GetHealth)
	api.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	weather := api.Group("/weather")
	weather.Get("/current", handler.GetCurrentWeather)
	weather.Get("/forecast", handler.GetForecast)

	api.Get("/analytics", handler.GetAnalytics)
	api.Post("/risk", handler.EvaluateSnapshot)
	api.Get("/images", handler.GetImage)
	api.Get("/notifications", handler.GetNotifications)
	api.Post("/feedback", handler.SendFeedback)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
			"path":  c.Path(),
		})
	})
}
