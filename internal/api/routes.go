package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

func SetupRoutes(app *fiber.App, handler *Handler, log *zap.Logger) {
	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	// Custom logger middleware
	app.Use(logger.New(logger.Config{
		Format:     "${time} ${pid} ${locals:requestid} ${status} - ${method} ${path}\n",
		TimeFormat: time.RFC3339,
	}))

	app.Get("/", handler.Session, handler.GetPage)

	// API v1 routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", handler.GetHealth)

	session := api.Group("", handler.Session)

	session.Get("/dashboard", handler.GetDashboard)
	session.Post("/city", handler.ChangeCity)
	session.Get("/suggestions", handler.GetSuggestions)
	session.Delete("/error", handler.DismissError)

	// Saved cities
	cities := session.Group("/cities")
	cities.Post("/", handler.SaveCity)
	cities.Delete("/:id", handler.RemoveCity)
	cities.Put("/:id/default", handler.SetDefaultCity)
	cities.Post("/:id/load", handler.LoadSavedCity)

	// Preferences
	prefs := session.Group("/preferences")
	prefs.Post("/theme", handler.ToggleTheme)
	prefs.Post("/unit", handler.ToggleUnit)

	log.Debug("Routes registered")

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
			"path":  c.Path(),
		})
	})
}
