package api

import (
	"errors"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

const (
	SessionCookie = "weather_session_id"
	sessionKey    = "session"
)

var validate = validator.New()

// StatusReporter exposes background job status for the health endpoint.
type StatusReporter interface {
	GetStatus() map[string]interface{}
}

type Handler struct {
	dashboard *services.Dashboard
	scheduler StatusReporter
	logger    *zap.Logger
}

func NewHandler(dashboard *services.Dashboard, scheduler StatusReporter, logger *zap.Logger) *Handler {
	return &Handler{
		dashboard: dashboard,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Session reads the session cookie, issuing a new long-lived one when it is
// missing or malformed.
func (h *Handler) Session(c *fiber.Ctx) error {
	session, created := store.SessionOrNew(c.Cookies(SessionCookie))
	if created {
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    session.ID,
			Path:     "/",
			Expires:  time.Now().AddDate(1, 0, 0),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	c.Locals(sessionKey, session)
	return c.Next()
}

func (h *Handler) shell(c *fiber.Ctx) *services.Shell {
	session, _ := c.Locals(sessionKey).(store.Session)
	shell, err := h.dashboard.Shell(c.UserContext(), session, prefersDark(c))
	if err != nil {
		// The shell carries the banner; the page still renders.
		h.logger.Debug("Shell started with error", zap.Error(err))
	}
	return shell
}

func prefersDark(c *fiber.Ctx) bool {
	return strings.EqualFold(c.Get("Sec-CH-Prefers-Color-Scheme"), "dark")
}

// GetPage handles GET /
func (h *Handler) GetPage(c *fiber.Ctx) error {
	page, err := renderPage(NewDashboardView(h.shell(c).State()))
	if err != nil {
		return err
	}
	c.Set("Accept-CH", "Sec-CH-Prefers-Color-Scheme")
	c.Type("html", "utf-8")
	return c.Send(page)
}

// GetDashboard handles GET /api/v1/dashboard
func (h *Handler) GetDashboard(c *fiber.Ctx) error {
	return c.JSON(NewDashboardView(h.shell(c).State()))
}

type cityRequest struct {
	Name string  `json:"name" validate:"max=200"`
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// ChangeCity handles POST /api/v1/city
func (h *Handler) ChangeCity(c *fiber.Ctx) error {
	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" && (req.Lat == 0 || req.Lon == 0) {
		return fiber.NewError(fiber.StatusBadRequest, "City name or coordinates are required")
	}

	shell := h.shell(c)
	h.logger.Info("Changing city",
		zap.String("city", req.Name),
		zap.Float64("lat", req.Lat),
		zap.Float64("lon", req.Lon))

	if err := shell.ChangeCity(c.UserContext(), req.Name, req.Lat, req.Lon); err != nil {
		return err
	}
	return c.JSON(NewDashboardView(shell.State()))
}

// GetSuggestions handles GET /api/v1/suggestions
func (h *Handler) GetSuggestions(c *fiber.Ctx) error {
	query := utils.CopyString(strings.TrimSpace(c.Query("q")))

	places, err := h.shell(c).Suggest(c.UserContext(), query)
	if errors.Is(err, services.ErrSuperseded) {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"query":       query,
		"suggestions": places,
	})
}

// SaveCity handles POST /api/v1/cities
func (h *Handler) SaveCity(c *fiber.Ctx) error {
	shell := h.shell(c)
	if err := shell.SaveCity(c.UserContext()); err != nil {
		if errors.Is(err, services.ErrNoWeather) {
			return fiber.NewError(fiber.StatusBadRequest, "No city loaded")
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(NewDashboardView(shell.State()))
}

// RemoveCity handles DELETE /api/v1/cities/:id
func (h *Handler) RemoveCity(c *fiber.Ctx) error {
	id := utils.CopyString(c.Params("id"))
	shell := h.shell(c)
	if err := shell.RemoveCity(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(NewDashboardView(shell.State()))
}

// SetDefaultCity handles PUT /api/v1/cities/:id/default
func (h *Handler) SetDefaultCity(c *fiber.Ctx) error {
	id := utils.CopyString(c.Params("id"))
	shell := h.shell(c)
	if err := shell.SetDefault(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(NewDashboardView(shell.State()))
}

// LoadSavedCity handles POST /api/v1/cities/:id/load
func (h *Handler) LoadSavedCity(c *fiber.Ctx) error {
	id := utils.CopyString(c.Params("id"))
	shell := h.shell(c)
	if err := shell.LoadSavedCity(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(NewDashboardView(shell.State()))
}

// ToggleTheme handles POST /api/v1/preferences/theme
func (h *Handler) ToggleTheme(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"theme": h.shell(c).ToggleTheme()})
}

// ToggleUnit handles POST /api/v1/preferences/unit
func (h *Handler) ToggleUnit(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"unit": h.shell(c).ToggleUnit()})
}

// DismissError handles DELETE /api/v1/error
func (h *Handler) DismissError(c *fiber.Ctx) error {
	h.shell(c).DismissError()
	return c.SendStatus(fiber.StatusNoContent)
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":     "healthy",
		"timestamp":  time.Now(),
		"last_start": h.dashboard.GetLastStartTime(),
		"uptime":     time.Since(startTime).String(),
		"stats":      h.dashboard.GetStats(),
	}
	if h.scheduler != nil {
		resp["scheduler"] = h.scheduler.GetStatus()
	}
	return c.JSON(resp)
}

var startTime = time.Now()

// ErrorHandler renders every handler error as JSON, mapping the domain
// errors to HTTP statuses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	// Wrapped errors may carry upstream detail, so only fiber errors and
	// validation failures pass their text through.
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code, message = fe.Code, fe.Message
	case errors.Is(err, models.ErrValidation):
		code, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrNotFound):
		code, message = fiber.StatusNotFound, services.MsgCityNotFound
	case errors.Is(err, models.ErrUpstream):
		code, message = fiber.StatusBadGateway, services.MsgLoadFailed
	case errors.Is(err, models.ErrStore):
		code, message = fiber.StatusInternalServerError, "Failed to access storage"
	}

	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", code),
		zap.Error(err),
	}
	if code >= fiber.StatusInternalServerError {
		zap.L().Error("HTTP error", fields...)
	} else {
		zap.L().Warn("HTTP error", fields...)
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   message,
		"success": false,
	})
}
