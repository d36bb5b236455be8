package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/bobby-s-dev/cloudburst/internal/observability"
	"github.com/bobby-s-dev/cloudburst/internal/preferences"
	"github.com/bobby-s-dev/cloudburst/internal/services"
	"github.com/bobby-s-dev/cloudburst/internal/store"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Mailer delivers feedback messages.
type Mailer interface {
	SendFeedback(ctx context.Context, feedback models.Feedback) error
}

// StatsProvider is implemented by components reporting into /health.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatusProvider is implemented by the notification scheduler.
type StatusProvider interface {
	GetStatus() map[string]interface{}
}

// Dependencies groups what the handler needs. Images, Notifier, Mailer and
// Scheduler may be nil; the matching endpoints then report 503.
type Dependencies struct {
	Dashboard   *services.Dashboard
	Store       store.SearchStore
	Images      services.ImageSearcher
	Notifier    *services.Notifier
	Mailer      Mailer
	Scheduler   StatusProvider
	Preferences preferences.Preferences
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

type Handler struct {
	dashboard *services.Dashboard
	store     store.SearchStore
	images    services.ImageSearcher
	notifier  *services.Notifier
	mailer    Mailer
	scheduler StatusProvider
	prefs     preferences.Preferences
	metrics   *observability.Metrics
	logger    *zap.Logger
	startTime time.Time
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		dashboard: deps.Dashboard,
		store:     deps.Store,
		images:    deps.Images,
		notifier:  deps.Notifier,
		mailer:    deps.Mailer,
		scheduler: deps.Scheduler,
		prefs:     deps.Preferences,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		startTime: time.Now(),
	}
}

// SaveSearch handles POST /api/search
func (h *Handler) SaveSearch(c *fiber.Ctx) error {
	var req models.SearchRequest
	if err := c.BodyParser(&req); err != nil ||
		strings.TrimSpace(req.City) == "" || strings.TrimSpace(req.UserID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "City and userId are required",
		})
	}

	saved, err := h.store.SaveSearch(c.UserContext(), req.City, req.UserID)
	if err != nil {
		h.metrics.SearchSaveErrors.Inc()
		h.logger.Error("Failed to save search",
			zap.String("city", req.City),
			zap.String("user_id", req.UserID),
			zap.Error(err))

		status := fiber.StatusInternalServerError
		message := "Server error"
		if errors.Is(err, models.ErrValidation) {
			status = fiber.StatusBadRequest
			message = "City and userId are required"
		}
		return c.Status(status).JSON(fiber.Map{"message": message})
	}

	h.metrics.SearchesSaved.Inc()
	h.logger.Info("Search saved",
		zap.String("id", saved.ID),
		zap.String("city", saved.City),
		zap.String("user_id", saved.UserID))

	return c.JSON(fiber.Map{"message": "Search saved successfully"})
}

// GetCurrentWeather handles GET /api/v1/weather/current
func (h *Handler) GetCurrentWeather(c *fiber.Ctx) error {
	city, ok := requireCity(c)
	if !ok {
		return cityRequired(c)
	}

	h.logger.Info("Fetching current weather", zap.String("city", city))

	current, _, err := h.dashboard.Retriever().FetchWeather(c.UserContext(), city)
	if err != nil {
		return h.respondError(c, err, zap.String("city", city))
	}

	return c.JSON(current)
}

// GetForecast handles GET /api/v1/weather/forecast
func (h *Handler) GetForecast(c *fiber.Ctx) error {
	city, ok := requireCity(c)
	if !ok {
		return cityRequired(c)
	}

	h.logger.Info("Fetching forecast", zap.String("city", city))

	_, samples, err := h.dashboard.Retriever().FetchWeather(c.UserContext(), city)
	if err != nil {
		return h.respondError(c, err, zap.String("city", city))
	}

	return c.JSON(models.Forecast{City: city, Samples: samples})
}

// GetAnalytics handles GET /api/v1/analytics
func (h *Handler) GetAnalytics(c *fiber.Ctx) error {
	city, ok := requireCity(c)
	if !ok {
		return cityRequired(c)
	}

	prefs := h.prefs
	if raw := c.Query("units"); raw != "" {
		units, err := preferences.ParseUnits(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Units parameter must be C or F",
			})
		}
		prefs = prefs.WithUnits(units)
	}

	session := strings.TrimSpace(c.Query("userId"))
	if session == "" {
		session = "anonymous"
	}

	result, err := h.dashboard.Analyze(c.UserContext(), session, city, prefs)
	if err != nil {
		return h.respondError(c, err, zap.String("city", city), zap.String("session", session))
	}

	return c.JSON(result)
}

// EvaluateSnapshot handles POST /api/v1/risk
func (h *Handler) EvaluateSnapshot(c *fiber.Ctx) error {
	var snapshot models.Snapshot
	if err := c.BodyParser(&snapshot); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid snapshot",
			"details": err.Error(),
		})
	}

	return c.JSON(h.dashboard.Evaluate(snapshot))
}

// GetImage handles GET /api/v1/images
func (h *Handler) GetImage(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter is required",
		})
	}
	if h.images == nil {
		return unavailable(c, "Image search is not configured")
	}

	url, err := h.images.SearchImage(c.UserContext(), query)
	if err != nil {
		h.logger.Warn("Image search failed", zap.String("query", query), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Image search failed",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"url": url})
}

// GetNotifications handles GET /api/v1/notifications
func (h *Handler) GetNotifications(c *fiber.Ctx) error {
	if h.notifier == nil {
		return c.JSON(fiber.Map{"enabled": false, "notifications": []models.Notification{}})
	}

	return c.JSON(fiber.Map{
		"enabled":       h.notifier.Enabled(),
		"notifications": h.notifier.Feed(),
	})
}

// SendFeedback handles POST /api/v1/feedback
func (h *Handler) SendFeedback(c *fiber.Ctx) error {
	var feedback models.Feedback
	if err := c.BodyParser(&feedback); err != nil ||
		strings.TrimSpace(feedback.Name) == "" ||
		strings.TrimSpace(feedback.Email) == "" ||
		strings.TrimSpace(feedback.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name, email and message are required",
		})
	}
	if h.mailer == nil {
		return unavailable(c, "Feedback delivery is not configured")
	}

	if err := h.mailer.SendFeedback(c.UserContext(), feedback); err != nil {
		h.logger.Error("Failed to send feedback", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to send feedback",
		})
	}

	return c.JSON(fiber.Map{"message": "Feedback sent"})
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := fiber.StatusOK
	storeStatus := "ok"
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Store ping failed", zap.Error(err))
		status = "degraded"
		code = fiber.StatusServiceUnavailable
		storeStatus = err.Error()
	}

	stats := fiber.Map{}
	if sp, ok := h.images.(StatsProvider); ok {
		stats["images"] = sp.GetStats()
	}
	if h.scheduler != nil {
		stats["scheduler"] = h.scheduler.GetStatus()
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"store":     storeStatus,
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
		"stats":     stats,
	})
}

func requireCity(c *fiber.Ctx) (string, bool) {
	city := strings.TrimSpace(c.Query("city"))
	return city, city != ""
}

func cityRequired(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "City parameter is required",
	})
}

func unavailable(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": message,
	})
}
