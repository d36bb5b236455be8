package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/cloudburst/internal/api"
	"github.com/bobby-s-dev/cloudburst/internal/config"
	"github.com/bobby-s-dev/cloudburst/internal/observability"
	"github.com/bobby-s-dev/cloudburst/internal/preferences"
	"github.com/bobby-s-dev/cloudburst/internal/risk"
	"github.com/bobby-s-dev/cloudburst/internal/scheduler"
	"github.com/bobby-s-dev/cloudburst/internal/services"
	"github.com/bobby-s-dev/cloudburst/internal/store"
	"github.com/bobby-s-dev/cloudburst/pkg/client"
	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting cloudburst dashboard service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if leveled, err := newLogger(cfg.Server.LogLevel); err != nil {
		logger.Warn("Keeping default log level", zap.String("level", cfg.Server.LogLevel), zap.Error(err))
	} else {
		logger = leveled
		defer logger.Sync()
		zap.ReplaceGlobals(logger)
	}

	prefs, err := preferences.New(cfg.Preferences.Units, cfg.Preferences.Theme, cfg.Preferences.NotificationsEnabled)
	if err != nil {
		logger.Fatal("Invalid preferences", zap.Error(err))
	}

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()
	clientCfg := cfg.ClientConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	searchStore, err := openStore(ctx, cfg, clock, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to open search store", zap.Error(err))
	}

	// Weather provider and dashboard
	weather := client.NewOpenWeatherClient(cfg.WeatherAPI.OpenWeatherAPIKey, cfg.WeatherAPI.OpenWeatherURL, clientCfg, logger)
	retriever := services.NewRetriever(weather, cfg.HTTPClient.Timeout, metrics, logger)

	var images *services.ImageCache
	if cfg.Unsplash.AccessKey != "" {
		unsplash := client.NewUnsplashClient(cfg.Unsplash.AccessKey, cfg.Unsplash.URL, clientCfg, logger)
		images = services.NewImageCache(unsplash, cfg.ImageCache.Duration, cfg.ImageCache.MaxSize, clock, metrics, logger)
		images.StartCleanup()
	} else {
		logger.Info("UNSPLASH_ACCESS_KEY not set, background images disabled")
	}

	var dashboardImages services.ImageSearcher
	if images != nil {
		dashboardImages = images
	}
	dashboard := services.NewDashboard(retriever, risk.NewEvaluator(nil), dashboardImages, clock, metrics, logger)

	// Notification feed
	var conditions services.ConditionSource
	if cfg.WeatherAPI.WeatherAPIKey != "" {
		conditions = client.NewWeatherAPIClient(cfg.WeatherAPI.WeatherAPIKey, cfg.WeatherAPI.WeatherAPIURL, clientCfg, logger)
	}
	notifier := services.NewNotifier(conditions, prefs, cfg.Notifications.FeedSize, clock, metrics, logger)

	var notifyScheduler *scheduler.Scheduler
	if notifier.Enabled() {
		notifyScheduler, err = scheduler.NewScheduler(notifier, cfg.Notifications.Cities, cfg.Notifications.Schedule, logger)
		if err != nil {
			logger.Fatal("Failed to initialize scheduler", zap.Error(err))
		}
	} else {
		logger.Info("Notifications disabled")
	}

	var mailer api.Mailer
	if cfg.EmailJS.ServiceID != "" && cfg.EmailJS.TemplateID != "" && cfg.EmailJS.PublicKey != "" {
		mailer = client.NewEmailJSClient(cfg.EmailJS.ServiceID, cfg.EmailJS.TemplateID, cfg.EmailJS.PublicKey, cfg.EmailJS.URL, clientCfg, logger)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JSONEncoder:  json.Marshal,
		ErrorHandler: api.ErrorHandler,
	})

	deps := api.Dependencies{
		Dashboard:   dashboard,
		Store:       searchStore,
		Images:      dashboardImages,
		Notifier:    notifier,
		Mailer:      mailer,
		Preferences: prefs,
		Metrics:     metrics,
		Logger:      logger,
	}
	if notifyScheduler != nil {
		deps.Scheduler = notifyScheduler
	}
	api.SetupRoutes(app, api.NewHandler(deps), cfg.Server.CORSAllowOrigins)

	if notifyScheduler != nil {
		notifyScheduler.Start()
	}

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if notifyScheduler != nil {
		notifyScheduler.Stop()
	}
	if images != nil {
		images.Stop()
	}

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	if err := searchStore.Close(shutdownCtx); err != nil {
		logger.Error("Store close failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = atomic
	return zapCfg.Build()
}

func openStore(ctx context.Context, cfg *config.Config, clock clockwork.Clock, logger *zap.Logger) (store.SearchStore, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		return store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, clock, logger)
	case config.StorePostgres:
		return store.NewPostgresStore(ctx, cfg.Store.DatabaseURL, clock, logger)
	case config.StoreMemory:
		logger.Warn("Using in-memory search store, searches are lost on restart")
		return store.NewMemoryStore(clock), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
