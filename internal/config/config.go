package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bobby-s-dev/cloudburst/pkg/client"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port             string
		ReadTimeout      time.Duration
		WriteTimeout     time.Duration
		LogLevel         string
		CORSAllowOrigins string
	}

	WeatherAPI struct {
		OpenWeatherAPIKey string
		OpenWeatherURL    string
		WeatherAPIKey     string
		WeatherAPIURL     string
	}

	Unsplash struct {
		AccessKey string
		URL       string
	}

	EmailJS struct {
		ServiceID  string
		TemplateID string
		PublicKey  string
		URL        string
	}

	Store struct {
		Driver        string
		MongoURI      string
		MongoDatabase string
		DatabaseURL   string
	}

	HTTPClient struct {
		Timeout time.Duration
		RPS     float64
		Burst   int
	}

	Notifications struct {
		Schedule string
		Cities   []string
		FeedSize int
	}

	Preferences struct {
		Units                string
		Theme                string
		NotificationsEnabled bool
	}

	ImageCache struct {
		Duration time.Duration
		MaxSize  int
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Retry struct {
		MaxRetries int
		Delay      time.Duration
		Multiplier float64
	}
}

const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	cfg.Server.Port = getEnv("FIBER_PORT", "5000")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "10s"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.Server.CORSAllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173,http://localhost:3000")

	cfg.WeatherAPI.OpenWeatherAPIKey = getEnv("OPENWEATHER_API_KEY", "")
	cfg.WeatherAPI.OpenWeatherURL = getEnv("OPENWEATHER_URL", "https://api.openweathermap.org/data/2.5")
	cfg.WeatherAPI.WeatherAPIKey = getEnv("WEATHERAPI_API_KEY", "")
	cfg.WeatherAPI.WeatherAPIURL = getEnv("WEATHERAPI_URL", "https://api.weatherapi.com/v1")

	cfg.Unsplash.AccessKey = getEnv("UNSPLASH_ACCESS_KEY", "")
	cfg.Unsplash.URL = getEnv("UNSPLASH_URL", "https://api.unsplash.com")

	cfg.EmailJS.ServiceID = getEnv("EMAILJS_SERVICE_ID", "")
	cfg.EmailJS.TemplateID = getEnv("EMAILJS_TEMPLATE_ID", "")
	cfg.EmailJS.PublicKey = getEnv("EMAILJS_PUBLIC_KEY", "")
	cfg.EmailJS.URL = getEnv("EMAILJS_URL", "https://api.emailjs.com/api/v1.0")

	cfg.Store.Driver = strings.ToLower(getEnv("STORE_DRIVER", StoreMemory))
	cfg.Store.MongoURI = getEnv("MONGODB_URI", "mongodb://localhost:27017")
	cfg.Store.MongoDatabase = getEnv("MONGODB_DATABASE", "cloudburst")
	cfg.Store.DatabaseURL = getEnv("DATABASE_URL", "")

	cfg.HTTPClient.Timeout = parseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "10s"))
	cfg.HTTPClient.RPS = parseFloat(getEnv("PROVIDER_RPS", "5"))
	cfg.HTTPClient.Burst = parseInt(getEnv("PROVIDER_BURST", "10"))

	cfg.Notifications.Schedule = getEnv("NOTIFY_SCHEDULE", "@every 15m")
	cfg.Notifications.Cities = splitList(getEnv("NOTIFY_CITIES", "Los Angeles,Chicago,New York"))
	cfg.Notifications.FeedSize = parseInt(getEnv("NOTIFY_FEED_SIZE", "50"))

	cfg.Preferences.Units = strings.ToUpper(getEnv("DEFAULT_UNITS", "C"))
	cfg.Preferences.Theme = strings.ToLower(getEnv("DEFAULT_THEME", "light"))
	cfg.Preferences.NotificationsEnabled = parseBool(getEnv("NOTIFICATIONS_ENABLED", "true"))

	cfg.ImageCache.Duration = parseDuration(getEnv("IMAGE_CACHE_DURATION", "1h"))
	cfg.ImageCache.MaxSize = parseInt(getEnv("IMAGE_CACHE_SIZE", "500"))

	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "3"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Searches are user-paced; no automatic retry unless asked for.
	cfg.Retry.MaxRetries = parseInt(getEnv("MAX_RETRIES", "0"))
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", "1s"))
	cfg.Retry.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", "2"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.WeatherAPI.OpenWeatherAPIKey == "" {
		return fmt.Errorf("OPENWEATHER_API_KEY is required")
	}

	switch c.Store.Driver {
	case StoreMemory, StoreMongo:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}
	return nil
}

// ClientConfig is the shared resilience setup for every outbound client.
func (c *Config) ClientConfig() client.ClientConfig {
	return client.ClientConfig{
		Timeout:        c.HTTPClient.Timeout,
		MaxRetries:     c.Retry.MaxRetries,
		RetryDelay:     c.Retry.Delay,
		Multiplier:     c.Retry.Multiplier,
		Threshold:      c.CircuitBreaker.Threshold,
		BreakerTimeout: c.CircuitBreaker.Timeout,
		RPS:            c.HTTPClient.RPS,
		Burst:          c.HTTPClient.Burst,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}

func parseBool(value string) bool {
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		zap.L().Warn("Failed to parse bool", zap.String("value", value), zap.Error(err))
		return false
	}
	return boolValue
}
