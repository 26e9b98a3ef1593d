package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
	}

	WeatherAPI struct {
		OpenWeatherAPIKey string
		BaseURL           string
		GeoURL            string
		Timeout           time.Duration
	}

	Database struct {
		Driver string
		URL    string
	}

	Dashboard struct {
		FallbackCity    string
		ErrorClearDelay time.Duration
		SuggestDelay    time.Duration
		MinQueryLength  int
		IdleTTL         time.Duration
		SweepInterval   time.Duration
		MaxShells       int
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "10s"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	// Weather API configuration
	cfg.WeatherAPI.OpenWeatherAPIKey = getEnv("OPENWEATHER_API_KEY", "")
	cfg.WeatherAPI.BaseURL = getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")
	cfg.WeatherAPI.GeoURL = getEnv("OPENWEATHER_GEO_URL", "https://api.openweathermap.org/geo/1.0")
	cfg.WeatherAPI.Timeout = parseDuration(getEnv("WEATHER_API_TIMEOUT", "0s"))

	// Database configuration
	cfg.Database.Driver = getEnv("DATABASE_DRIVER", "sqlite3")
	cfg.Database.URL = getEnv("DATABASE_URL", "weather.db")

	// Dashboard configuration
	cfg.Dashboard.FallbackCity = getEnv("FALLBACK_CITY", "Addis Ababa")
	cfg.Dashboard.ErrorClearDelay = parseDuration(getEnv("ERROR_CLEAR_DELAY", "3s"))
	cfg.Dashboard.SuggestDelay = parseDuration(getEnv("SUGGEST_DELAY", "500ms"))
	cfg.Dashboard.MinQueryLength = parseInt(getEnv("SUGGEST_MIN_LENGTH", "2"))
	cfg.Dashboard.IdleTTL = parseDuration(getEnv("SESSION_IDLE_TTL", "30m"))
	cfg.Dashboard.SweepInterval = parseDuration(getEnv("SESSION_SWEEP_INTERVAL", "1m"))
	cfg.Dashboard.MaxShells = parseInt(getEnv("MAX_SESSIONS", "1000"))

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "3"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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
