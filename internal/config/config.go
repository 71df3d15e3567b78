package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// AppConfig is the immutable process configuration, loaded once at start.
type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	// WeatherLang selects the language for condition descriptions.
	WeatherLang string

	// Default location used by the cache warmer when no favorites exist.
	DefaultCity    string
	DefaultCountry string

	// Cache freshness window and entry bound.
	CacheTTL        time.Duration
	CacheMaxEntries int

	// Outbound HTTP settings.
	HTTPTimeout time.Duration
	MaxRetries  int

	// RefreshInterval controls how often the warmer refreshes favorites.
	RefreshInterval time.Duration

	DataDir string
	Port    string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")
	cfg.WeatherLang = getenvDefault("WEATHER_LANG", "kr")

	cfg.DefaultCity = getenvDefault("DEFAULT_CITY", "Seoul")
	cfg.DefaultCountry = getenvDefault("DEFAULT_COUNTRY", "KR")

	ttlSeconds := getenvInt("CACHE_TTL_SECONDS", 600)
	if ttlSeconds <= 0 {
		return nil, fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	}
	cfg.CacheTTL = time.Duration(ttlSeconds) * time.Second

	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 128)

	timeoutSeconds := getenvInt("REQUEST_TIMEOUT", 10)
	if timeoutSeconds <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.MaxRetries = getenvInt("MAX_RETRIES", 2)
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("MAX_RETRIES must not be negative")
	}

	intervalStr := getenvDefault("REFRESH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	cfg.DataDir = getenvDefault("DATA_DIR", "data")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
