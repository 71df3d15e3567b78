package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	httpapi "github.com/dayeon-k/weather-lookup/internal/api/http"
	"github.com/dayeon-k/weather-lookup/internal/cache"
	"github.com/dayeon-k/weather-lookup/internal/config"
	"github.com/dayeon-k/weather-lookup/internal/scheduler"
	"github.com/dayeon-k/weather-lookup/internal/storage"
	"github.com/dayeon-k/weather-lookup/internal/weather"
	"github.com/dayeon-k/weather-lookup/internal/weather/providers"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Shared HTTP client for outbound upstream calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewOpenWeatherClient(httpClient, providers.Config{
		APIKey:     cfg.OpenWeatherAPIKey,
		BaseURL:    cfg.OpenWeatherBaseURL,
		Lang:       cfg.WeatherLang,
		MaxRetries: cfg.MaxRetries,
	})

	cached := cache.NewClient(provider, cfg.CacheTTL, cfg.CacheMaxEntries, log)

	store, err := storage.NewStore(cfg.DataDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	service := weather.NewService(cached, store, log)

	// Keep cache entries for favorite locations warm.
	defaultQuery := cfg.DefaultCity + "," + cfg.DefaultCountry
	warmer := scheduler.New(store, defaultQuery, cfg.RefreshInterval, service, log)
	if err := warmer.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start cache warmer")
	}
	defer warmer.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-lookup",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-lookup",
			"cache":   cached.Stats(),
		})
	})

	httpapi.RegisterRoutes(app, service, store)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("weather-lookup listening")

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}
