package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/api"
	"github.com/bobby-s-dev/weather-dashboard/internal/config"
	"github.com/bobby-s-dev/weather-dashboard/internal/scheduler"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/pkg/client"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	logger.Info("Starting Weather Dashboard")

	if cfg.WeatherAPI.OpenWeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY is not set; weather requests will fail")
	}

	st, err := openStore(cfg, logger, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	weather := client.NewOpenWeatherClient(
		cfg.WeatherAPI.OpenWeatherAPIKey,
		cfg.WeatherAPI.BaseURL,
		cfg.WeatherAPI.GeoURL,
		client.ClientConfig{
			Timeout:        cfg.WeatherAPI.Timeout,
			Threshold:      cfg.CircuitBreaker.Threshold,
			BreakerTimeout: cfg.CircuitBreaker.Timeout,
		},
		logger,
	)

	clock := services.NewTickClock()
	dashboard := services.NewDashboard(services.DashboardConfig{
		Shell: services.ShellOptions{
			FallbackCity:    cfg.Dashboard.FallbackCity,
			ErrorClearDelay: cfg.Dashboard.ErrorClearDelay,
			SuggestDelay:    cfg.Dashboard.SuggestDelay,
			MinQueryLength:  cfg.Dashboard.MinQueryLength,
		},
		IdleTTL: cfg.Dashboard.IdleTTL,
		MaxSize: cfg.Dashboard.MaxShells,
	}, weather, st, clock, logger)

	jobs := scheduler.NewScheduler(clock, dashboard.Registry(), cfg.Dashboard.SweepInterval, logger)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JSONEncoder:  json.Marshal,
		ErrorHandler: api.ErrorHandler,
	})

	handler := api.NewHandler(dashboard, jobs, logger)
	api.SetupRoutes(app, handler, logger)

	if err := jobs.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	jobs.Stop()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	// Waits for pending preference writes.
	dashboard.Close()

	logger.Info("Server stopped")
	return nil
}
