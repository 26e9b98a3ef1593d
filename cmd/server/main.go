package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bobby-s-dev/weather-dashboard/internal/config"
	"github.com/bobby-s-dev/weather-dashboard/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "weather-dashboard",
	Short: "Weather Dashboard - per-session weather dashboard server",
	Long: `Weather Dashboard serves a browser dashboard showing current conditions
and a 5-day forecast, with saved cities and preferences kept per session.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newLogger builds the process logger and installs it globally.
func newLogger(level string) *zap.Logger {
	var logger *zap.Logger
	if level == "debug" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	zap.ReplaceGlobals(logger)
	return logger
}

// openStore connects to the configured database and applies migrations.
func openStore(cfg *config.Config, logger *zap.Logger, cmd *cobra.Command) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Driver, cfg.Database.URL, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return st, nil
}
