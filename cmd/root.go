package cmd

import (
	"fmt"
	"time"

	"github.com/psds-microservice/work-buddy/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "work-buddy",
	Short: "Work Buddy support desk: login page, user and admin dashboards, JSON API",
	RunE:  runAPI,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig reads .env and the environment and validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	base := log.Logger
	if cfg.AppEnv == "development" {
		base = base.Output(zerolog.ConsoleWriter{Out: cmdOut, TimeFormat: time.Kitchen})
	}
	return base.Level(level).With().Str("service", "work-buddy").Logger()
}
