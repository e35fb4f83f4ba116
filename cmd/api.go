package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/psds-microservice/work-buddy/internal/application"
	"github.com/spf13/cobra"
)

var cmdOut = os.Stderr

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the dashboards and the JSON API",
	RunE:  runAPI,
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := application.NewAPI(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
