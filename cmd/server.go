package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vzahanych/weather-now/internal/app"
	"github.com/vzahanych/weather-now/internal/config"
	"github.com/vzahanych/weather-now/internal/server"
	"github.com/vzahanych/weather-now/internal/server/handlers"
	"github.com/vzahanych/weather-now/internal/weather"
)

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Serve both screens over HTTP",
		Long:  `Start the HTTP server exposing the current conditions and forecast screens as JSON, plus health and metrics endpoints.`,
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	log.Info("Starting weather-now server",
		zap.String("config_path", configPath),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Int("server_port", cfg.Server.Port))

	metrics := handlers.NewMetricsHandler()
	a, err := app.New(cfg, log.Logger, tele, weather.WithCallRecorder(metrics))
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	srv := server.NewServer(cfg.Server, a, metrics, log.Logger, tele)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		log.Info("Server shutdown complete")
		return nil
	})

	return g.Wait()
}
