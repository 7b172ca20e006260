package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vzahanych/weather-now/internal/app"
	"github.com/vzahanych/weather-now/internal/config"
	"github.com/vzahanych/weather-now/internal/geo"
	"github.com/vzahanych/weather-now/internal/render"
	"github.com/vzahanych/weather-now/internal/screen"
)

func currentCmd() *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show current conditions for the device location",
		RunE: func(cmd *cobra.Command, args []string) error {
			latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
			if latSet != lonSet {
				return errors.New("--lat and --lon must be given together")
			}

			cfg := config.GetConfig()
			a, err := app.New(cfg, log.Logger, tele)
			if err != nil {
				return fmt.Errorf("failed to build app: %w", err)
			}

			var at *geo.Coordinates
			if latSet {
				at = &geo.Coordinates{Latitude: lat, Longitude: lon}
			}
			return showOnce(cmd.Context(), a.NewCurrent(at), cfg.Server.ScreenTimeout)
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude to use instead of the configured device")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude to use instead of the configured device")

	return cmd
}

func forecastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Show the daily forecast",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			a, err := app.New(cfg, log.Logger, tele)
			if err != nil {
				return fmt.Errorf("failed to build app: %w", err)
			}
			return showOnce(cmd.Context(), a.NewForecast(), cfg.Server.ScreenTimeout)
		},
	}
}

// showOnce mounts s, waits for it to settle and prints the result. A screen
// that settles in its error state is reported as the command's error.
func showOnce(ctx context.Context, s screen.Screen, timeoutSeconds int) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	s.Mount(ctx)
	defer s.Unmount()

	select {
	case <-s.Done():
	case <-ctx.Done():
		log.Warn("Screen did not settle in time", zap.String("route", string(s.Route())))
	}

	st := s.State()
	if err := render.NewText(os.Stdout).Render(s.Route(), st); err != nil {
		return err
	}

	if f, ok := st.(screen.Failed); ok {
		return f.Err
	}
	if st.Status() != screen.StatusReady {
		return fmt.Errorf("%s screen: %w", s.Route(), ctx.Err())
	}
	return nil
}
