// Package app wires configuration into the resolver, weather client and
// screen factories shared by the CLI and the HTTP server.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vzahanych/weather-now/internal/config"
	"github.com/vzahanych/weather-now/internal/geo"
	"github.com/vzahanych/weather-now/internal/navigator"
	"github.com/vzahanych/weather-now/internal/screen"
	"github.com/vzahanych/weather-now/internal/weather"
	"github.com/vzahanych/weather-now/pkg/telemetry"
)

type App struct {
	Resolver *geo.Resolver
	Weather  *weather.Client
	Geocoder geo.Geocoder
	forecast config.ForecastConfig
	logger   *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger, tele *telemetry.Telemetry, opts ...weather.Option) (*App, error) {
	client, err := weather.NewClient(cfg.Weather, logger.Named("weather"), tele, opts...)
	if err != nil {
		return nil, fmt.Errorf("create weather client: %w", err)
	}

	device, err := geo.NewDevice(cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("create location device: %w", err)
	}

	var geocoder geo.Geocoder
	if cfg.Geocoding.Enabled && cfg.Geocoding.BaseURL != "" {
		geocoder = geo.NewNominatimGeocoder(cfg.Geocoding)
	}

	return &App{
		Resolver: geo.NewResolver(device, geocoder, logger.Named("geo")),
		Weather:  client,
		Geocoder: geocoder,
		forecast: cfg.Forecast,
		logger:   logger,
	}, nil
}

// ResolverAt returns a resolver pinned to coords with permission granted.
func (a *App) ResolverAt(coords geo.Coordinates) *geo.Resolver {
	dev := &geo.StaticDevice{Coords: coords, Permission: geo.PermissionGranted}
	return geo.NewResolver(dev, a.Geocoder, a.logger.Named("geo"))
}

func (a *App) CurrentScreen(router screen.Router, resolver screen.LocationResolver) *screen.CurrentScreen {
	return screen.NewCurrentScreen(resolver, a.Weather, router, a.logger)
}

func (a *App) ForecastScreen(router screen.Router) *screen.ForecastScreen {
	return screen.NewForecastScreen(a.Weather, router, a.forecast.Place, a.forecast.Days, a.logger)
}

func (a *App) Factories() map[screen.Route]navigator.Factory {
	return map[screen.Route]navigator.Factory{
		screen.RouteCurrent: func(r screen.Router) screen.Screen {
			return a.CurrentScreen(r, a.Resolver)
		},
		screen.RouteForecast: func(r screen.Router) screen.Screen {
			return a.ForecastScreen(r)
		},
	}
}

func (a *App) NewNavigator(ctx context.Context) *navigator.Navigator {
	return navigator.New(ctx, a.Factories(), a.logger.Named("navigator"))
}

// detached is the router of screens served outside a navigator, where
// navigation happens through links instead of triggers.
type detached struct{}

func (detached) Push(screen.Route) error { return nil }
func (detached) Back() error             { return nil }

// NewCurrent builds a detached current-conditions screen. A non-nil at pins
// the location instead of asking the configured device.
func (a *App) NewCurrent(at *geo.Coordinates) screen.Screen {
	if at != nil {
		return a.CurrentScreen(detached{}, a.ResolverAt(*at))
	}
	return a.CurrentScreen(detached{}, a.Resolver)
}

func (a *App) NewForecast() screen.Screen {
	return a.ForecastScreen(detached{})
}
