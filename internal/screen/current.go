package screen

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vzahanych/weather-now/internal/weather"
)

// CurrentScreen shows current conditions at the device location.
type CurrentScreen struct {
	resolver LocationResolver
	client   CurrentFetcher
	router   Router
	logger   *zap.Logger

	machine *machine[weather.CurrentConditions]
	life    *lifecycle
	renamed bool
}

func NewCurrentScreen(resolver LocationResolver, client CurrentFetcher, router Router, logger *zap.Logger) *CurrentScreen {
	return &CurrentScreen{
		resolver: resolver,
		client:   client,
		router:   router,
		logger:   logger.With(zap.String("screen", string(RouteCurrent))),
		machine:  newMachine[weather.CurrentConditions](),
		life:     newLifecycle(),
	}
}

func (s *CurrentScreen) Route() Route { return RouteCurrent }

func (s *CurrentScreen) State() State { return s.machine.State() }

func (s *CurrentScreen) OnChange(fn func(State)) { s.machine.setListener(fn) }

func (s *CurrentScreen) Done() <-chan struct{} { return s.life.done }

func (s *CurrentScreen) Mount(ctx context.Context) {
	s.life.start(ctx, s.run)
}

func (s *CurrentScreen) Unmount() {
	s.machine.close()
	s.life.stop()
}

// OpenForecast navigates to the forecast screen. No state is handed over.
func (s *CurrentScreen) OpenForecast() error {
	return s.router.Push(RouteForecast)
}

func (s *CurrentScreen) run(ctx context.Context) {
	if err := s.machine.begin(); err != nil {
		return
	}

	coords, err := s.resolver.ResolveLocation(ctx)
	if err != nil {
		s.logger.Warn("Location unavailable", zap.Error(err))
		s.settle(s.machine.fail(locationError(err)))
		return
	}

	current, err := s.client.FetchCurrent(ctx, coords)
	if err != nil {
		s.logger.Error("Failed to fetch current conditions", zap.Error(err))
		s.settle(s.machine.fail(fetchError(err)))
		return
	}

	if err := s.machine.ready(*current); err != nil {
		s.settle(err)
		return
	}

	name, err := s.resolver.ReverseGeocode(ctx, coords)
	if err != nil {
		// Best effort: the provider's own location name stays on screen.
		s.logger.Debug("Reverse geocode discarded", zap.Error(err))
		return
	}

	s.settle(s.patchLocationName(name))
}

// patchLocationName replaces the displayed location name at most once per
// mount and touches no other field.
func (s *CurrentScreen) patchLocationName(name string) error {
	return s.machine.patch(func(c *weather.CurrentConditions) bool {
		if s.renamed || name == "" {
			return false
		}
		s.renamed = true
		if c.Location.Name == name {
			return false
		}
		c.Location.Name = name
		return true
	})
}

func (s *CurrentScreen) settle(err error) {
	if err == nil || errors.Is(err, ErrUnmounted) {
		return
	}
	s.logger.Error("Unexpected state transition", zap.Error(err))
}
