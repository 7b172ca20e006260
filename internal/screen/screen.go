package screen

import (
	"context"
	"errors"
	"sync"

	"github.com/vzahanych/weather-now/internal/geo"
	"github.com/vzahanych/weather-now/internal/weather"
)

type Route string

const (
	RouteCurrent  Route = "current"
	RouteForecast Route = "forecast"
)

// Router is the navigation surface screens use for their triggers.
type Router interface {
	Push(route Route) error
	Back() error
}

// Screen is a mounted unit of state. OnChange must be set before Mount.
// Unmount cancels any in-flight request; late results are dropped.
type Screen interface {
	Route() Route
	Mount(ctx context.Context)
	Unmount()
	State() State
	OnChange(fn func(State))
	Done() <-chan struct{}
}

type LocationResolver interface {
	ResolveLocation(ctx context.Context) (geo.Coordinates, error)
	ReverseGeocode(ctx context.Context, c geo.Coordinates) (string, error)
}

type CurrentFetcher interface {
	FetchCurrent(ctx context.Context, c geo.Coordinates) (*weather.CurrentConditions, error)
}

type ForecastFetcher interface {
	FetchForecast(ctx context.Context, place string, days int) ([]weather.ForecastDay, error)
}

func locationError(err error) *RequestError {
	switch {
	case errors.Is(err, geo.ErrDeviceUnsupported):
		return &RequestError{Kind: KindDeviceUnsupported, Message: MsgDeviceUnsupported, Err: err}
	case errors.Is(err, geo.ErrPermissionDenied):
		return &RequestError{Kind: KindPermissionDenied, Message: MsgPermissionDenied, Err: err}
	default:
		return &RequestError{Kind: KindLocationUnavailable, Message: MsgLocationUnavailable, Err: err}
	}
}

func fetchError(err error) *RequestError {
	return &RequestError{Kind: KindFetchFailed, Message: MsgFetchFailed, Err: err}
}

// lifecycle is the mount/unmount plumbing shared by both screens.
type lifecycle struct {
	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func newLifecycle() *lifecycle {
	return &lifecycle{done: make(chan struct{})}
}

// start runs fn on its own goroutine, at most once and never after stop.
func (l *lifecycle) start(ctx context.Context, fn func(ctx context.Context)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.stopped {
		return
	}
	l.started = true

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	go func() {
		defer close(l.done)
		defer cancel()
		fn(ctx)
	}()
}

func (l *lifecycle) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	if l.cancel != nil {
		l.cancel()
		return
	}
	close(l.done)
}
