package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vzahanych/weather-now/internal/screen"
)

var (
	ErrUnknownRoute = errors.New("unknown route")
	ErrNoHistory    = errors.New("nothing to go back to")
	ErrClosed       = errors.New("navigator is closed")
)

// Factory builds a fresh, unmounted screen for a route.
type Factory func(router screen.Router) screen.Screen

// Listener is told about the visible screen's state after every mount and
// every change.
type Listener func(route screen.Route, state screen.State)

// Navigator keeps a stack of routes and exactly one mounted screen: the top.
// Every transition builds a new screen, so nothing is cached across visits.
type Navigator struct {
	ctx       context.Context
	factories map[screen.Route]Factory
	logger    *zap.Logger

	mu       sync.Mutex
	stack    []screen.Route
	active   screen.Screen
	listener Listener
	closed   bool

	// gen counts mounts. renderMu serializes listener calls, and a callback
	// only renders when its generation is still current under renderMu.
	gen      atomic.Uint64
	renderMu sync.Mutex
}

func New(ctx context.Context, factories map[screen.Route]Factory, logger *zap.Logger) *Navigator {
	return &Navigator{
		ctx:       ctx,
		factories: factories,
		logger:    logger,
	}
}

// SetListener must be called before Start.
func (n *Navigator) SetListener(l Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listener = l
}

// Start mounts the initial route on an empty stack.
func (n *Navigator) Start(route screen.Route) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.stack) > 0 {
		return fmt.Errorf("navigator already started on %q", n.stack[len(n.stack)-1])
	}
	return n.mountLocked(route, func() { n.stack = append(n.stack, route) })
}

func (n *Navigator) Push(route screen.Route) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mountLocked(route, func() { n.stack = append(n.stack, route) })
}

// Back pops the visible route and mounts a fresh instance of the one below.
// Leaving a root forecast screen lands on the current-conditions screen.
func (n *Navigator) Back() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch {
	case len(n.stack) > 1:
		below := n.stack[len(n.stack)-2]
		return n.mountLocked(below, func() { n.stack = n.stack[:len(n.stack)-1] })
	case len(n.stack) == 1 && n.stack[0] != screen.RouteCurrent:
		return n.mountLocked(screen.RouteCurrent, func() { n.stack[0] = screen.RouteCurrent })
	default:
		return ErrNoHistory
	}
}

// Reload remounts the visible route, starting a new fetch cycle.
func (n *Navigator) Reload() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.stack) == 0 {
		return ErrNoHistory
	}
	return n.mountLocked(n.stack[len(n.stack)-1], func() {})
}

func (n *Navigator) Active() screen.Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

func (n *Navigator) Stack() []screen.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]screen.Route(nil), n.stack...)
}

// Close unmounts the visible screen. Further navigation fails.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.active != nil {
		n.active.Unmount()
		n.active = nil
	}
	n.gen.Add(1)
	n.closed = true
}

func (n *Navigator) mountLocked(route screen.Route, updateStack func()) error {
	if n.closed {
		return ErrClosed
	}
	factory, ok := n.factories[route]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRoute, route)
	}

	if n.active != nil {
		n.active.Unmount()
	}

	next := factory(n)
	gen := n.gen.Add(1)
	listener := n.listener
	if listener != nil {
		next.OnChange(func(st screen.State) {
			n.render(gen, listener, route, st)
		})
	}

	updateStack()
	n.active = next
	n.logger.Debug("Screen mounted",
		zap.String("route", string(route)),
		zap.Int("depth", len(n.stack)))

	if listener != nil {
		n.render(gen, listener, route, next.State())
	}
	next.Mount(n.ctx)
	return nil
}

// render calls listener unless a later mount or Close has happened. Listeners
// must not navigate.
func (n *Navigator) render(gen uint64, listener Listener, route screen.Route, st screen.State) {
	n.renderMu.Lock()
	defer n.renderMu.Unlock()
	if n.gen.Load() != gen {
		return
	}
	listener(route, st)
}
