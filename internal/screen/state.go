package screen

import (
	"errors"
	"fmt"
	"sync"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

// State is one of Idle, Loading, Failed or Ready[T].
type State interface {
	Status() Status
}

type Idle struct{}

type Loading struct{}

type Failed struct {
	Err *RequestError
}

type Ready[T any] struct {
	Data T
}

func (Idle) Status() Status     { return StatusIdle }
func (Loading) Status() Status  { return StatusLoading }
func (Failed) Status() Status   { return StatusError }
func (Ready[T]) Status() Status { return StatusReady }

type ErrorKind string

const (
	KindPermissionDenied    ErrorKind = "permission_denied"
	KindDeviceUnsupported   ErrorKind = "device_unsupported"
	KindLocationUnavailable ErrorKind = "location_unavailable"
	KindFetchFailed         ErrorKind = "fetch_failed"
)

const (
	MsgPermissionDenied    = "Permission to access location was denied"
	MsgDeviceUnsupported   = "Oops, this will not work on a simulated device. Try it on your device!"
	MsgLocationUnavailable = "Unable to determine your location"
	MsgFetchFailed         = "Failed to fetch weather data"
)

// RequestError is what a screen shows in place of its content.
type RequestError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

var (
	ErrInvalidTransition = errors.New("invalid screen state transition")
	ErrUnmounted         = errors.New("screen is unmounted")
)

// machine holds a screen's state and enforces its transitions:
// Idle/Failed/Ready -> Loading (a new fetch cycle), Loading -> Failed,
// Loading -> Ready, and in-place patches of a Ready value. Once closed it
// rejects every transition.
type machine[T any] struct {
	mu       sync.Mutex
	state    State
	closed   bool
	listener func(State)
}

func newMachine[T any]() *machine[T] {
	return &machine[T]{state: Idle{}}
}

func (m *machine[T]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *machine[T]) setListener(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = fn
}

func (m *machine[T]) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *machine[T]) begin() error {
	return m.transition(func(cur State) (State, error) {
		if _, ok := cur.(Loading); ok {
			return nil, fmt.Errorf("%w: already loading", ErrInvalidTransition)
		}
		return Loading{}, nil
	})
}

func (m *machine[T]) fail(reqErr *RequestError) error {
	return m.transition(func(cur State) (State, error) {
		if _, ok := cur.(Loading); !ok {
			return nil, fmt.Errorf("%w: %s -> error", ErrInvalidTransition, cur.Status())
		}
		return Failed{Err: reqErr}, nil
	})
}

func (m *machine[T]) ready(v T) error {
	return m.transition(func(cur State) (State, error) {
		if _, ok := cur.(Loading); !ok {
			return nil, fmt.Errorf("%w: %s -> ready", ErrInvalidTransition, cur.Status())
		}
		return Ready[T]{Data: v}, nil
	})
}

// patch edits a copy of the Ready value. fn reports whether it changed
// anything; unchanged patches do not notify the listener.
func (m *machine[T]) patch(fn func(*T) bool) error {
	return m.transition(func(cur State) (State, error) {
		r, ok := cur.(Ready[T])
		if !ok {
			return nil, fmt.Errorf("%w: patch on %s", ErrInvalidTransition, cur.Status())
		}
		data := r.Data
		if !fn(&data) {
			return nil, nil
		}
		return Ready[T]{Data: data}, nil
	})
}

func (m *machine[T]) transition(next func(State) (State, error)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrUnmounted
	}
	st, err := next(m.state)
	if err != nil || st == nil {
		m.mu.Unlock()
		return err
	}
	m.state = st
	listener := m.listener
	m.mu.Unlock()

	if listener != nil {
		listener(st)
	}
	return nil
}
