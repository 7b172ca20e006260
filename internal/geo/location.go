package geo

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrPermissionDenied   = errors.New("permission to access location was denied")
	ErrDeviceUnsupported  = errors.New("location is not supported on this device")
	ErrGeocodeUnavailable = errors.New("reverse geocoding unavailable")
)

const UnknownLocation = "Unknown location"

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

type Permission string

const (
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
	PermissionUndetermined Permission = "undetermined"
)

// Device is a permission-gated source of the current position.
type Device interface {
	IsSimulated() bool
	RequestPermission(ctx context.Context) (Permission, error)
	CurrentPosition(ctx context.Context) (Coordinates, error)
}

type Address struct {
	City    string
	Region  string
	Country string
}

type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, c Coordinates) (Address, error)
}

// PlaceName picks the friendliest name available in an address.
func PlaceName(a Address) string {
	switch {
	case a.City != "":
		return a.City
	case a.Region != "":
		return a.Region
	default:
		return UnknownLocation
	}
}

type Resolver struct {
	device   Device
	geocoder Geocoder
	logger   *zap.Logger
}

// NewResolver builds a resolver. geocoder may be nil, in which case every
// ReverseGeocode call reports ErrGeocodeUnavailable.
func NewResolver(device Device, geocoder Geocoder, logger *zap.Logger) *Resolver {
	return &Resolver{
		device:   device,
		geocoder: geocoder,
		logger:   logger,
	}
}

// ResolveLocation returns a single snapshot of the device position.
// Simulated devices fail before permission is requested.
func (r *Resolver) ResolveLocation(ctx context.Context) (Coordinates, error) {
	if r.device.IsSimulated() {
		r.logger.Warn("Location requested on a simulated device")
		return Coordinates{}, ErrDeviceUnsupported
	}

	status, err := r.device.RequestPermission(ctx)
	if err != nil {
		return Coordinates{}, fmt.Errorf("request location permission: %w", err)
	}
	if status != PermissionGranted {
		r.logger.Info("Location permission not granted", zap.String("status", string(status)))
		return Coordinates{}, ErrPermissionDenied
	}

	coords, err := r.device.CurrentPosition(ctx)
	if err != nil {
		return Coordinates{}, fmt.Errorf("get current position: %w", err)
	}

	r.logger.Debug("Location resolved",
		zap.Float64("lat", coords.Latitude),
		zap.Float64("lon", coords.Longitude))

	return coords, nil
}

func (r *Resolver) ReverseGeocode(ctx context.Context, c Coordinates) (string, error) {
	if r.geocoder == nil {
		return "", ErrGeocodeUnavailable
	}

	addr, err := r.geocoder.Reverse(ctx, c)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrGeocodeUnavailable, r.geocoder.Name(), err)
	}

	return PlaceName(addr), nil
}
