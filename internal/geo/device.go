package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vzahanych/weather-now/internal/config"
)

// StaticDevice reports fixed coordinates behind a fixed permission answer.
type StaticDevice struct {
	Coords     Coordinates
	Permission Permission
	Simulated  bool
}

func (d *StaticDevice) IsSimulated() bool { return d.Simulated }

func (d *StaticDevice) RequestPermission(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return PermissionUndetermined, err
	}
	return d.Permission, nil
}

func (d *StaticDevice) CurrentPosition(ctx context.Context) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}
	return d.Coords, nil
}

// IPDevice locates the host through an IP geolocation service that answers
// in the ip-api.com JSON shape.
type IPDevice struct {
	url        string
	permission Permission
	client     *http.Client
}

type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func NewIPDevice(url string, permission Permission, timeout time.Duration) *IPDevice {
	return &IPDevice{
		url:        url,
		permission: permission,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (d *IPDevice) IsSimulated() bool { return false }

func (d *IPDevice) RequestPermission(ctx context.Context) (Permission, error) {
	return d.permission, nil
}

func (d *IPDevice) CurrentPosition(ctx context.Context) (Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return Coordinates{}, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Coordinates{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("IP lookup failed with status: %d", resp.StatusCode)
	}

	var body ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Coordinates{}, fmt.Errorf("decode IP lookup response: %w", err)
	}
	if body.Status != "" && body.Status != "success" {
		return Coordinates{}, fmt.Errorf("IP lookup failed: %s", body.Message)
	}

	return Coordinates{Latitude: body.Lat, Longitude: body.Lon}, nil
}

// NewDevice builds the device selected by cfg.Provider.
func NewDevice(cfg config.LocationConfig) (Device, error) {
	permission := Permission(cfg.Permission)

	switch cfg.Provider {
	case "", "static":
		return &StaticDevice{
			Coords:     Coordinates{Latitude: cfg.Latitude, Longitude: cfg.Longitude},
			Permission: permission,
			Simulated:  cfg.Simulated,
		}, nil
	case "ip":
		if cfg.IPLookupURL == "" {
			return nil, errors.New("location.ip_lookup_url is required for the ip provider")
		}
		return NewIPDevice(cfg.IPLookupURL, permission, time.Duration(cfg.Timeout)*time.Second), nil
	default:
		return nil, fmt.Errorf("unknown location provider %q", cfg.Provider)
	}
}
