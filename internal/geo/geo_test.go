package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-now/internal/config"
	"go.uber.org/zap/zaptest"
)

type countingDevice struct {
	StaticDevice
	permissionCalls int
	positionCalls   int
}

func (d *countingDevice) RequestPermission(ctx context.Context) (Permission, error) {
	d.permissionCalls++
	return d.StaticDevice.RequestPermission(ctx)
}

func (d *countingDevice) CurrentPosition(ctx context.Context) (Coordinates, error) {
	d.positionCalls++
	return d.StaticDevice.CurrentPosition(ctx)
}

type stubGeocoder struct {
	addr Address
	err  error
}

func (g stubGeocoder) Name() string { return "stub" }

func (g stubGeocoder) Reverse(ctx context.Context, c Coordinates) (Address, error) {
	return g.addr, g.err
}

func TestResolveLocation_Granted(t *testing.T) {
	dev := &countingDevice{StaticDevice: StaticDevice{
		Coords:     Coordinates{Latitude: 22.57, Longitude: 88.36},
		Permission: PermissionGranted,
	}}
	r := NewResolver(dev, nil, zaptest.NewLogger(t))

	coords, err := r.ResolveLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Latitude: 22.57, Longitude: 88.36}, coords)
	assert.Equal(t, 1, dev.positionCalls)
}

func TestResolveLocation_Denied(t *testing.T) {
	dev := &countingDevice{StaticDevice: StaticDevice{Permission: PermissionDenied}}
	r := NewResolver(dev, nil, zaptest.NewLogger(t))

	_, err := r.ResolveLocation(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 0, dev.positionCalls)
}

func TestResolveLocation_SimulatedFailsBeforePermission(t *testing.T) {
	dev := &countingDevice{StaticDevice: StaticDevice{Permission: PermissionGranted, Simulated: true}}
	r := NewResolver(dev, nil, zaptest.NewLogger(t))

	_, err := r.ResolveLocation(context.Background())
	assert.ErrorIs(t, err, ErrDeviceUnsupported)
	assert.Equal(t, 0, dev.permissionCalls)
}

func TestPlaceName(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want string
	}{
		{"city", Address{City: "Kolkata", Region: "West Bengal"}, "Kolkata"},
		{"region fallback", Address{Region: "West Bengal"}, "West Bengal"},
		{"unknown", Address{Country: "India"}, UnknownLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlaceName(tt.addr))
		})
	}
}

func TestReverseGeocode(t *testing.T) {
	log := zaptest.NewLogger(t)
	dev := &StaticDevice{Permission: PermissionGranted}

	name, err := NewResolver(dev, stubGeocoder{addr: Address{City: "Kolkata"}}, log).
		ReverseGeocode(context.Background(), Coordinates{})
	require.NoError(t, err)
	assert.Equal(t, "Kolkata", name)

	_, err = NewResolver(dev, stubGeocoder{err: errors.New("offline")}, log).
		ReverseGeocode(context.Background(), Coordinates{})
	assert.ErrorIs(t, err, ErrGeocodeUnavailable)

	_, err = NewResolver(dev, nil, log).ReverseGeocode(context.Background(), Coordinates{})
	assert.ErrorIs(t, err, ErrGeocodeUnavailable)
}

func TestNominatimGeocoder_Reverse(t *testing.T) {
	var gotUA, gotLat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		gotUA = r.UserAgent()
		gotLat = r.URL.Query().Get("lat")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address":{"town":"Howrah","state":"West Bengal","country":"India"}}`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(config.GeocodingConfig{BaseURL: srv.URL, UserAgent: "weather-now-test", Timeout: 1})
	addr, err := g.Reverse(context.Background(), Coordinates{Latitude: 22.57, Longitude: 88.36})
	require.NoError(t, err)

	assert.Equal(t, "Howrah", addr.City)
	assert.Equal(t, "West Bengal", addr.Region)
	assert.Equal(t, "weather-now-test", gotUA)
	assert.Equal(t, "22.570000", gotLat)
}

func TestNominatimGeocoder_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(config.GeocodingConfig{BaseURL: srv.URL, Timeout: 1})
	_, err := g.Reverse(context.Background(), Coordinates{})
	assert.Error(t, err)
}

func TestIPDevice_CurrentPosition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","lat":51.5074,"lon":-0.1278}`))
	}))
	defer srv.Close()

	d := NewIPDevice(srv.URL, PermissionGranted, time.Second)
	coords, err := d.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Latitude: 51.5074, Longitude: -0.1278}, coords)
}

func TestIPDevice_LookupFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
	}))
	defer srv.Close()

	_, err := NewIPDevice(srv.URL, PermissionGranted, time.Second).CurrentPosition(context.Background())
	assert.ErrorContains(t, err, "reserved range")
}

func TestNewDevice(t *testing.T) {
	cfg := config.NewDefaultConfig().Location

	dev, err := NewDevice(cfg)
	require.NoError(t, err)
	assert.IsType(t, &StaticDevice{}, dev)

	cfg.Provider = "ip"
	dev, err = NewDevice(cfg)
	require.NoError(t, err)
	assert.IsType(t, &IPDevice{}, dev)

	cfg.Provider = "gps"
	_, err = NewDevice(cfg)
	assert.Error(t, err)
}
