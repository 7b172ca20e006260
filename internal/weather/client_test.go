package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-now/internal/config"
	"github.com/vzahanych/weather-now/internal/geo"
	"go.uber.org/zap/zaptest"
)

const currentFixture = `{
  "location": {"name": "Calcutta", "region": "West Bengal", "country": "India", "lat": 22.57, "lon": 88.37, "localtime": "2024-07-26 14:00"},
  "current": {
    "last_updated": "2024-07-26 13:45",
    "temp_c": 31.0, "temp_f": 87.8, "feelslike_c": 38.2, "feelslike_f": 100.8,
    "humidity": 70, "pressure_mb": 1000.0, "wind_kph": 15.1, "wind_dir": "SSW",
    "condition": {"text": "Partly cloudy", "icon": "//cdn.weatherapi.com/weather/64x64/day/116.png", "code": 1003}
  }
}`

func forecastFixture(days int) string {
	start := time.Date(2024, 7, 26, 0, 0, 0, 0, time.UTC)
	entries := make([]string, days)
	for i := range entries {
		entries[i] = fmt.Sprintf(`{"date": %q, "day": {"maxtemp_c": %.1f, "mintemp_c": %.1f, "condition": {"text": "Patchy rain nearby", "icon": "//cdn.weatherapi.com/weather/64x64/day/176.png", "code": 1063}}}`,
			start.AddDate(0, 0, i).Format(time.DateOnly), 32.0+float64(i)/10, 26.0+float64(i)/10)
	}
	return fmt.Sprintf(`{"location": {"name": "Kolkata"}, "forecast": {"forecastday": [%s]}}`, strings.Join(entries, ","))
}

type recorder struct {
	mu    sync.Mutex
	calls []bool
}

func (r *recorder) RecordWeatherServiceCall(ctx context.Context, service string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, success)
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	cfg := config.NewDefaultConfig().Weather
	cfg.BaseURL = baseURL
	cfg.APIKey = "test-key"
	cfg.RateLimit = 1000
	cfg.Burst = 10

	c, err := NewClient(cfg, zaptest.NewLogger(t), nil, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(config.NewDefaultConfig().Weather, zaptest.NewLogger(t), nil)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestFetchCurrent(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current.json", r.URL.Path)
		query = map[string]string{
			"key": r.URL.Query().Get("key"),
			"q":   r.URL.Query().Get("q"),
			"aqi": r.URL.Query().Get("aqi"),
		}
		_, _ = w.Write([]byte(currentFixture))
	}))
	defer srv.Close()

	rec := &recorder{}
	c := newTestClient(t, srv.URL, WithCallRecorder(rec))

	cur, err := c.FetchCurrent(context.Background(), geo.Coordinates{Latitude: 22.57, Longitude: 88.36})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"key": "test-key", "q": "22.57,88.36", "aqi": "no"}, query)
	assert.Equal(t, "Calcutta", cur.Location.Name)
	assert.Equal(t, "India", cur.Location.Country)
	assert.Equal(t, 31.0, cur.TempC)
	assert.Equal(t, 87.8, cur.TempF)
	assert.Equal(t, 38.2, cur.FeelsLikeC)
	assert.Equal(t, 70, cur.Humidity)
	assert.Equal(t, 1000.0, cur.PressureMb)
	assert.Equal(t, "SSW", cur.WindDir)
	assert.NotEmpty(t, cur.Condition.Text)
	assert.Equal(t, "https://cdn.weatherapi.com/weather/64x64/day/116.png", cur.Condition.IconURL())
	assert.Equal(t, []bool{true}, rec.calls)
}

func TestFetchCurrent_ShapeMismatch(t *testing.T) {
	bodies := map[string]string{
		"not json":         `<html>oops</html>`,
		"missing current":  `{"location": {"name": "X"}}`,
		"missing temp":     `{"location": {"name": "X"}, "current": {"temp_f": 1, "feelslike_c": 1, "feelslike_f": 1, "condition": {"text": "Sunny"}}}`,
		"empty condition":  `{"location": {"name": "X"}, "current": {"temp_c": 1, "temp_f": 1, "feelslike_c": 1, "feelslike_f": 1, "condition": {"text": ""}}}`,
		"missing location": `{"current": {"temp_c": 1, "temp_f": 1, "feelslike_c": 1, "feelslike_f": 1, "condition": {"text": "Sunny"}}}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			rec := &recorder{}
			cur, err := newTestClient(t, srv.URL, WithCallRecorder(rec)).FetchCurrent(context.Background(), geo.Coordinates{})
			assert.ErrorIs(t, err, ErrParse)
			assert.Nil(t, cur)
			assert.Equal(t, []bool{false}, rec.calls, "a malformed body is a failed call")
		})
	}
}

func TestFetchCurrent_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := &recorder{}
	cur, err := newTestClient(t, url, WithCallRecorder(rec)).FetchCurrent(context.Background(), geo.Coordinates{})
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Nil(t, cur)
	assert.Equal(t, []bool{false}, rec.calls)
}

func TestFetchCurrent_TransportFailureHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	_, err := c.FetchCurrent(context.Background(), geo.Coordinates{Latitude: 22.57, Longitude: 88.36})
	require.ErrorIs(t, err, ErrNetwork)
	assert.NotContains(t, err.Error(), "test-key")
	assert.NotContains(t, err.Error(), "key=")
	assert.Contains(t, err.Error(), "current.json")

	_, err = c.FetchForecast(context.Background(), "kolkata", 7)
	require.ErrorIs(t, err, ErrNetwork)
	assert.NotContains(t, err.Error(), "test-key")
}

func TestFetchCurrent_CoordinatesWithoutExponent(t *testing.T) {
	tests := []struct {
		name   string
		coords geo.Coordinates
		want   string
	}{
		{"greenwich", geo.Coordinates{Latitude: 51.4779, Longitude: -0.00001}, "51.4779,-0.00001"},
		{"equator", geo.Coordinates{Latitude: 0.00005, Longitude: 32.5}, "0.00005,32.5"},
		{"origin", geo.Coordinates{}, "0,0"},
		{"extremes", geo.Coordinates{Latitude: -90, Longitude: 180}, "-90,180"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Query().Get("q")
				_, _ = w.Write([]byte(currentFixture))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).FetchCurrent(context.Background(), tt.coords)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchCurrent_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"code": 2006, "message": "API key is invalid."}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchCurrent(context.Background(), geo.Coordinates{})
	require.ErrorIs(t, err, ErrNetwork)
	assert.Contains(t, err.Error(), "API key is invalid.")
}

func TestFetchForecast(t *testing.T) {
	var gotPlace, gotDays, gotAQI string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast.json", r.URL.Path)
		gotPlace = r.URL.Query().Get("q")
		gotDays = r.URL.Query().Get("days")
		gotAQI = r.URL.Query().Get("aqi")
		_, _ = w.Write([]byte(forecastFixture(7)))
	}))
	defer srv.Close()

	days, err := newTestClient(t, srv.URL).FetchForecast(context.Background(), "kolkata", 7)
	require.NoError(t, err)

	assert.Equal(t, "kolkata", gotPlace)
	assert.Equal(t, "7", gotDays)
	assert.Equal(t, "no", gotAQI)
	require.Len(t, days, 7)
	for i, d := range days {
		assert.NotZero(t, d.MaxTempC)
		assert.NotZero(t, d.MinTempC)
		assert.NotEmpty(t, d.Condition.Text)
		if i > 0 {
			assert.False(t, d.Date.Before(days[i-1].Date), "dates must be non-decreasing")
		}
	}
	assert.Equal(t, time.Date(2024, 7, 26, 0, 0, 0, 0, time.UTC), days[0].Date)
}

func TestFetchForecast_LengthMatchesDays(t *testing.T) {
	for _, n := range []int{1, 3, 14} {
		t.Run(fmt.Sprintf("days=%d", n), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(forecastFixture(n)))
			}))
			defer srv.Close()

			days, err := newTestClient(t, srv.URL).FetchForecast(context.Background(), "kolkata", n)
			require.NoError(t, err)
			assert.Len(t, days, n)
		})
	}
}

func TestFetchForecast_WrongDayCountFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(forecastFixture(3)))
	}))
	defer srv.Close()

	rec := &recorder{}
	days, err := newTestClient(t, srv.URL, WithCallRecorder(rec)).FetchForecast(context.Background(), "kolkata", 7)
	assert.ErrorIs(t, err, ErrParse)
	assert.Nil(t, days)
	assert.Equal(t, []bool{false}, rec.calls)
}

func TestFetchForecast_OutOfOrderFails(t *testing.T) {
	body := `{"forecast": {"forecastday": [
		{"date": "2024-07-27", "day": {"maxtemp_c": 30, "mintemp_c": 25, "condition": {"text": "Sunny"}}},
		{"date": "2024-07-26", "day": {"maxtemp_c": 30, "mintemp_c": 25, "condition": {"text": "Sunny"}}}
	]}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchForecast(context.Background(), "kolkata", 2)
	assert.ErrorIs(t, err, ErrParse)
}

func TestFetchForecast_RejectsNonPositiveDays(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchForecast(context.Background(), "kolkata", 0)
	assert.ErrorIs(t, err, ErrBadDays)
	assert.False(t, called)
}

func TestFetch_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(currentFixture))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, srv.URL).FetchCurrent(ctx, geo.Coordinates{})
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}
