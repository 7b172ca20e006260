package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vzahanych/weather-now/internal/config"
	"github.com/vzahanych/weather-now/internal/geo"
	"github.com/vzahanych/weather-now/pkg/telemetry"
)

const providerName = "weather-api"

var (
	ErrNetwork  = errors.New("weather request failed")
	ErrParse    = errors.New("weather response malformed")
	ErrNoAPIKey = errors.New("weather API key not configured")
	ErrBadDays  = errors.New("forecast days must be at least 1")
)

// CallRecorder receives one event per provider call.
type CallRecorder interface {
	RecordWeatherServiceCall(ctx context.Context, service string, success bool)
}

type Client struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
	tele     *telemetry.Telemetry
	recorder CallRecorder
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithCallRecorder(r CallRecorder) Option {
	return func(c *Client) { c.recorder = r }
}

func NewClient(cfg config.WeatherConfig, logger *zap.Logger, tele *telemetry.Telemetry, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		logger:  logger,
		tele:    tele,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) Name() string {
	return providerName
}

// FetchCurrent returns the current conditions at the given coordinates.
func (c *Client) FetchCurrent(ctx context.Context, coords geo.Coordinates) (*CurrentConditions, error) {
	ctx, span := c.tele.GetTracer().Start(ctx, "weather-api.FetchCurrent")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", coords.Latitude),
		attribute.Float64("lon", coords.Longitude),
	)

	q := url.Values{}
	q.Set("q", formatCoord(coords.Latitude)+","+formatCoord(coords.Longitude))

	var resp currentResponse
	if err := c.get(ctx, "current.json", q, &resp); err != nil {
		return nil, c.fail(ctx, span, "current.json", err)
	}

	current, err := resp.toCurrent()
	if err != nil {
		return nil, c.fail(ctx, span, "current.json", err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	c.record(ctx, true)
	c.logger.Debug("Current conditions fetched",
		zap.String("location", current.Location.Name),
		zap.Float64("temp_c", current.TempC))

	return current, nil
}

// FetchForecast returns exactly days entries in chronological order, or an error.
func (c *Client) FetchForecast(ctx context.Context, place string, days int) ([]ForecastDay, error) {
	if days < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrBadDays, days)
	}

	ctx, span := c.tele.GetTracer().Start(ctx, "weather-api.FetchForecast")
	defer span.End()

	span.SetAttributes(
		attribute.String("place", place),
		attribute.Int("days", days),
	)

	q := url.Values{}
	q.Set("q", place)
	q.Set("days", strconv.Itoa(days))

	var resp forecastResponse
	if err := c.get(ctx, "forecast.json", q, &resp); err != nil {
		return nil, c.fail(ctx, span, "forecast.json", err)
	}

	forecast, err := resp.toForecast(days)
	if err != nil {
		return nil, c.fail(ctx, span, "forecast.json", err)
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("days_fetched", len(forecast)),
	)
	c.record(ctx, true)
	c.logger.Debug("Forecast fetched",
		zap.String("place", place),
		zap.Int("days_fetched", len(forecast)))

	return forecast, nil
}

// fail marks span and metrics for a failed call, transport or shape alike.
func (c *Client) fail(ctx context.Context, span trace.Span, endpoint string, err error) error {
	span.SetAttributes(attribute.Bool("success", false))
	c.tele.RecordError(ctx, err, map[string]interface{}{"endpoint": endpoint})
	c.record(ctx, false)
	return err
}

func (c *Client) record(ctx context.Context, success bool) {
	if c.recorder != nil {
		c.recorder.RecordWeatherServiceCall(ctx, providerName, success)
	}
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait canceled: %w", ErrNetwork, err)
	}

	u, err := url.Parse(fmt.Sprintf("%s/%s", c.baseURL, endpoint))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	q.Set("key", c.apiKey)
	q.Set("aqi", "no")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNetwork, endpoint, withoutURL(err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		err = withoutURL(err)
		c.logger.Warn("Weather request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrNetwork, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != nil {
			return fmt.Errorf("%w: status %d: %s", ErrNetwork, resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("%w: API request failed with status: %d", ErrNetwork, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}

	return nil
}

func (r currentResponse) toCurrent() (*CurrentConditions, error) {
	if r.Location == nil || r.Location.Name == "" {
		return nil, fmt.Errorf("%w: missing location", ErrParse)
	}
	cur := r.Current
	if cur == nil {
		return nil, fmt.Errorf("%w: missing current block", ErrParse)
	}
	if !finite(cur.TempC, cur.TempF, cur.FeelsLikeC, cur.FeelsLikeF) {
		return nil, fmt.Errorf("%w: missing temperature", ErrParse)
	}
	if cur.Condition.Text == "" {
		return nil, fmt.Errorf("%w: missing condition text", ErrParse)
	}

	return &CurrentConditions{
		Location:    *r.Location,
		TempC:       *cur.TempC,
		TempF:       *cur.TempF,
		FeelsLikeC:  *cur.FeelsLikeC,
		FeelsLikeF:  *cur.FeelsLikeF,
		Humidity:    cur.Humidity,
		PressureMb:  cur.PressureMb,
		WindKph:     cur.WindKph,
		WindDir:     cur.WindDir,
		Condition:   cur.Condition,
		LastUpdated: cur.LastUpdated,
	}, nil
}

func (r forecastResponse) toForecast(days int) ([]ForecastDay, error) {
	if r.Forecast == nil {
		return nil, fmt.Errorf("%w: missing forecast block", ErrParse)
	}
	if got := len(r.Forecast.ForecastDay); got != days {
		return nil, fmt.Errorf("%w: got %d forecast days, want %d", ErrParse, got, days)
	}

	out := make([]ForecastDay, 0, days)
	for i, fd := range r.Forecast.ForecastDay {
		date, err := time.Parse(time.DateOnly, fd.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: day %d: %w", ErrParse, i, err)
		}
		if i > 0 && date.Before(out[i-1].Date) {
			return nil, fmt.Errorf("%w: day %d is out of order", ErrParse, i)
		}
		if !finite(fd.Day.MaxTempC, fd.Day.MinTempC) {
			return nil, fmt.Errorf("%w: day %d: missing temperature", ErrParse, i)
		}
		if fd.Day.Condition.Text == "" {
			return nil, fmt.Errorf("%w: day %d: missing condition text", ErrParse, i)
		}

		out = append(out, ForecastDay{
			Date:      date,
			MaxTempC:  *fd.Day.MaxTempC,
			MinTempC:  *fd.Day.MinTempC,
			Condition: fd.Day.Condition,
		})
	}

	return out, nil
}

// withoutURL drops the request URL, which carries the API key, from
// transport errors.
func withoutURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

// formatCoord never uses exponent notation, which the provider rejects.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finite(vals ...*float64) bool {
	for _, v := range vals {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			return false
		}
	}
	return true
}
