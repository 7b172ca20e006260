package config

import (
	"sync/atomic"
)

var configValue atomic.Value

func GetConfig() *Config {
	return configValue.Load().(*Config)
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Weather     WeatherConfig   `mapstructure:"weather"`
	Location    LocationConfig  `mapstructure:"location"`
	Geocoding   GeocodingConfig `mapstructure:"geocoding"`
	Forecast    ForecastConfig  `mapstructure:"forecast"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port" validate:"min=1,max=65535"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`

	// ScreenTimeout bounds how long a request waits for a screen to settle.
	ScreenTimeout int `mapstructure:"screen_timeout" validate:"min=1"`
}

// WeatherConfig configures the weatherapi.com client. APIKey is expected to
// come from the environment (WNOW_WEATHER_API_KEY) or a .env file.
type WeatherConfig struct {
	BaseURL   string  `mapstructure:"base_url" validate:"required,url"`
	APIKey    string  `mapstructure:"api_key"`
	Timeout   int     `mapstructure:"timeout" validate:"min=1"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gt=0"`
	Burst     int     `mapstructure:"burst" validate:"min=1"`
}

// LocationConfig selects where device coordinates come from.
type LocationConfig struct {
	Provider    string  `mapstructure:"provider" validate:"oneof=static ip"`
	Latitude    float64 `mapstructure:"latitude" validate:"min=-90,max=90"`
	Longitude   float64 `mapstructure:"longitude" validate:"min=-180,max=180"`
	Permission  string  `mapstructure:"permission" validate:"oneof=granted denied undetermined"`
	Simulated   bool    `mapstructure:"simulated"`
	IPLookupURL string  `mapstructure:"ip_lookup_url" validate:"omitempty,url"`
	Timeout     int     `mapstructure:"timeout" validate:"min=1"`
}

type GeocodingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url" validate:"omitempty,url"`
	UserAgent string `mapstructure:"user_agent"`
	Language  string `mapstructure:"language"`
	Timeout   int    `mapstructure:"timeout" validate:"min=1"`
}

// ForecastConfig holds the fixed place and day count of the forecast screen.
type ForecastConfig struct {
	Place string `mapstructure:"place" validate:"required"`
	Days  int    `mapstructure:"days" validate:"min=1,max=14"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:          8080,
			Host:          "0.0.0.0",
			ReadTimeout:   30,
			WriteTimeout:  30,
			IdleTimeout:   60,
			ScreenTimeout: 20,
		},
		Weather: WeatherConfig{
			BaseURL:   "https://api.weatherapi.com/v1",
			APIKey:    "",
			Timeout:   10,
			RateLimit: 5,
			Burst:     2,
		},
		Location: LocationConfig{
			Provider:    "static",
			Latitude:    22.5726,
			Longitude:   88.3639,
			Permission:  "granted",
			Simulated:   false,
			IPLookupURL: "http://ip-api.com/json",
			Timeout:     5,
		},
		Geocoding: GeocodingConfig{
			Enabled:   true,
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "weather-now/1.0",
			Language:  "en",
			Timeout:   5,
		},
		Forecast: ForecastConfig{
			Place: "kolkata",
			Days:  7,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "tempo:4317",
		},
	}
}
