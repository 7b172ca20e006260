package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.weatherapi.com/v1", cfg.Weather.BaseURL)
	assert.Equal(t, "kolkata", cfg.Forecast.Place)
	assert.Equal(t, 7, cfg.Forecast.Days)
	assert.Equal(t, "static", cfg.Location.Provider)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
weather:
  api_key: from-file
forecast:
  place: london
  days: 3
location:
  permission: denied
`)
	t.Setenv("WNOW_WEATHER_API_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Weather.APIKey)
	assert.Equal(t, "london", cfg.Forecast.Place)
	assert.Equal(t, 3, cfg.Forecast.Days)
	assert.Equal(t, "denied", cfg.Location.Permission)
	assert.Equal(t, 10, cfg.Weather.Timeout, "unset keys keep their defaults")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
forecast:
  days: 0
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, Validate(NewDefaultConfig()))
}

func TestGetSetConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Forecast.Place = "paris"
	SetConfig(cfg)

	assert.Same(t, cfg, GetConfig())
}
