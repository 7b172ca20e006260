package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vzahanych/weather-now/internal/config"
)

// NominatimGeocoder reverse-geocodes through an OpenStreetMap Nominatim
// instance.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	language  string
	client    *http.Client
}

type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

func NewNominatimGeocoder(cfg config.GeocodingConfig) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		language:  cfg.Language,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

func (g *NominatimGeocoder) Name() string {
	return "nominatim"
}

func (g *NominatimGeocoder) Reverse(ctx context.Context, c Coordinates) (Address, error) {
	u, err := url.Parse(fmt.Sprintf("%s/reverse", g.baseURL))
	if err != nil {
		return Address{}, err
	}

	q := u.Query()
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(c.Latitude, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(c.Longitude, 'f', 6, 64))
	q.Set("zoom", "10")
	if g.language != "" {
		q.Set("accept-language", g.language)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Address{}, err
	}
	// Nominatim's usage policy rejects requests without an identifying agent.
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Address{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Address{}, fmt.Errorf("reverse geocode failed with status: %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Address{}, fmt.Errorf("decode reverse geocode response: %w", err)
	}
	if body.Error != "" {
		return Address{}, fmt.Errorf("reverse geocode: %s", body.Error)
	}

	city := body.Address.City
	if city == "" {
		city = body.Address.Town
	}
	if city == "" {
		city = body.Address.Village
	}

	return Address{
		City:    city,
		Region:  body.Address.State,
		Country: body.Address.Country,
	}, nil
}
