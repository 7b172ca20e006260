package weather

import (
	"strings"
	"time"
)

type Location struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	LocalTime string  `json:"localtime"`
}

type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

// IconURL turns the provider's protocol-relative icon path into an absolute URL.
func (c Condition) IconURL() string {
	if strings.HasPrefix(c.Icon, "//") {
		return "https:" + c.Icon
	}
	return c.Icon
}

// CurrentConditions is a snapshot returned by the current.json endpoint.
type CurrentConditions struct {
	Location    Location  `json:"location"`
	TempC       float64   `json:"temp_c"`
	TempF       float64   `json:"temp_f"`
	FeelsLikeC  float64   `json:"feelslike_c"`
	FeelsLikeF  float64   `json:"feelslike_f"`
	Humidity    int       `json:"humidity"`
	PressureMb  float64   `json:"pressure_mb"`
	WindKph     float64   `json:"wind_kph"`
	WindDir     string    `json:"wind_dir"`
	Condition   Condition `json:"condition"`
	LastUpdated string    `json:"last_updated"`
}

type ForecastDay struct {
	Date      time.Time `json:"date"`
	MaxTempC  float64   `json:"maxtemp_c"`
	MinTempC  float64   `json:"mintemp_c"`
	Condition Condition `json:"condition"`
}

// Wire shapes. Pointer fields distinguish a missing value from zero.

type apiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type currentResponse struct {
	Location *Location `json:"location"`
	Current  *struct {
		TempC       *float64  `json:"temp_c"`
		TempF       *float64  `json:"temp_f"`
		FeelsLikeC  *float64  `json:"feelslike_c"`
		FeelsLikeF  *float64  `json:"feelslike_f"`
		Humidity    int       `json:"humidity"`
		PressureMb  float64   `json:"pressure_mb"`
		WindKph     float64   `json:"wind_kph"`
		WindDir     string    `json:"wind_dir"`
		Condition   Condition `json:"condition"`
		LastUpdated string    `json:"last_updated"`
	} `json:"current"`
}

type forecastResponse struct {
	Location *Location `json:"location"`
	Forecast *struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC  *float64  `json:"maxtemp_c"`
				MinTempC  *float64  `json:"mintemp_c"`
				Condition Condition `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}
