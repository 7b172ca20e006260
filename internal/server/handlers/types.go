package handlers

import (
	"github.com/vzahanych/weather-now/internal/screen"
	"github.com/vzahanych/weather-now/internal/server/utils"
	"github.com/vzahanych/weather-now/internal/weather"
)

// CurrentScreenQuery optionally pins the current screen to coordinates.
type CurrentScreenQuery struct {
	Lat float64 `form:"lat" validate:"latitude"`
	Lon float64 `form:"lon" validate:"longitude"`
}

// ScreenResponse is the JSON rendering of one screen state.
type ScreenResponse struct {
	Route    screen.Route         `json:"route"`
	Status   screen.Status        `json:"status"`
	Error    *ScreenError         `json:"error,omitempty"`
	Current  *CurrentView         `json:"current,omitempty"`
	Forecast []screen.ForecastRow `json:"forecast,omitempty"`
	Place    string               `json:"place,omitempty"`
	Actions  []Action             `json:"actions"`
}

type ScreenError struct {
	Kind    screen.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

type CurrentView struct {
	weather.CurrentConditions
	Title   string `json:"title"`
	IconURL string `json:"icon_url"`
}

// Action is a navigation trigger exposed as a link.
type Action struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type ErrorResponse struct {
	Error   string                  `json:"error"`
	Code    string                  `json:"code,omitempty"`
	Details []utils.ValidationError `json:"details,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp,omitempty"`
}
