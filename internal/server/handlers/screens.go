package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vzahanych/weather-now/internal/geo"
	"github.com/vzahanych/weather-now/internal/screen"
	"github.com/vzahanych/weather-now/internal/server/utils"
	"github.com/vzahanych/weather-now/internal/weather"
)

// Screens builds detached screens for one request each.
type Screens interface {
	NewCurrent(at *geo.Coordinates) screen.Screen
	NewForecast() screen.Screen
}

type ScreenHandler struct {
	screens Screens
	timeout time.Duration
	logger  *zap.Logger
}

func NewScreenHandler(screens Screens, timeout time.Duration, logger *zap.Logger) *ScreenHandler {
	return &ScreenHandler{
		screens: screens,
		timeout: timeout,
		logger:  logger,
	}
}

func (h *ScreenHandler) GetCurrent(c *gin.Context) {
	reqLogger := utils.RequestLogger(c, h.logger)

	lat, hasLat := c.GetQuery("lat")
	lon, hasLon := c.GetQuery("lon")
	if hasLat != hasLon {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "lat and lon must be given together",
			Code:  "INVALID_PARAMS",
		})
		return
	}
	if hasLat && (strings.TrimSpace(lat) == "" || strings.TrimSpace(lon) == "") {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "lat and lon must not be empty",
			Code:  "INVALID_PARAMS",
		})
		return
	}

	var at *geo.Coordinates
	if hasLat {
		var q CurrentScreenQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			reqLogger.Warn("Invalid request parameters", zap.Error(err))
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "Invalid request parameters",
				Code:  "INVALID_PARAMS",
			})
			return
		}
		if errs := utils.ValidateStruct(q); len(errs) > 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid request parameters",
				Code:    "INVALID_PARAMS",
				Details: errs,
			})
			return
		}
		at = &geo.Coordinates{Latitude: q.Lat, Longitude: q.Lon}
	}

	h.serve(c, reqLogger, h.screens.NewCurrent(at))
}

func (h *ScreenHandler) GetForecast(c *gin.Context) {
	reqLogger := utils.RequestLogger(c, h.logger)
	h.serve(c, reqLogger, h.screens.NewForecast())
}

// serve mounts s for the lifetime of the request and answers with whatever
// state it settled in.
func (h *ScreenHandler) serve(c *gin.Context, reqLogger *zap.Logger, s screen.Screen) {
	ctx, cancel := context.WithTimeout(utils.GetContextFromGinContext(c), h.timeout)
	defer cancel()

	s.Mount(ctx)
	select {
	case <-s.Done():
	case <-ctx.Done():
		reqLogger.Warn("Screen did not settle in time",
			zap.String("route", string(s.Route())),
			zap.Duration("timeout", h.timeout))
	}

	st := s.State()
	s.Unmount()

	resp := NewScreenResponse(s, st)
	reqLogger.Info("Screen served",
		zap.String("route", string(resp.Route)),
		zap.String("status", string(resp.Status)))

	c.JSON(statusCodeFor(st), resp)
}

func NewScreenResponse(s screen.Screen, st screen.State) ScreenResponse {
	resp := ScreenResponse{
		Route:  s.Route(),
		Status: st.Status(),
	}

	switch v := st.(type) {
	case screen.Failed:
		resp.Error = &ScreenError{Kind: v.Err.Kind, Message: v.Err.Message}
	case screen.Ready[weather.CurrentConditions]:
		resp.Current = &CurrentView{
			CurrentConditions: v.Data,
			Title:             "Weather Forecast for " + v.Data.Location.Name,
			IconURL:           v.Data.Condition.IconURL(),
		}
	case screen.Ready[[]screen.ForecastRow]:
		resp.Forecast = v.Data
	}

	switch s.Route() {
	case screen.RouteCurrent:
		resp.Actions = []Action{{Label: "See Full Forecast", Href: "/screens/forecast"}}
	case screen.RouteForecast:
		if p, ok := s.(interface{ Place() string }); ok {
			resp.Place = p.Place()
		}
		resp.Actions = []Action{{Label: "Go to Home", Href: "/screens/current"}}
	}

	return resp
}

func statusCodeFor(st screen.State) int {
	switch v := st.(type) {
	case screen.Failed:
		switch v.Err.Kind {
		case screen.KindPermissionDenied:
			return http.StatusForbidden
		case screen.KindFetchFailed:
			return http.StatusBadGateway
		default:
			return http.StatusServiceUnavailable
		}
	case screen.Loading, screen.Idle:
		return http.StatusGatewayTimeout
	default:
		return http.StatusOK
	}
}
