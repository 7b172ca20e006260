package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vzahanych/weather-now/internal/config"
	"github.com/vzahanych/weather-now/internal/server/handlers"
	"github.com/vzahanych/weather-now/internal/server/middlewares"
	"github.com/vzahanych/weather-now/pkg/telemetry"
)

type Server struct {
	cfg     config.ServerConfig
	engine  *gin.Engine
	server  *http.Server
	screens handlers.Screens
	metrics *handlers.MetricsHandler
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

// NewServer builds the HTTP shell. metrics may be shared with the weather
// client so provider calls show up on /metrics.
func NewServer(cfg config.ServerConfig, screens handlers.Screens, metrics *handlers.MetricsHandler, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	if metrics == nil {
		metrics = handlers.NewMetricsHandler()
	}
	httpMetrics := middlewares.NewMetricsMiddleware()
	metrics.SetHTTPSource(httpMetrics)

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger, "/health", "/health/live", "/health/ready", "/metrics"))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(tele))
	engine.Use(httpMetrics.Handler())

	s := &Server{
		cfg:     cfg,
		engine:  engine,
		screens: screens,
		metrics: metrics,
		logger:  logger,
		tele:    tele,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	screens := handlers.NewScreenHandler(s.screens, time.Duration(s.cfg.ScreenTimeout)*time.Second, s.logger)
	s.engine.GET("/screens/current", screens.GetCurrent)
	s.engine.GET("/screens/forecast", screens.GetForecast)

	health := handlers.NewHealthHandler(func() bool { return s.screens != nil })
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	s.engine.GET("/metrics", s.metrics.ServeMetrics)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
