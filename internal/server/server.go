package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sakamoto-giocolgeek/emotional-echo/internal/broadcast"
	"github.com/sakamoto-giocolgeek/emotional-echo/internal/config"
	"github.com/sakamoto-giocolgeek/emotional-echo/internal/domain"
	apperrors "github.com/sakamoto-giocolgeek/emotional-echo/internal/errors"
)

// dbPinger is the slice of the connection pool the readiness check needs.
type dbPinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	app          domain.AppService
	hub          *broadcast.Hub
	db           dbPinger
	submitLimits *SubmissionRateLimiter
	wsLimits     *ConnectionLimits
	startTime    time.Time
}

func NewServer(cfg *config.Config, app domain.AppService, hub *broadcast.Hub, db dbPinger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		hub:          hub,
		db:           db,
		submitLimits: NewSubmissionRateLimiter(cfg.SubmitRate, cfg.SubmitBurst),
		wsLimits:     NewConnectionLimits(int64(cfg.MaxWSConnections), cfg.MaxWSPerIP),
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
