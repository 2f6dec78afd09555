package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AntoDono/suscart/internal/app"
	"github.com/AntoDono/suscart/internal/config"
	apperrors "github.com/AntoDono/suscart/internal/errors"
	"github.com/AntoDono/suscart/internal/fanout"
	"github.com/AntoDono/suscart/internal/registry"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	app         *app.Service
	registry    *registry.Registry
	broadcaster *fanout.Broadcaster
	startTime   time.Time
}

func NewServer(cfg *config.Config, svc *app.Service, reg *registry.Registry, broadcaster *fanout.Broadcaster) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		app:         svc,
		registry:    reg,
		broadcaster: broadcaster,
		startTime:   time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
