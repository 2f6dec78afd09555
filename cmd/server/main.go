package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AntoDono/suscart/internal/app"
	"github.com/AntoDono/suscart/internal/config"
	"github.com/AntoDono/suscart/internal/database"
	"github.com/AntoDono/suscart/internal/dispatch"
	"github.com/AntoDono/suscart/internal/domain"
	"github.com/AntoDono/suscart/internal/fanout"
	"github.com/AntoDono/suscart/internal/logging"
	"github.com/AntoDono/suscart/internal/memstore"
	"github.com/AntoDono/suscart/internal/registry"
	"github.com/AntoDono/suscart/internal/server"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStore(cfg *config.Config, clock clockwork.Clock) (domain.Store, *pgxpool.Pool) {
	if cfg.InMemory() {
		slog.Warn("DATABASE_URL not set, using in-memory store; data is lost on restart")
		return memstore.New(clock), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return database.NewStore(pool), pool
}

func runGracefulShutdown(cfg *config.Config, srv *server.Server, reg *registry.Registry) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		reg.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	store, pool := setupStore(cfg, clock)
	if pool != nil {
		defer pool.Close()
	}

	reg := registry.New(clock, cfg.MaxConnsPerCustomer)
	broadcaster := fanout.New(reg, clock)
	dispatcher := dispatch.New(store, nil, broadcaster, clock)
	appSvc := app.NewService(store, dispatcher, broadcaster, clock)

	srv := server.NewServer(cfg, appSvc, reg, broadcaster)

	done := runGracefulShutdown(cfg, srv, reg)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
