// Package main is the entry point for the SecureCheck API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/securecheck/internal/cache"
	"github.com/pkordes/securecheck/internal/config"
	"github.com/pkordes/securecheck/internal/handler"
	"github.com/pkordes/securecheck/internal/middleware"
	"github.com/pkordes/securecheck/internal/repo"
	"github.com/pkordes/securecheck/internal/service"
	"github.com/pkordes/securecheck/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Default logger until the configured one exists.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	if cfg.MigrateOnStart {
		n, err := migrations.Up(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "count", n)
	}

	// Without DB_POOL nothing is dialed here: each operation opens and closes
	// its own connection, so an unreachable database surfaces per request as 503.
	connector, closeDB, err := repo.Open(ctx, cfg.DatabaseURL, cfg.DBPool)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer closeDB()
	slog.Info("record store ready", "pooled", cfg.DBPool)

	store := repo.NewStore(connector)
	stops := repo.NewStopRepo(store)
	reports := repo.NewReportRepo(store)

	// --- Report cache -----------------------------------------------------
	// Left as untyped nil interfaces when Redis is off so the services'
	// nil checks hold.
	var (
		invalidator service.Invalidator
		reportCache service.ReportCache
	)
	if cfg.RedisAddr != "" {
		rc, err := cache.NewReportCache(ctx, cfg.RedisAddr, cfg.ReportCacheTTL)
		if err != nil {
			// The cache is an optimisation; serve uncached rather than not at all.
			slog.Warn("report cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer rc.Close()
			invalidator, reportCache = rc, rc
			slog.Info("report cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ReportCacheTTL)
		}
	}

	// --- Services ---------------------------------------------------------
	stopSvc := service.NewStopService(stops, invalidator, logger, cfg.RecentLimit)
	reportSvc := service.NewReportService(reports, reportCache, logger)
	exportSvc := service.NewExportService(stops)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID, RealIP, Logger, Recoverer,
	// CORS, body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Mount("/", handler.NewServer(stopSvc, reportSvc, exportSvc, logger).Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// The write timeout leaves room for the slowest catalog reports.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
