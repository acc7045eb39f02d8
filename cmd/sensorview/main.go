// Sensorview - live environmental sensor view
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
	_ "time/tzdata"

	"github.com/ashureev/sensorview/internal/api"
	"github.com/ashureev/sensorview/internal/config"
	"github.com/ashureev/sensorview/internal/middleware"
	"github.com/ashureev/sensorview/internal/report"
	"github.com/ashureev/sensorview/internal/session"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting sensor view",
		"port", cfg.Port,
		"stream_url", cfg.StreamURL(),
		"display_tz", cfg.DisplayTZ)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	view := session.New(session.Options{
		StreamURL:       cfg.StreamURL(),
		WeatherURL:      cfg.WeatherURL(),
		PollutionURL:    cfg.PollutionURL(),
		Location:        cfg.Location(),
		SnapshotTimeout: cfg.SnapshotTimeout,
		Reporter:        report.NewSlogReporter(logger),
		Logger:          logger,
	})
	view.Start(ctx)
	defer view.Close()

	// Setup router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	api.NewHandler(view.State).RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("View server listening", "addr", srv.Addr, "session_id", view.ID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// The view lives as long as its push channel; without reconnection a
	// closed channel ends the process.
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case <-view.Done():
		slog.Warn("Push channel closed, shutting down", "error", view.Err())
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Sensor view stopped")
}
