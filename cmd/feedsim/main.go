// Feedsim - development upstream serving simulated sensor readings
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/sensorview/internal/config"
	"github.com/ashureev/sensorview/internal/feed"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.LoadFeed()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))

	upstream := feed.NewServer()
	if err := loadDoc(cfg.WeatherFile, upstream.SetWeather); err != nil {
		slog.Error("Failed to load weather document", "path", cfg.WeatherFile, "error", err)
		os.Exit(1)
	}
	if err := loadDoc(cfg.PollutionFile, upstream.SetPollution); err != nil {
		slog.Error("Failed to load pollution document", "path", cfg.PollutionFile, "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	upstream.Routes(r)

	// No WriteTimeout: push connections are long-lived.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := feed.NewSimulator(upstream.Hub, cfg.Interval, uint64(time.Now().UnixNano()))
	go func() {
		if err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Simulator stopped", "error", err)
		}
	}()
	slog.Info("Simulator started", "interval", cfg.Interval)

	go func() {
		slog.Info("Feed listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")
	upstream.Hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Feed stopped successfully")
}

// loadDoc installs the JSON document at path. An empty path leaves the
// endpoint unavailable.
func loadDoc(path string, set func(json.RawMessage) error) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return set(json.RawMessage(data))
}
