// Package snapshot fetches the one-shot weather and air-pollution documents.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ashureev/sensorview/internal/report"
	"github.com/ashureev/sensorview/internal/view"
)

// maxBodyBytes caps a snapshot response body.
const maxBodyBytes = 4 << 20

var (
	// ErrStatus is returned for a non-2xx response.
	ErrStatus = errors.New("unexpected response status")
	// ErrInvalidJSON is returned when a response body is not valid JSON.
	ErrInvalidJSON = errors.New("response is not valid JSON")
)

// Config configures a Loader.
type Config struct {
	WeatherURL   string
	PollutionURL string
	// Timeout bounds each request. Zero means no timeout beyond ctx.
	Timeout    time.Duration
	HTTPClient *http.Client
	Reporter   report.Reporter
	Logger     *slog.Logger
}

// Loader installs both snapshots into their slots.
type Loader struct {
	cfg      Config
	client   *http.Client
	slots    view.SnapshotSlots
	reporter report.Reporter
	logger   *slog.Logger
}

// NewLoader creates a loader writing to slots.
func NewLoader(cfg Config, slots view.SnapshotSlots) *Loader {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = report.NewSlogReporter(logger)
	}
	return &Loader{
		cfg:      cfg,
		client:   client,
		slots:    slots,
		reporter: reporter,
		logger:   logger,
	}
}

// Load fetches weather and pollution concurrently and returns when both are
// done. Failures are reported and leave the slot as it was.
func (l *Loader) Load(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		l.load(ctx, report.SourceWeather, l.cfg.WeatherURL, l.slots.SetWeather)
	}()

	go func() {
		defer wg.Done()
		l.load(ctx, report.SourcePollution, l.cfg.PollutionURL, l.slots.SetPollution)
	}()

	wg.Wait()
}

func (l *Loader) load(ctx context.Context, source, url string, install func(json.RawMessage)) {
	doc, err := l.Fetch(ctx, url)
	if err != nil {
		l.reporter.Report(report.Event{Source: source, Op: "fetch", Err: err})
		return
	}
	install(doc)
	l.logger.Info("Snapshot loaded", "source", source, "bytes", len(doc))
}

// Fetch performs one GET and returns the body if it is valid JSON.
func (l *Loader) Fetch(ctx context.Context, url string) (json.RawMessage, error) {
	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			l.logger.Debug("Failed to close response body", "url", url, "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("read %s: body exceeds %d bytes", url, maxBodyBytes)
	}

	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, url)
	}
	return json.RawMessage(body), nil
}
