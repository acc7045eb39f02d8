// Package session runs one display view: the push consumer and the snapshot
// loader, concurrently, under a single cancellation scope.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ashureev/sensorview/internal/reading"
	"github.com/ashureev/sensorview/internal/report"
	"github.com/ashureev/sensorview/internal/snapshot"
	"github.com/ashureev/sensorview/internal/stream"
	"github.com/ashureev/sensorview/internal/timefmt"
	"github.com/ashureev/sensorview/internal/view"
	"github.com/google/uuid"
)

// Options configures a Session.
type Options struct {
	StreamURL       string
	WeatherURL      string
	PollutionURL    string
	Location        *time.Location
	SnapshotTimeout time.Duration
	HTTPClient      *http.Client
	Reporter        report.Reporter
	Logger          *slog.Logger
}

// Session is one live view.
type Session struct {
	ID    string
	State *view.State

	consumer *stream.Consumer
	loader   *snapshot.Loader
	logger   *slog.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	streamEnd chan struct{}
	streamErr error
}

// New wires a session. Nothing runs until Start.
func New(opts Options) *Session {
	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session_id", id)

	reporter := opts.Reporter
	if reporter == nil {
		reporter = report.NewSlogReporter(logger)
	}

	state := view.New()
	classifier := stream.NewClassifier(state.SensorSlots(), reading.NewFormatter(timefmt.New(opts.Location)))

	return &Session{
		ID:    id,
		State: state,
		consumer: stream.NewConsumer(stream.ConsumerConfig{
			URL:        opts.StreamURL,
			HTTPClient: opts.HTTPClient,
			Reporter:   reporter,
			Logger:     logger,
		}, classifier),
		loader: snapshot.NewLoader(snapshot.Config{
			WeatherURL:   opts.WeatherURL,
			PollutionURL: opts.PollutionURL,
			Timeout:      opts.SnapshotTimeout,
			HTTPClient:   opts.HTTPClient,
			Reporter:     reporter,
			Logger:       logger,
		}, state.SnapshotSlots()),
		logger:    logger,
		streamEnd: make(chan struct{}),
	}
}

// Start launches the push consumer and the snapshot loader. It returns
// immediately; calling it more than once has no effect.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info("View session starting")

	s.wg.Add(2)

	go func() {
		defer s.wg.Done()
		defer close(s.streamEnd)
		err := s.consumer.Run(ctx)
		s.streamErr = err
		if stream.IsClosed(err) {
			s.logger.Info("Push channel ended")
		} else {
			s.logger.Warn("Push channel ended with error", "error", err)
		}
	}()

	go func() {
		defer s.wg.Done()
		s.loader.Load(ctx)
	}()
}

// Reload re-runs the snapshot loader. It blocks until both requests finish.
func (s *Session) Reload(ctx context.Context) {
	s.loader.Load(ctx)
}

// Done is closed when the push channel ends.
func (s *Session) Done() <-chan struct{} {
	return s.streamEnd
}

// Err blocks until the push channel ends and returns its terminal error.
func (s *Session) Err() error {
	<-s.streamEnd
	return s.streamErr
}

// Close cancels the push subscription and any in-flight requests and waits
// for them to return.
func (s *Session) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("View session closed")
}
