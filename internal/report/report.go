// Package report carries non-fatal failures from the view's background
// activities to an observability sink.
package report

import (
	"log/slog"
	"sync"
)

// Event sources.
const (
	SourceStream    = "stream"
	SourceWeather   = "weather"
	SourcePollution = "pollution"
)

// Event describes one failed operation.
type Event struct {
	Source string
	Op     string
	Err    error
}

// Reporter receives failure events. Implementations must be safe for
// concurrent use.
type Reporter interface {
	Report(Event)
}

// SlogReporter logs events at warn level.
type SlogReporter struct {
	logger *slog.Logger
}

// NewSlogReporter returns a reporter writing to logger, or to the default
// logger when nil.
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{logger: logger}
}

// Report implements Reporter.
func (r *SlogReporter) Report(e Event) {
	r.logger.Warn("View operation failed", "source", e.Source, "op", e.Op, "error", e.Err)
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Report implements Reporter.
func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// BySource returns recorded events from one source.
func (r *Recorder) BySource(source string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}
