package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ashureev/sensorview/internal/report"
	"github.com/coder/websocket"
)

// Consumer reads the push channel and feeds every text frame to a Classifier.
type Consumer struct {
	url        string
	classifier *Classifier
	reporter   report.Reporter
	header     http.Header
	httpClient *http.Client
	logger     *slog.Logger
}

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	URL        string
	Header     http.Header
	HTTPClient *http.Client
	Reporter   report.Reporter
	Logger     *slog.Logger
}

// NewConsumer creates a consumer for the push channel at cfg.URL.
func NewConsumer(cfg ConsumerConfig, classifier *Classifier) *Consumer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = report.NewSlogReporter(logger)
	}
	return &Consumer{
		url:        cfg.URL,
		classifier: classifier,
		reporter:   reporter,
		header:     cfg.Header,
		httpClient: cfg.HTTPClient,
		logger:     logger,
	}
}

// Run dials the push channel and consumes it until the channel closes or ctx
// is cancelled. Bad frames are reported and skipped. A normal close returns
// nil; cancellation returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	ws, _, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{
		HTTPHeader: c.header,
		HTTPClient: c.httpClient,
	})
	if err != nil {
		err = fmt.Errorf("dial push channel: %w", err)
		c.reporter.Report(report.Event{Source: report.SourceStream, Op: "dial", Err: err})
		return err
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "view closed"); closeErr != nil {
			c.logger.Debug("Failed to close push channel", "error", closeErr)
		}
	}()

	c.logger.Info("Push channel connected", "url", c.url)
	return c.readLoop(ctx, ws)
}

func (c *Consumer) readLoop(ctx context.Context, ws *websocket.Conn) error {
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if status := websocket.CloseStatus(err); status != -1 {
				c.logger.Info("Push channel closed by server", "status", status)
				if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
					return nil
				}
			}
			err = fmt.Errorf("read push channel: %w", err)
			c.reporter.Report(report.Event{Source: report.SourceStream, Op: "read", Err: err})
			return err
		}

		if typ != websocket.MessageText {
			c.logger.Debug("Ignoring binary push frame", "bytes", len(data))
			continue
		}

		changed, err := c.classifier.Handle(data)
		if err != nil {
			c.reporter.Report(report.Event{Source: report.SourceStream, Op: "handle", Err: err})
			continue
		}
		if changed {
			c.logger.Debug("Slot updated from push channel")
		}
	}
}

// IsClosed reports whether err means the push channel ended without a
// transport failure.
func IsClosed(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure
}
