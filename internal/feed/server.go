package feed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ashureev/sensorview/internal/api"
	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

// Default upstream paths.
const (
	StreamPath    = "/ws/sensor_data/"
	WeatherPath   = "/api/weather/"
	PollutionPath = "/api/air-pollution/"
)

// Server is the development upstream.
type Server struct {
	Hub *Hub

	mu        sync.RWMutex
	weather   json.RawMessage
	pollution json.RawMessage
}

// NewServer creates a server with no snapshot documents configured.
func NewServer() *Server {
	return &Server{Hub: NewHub()}
}

// SetWeather sets the document served on the weather endpoint. A nil doc makes
// the endpoint unavailable.
func (s *Server) SetWeather(doc json.RawMessage) error {
	return s.setDoc(&s.weather, doc)
}

// SetPollution sets the document served on the air-pollution endpoint.
func (s *Server) SetPollution(doc json.RawMessage) error {
	return s.setDoc(&s.pollution, doc)
}

func (s *Server) setDoc(dst *json.RawMessage, doc json.RawMessage) error {
	if doc != nil && !json.Valid(doc) {
		return fmt.Errorf("snapshot document is not valid JSON")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	*dst = doc
	return nil
}

// Routes mounts the upstream endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get(StreamPath, s.handleStream)
	r.Get(WeatherPath, s.handleDoc(func() json.RawMessage { return s.weather }))
	r.Get(PollutionPath, s.handleDoc(func() json.RawMessage { return s.pollution }))
}

// Handler returns a router with the upstream endpoints mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}

	s.Hub.Register(ws)
	defer s.Hub.Unregister(ws)

	// Inbound frames are not part of the protocol; CloseRead discards them
	// and reports when the client goes away.
	ctx := ws.CloseRead(r.Context())
	<-ctx.Done()
}

func (s *Server) handleDoc(get func() json.RawMessage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		doc := get()
		s.mu.RUnlock()

		if doc == nil {
			api.Error(w, http.StatusServiceUnavailable, "snapshot not available")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(doc); err != nil {
			slog.Debug("Failed to write snapshot", "path", r.URL.Path, "error", err)
		}
	}
}
