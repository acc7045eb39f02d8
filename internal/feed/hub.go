// Package feed serves a development upstream: the sensor push channel and the
// two snapshot endpoints.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// writeTimeout bounds a single broadcast write to one client.
const writeTimeout = 5 * time.Second

// Hub tracks connected push clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Register adds a client connection.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
	slog.Info("Push client registered", "clients", len(h.clients))
}

// Unregister removes a client connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		slog.Info("Push client unregistered", "clients", len(h.clients))
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends v as a JSON text frame to every client and returns how many
// received it. Clients that fail to receive are dropped.
func (h *Hub) Broadcast(ctx context.Context, v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return h.BroadcastRaw(ctx, data), nil
}

// BroadcastRaw sends data as a text frame to every client.
func (h *Hub) BroadcastRaw(ctx context.Context, data []byte) int {
	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range clients {
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.Write(writeCtx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Debug("Push write failed, dropping client", "error", err)
			h.Unregister(c)
			_ = c.Close(websocket.StatusInternalError, "write failed")
			continue
		}
		delivered++
	}
	return delivered
}

// CloseAll closes every client with a normal closure.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for c := range clients {
		_ = c.Close(websocket.StatusNormalClosure, "feed shutting down")
	}
}
