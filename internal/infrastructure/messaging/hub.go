// Package messaging provides the concrete websocket hub behind the live
// event feed consumed by the admin dashboard.
package messaging

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
)

// WSHub fans tracked events out to connected websocket clients. Slow
// clients get messages dropped rather than stalling the engine.
type WSHub struct {
	clients map[chan []byte]struct{}
	mu      sync.Mutex
	logger  *logging.ChanneledLogger
}

// NewWSHub creates an empty hub.
func NewWSHub(logger *logging.ChanneledLogger) *WSHub {
	return &WSHub{
		clients: make(map[chan []byte]struct{}),
		logger:  logger,
	}
}

// Publish serializes v and queues it on every connected client.
func (h *WSHub) Publish(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.WS().Error("Failed to marshal live feed message", "error", err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.clients {
		select {
		case ch <- payload:
		default:
			h.logger.WS().Warn("Live feed channel full, message dropped")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve pumps queued messages to a single websocket connection until the
// connection closes or a write fails.
func (h *WSHub) Serve(conn *websocket.Conn) {
	ch := make(chan []byte, 32)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WS().Debug("Live feed client connected", "clientCount", count)

	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
		conn.Close()
		h.logger.WS().Debug("Live feed client disconnected")
	}()

	// Drain reads so close frames are processed.
	done := make(chan struct{})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(done)
				return
			}
		}
	}()

	for {
		select {
		case payload := <-ch:
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.WS().Debug("Live feed write failed", "error", err.Error())
				return
			}
		case <-done:
			return
		}
	}
}
