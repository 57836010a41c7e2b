package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/orgatlas/orgatlas/internal/observability"
)

// Hub fans build and sync events out to connected SSE clients. Each
// handler registers one Client for the lifetime of its request.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// Client represents a single SSE connection.
type Client struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	writeMu sync.Mutex
	done    chan struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
	}
}

// Register adds a client and updates the connected-clients gauge.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	observability.Metrics().ActiveStreamClients.Set(float64(n))
}

// Unregister removes a client, signals its keepalive loop to stop, and
// updates the connected-clients gauge.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.done)
	}
	n := len(h.clients)
	h.mu.Unlock()
	observability.Metrics().ActiveStreamClients.Set(float64(n))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients. The payload is
// marshalled once and shared.
func (h *Hub) Broadcast(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case <-client.done:
			// Disconnected but not yet unregistered.
		default:
			client.send(data)
		}
	}
}

// NewClient wraps an HTTP response writer as an SSE stream.
func NewClient(hub *Hub, w http.ResponseWriter) (*Client, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &Client{
		writer:  w,
		flusher: flusher,
		done:    make(chan struct{}),
	}, nil
}

// send writes an SSE data frame. Serialized so broadcasts and keepalive
// pings never interleave on the wire.
func (c *Client) send(data []byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	fmt.Fprintf(c.writer, "data: %s\n\n", data)
	c.flusher.Flush()
}

// SendPing sends a comment frame to keep the connection alive.
func (c *Client) SendPing() {
	select {
	case <-c.done:
		return
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	fmt.Fprintf(c.writer, ": ping\n\n")
	c.flusher.Flush()
}

// KeepAlive sends periodic pings until the client is unregistered.
func (c *Client) KeepAlive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.SendPing()
		}
	}
}
