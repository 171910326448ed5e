// Package stream serves live camera frames over HTTP: JSON queue stats and
// a websocket feed of JPEG-encoded frames, using a channel-based broadcast
// hub so any number of browsers or naneye-watch clients can subscribe.
package stream

import (
	"context"
	"sync"

	"github.com/teslashibe/go-naneye/internal/log"
)

// Hub fans frames out to the connected websocket clients. Slow clients are
// dropped rather than allowed to stall the feed: a viewer that cannot keep
// up with live video is better off reconnecting than buffering stale frames.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 8),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run drives the hub loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("stream client connected", "id", client.id, "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("stream client disconnected", "id", client.id, "clients", count)

		case frame := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// Send buffer full: the client is too slow for
					// live video, cut it loose.
					close(client.send)
					delete(h.clients, client)
					log.Warn("dropped slow stream client", "id", client.id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a JPEG frame for all clients. If the hub itself is
// backed up the frame is dropped; the next one is never far behind.
func (h *Hub) Broadcast(frame []byte) {
	select {
	case h.broadcast <- frame:
	default:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
