package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/eyesim/internal/log"
)

// Hub tracks clients and broadcasts to them from a single goroutine.
type Hub struct {
	name string
	log  *slog.Logger

	clients map[*Client]struct{}
	mu      sync.RWMutex

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	done    chan struct{}
	running atomic.Bool
	dropped atomic.Uint64
}

// New creates a hub. buffer bounds the number of queued broadcasts; preview
// hubs should keep it small so stale frames are dropped.
func New(name string, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		name:       name,
		log:        log.Component("hub").With("hub", name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, buffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
		h.mu.Lock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client connected", "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client disconnected", "clients", n)

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) fanOut(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Slow reader: drop it rather than stall everyone else.
			delete(h.clients, c)
			close(c.send)
			h.log.Warn("dropped slow client", "clients", len(h.clients))
		}
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues msg without blocking. When the queue is full the message
// is dropped and false is returned.
func (h *Hub) Broadcast(msg Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		h.dropped.Add(1)
		h.log.Debug("broadcast queue full, dropping message")
		return false
	}
}

// BroadcastJSON encodes v and broadcasts it as a text frame.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts data as a binary frame.
func (h *Hub) BroadcastBinary(data []byte) bool {
	return h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many broadcasts were discarded because the queue was full.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Name returns the hub name.
func (h *Hub) Name() string { return h.name }

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool { return h.running.Load() }
