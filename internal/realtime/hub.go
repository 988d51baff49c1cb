package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

// Client is one live SSE connection. Outbound is buffered; a subscriber that
// cannot keep up misses pushes and catches up by listing messages.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan Event
	done     chan struct{}
}

// Hub tracks which clients subscribe to which channels and fans events out.
type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "RealtimeHub"),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) NewClient(userID uuid.UUID) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Channels: make(map[string]bool),
		Outbound: make(chan Event, 16),
		done:     make(chan struct{}),
	}
}

func (h *Hub) Subscribe(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	client.Channels[channel] = true
	clients, ok := h.subscriptions[channel]
	if !ok {
		clients = make(map[*Client]bool)
		h.subscriptions[channel] = clients
	}
	clients[client] = true
	h.log.Debug("client subscribed", "client_id", client.ID, "channel", channel)
}

func (h *Hub) Unsubscribe(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(client.Channels, channel)
	if clients, ok := h.subscriptions[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.subscriptions, channel)
		}
	}
}

func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range client.Channels {
		if clients, ok := h.subscriptions[ch]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.subscriptions, ch)
			}
		}
	}
	client.Channels = make(map[string]bool)
}

// Broadcast delivers ev to every current subscriber of its channel. Sends
// never block the caller; a full client buffer drops that client's copy.
func (h *Hub) Broadcast(ev Event) {
	if ev.Channel == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.subscriptions[ev.Channel]
	if !ok {
		return
	}
	for c := range clients {
		select {
		case c.Outbound <- ev:
		default:
			h.log.Warn("dropping event, outbound buffer full", "client_id", c.ID, "channel", ev.Channel)
		}
	}
}

func (h *Hub) CloseClient(client *Client) {
	h.RemoveClient(client)
	close(client.done)
}

// ServeHTTP streams the client's events as SSE until the request context ends
// or the client is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-client.Outbound:
			raw, err := json.Marshal(ev)
			if err != nil {
				h.log.Warn("marshal event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, raw)
			flusher.Flush()
		}
	}
}
