// Package event is the per-session broadcast layer.
//
// Every session id is one logical channel. Delivery is best-effort and at most once:
// a slow subscriber drops events rather than blocking the publisher, and nothing is
// replayed after a reconnect. Clients reconcile by refetching history.
package event

import (
	"context"
	"log/slog"
	"sync"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
)

// Event is the interface all event types must implement.
type Event interface {
	// EventName returns the wire name (e.g., "new_message")
	EventName() string
}

// Listener is a callback function for handling events.
type Listener func(Event)

// Relay forwards locally published events to other nodes.
type Relay interface {
	Forward(ctx context.Context, sessionID string, ev Event) error
}

// Hub manages per-session subscriptions and dispatching.
type Hub struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]Listener // sessionID -> listeners
	conns     map[string]map[string]int      // sessionID -> userID -> open connections
	relay     Relay
	logger    *slog.Logger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		listeners: make(map[string]map[uint64]Listener),
		conns:     make(map[string]map[string]int),
		logger:    utils.GetLogger(),
	}
}

// SetRelay enables cross-node delivery.
func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	h.relay = r
	h.mu.Unlock()
}

// Subscribe registers fn for one session. Returns an unsubscribe function.
func (h *Hub) Subscribe(sessionID string, fn Listener) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.listeners[sessionID] == nil {
		h.listeners[sessionID] = make(map[uint64]Listener)
	}
	h.listeners[sessionID][id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners[sessionID], id)
			if len(h.listeners[sessionID]) == 0 {
				delete(h.listeners, sessionID)
			}
		})
	}
}

// Publish delivers ev to local subscribers and forwards it through the relay.
func (h *Hub) Publish(sessionID string, ev Event) {
	h.Deliver(sessionID, ev)

	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()
	if relay == nil {
		return
	}
	if err := relay.Forward(context.Background(), sessionID, ev); err != nil {
		h.logger.Warn("Failed to relay event", "session_id", sessionID, "event", ev.EventName(), "error", err)
	}
}

// Deliver dispatches ev to local subscribers only.
func (h *Hub) Deliver(sessionID string, ev Event) {
	h.mu.RLock()
	// Copy listeners to avoid holding lock during callbacks
	listeners := make([]Listener, 0, len(h.listeners[sessionID]))
	for _, fn := range h.listeners[sessionID] {
		listeners = append(listeners, fn)
	}
	h.mu.RUnlock()

	h.logger.Debug("Emitting event", "session_id", sessionID, "event", ev.EventName(), "listeners", len(listeners))
	for _, fn := range listeners {
		fn(ev)
	}
}

// SubscriberCount returns the number of local listeners for a session.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[sessionID])
}

// TrackConnection marks userID as connected to sessionID until the returned func is called.
func (h *Hub) TrackConnection(sessionID, userID string) func() {
	h.mu.Lock()
	if h.conns[sessionID] == nil {
		h.conns[sessionID] = make(map[string]int)
	}
	h.conns[sessionID][userID]++
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			users := h.conns[sessionID]
			users[userID]--
			if users[userID] <= 0 {
				delete(users, userID)
			}
			if len(users) == 0 {
				delete(h.conns, sessionID)
			}
		})
	}
}

// IsConnected reports whether userID has an open realtime connection on this node.
func (h *Hub) IsConnected(sessionID, userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conns[sessionID][userID] > 0
}
