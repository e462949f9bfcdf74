package event

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Client frame names accepted from browsers.
const (
	FrameHeartbeat = "heartbeat"
)

// WSMessage is the JSON message sent over WebSocket.
type WSMessage struct {
	Event string         `json:"event"`          // Event name (e.g., "new_message")
	Data  map[string]any `json:"data,omitempty"` // Event-specific data
	TS    int64          `json:"ts"`             // Timestamp (Unix ms)
}

// ClientFrame is an inbound message from a connected participant.
type ClientFrame struct {
	Event string `json:"event"`
}

// Subscriber identifies the participant behind a connection.
type Subscriber struct {
	SessionID string
	UserID    string
	UserName  string
}

// FrameHandler receives inbound frames. It must not block for long.
type FrameHandler func(sub Subscriber, frame ClientFrame)

// WSHandler streams one session's events to a WebSocket client.
type WSHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a WebSocket handler on hub.
func NewWSHandler(hub *Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: utils.GetLogger(),
	}
}

// Serve upgrades the request and blocks until the connection ends.
// Membership must be checked by the caller before Serve.
func (h *WSHandler) Serve(c *gin.Context, sub Subscriber, onFrame FrameHandler) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "session_id", sub.SessionID, "error", err)
		return
	}
	defer conn.Close()

	untrack := h.hub.TrackConnection(sub.SessionID, sub.UserID)
	defer untrack()

	// Channel for sending events to this client
	sendCh := make(chan WSMessage, 64)
	done := make(chan struct{})

	unsubscribe := h.hub.Subscribe(sub.SessionID, func(ev Event) {
		msg := WSMessage{
			Event: ev.EventName(),
			Data:  eventToData(ev),
			TS:    time.Now().UnixMilli(),
		}
		select {
		case sendCh <- msg:
		default:
			// Drop if buffer is full
			h.logger.Warn("Dropped event, client buffer full", "session_id", sub.SessionID, "user_id", sub.UserID, "event", ev.EventName())
		}
	})
	defer unsubscribe()

	// Reader goroutine - keeps connection alive and forwards client frames
	go func() {
		defer close(done)
		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			var frame ClientFrame
			if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
				continue
			}
			if onFrame != nil {
				onFrame(sub, frame)
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	var writeMu sync.Mutex

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-done:
			return
		case <-ticker.C:
			writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				return
			}
		case msg := <-sendCh:
			writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			err := conn.WriteJSON(msg)
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// eventToData converts an Event to a map for JSON serialization.
func eventToData(ev Event) map[string]any {
	if raw, ok := ev.(RawEvent); ok {
		return raw.Data
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}
