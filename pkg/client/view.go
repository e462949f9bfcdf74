package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/event"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
	"github.com/gorilla/websocket"
)

const (
	heartbeatInterval = 30 * time.Second
	minReconnectDelay = time.Second
	maxReconnectDelay = 30 * time.Second
)

// Config identifies the participant and the server a view talks to.
type Config struct {
	BaseURL   string // e.g. http://127.0.0.1:8088/api
	SessionID string
	UserID    string
	UserName  string

	HTTPClient *http.Client
	Dialer     *websocket.Dialer
	TypingTTL  time.Duration
	TypingIdle time.Duration
}

// SessionView is one participant's live view of a session.
// It subscribes to realtime events first and then fetches the full history,
// so nothing published in between is lost; duplicates are dropped by the timeline.
type SessionView struct {
	cfg      Config
	http     *http.Client
	dialer   *websocket.Dialer
	timeline *Timeline
	typing   *TypingTracker
	sender   *TypingSender
	logger   *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	live    bool
	done    chan struct{}
}

func NewSessionView(cfg Config) *SessionView {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	v := &SessionView{
		cfg:      cfg,
		http:     cfg.HTTPClient,
		dialer:   cfg.Dialer,
		timeline: NewTimeline(),
		typing:   NewTypingTracker(cfg.TypingTTL),
		logger:   utils.GetLogger(),
	}
	if v.http == nil {
		v.http = &http.Client{Timeout: 2 * time.Minute}
	}
	if v.dialer == nil {
		v.dialer = websocket.DefaultDialer
	}
	v.sender = NewTypingSender(cfg.TypingIdle, v.sendTyping)
	return v
}

// Connect opens the realtime stream and reconciles the timeline with the server history.
func (v *SessionView) Connect(ctx context.Context) error {
	conn, _, err := v.dialer.DialContext(ctx, v.wsURL(), v.headers())
	if err != nil {
		return fmt.Errorf("dial session stream: %w", err)
	}

	history, err := v.fetchHistory(ctx)
	if err != nil {
		conn.Close()
		return err
	}
	v.timeline.Reset(history)

	done := make(chan struct{})
	v.mu.Lock()
	v.conn = conn
	v.done = done
	v.live = true
	v.mu.Unlock()

	go v.readLoop(conn, done)
	go v.heartbeatLoop(conn, done)
	return nil
}

// Run keeps the view connected until ctx is done, reconnecting with backoff.
func (v *SessionView) Run(ctx context.Context) error {
	delay := minReconnectDelay
	for {
		if err := v.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			v.logger.Warn("Session view connect failed", "session_id", v.cfg.SessionID, "error", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = min(delay*2, maxReconnectDelay)
			continue
		}
		delay = minReconnectDelay

		v.mu.Lock()
		done := v.done
		v.mu.Unlock()
		select {
		case <-ctx.Done():
			v.Close()
			return ctx.Err()
		case <-done:
		}
	}
}

// Close ends the realtime stream.
func (v *SessionView) Close() {
	v.mu.Lock()
	conn := v.conn
	v.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// Live reports whether realtime events are currently being received.
func (v *SessionView) Live() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.live
}

func (v *SessionView) Messages() []models.MessageView { return v.timeline.Messages() }

func (v *SessionView) Typing() []Typist { return v.typing.Typing() }

// OnTypingChange registers a callback for changes of the remote typists.
func (v *SessionView) OnTypingChange(fn func()) { v.typing.OnChange(fn) }

// Keystroke reports local input so other participants see a typing indicator.
func (v *SessionView) Keystroke() { v.sender.Keystroke() }

// Send submits an utterance and applies both resulting messages.
func (v *SessionView) Send(ctx context.Context, content string) (*models.SubmitMessageResponse, error) {
	v.sender.Submit()

	body, err := json.Marshal(models.SubmitMessageRequest{Content: content})
	if err != nil {
		return nil, err
	}
	var out models.SubmitMessageResponse
	if err := v.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(v.cfg.SessionID)+"/messages", body, &out); err != nil {
		return nil, err
	}
	v.timeline.Apply(out.UserMessage)
	if out.AssistantMessage != nil {
		v.timeline.Apply(*out.AssistantMessage)
	}
	return &out, nil
}

func (v *SessionView) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		v.mu.Lock()
		if v.conn == conn {
			v.live = false
		}
		v.mu.Unlock()
		v.typing.Clear()
		close(done)
	}()

	for {
		var msg event.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			v.logger.Debug("Session stream ended", "session_id", v.cfg.SessionID, "error", err)
			return
		}
		v.handle(msg)
	}
}

func (v *SessionView) handle(msg event.WSMessage) {
	switch msg.Event {
	case event.NewMessage:
		var m models.MessageView
		if err := decodeData(msg.Data, &m); err != nil {
			v.logger.Warn("Invalid message event", "error", err)
			return
		}
		v.timeline.Apply(m)
		if m.Author != nil {
			// A posted message ends that author's typing indicator.
			v.typing.Observe(*m.Author, m.AuthorName, false)
		}
	case event.TypingStart, event.TypingStop:
		var t event.TypingEvent
		if err := decodeData(msg.Data, &t); err != nil {
			v.logger.Warn("Invalid typing event", "error", err)
			return
		}
		if t.UserID == v.cfg.UserID {
			return
		}
		v.typing.Observe(t.UserID, t.UserName, msg.Event == event.TypingStart)
	}
}

func (v *SessionView) heartbeatLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := v.writeFrame(conn, event.FrameHeartbeat); err != nil {
				return
			}
		}
	}
}

func (v *SessionView) sendTyping(isTyping bool) {
	v.mu.Lock()
	conn, live := v.conn, v.live
	v.mu.Unlock()
	if conn == nil || !live {
		return
	}
	name := event.TypingStop
	if isTyping {
		name = event.TypingStart
	}
	if err := v.writeFrame(conn, name); err != nil {
		v.logger.Debug("Failed to send typing frame", "session_id", v.cfg.SessionID, "error", err)
	}
}

func (v *SessionView) writeFrame(conn *websocket.Conn, name string) error {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteJSON(event.ClientFrame{Event: name})
}

func (v *SessionView) fetchHistory(ctx context.Context) ([]models.MessageView, error) {
	var history []models.MessageView
	if err := v.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(v.cfg.SessionID)+"/messages", nil, &history); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return history, nil
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (v *SessionView) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, v.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header = v.headers()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := v.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (v *SessionView) headers() http.Header {
	h := http.Header{}
	h.Set("X-User-ID", v.cfg.UserID)
	if v.cfg.UserName != "" {
		h.Set("X-User-Name", v.cfg.UserName)
	}
	return h
}

func (v *SessionView) wsURL() string {
	base := v.cfg.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	q := url.Values{}
	q.Set("user_id", v.cfg.UserID)
	if v.cfg.UserName != "" {
		q.Set("user_name", v.cfg.UserName)
	}
	return base + "/sessions/" + url.PathEscape(v.cfg.SessionID) + "/ws?" + q.Encode()
}

func decodeData(data map[string]any, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
