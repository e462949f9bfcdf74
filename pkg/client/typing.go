package client

import (
	"sort"
	"sync"
	"time"

	"github.com/bep/debounce"
)

const (
	// TypingTTL hides a typing indicator when no refresh arrives in time.
	TypingTTL = 3 * time.Second
	// TypingIdle is how long after the last keystroke a stop signal is sent.
	TypingIdle = 500 * time.Millisecond
)

// Typist is a remote participant currently shown as typing.
type Typist struct {
	UserID   string
	UserName string
}

type typingEntry struct {
	name  string
	timer *time.Timer
	gen   uint64
}

// TypingTracker keeps the set of remote typists for one view.
type TypingTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	gen      uint64
	entries  map[string]*typingEntry
	onChange func()
}

func NewTypingTracker(ttl time.Duration) *TypingTracker {
	if ttl <= 0 {
		ttl = TypingTTL
	}
	return &TypingTracker{ttl: ttl, entries: make(map[string]*typingEntry)}
}

// OnChange registers a callback run after the set of typists changes.
func (t *TypingTracker) OnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Observe records a typing signal. A start refreshes the TTL, a stop removes the entry at once.
func (t *TypingTracker) Observe(userID, userName string, isTyping bool) {
	t.mu.Lock()
	changed := false
	if e, ok := t.entries[userID]; ok {
		e.timer.Stop()
		delete(t.entries, userID)
		changed = !isTyping
	}
	if isTyping {
		t.gen++
		gen := t.gen
		t.entries[userID] = &typingEntry{
			name:  userName,
			gen:   gen,
			timer: time.AfterFunc(t.ttl, func() { t.expire(userID, gen) }),
		}
		changed = true
	}
	fn := t.onChange
	t.mu.Unlock()

	if changed && fn != nil {
		fn()
	}
}

func (t *TypingTracker) expire(userID string, gen uint64) {
	t.mu.Lock()
	e, ok := t.entries[userID]
	// A newer signal replaced this entry.
	if !ok || e.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.entries, userID)
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Typing returns the current typists ordered by name.
func (t *TypingTracker) Typing() []Typist {
	t.mu.Lock()
	out := make([]Typist, 0, len(t.entries))
	for id, e := range t.entries {
		out = append(out, Typist{UserID: id, UserName: e.name})
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UserName != out[j].UserName {
			return out[i].UserName < out[j].UserName
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// Clear drops every indicator, e.g. when the connection is lost.
func (t *TypingTracker) Clear() {
	t.mu.Lock()
	for id, e := range t.entries {
		e.timer.Stop()
		delete(t.entries, id)
	}
	t.mu.Unlock()
}

// TypingSender turns keystrokes into start/stop signals for the local participant.
// One start is sent per burst of typing, and a stop follows TypingIdle after the last keystroke.
type TypingSender struct {
	mu        sync.Mutex
	typing    bool
	send      func(isTyping bool)
	debounced func(f func())
}

// NewTypingSender calls send for each transition. send must not call back into the sender.
func NewTypingSender(idle time.Duration, send func(isTyping bool)) *TypingSender {
	if idle <= 0 {
		idle = TypingIdle
	}
	return &TypingSender{send: send, debounced: debounce.New(idle)}
}

// Keystroke marks local input activity.
func (s *TypingSender) Keystroke() {
	s.mu.Lock()
	if !s.typing {
		s.typing = true
		s.send(true)
	}
	s.mu.Unlock()
	s.debounced(s.stop)
}

// Submit sends a stop immediately, e.g. when the message is sent.
func (s *TypingSender) Submit() {
	s.stop()
}

// Typing reports whether a start has been sent without a matching stop.
func (s *TypingSender) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

func (s *TypingSender) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.typing {
		s.typing = false
		s.send(false)
	}
}
