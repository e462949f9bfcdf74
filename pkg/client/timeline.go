// Package client holds the participant-side state of one session view.
package client

import (
	"sync"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
)

// Timeline is the ordered message list of a single view.
// Each message id is applied at most once, so a message that arrives both
// in a history fetch and as a realtime event is shown once.
type Timeline struct {
	mu   sync.RWMutex
	msgs []models.MessageView
	seen map[string]struct{}
}

func NewTimeline() *Timeline {
	return &Timeline{seen: make(map[string]struct{})}
}

// Reset replaces the list with a freshly fetched history.
// Messages already applied but missing from history are kept at the end.
func (t *Timeline) Reset(history []models.MessageView) {
	t.mu.Lock()
	defer t.mu.Unlock()

	inHistory := make(map[string]struct{}, len(history))
	msgs := make([]models.MessageView, 0, len(history)+len(t.msgs))
	for _, m := range history {
		if _, dup := inHistory[m.ID]; dup {
			continue
		}
		inHistory[m.ID] = struct{}{}
		msgs = append(msgs, m)
	}
	for _, m := range t.msgs {
		if _, ok := inHistory[m.ID]; !ok {
			inHistory[m.ID] = struct{}{}
			msgs = append(msgs, m)
		}
	}
	t.msgs = msgs
	t.seen = inHistory
}

// Apply appends m in arrival order. It returns false for an id already shown.
func (t *Timeline) Apply(m models.MessageView) bool {
	if m.ID == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[m.ID]; ok {
		return false
	}
	t.seen[m.ID] = struct{}{}
	t.msgs = append(t.msgs, m)
	return true
}

// Messages returns a copy of the list.
func (t *Timeline) Messages() []models.MessageView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.MessageView(nil), t.msgs...)
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.msgs)
}
