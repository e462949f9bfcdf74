package event

import "time"

// Event names on the wire.
const (
	NewMessage  = "new_message"
	TypingStart = "typing_start"
	TypingStop  = "typing_stop"
)

// NewMessageEvent is published once per persisted message.
type NewMessageEvent struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Stage      string    `json:"stage,omitempty"`
	Author     *string   `json:"author,omitempty"`
	AuthorName string    `json:"authorName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (e NewMessageEvent) EventName() string { return NewMessage }

// TypingEvent announces that a participant started or stopped typing.
type TypingEvent struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	IsTyping bool   `json:"isTyping"`
}

func (e TypingEvent) EventName() string {
	if e.IsTyping {
		return TypingStart
	}
	return TypingStop
}

// RawEvent carries an already-encoded event received from another node.
type RawEvent struct {
	Name string
	Data map[string]any
}

func (e RawEvent) EventName() string { return e.Name }
