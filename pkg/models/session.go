package models

import (
	"fmt"
	"time"
)

// Mode is whether one or two people take part in the live conversation.
type Mode string

const (
	ModeSolo          Mode = "solo"
	ModeCollaborative Mode = "collaborative"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeSolo, ModeCollaborative:
		return true
	default:
		return false
	}
}

func ParseMode(v string) (Mode, error) {
	m := Mode(v)
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q", v)
	}
	return m, nil
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusActive, SessionStatusPaused, SessionStatusCompleted, SessionStatusAbandoned:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusAbandoned:
		return true
	case SessionStatusActive, SessionStatusPaused:
		return false
	default:
		return false
	}
}

// CanTransition reports whether an explicit user action may move a session from s to next.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	switch s {
	case SessionStatusActive:
		return next == SessionStatusPaused || next == SessionStatusAbandoned
	case SessionStatusPaused:
		return next == SessionStatusActive || next == SessionStatusAbandoned
	case SessionStatusCompleted, SessionStatusAbandoned:
		return false
	default:
		return false
	}
}

// MessageRole identifies who produced a message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

func (r MessageRole) Valid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return true
	default:
		return false
	}
}

// ParticipantRole is a participant's position in a session.
type ParticipantRole string

const (
	ParticipantRoleInitiator ParticipantRole = "initiator"
	ParticipantRolePartner   ParticipantRole = "partner"
)

func (r ParticipantRole) Valid() bool {
	switch r {
	case ParticipantRoleInitiator, ParticipantRolePartner:
		return true
	default:
		return false
	}
}

// Turn is one entry of conversation history handed to the orchestrator.
type Turn struct {
	Role       MessageRole
	Content    string
	AuthorName string
}

// MaxParticipants is the participant limit of a session.
const MaxParticipants = 2

// DefaultPresenceWindow is how long after the last heartbeat a participant counts as online.
const DefaultPresenceWindow = 2 * time.Minute
