package models

import "time"

// CreateSessionRequest starts a new guided conversation.
type CreateSessionRequest struct {
	Mode             Mode   `json:"mode" binding:"required"`
	Topic            string `json:"topic"`
	PreparationNotes string `json:"preparationNotes,omitempty"`
	DisplayName      string `json:"displayName,omitempty"`
}

type SubmitMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type TypingRequest struct {
	IsTyping bool `json:"isTyping"`
}

type GenerateInviteRequest struct {
	TTLHours int `json:"ttlHours,omitempty"`
}

type JoinSessionRequest struct {
	InviteCode  string  `json:"inviteCode" binding:"required"`
	DisplayName *string `json:"displayName,omitempty"`
}

// MessageView is a persisted message as returned to clients.
type MessageView struct {
	ID         string      `json:"id"`
	SessionID  string      `json:"sessionId"`
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	Stage      Stage       `json:"stage"`
	Author     *string     `json:"author,omitempty"`
	AuthorName string      `json:"authorName,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type SubmitMessageResponse struct {
	UserMessage      MessageView   `json:"userMessage"`
	AssistantMessage *MessageView  `json:"assistantMessage,omitempty"`
	SafetyAlert      *SafetyAlert  `json:"safetyAlert,omitempty"`
	Stage            Stage         `json:"stage"`
	Status           SessionStatus `json:"status"`
}

type InviteResponse struct {
	InviteCode string    `json:"inviteCode"`
	InviteURL  string    `json:"inviteUrl"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// InvitePreview describes a session behind an invite code without joining it.
type InvitePreview struct {
	Topic         string        `json:"topic"`
	InitiatorName string        `json:"initiatorName"`
	Status        SessionStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	ExpiresAt     time.Time     `json:"expiresAt"`
}

type JoinSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// ParticipantView adds computed liveness to a participant row.
type ParticipantView struct {
	UserID      string          `json:"userId"`
	Role        ParticipantRole `json:"role"`
	DisplayName string          `json:"displayName"`
	JoinedAt    time.Time       `json:"joinedAt"`
	LastSeenAt  time.Time       `json:"lastSeenAt"`
	IsActive    bool            `json:"isActive"`
	IsOnline    bool            `json:"isOnline"`
}

type ParticipantsResponse struct {
	Participants    []ParticipantView `json:"participants"`
	IsCollaborative bool              `json:"isCollaborative"`
}
