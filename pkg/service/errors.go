package service

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrNotParticipant    = errors.New("not a participant of this session")
	ErrNotInitiator      = errors.New("only the session initiator can do this")
	ErrSessionNotActive  = errors.New("session is not active")
	ErrInvalidTransition = errors.New("invalid session status transition")
	ErrInvalidMode       = errors.New("invalid session mode")
	ErrInvalidProfile    = errors.New("invalid personality profile")
	ErrStageConflict     = errors.New("session changed by a concurrent turn")

	ErrUnsupportedProvider = errors.New("unsupported model provider")

	ErrInviteInvalid    = errors.New("invalid invite code")
	ErrInviteExpired    = errors.New("invite code has expired")
	ErrMaxParticipants  = errors.New("maximum participants reached")
	ErrAlreadyInitiator = errors.New("you are already the initiator of this session")
	ErrInitiatorExists  = errors.New("session already has an initiator")
	ErrNotCollaborative = errors.New("invites are only available for collaborative sessions")
	ErrInvalidInviteTTL = errors.New("invite ttl must be between 1 and 168 hours")
)
