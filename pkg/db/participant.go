package db

import (
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
)

// Participant links a user to a session. At most one row per (session, user).
type Participant struct {
	ID          string                 `json:"id" gorm:"primaryKey;size:36"`
	SessionID   string                 `json:"sessionId" gorm:"uniqueIndex:idx_participants_session_user,priority:1;size:36;not null"`
	UserID      string                 `json:"userId" gorm:"uniqueIndex:idx_participants_session_user,priority:2;size:64;not null"`
	Role        models.ParticipantRole `json:"role" gorm:"size:20;not null"`
	DisplayName *string                `json:"displayName,omitempty" gorm:"size:100"`
	JoinedAt    time.Time              `json:"joinedAt"`
	LastSeenAt  time.Time              `json:"lastSeenAt"`
	IsActive    bool                   `json:"isActive" gorm:"not null;default:true"`
}

func (Participant) TableName() string {
	return "session_participants"
}

// Name returns the display name, falling back to the user id.
func (p *Participant) Name() string {
	if p.DisplayName != nil && *p.DisplayName != "" {
		return *p.DisplayName
	}
	return p.UserID
}
