package db

import (
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
)

// Message is immutable once created. Seq orders messages within a session.
type Message struct {
	ID        string             `json:"id" gorm:"primaryKey;size:36"`
	SessionID string             `json:"sessionId" gorm:"index:idx_messages_session_seq,priority:1;size:36;not null"`
	Seq       int64              `json:"seq" gorm:"index:idx_messages_session_seq,priority:2;not null"`
	Role      models.MessageRole `json:"role" gorm:"size:20;not null"`
	Content   string             `json:"content" gorm:"type:text;not null"`
	Stage     models.Stage       `json:"stage" gorm:"size:40;not null"`
	AuthorID  *string            `json:"author,omitempty" gorm:"size:64"` // nil for assistant and system
	CreatedAt time.Time          `json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
