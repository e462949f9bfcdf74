package db

import (
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
)

// Session is one guided conversation.
type Session struct {
	ID               string               `json:"id" gorm:"primaryKey;size:36"`
	InitiatorID      string               `json:"initiatorId" gorm:"index;size:64;not null"`
	Topic            string               `json:"topic" gorm:"size:200"`
	Mode             models.Mode          `json:"mode" gorm:"size:20;not null"`
	Stage            models.Stage         `json:"stage" gorm:"size:40;not null"`
	Status           models.SessionStatus `json:"status" gorm:"size:20;not null;index"`
	CurrentSpeakerID *string              `json:"currentSpeaker,omitempty" gorm:"size:64"`
	InviteCode       *string              `json:"inviteCode,omitempty" gorm:"uniqueIndex;size:16"`
	InviteExpiresAt  *time.Time           `json:"inviteExpiresAt,omitempty"`
	PreparationNotes string               `json:"preparationNotes,omitempty" gorm:"type:text"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

func (Session) TableName() string {
	return "sessions"
}
