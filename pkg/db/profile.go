package db

import (
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
)

// PersonalityProfile is the per-user mediator configuration. Rows are never deleted.
type PersonalityProfile struct {
	ID              string                `json:"id" gorm:"primaryKey;size:36"`
	UserID          string                `json:"userId" gorm:"uniqueIndex;size:64;not null"`
	Tone            models.Tone           `json:"tone" gorm:"size:20;not null"`
	Formality       models.Formality      `json:"formality" gorm:"size:20;not null"`
	ResponseLength  models.ResponseLength `json:"responseLength" gorm:"size:20;not null"`
	UseEmoji        bool                  `json:"useEmoji"`
	UseMetaphors    bool                  `json:"useMetaphors"`
	CulturalContext *string               `json:"culturalContext,omitempty" gorm:"type:text"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

func (PersonalityProfile) TableName() string {
	return "personality_profiles"
}

// Profile converts the row to its domain value.
func (p *PersonalityProfile) Profile() models.PersonalityProfile {
	return models.PersonalityProfile{
		Tone:            p.Tone,
		Formality:       p.Formality,
		ResponseLength:  p.ResponseLength,
		UseEmoji:        p.UseEmoji,
		UseMetaphors:    p.UseMetaphors,
		CulturalContext: p.CulturalContext,
	}
}

// Apply copies a domain profile onto the row.
func (p *PersonalityProfile) Apply(v models.PersonalityProfile) {
	p.Tone = v.Tone
	p.Formality = v.Formality
	p.ResponseLength = v.ResponseLength
	p.UseEmoji = v.UseEmoji
	p.UseMetaphors = v.UseMetaphors
	p.CulturalContext = v.CulturalContext
}
