package models

import "fmt"

type Tone string

const (
	ToneWarm         Tone = "warm"
	ToneProfessional Tone = "professional"
	ToneDirect       Tone = "direct"
	ToneGentle       Tone = "gentle"
)

func (t Tone) Valid() bool {
	switch t {
	case ToneWarm, ToneProfessional, ToneDirect, ToneGentle:
		return true
	default:
		return false
	}
}

type Formality string

const (
	FormalityCasual   Formality = "casual"
	FormalityBalanced Formality = "balanced"
	FormalityFormal   Formality = "formal"
)

func (f Formality) Valid() bool {
	switch f {
	case FormalityCasual, FormalityBalanced, FormalityFormal:
		return true
	default:
		return false
	}
}

type ResponseLength string

const (
	ResponseLengthConcise  ResponseLength = "concise"
	ResponseLengthModerate ResponseLength = "moderate"
	ResponseLengthDetailed ResponseLength = "detailed"
)

func (l ResponseLength) Valid() bool {
	switch l {
	case ResponseLengthConcise, ResponseLengthModerate, ResponseLengthDetailed:
		return true
	default:
		return false
	}
}

// PersonalityProfile shapes how the mediator talks to one user.
type PersonalityProfile struct {
	Tone            Tone           `json:"tone"`
	Formality       Formality      `json:"formality"`
	ResponseLength  ResponseLength `json:"responseLength"`
	UseEmoji        bool           `json:"useEmoji"`
	UseMetaphors    bool           `json:"useMetaphors"`
	CulturalContext *string        `json:"culturalContext,omitempty"`
}

// DefaultPersonalityProfile is applied on first use and on reset.
func DefaultPersonalityProfile() PersonalityProfile {
	return PersonalityProfile{
		Tone:           ToneWarm,
		Formality:      FormalityBalanced,
		ResponseLength: ResponseLengthModerate,
		UseEmoji:       false,
		UseMetaphors:   true,
	}
}

// Validate rejects values outside the closed enumerations.
func (p PersonalityProfile) Validate() error {
	if !p.Tone.Valid() {
		return fmt.Errorf("invalid tone %q", p.Tone)
	}
	if !p.Formality.Valid() {
		return fmt.Errorf("invalid formality %q", p.Formality)
	}
	if !p.ResponseLength.Valid() {
		return fmt.Errorf("invalid responseLength %q", p.ResponseLength)
	}
	return nil
}
