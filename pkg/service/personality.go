package service

import (
	"fmt"
	"strings"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
)

// ComposePersonality renders a profile as mediator instructions.
// Identical profiles always yield byte-identical text.
func ComposePersonality(p models.PersonalityProfile) string {
	sections := []string{
		"## Communication Style\n" + toneInstruction(p.Tone),
		"## Language Formality\n" + formalityInstruction(p.Formality),
		"## Response Length\n" + lengthInstruction(p.ResponseLength),
		"## Emoji Usage\n" + emojiInstruction(p.UseEmoji),
		"## Metaphors and Analogies\n" + metaphorInstruction(p.UseMetaphors),
	}
	if p.CulturalContext != nil {
		if strings.TrimSpace(*p.CulturalContext) != "" {
			sections = append(sections, "## Cultural Context\n"+culturalInstruction(*p.CulturalContext))
		}
	}
	return strings.Join(sections, "\n\n")
}

func toneInstruction(t models.Tone) string {
	switch t {
	case models.ToneWarm:
		return "Be warm and caring. Show empathy openly and acknowledge emotions before anything else."
	case models.ToneProfessional:
		return "Be calm and professional. Stay supportive while keeping a clear, structured, neutral manner."
	case models.ToneDirect:
		return "Be direct and clear. Name what you notice plainly and keep the conversation focused, while staying respectful."
	case models.ToneGentle:
		return "Be gentle and patient. Go slowly, use soft phrasing, and give plenty of room for difficult feelings."
	default:
		return toneInstruction(models.ToneWarm)
	}
}

func formalityInstruction(f models.Formality) string {
	switch f {
	case models.FormalityCasual:
		return "Use casual, everyday language, the way a trusted friend would talk."
	case models.FormalityBalanced:
		return "Use friendly but polished language; avoid slang and jargon."
	case models.FormalityFormal:
		return "Use formal, respectful language and complete sentences."
	default:
		return formalityInstruction(models.FormalityBalanced)
	}
}

func lengthInstruction(l models.ResponseLength) string {
	switch l {
	case models.ResponseLengthConcise:
		return "Keep responses brief: two or three sentences at most."
	case models.ResponseLengthModerate:
		return "Keep responses moderate: one short paragraph, enough to reflect and ask one question."
	case models.ResponseLengthDetailed:
		return "Give thorough responses with fuller reflection and explanation, while still asking only one question."
	default:
		return lengthInstruction(models.ResponseLengthModerate)
	}
}

func emojiInstruction(use bool) string {
	if use {
		return "You may use an occasional emoji to convey warmth, never more than one per message."
	}
	return "Do not use emoji."
}

func metaphorInstruction(use bool) string {
	if use {
		return "Use simple metaphors and analogies when they make a feeling or need easier to grasp."
	}
	return "Avoid metaphors and analogies; speak literally."
}

func culturalInstruction(ctx string) string {
	return fmt.Sprintf("The user describes their cultural context as: \"%s\". Be mindful of it when discussing family, roles, directness and conflict.", ctx)
}
