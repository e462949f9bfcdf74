package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Completer is the slice of an eino chat model the engine depends on.
type Completer interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.Message, error)
}

// CrisisResourcesMessage replaces the mediated reply when crisis or abuse is detected.
const CrisisResourcesMessage = `I'm really glad you told me this, and I want to pause our conversation because your safety matters most right now.

If you are in immediate danger, please call your local emergency number (911 in the US) right away.

You don't have to go through this alone:
- 988 Suicide & Crisis Lifeline (US): call or text 988
- Crisis Text Line: text HOME to 741741
- National Domestic Violence Hotline (US): 1-800-799-7233, or text START to 88788
- International Association for Suicide Prevention: https://www.iasp.info/resources/Crisis_Centres/

A trained counselor can help in ways this guided conversation cannot. When you feel safe and ready, you are welcome to come back.`

// DeescalationMessage replaces the mediated reply when only escalation is detected.
const DeescalationMessage = `It sounds like things are getting really heated right now, and that's understandable when something matters this much.

Before we continue, would one of these help?
1. Take a short break: step away for a few minutes, breathe, and come back when you're ready.
2. Rephrase: try saying what you need without threats or blame, and I'll help you find the words.
3. Change the topic for now: we can set this part aside and return to it later.

Which would you prefer?`

const safetySystemPrompt = `You are a safety classifier for a conflict-mediation conversation.
Classify the user's message for three independent concerns:
- crisis: suicidal ideation, self-harm, or a wish to die
- abuse: physical violence, coercive control, or fear of their partner
- escalation: threats, refusal to engage, or extreme hostility
Respond with JSON only, no prose, in exactly this shape:
{"safe": true, "concerns": {"crisis": false, "abuse": false, "escalation": false}, "reason": ""}
"safe" must be false if any concern is true. "reason" is a short explanation when unsafe.`

// SafetyClassifier inspects a single utterance. It holds no per-session state.
type SafetyClassifier struct {
	model  Completer
	logger *slog.Logger
}

func NewSafetyClassifier(model Completer) *SafetyClassifier {
	return &SafetyClassifier{model: model, logger: utils.GetLogger()}
}

// Classify never returns an error: any call or parse failure yields a safe verdict.
func (c *SafetyClassifier) Classify(ctx context.Context, utterance string) models.SafetyVerdict {
	if c == nil || c.model == nil {
		return models.SafeVerdict()
	}
	resp, err := c.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(safetySystemPrompt),
		schema.UserMessage(utterance),
	})
	if err != nil {
		c.logger.Warn("Safety classification failed, continuing as safe", "error", err)
		return models.SafeVerdict()
	}
	if resp == nil {
		c.logger.Warn("Safety classification returned no message, continuing as safe")
		return models.SafeVerdict()
	}
	verdict, err := parseVerdict(resp.Content)
	if err != nil {
		c.logger.Warn("Safety classification unparseable, continuing as safe", "error", err)
		return models.SafeVerdict()
	}
	return verdict
}

type verdictPayload struct {
	Safe     *bool `json:"safe"`
	Concerns *struct {
		Crisis     bool `json:"crisis"`
		Abuse      bool `json:"abuse"`
		Escalation bool `json:"escalation"`
	} `json:"concerns"`
	Reason string `json:"reason"`
}

var errNoJSONObject = errors.New("no json object in classifier output")

// parseVerdict accepts the JSON object optionally wrapped in prose or code fences.
func parseVerdict(raw string) (models.SafetyVerdict, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return models.SafetyVerdict{}, errNoJSONObject
	}
	var p verdictPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &p); err != nil {
		return models.SafetyVerdict{}, err
	}
	if p.Safe == nil || p.Concerns == nil {
		return models.SafetyVerdict{}, errors.New("classifier output missing safe or concerns")
	}
	v := models.SafetyVerdict{
		Concerns: models.SafetyConcerns{
			Crisis:     p.Concerns.Crisis,
			Abuse:      p.Concerns.Abuse,
			Escalation: p.Concerns.Escalation,
		},
		Reason: strings.TrimSpace(p.Reason),
	}
	// Concern flags are authoritative over the summary field.
	v.Safe = *p.Safe && !(v.Concerns.Crisis || v.Concerns.Abuse || v.Concerns.Escalation)
	return v, nil
}
