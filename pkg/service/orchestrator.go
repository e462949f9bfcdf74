package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
	"github.com/cloudwego/eino/schema"
)

var (
	ErrGenerationFailed = errors.New("response generation failed")
	ErrEmptyUtterance   = errors.New("message content is empty")
)

// RespondRequest is one turn handed to the orchestrator.
type RespondRequest struct {
	History   []models.Turn
	Stage     models.Stage
	Utterance string
	// AuthorName prefixes the utterance in collaborative mode.
	AuthorName string
	Profile    models.PersonalityProfile
	Mode       models.Mode
}

// RespondResult is the mediator's side of a turn.
type RespondResult struct {
	Message string
	// Role is assistant for generated replies and system for fixed safety messages.
	Role        models.MessageRole
	NextStage   *models.Stage
	SafetyAlert *models.SafetyAlert
	Verdict     models.SafetyVerdict
	Signal      AdvanceSignal
}

// WelcomeRequest produces the opening message of a session.
type WelcomeRequest struct {
	Mode             models.Mode
	Profile          models.PersonalityProfile
	Topic            string
	PreparationNotes string
	ParticipantName  string
}

// Orchestrator runs one turn: safety check, prompt composition, completion, stage decision.
type Orchestrator struct {
	model  Completer
	safety *SafetyClassifier
	logger *slog.Logger
}

func NewOrchestrator(model Completer, safety *SafetyClassifier) *Orchestrator {
	return &Orchestrator{model: model, safety: safety, logger: utils.GetLogger()}
}

// Respond never advances the stage on a safety short-circuit and never retries the completion call.
func (o *Orchestrator) Respond(ctx context.Context, req RespondRequest) (*RespondResult, error) {
	if strings.TrimSpace(req.Utterance) == "" {
		return nil, ErrEmptyUtterance
	}

	verdict := o.safety.Classify(ctx, req.Utterance)
	switch {
	case verdict.RequiresCrisisResponse():
		kind := models.SafetyAlertAbuse
		if verdict.Concerns.Crisis {
			kind = models.SafetyAlertCrisis
		}
		o.logger.Warn("Safety short-circuit", "kind", kind, "stage", req.Stage)
		return &RespondResult{
			Message: CrisisResourcesMessage,
			Role:    models.MessageRoleSystem,
			SafetyAlert: &models.SafetyAlert{
				Kind:     kind,
				Concerns: verdict.Concerns,
				Reason:   verdict.Reason,
			},
			Verdict: verdict,
		}, nil
	case verdict.RequiresDeescalation():
		o.logger.Info("Escalation detected, offering de-escalation", "stage", req.Stage)
		return &RespondResult{
			Message: DeescalationMessage,
			Role:    models.MessageRoleSystem,
			Verdict: verdict,
		}, nil
	}

	history := append(append([]models.Turn(nil), req.History...), models.Turn{
		Role:       models.MessageRoleUser,
		Content:    req.Utterance,
		AuthorName: req.AuthorName,
	})

	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, schema.SystemMessage(BuildSystemInstruction(req.Mode, req.Profile, req.Stage)))
	messages = append(messages, turnsToSchema(req.Mode, history)...)

	resp, err := o.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrGenerationFailed)
	}

	decision := DecideNextStage(req.Stage, resp.Content)
	if decision.Reply == "" {
		return nil, fmt.Errorf("%w: reply contained only control tokens", ErrGenerationFailed)
	}
	result := &RespondResult{
		Message: decision.Reply,
		Role:    models.MessageRoleAssistant,
		Verdict: verdict,
		Signal:  decision.Signal,
	}
	if decision.Advanced(req.Stage) {
		next := decision.Next
		result.NextStage = &next
	}
	return result, nil
}

// Welcome generates the opening message. It always addresses the intake stage.
func (o *Orchestrator) Welcome(ctx context.Context, req WelcomeRequest) (string, error) {
	var b strings.Builder
	b.WriteString("Write a short, warm opening message for a new session")
	if req.ParticipantName != "" {
		fmt.Fprintf(&b, " with %s", req.ParticipantName)
	}
	b.WriteString(". Introduce how the conversation will work and ask the first intake question.")
	if topic := strings.TrimSpace(req.Topic); topic != "" {
		fmt.Fprintf(&b, "\nThe session topic is: %s", topic)
	}
	if notes := strings.TrimSpace(req.PreparationNotes); notes != "" {
		fmt.Fprintf(&b, "\nThe user prepared these notes beforehand; build on them rather than asking again:\n%s", notes)
	}

	resp, err := o.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(BuildSystemInstruction(req.Mode, req.Profile, models.StageIntake)),
		schema.UserMessage(b.String()),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: empty reply", ErrGenerationFailed)
	}
	text, _ := extractSignal(resp.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty reply", ErrGenerationFailed)
	}
	return text, nil
}

// BuildSystemInstruction concatenates mode prompt, personality, current stage and stage instruction.
func BuildSystemInstruction(mode models.Mode, profile models.PersonalityProfile, stage models.Stage) string {
	parts := []string{
		baseSystemPrompt(mode),
		"# Personality\n" + ComposePersonality(profile),
		"Current stage: " + string(stage),
		"# Stage Instructions\n" + stagePrompt(mode, stage),
	}
	if !stage.IsTerminal() {
		parts = append(parts, controlTokenInstructions)
	}
	return strings.Join(parts, "\n\n")
}

func turnsToSchema(mode models.Mode, turns []models.Turn) []*schema.Message {
	out := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case models.MessageRoleUser:
			content := t.Content
			if mode == models.ModeCollaborative && t.AuthorName != "" {
				content = t.AuthorName + ": " + content
			}
			out = append(out, schema.UserMessage(content))
		case models.MessageRoleAssistant, models.MessageRoleSystem:
			out = append(out, schema.AssistantMessage(t.Content, nil))
		}
	}
	return out
}
