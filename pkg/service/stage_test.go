package service

import (
	"testing"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
)

func TestDecideNextStage(t *testing.T) {
	tests := []struct {
		name       string
		current    models.Stage
		reply      string
		wantNext   models.Stage
		wantSignal AdvanceSignal
		wantReply  string
	}{
		{
			name:       "advance token",
			current:    models.StageIntake,
			reply:      "Got it. What did you see happen? [[ADVANCE]]",
			wantNext:   models.StagePersonAObservation,
			wantSignal: SignalToken,
			wantReply:  "Got it. What did you see happen?",
		},
		{
			name:       "stay token overrides progress phrase",
			current:    models.StageIntake,
			reply:      "Thank you for sharing. Can you say more? [[STAY]]",
			wantNext:   models.StageIntake,
			wantSignal: SignalHold,
			wantReply:  "Thank you for sharing. Can you say more?",
		},
		{
			name:       "last token wins",
			current:    models.StagePersonAFeeling,
			reply:      "[[STAY]] Let's continue. [[ADVANCE]]",
			wantNext:   models.StagePersonANeed,
			wantSignal: SignalToken,
			wantReply:  "Let's continue.",
		},
		{
			name:       "progress phrase fallback",
			current:    models.StageIntake,
			reply:      "Thank you for sharing, let's move on to what you observed.",
			wantNext:   models.StagePersonAObservation,
			wantSignal: SignalPhrase,
			wantReply:  "Thank you for sharing, let's move on to what you observed.",
		},
		{
			name:       "phrase match is case insensitive",
			current:    models.StageReflectionA,
			reply:      "Now let's hear from PERSON B.",
			wantNext:   models.StagePersonBObservation,
			wantSignal: SignalPhrase,
			wantReply:  "Now let's hear from PERSON B.",
		},
		{
			name:       "typographic apostrophe",
			current:    models.StagePersonANeed,
			reply:      "Let’s move on.",
			wantNext:   models.StagePersonARequest,
			wantSignal: SignalPhrase,
			wantReply:  "Let’s move on.",
		},
		{
			name:       "no signal stays",
			current:    models.StagePersonANeed,
			reply:      "What do you need most here?",
			wantNext:   models.StagePersonANeed,
			wantSignal: SignalNone,
			wantReply:  "What do you need most here?",
		},
		{
			name:       "terminal stage never moves",
			current:    models.StageComplete,
			reply:      "To conclude, thank you for sharing. [[ADVANCE]]",
			wantNext:   models.StageComplete,
			wantSignal: SignalToken,
			wantReply:  "To conclude, thank you for sharing.",
		},
		{
			name:       "agreement reaches complete",
			current:    models.StageAgreement,
			reply:      "You have reached an agreement.",
			wantNext:   models.StageComplete,
			wantSignal: SignalPhrase,
			wantReply:  "You have reached an agreement.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecideNextStage(tt.current, tt.reply)
			if got.Next != tt.wantNext {
				t.Fatalf("DecideNextStage().Next = %s, want %s", got.Next, tt.wantNext)
			}
			if got.Signal != tt.wantSignal {
				t.Fatalf("DecideNextStage().Signal = %s, want %s", got.Signal, tt.wantSignal)
			}
			if got.Reply != tt.wantReply {
				t.Fatalf("DecideNextStage().Reply = %q, want %q", got.Reply, tt.wantReply)
			}
		})
	}
}

func TestDecideNextStage_MonotonicAndSingleStep(t *testing.T) {
	replies := []string{
		"Let's move on. Thank you for sharing. Next step: summarize.",
		"[[ADVANCE]]",
		"Hmm.",
		"[[STAY]]",
		"We have an agreement, let's conclude.",
	}
	stage := models.StageIntake
	for i := 0; i < 100; i++ {
		got := DecideNextStage(stage, replies[i%len(replies)])
		if got.Next.Before(stage) {
			t.Fatalf("stage regressed from %s to %s", stage, got.Next)
		}
		if got.Next.Index()-stage.Index() > 1 {
			t.Fatalf("stage skipped from %s to %s", stage, got.Next)
		}
		if stage.IsTerminal() && got.Next != stage {
			t.Fatalf("terminal stage changed to %s", got.Next)
		}
		stage = got.Next
	}
	if stage != models.StageComplete {
		t.Fatalf("final stage = %s, want %s", stage, models.StageComplete)
	}
}

func TestStagePromptsCoverEveryStage(t *testing.T) {
	for _, mode := range []models.Mode{models.ModeSolo, models.ModeCollaborative} {
		seen := map[string]models.Stage{}
		for _, st := range models.Stages {
			p := stagePrompt(mode, st)
			if p == "" {
				t.Fatalf("stagePrompt(%s, %s) is empty", mode, st)
			}
			if other, dup := seen[p]; dup {
				t.Fatalf("stagePrompt(%s) reused for %s and %s", mode, other, st)
			}
			seen[p] = st
		}
	}
	if stagePrompt(models.ModeCollaborative, models.StagePersonAObservation) == stagePrompt(models.ModeSolo, models.StagePersonAObservation) {
		t.Fatalf("collaborative and solo prompts should differ")
	}
}
