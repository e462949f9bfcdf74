package service

import (
	"strings"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
)

// Control tokens the mediator appends to every reply.
const (
	AdvanceToken = "[[ADVANCE]]"
	StayToken    = "[[STAY]]"
)

// progressPhrases are matched case-insensitively when the reply carries no control token.
var progressPhrases = []string{
	"thank you for sharing",
	"let's move on",
	"summarize",
	"agreement",
	"conclude",
	"person b",
	"next step",
}

// AdvanceSignal records why a stage decision was made.
type AdvanceSignal int

const (
	SignalNone AdvanceSignal = iota
	SignalToken
	SignalHold
	SignalPhrase
)

func (s AdvanceSignal) String() string {
	switch s {
	case SignalNone:
		return "none"
	case SignalToken:
		return "token"
	case SignalHold:
		return "hold"
	case SignalPhrase:
		return "phrase"
	default:
		return "unknown"
	}
}

// StageDecision is the outcome of inspecting one mediator reply.
type StageDecision struct {
	Next   models.Stage
	Signal AdvanceSignal
	// Reply is the reply text with control tokens removed.
	Reply string
}

// Advanced reports whether the decision moves past current.
func (d StageDecision) Advanced(current models.Stage) bool {
	return d.Next != current
}

// DecideNextStage returns the stage for the next turn given the mediator's reply.
// The stage moves by at most one step and never leaves the terminal stage.
func DecideNextStage(current models.Stage, reply string) StageDecision {
	cleaned, signal := extractSignal(reply)
	d := StageDecision{Next: current, Signal: signal, Reply: cleaned}

	if current.IsTerminal() || !current.Valid() {
		return d
	}

	switch signal {
	case SignalToken:
		d.Next = current.Next()
	case SignalHold:
	case SignalNone, SignalPhrase:
		if matchesProgressPhrase(cleaned) {
			d.Signal = SignalPhrase
			d.Next = current.Next()
		}
	}
	return d
}

// extractSignal strips control tokens. The last token in the text wins.
func extractSignal(reply string) (string, AdvanceSignal) {
	advance := strings.LastIndex(reply, AdvanceToken)
	stay := strings.LastIndex(reply, StayToken)

	signal := SignalNone
	switch {
	case advance < 0 && stay < 0:
	case advance > stay:
		signal = SignalToken
	default:
		signal = SignalHold
	}

	cleaned := strings.ReplaceAll(reply, AdvanceToken, "")
	cleaned = strings.ReplaceAll(cleaned, StayToken, "")
	return strings.TrimSpace(cleaned), signal
}

func matchesProgressPhrase(text string) bool {
	lower := strings.ToLower(text)
	// Typographic apostrophes are common in model output.
	lower = strings.ReplaceAll(lower, "’", "'")
	for _, p := range progressPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
