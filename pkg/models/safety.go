package models

// SafetyConcerns flags each risk category independently.
type SafetyConcerns struct {
	Crisis     bool `json:"crisis"`
	Abuse      bool `json:"abuse"`
	Escalation bool `json:"escalation"`
}

// SafetyVerdict is the classification of a single utterance.
type SafetyVerdict struct {
	Safe     bool           `json:"safe"`
	Concerns SafetyConcerns `json:"concerns"`
	Reason   string         `json:"reason,omitempty"`
}

// SafeVerdict is returned whenever classification cannot be completed.
func SafeVerdict() SafetyVerdict {
	return SafetyVerdict{Safe: true}
}

// RequiresCrisisResponse reports whether crisis resources must replace the mediated reply.
func (v SafetyVerdict) RequiresCrisisResponse() bool {
	return v.Concerns.Crisis || v.Concerns.Abuse
}

// RequiresDeescalation reports whether only escalation was flagged.
func (v SafetyVerdict) RequiresDeescalation() bool {
	return v.Concerns.Escalation && !v.RequiresCrisisResponse()
}

// SafetyAlertKind names the concern that triggered an alert.
type SafetyAlertKind string

const (
	SafetyAlertCrisis SafetyAlertKind = "crisis"
	SafetyAlertAbuse  SafetyAlertKind = "abuse"
)

// SafetyAlert is attached to a turn that was short-circuited with crisis resources.
type SafetyAlert struct {
	Kind     SafetyAlertKind `json:"kind"`
	Concerns SafetyConcerns  `json:"concerns"`
	Reason   string          `json:"reason,omitempty"`
}
