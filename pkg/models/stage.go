package models

import "fmt"

// Stage is one step of the guided conversation protocol.
type Stage string

const (
	StageIntake             Stage = "intake"
	StagePersonAObservation Stage = "person_a_observation"
	StagePersonAFeeling     Stage = "person_a_feeling"
	StagePersonANeed        Stage = "person_a_need"
	StagePersonARequest     Stage = "person_a_request"
	StageReflectionA        Stage = "reflection_a"
	StagePersonBObservation Stage = "person_b_observation"
	StagePersonBFeeling     Stage = "person_b_feeling"
	StagePersonBNeed        Stage = "person_b_need"
	StagePersonBRequest     Stage = "person_b_request"
	StageReflectionB        Stage = "reflection_b"
	StageCommonGround       Stage = "common_ground"
	StageAgreement          Stage = "agreement"
	StageComplete           Stage = "complete"
)

// Stages lists every stage in protocol order.
var Stages = []Stage{
	StageIntake,
	StagePersonAObservation,
	StagePersonAFeeling,
	StagePersonANeed,
	StagePersonARequest,
	StageReflectionA,
	StagePersonBObservation,
	StagePersonBFeeling,
	StagePersonBNeed,
	StagePersonBRequest,
	StageReflectionB,
	StageCommonGround,
	StageAgreement,
	StageComplete,
}

// Index returns the position of s in protocol order, or -1 for unknown values.
func (s Stage) Index() int {
	switch s {
	case StageIntake:
		return 0
	case StagePersonAObservation:
		return 1
	case StagePersonAFeeling:
		return 2
	case StagePersonANeed:
		return 3
	case StagePersonARequest:
		return 4
	case StageReflectionA:
		return 5
	case StagePersonBObservation:
		return 6
	case StagePersonBFeeling:
		return 7
	case StagePersonBNeed:
		return 8
	case StagePersonBRequest:
		return 9
	case StageReflectionB:
		return 10
	case StageCommonGround:
		return 11
	case StageAgreement:
		return 12
	case StageComplete:
		return 13
	default:
		return -1
	}
}

func (s Stage) Valid() bool { return s.Index() >= 0 }

func (s Stage) IsTerminal() bool { return s == StageComplete }

// Next returns the following stage. The terminal stage and unknown values return themselves.
func (s Stage) Next() Stage {
	i := s.Index()
	if i < 0 || s.IsTerminal() {
		return s
	}
	return Stages[i+1]
}

// Before reports whether s comes strictly before other.
func (s Stage) Before(other Stage) bool {
	return s.Index() < other.Index()
}

// Speaker returns which participant the stage addresses.
func (s Stage) Speaker() ParticipantRole {
	switch s {
	case StagePersonAObservation, StagePersonAFeeling, StagePersonANeed, StagePersonARequest:
		return ParticipantRoleInitiator
	case StagePersonBObservation, StagePersonBFeeling, StagePersonBNeed, StagePersonBRequest:
		return ParticipantRolePartner
	case StageIntake, StageReflectionA, StageReflectionB, StageCommonGround, StageAgreement, StageComplete:
		return ""
	default:
		return ""
	}
}

func ParseStage(v string) (Stage, error) {
	s := Stage(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", v)
	}
	return s, nil
}
