package types

import "fmt"

// RiskStage is the lifecycle stage of a risk occurrence. Stages are ordered;
// RiskStageInactive sits outside the chain.
type RiskStage int

const (
	RiskStageInactive              RiskStage = 0
	RiskStageUnconfirmed           RiskStage = 1
	RiskStageConfirmedUnevaluated  RiskStage = 2
	RiskStageEvaluatedNotValidated RiskStage = 3
	RiskStageValidated             RiskStage = 4
	RiskStageTreating              RiskStage = 5
	RiskStageDone                  RiskStage = 6
)

// AllRiskStages returns all stages in lifecycle order
func AllRiskStages() []RiskStage {
	return []RiskStage{
		RiskStageInactive,
		RiskStageUnconfirmed,
		RiskStageConfirmedUnevaluated,
		RiskStageEvaluatedNotValidated,
		RiskStageValidated,
		RiskStageTreating,
		RiskStageDone,
	}
}

// IsValid checks if the stage is valid
func (s RiskStage) IsValid() bool {
	return s >= RiskStageInactive && s <= RiskStageDone
}

// AtLeast reports whether the stage is active and has reached other
func (s RiskStage) AtLeast(other RiskStage) bool {
	return s != RiskStageInactive && s >= other
}

// String returns the display name of the stage
func (s RiskStage) String() string {
	switch s {
	case RiskStageInactive:
		return "Inactive"
	case RiskStageUnconfirmed:
		return "Identification"
	case RiskStageConfirmedUnevaluated:
		return "Identification done"
	case RiskStageEvaluatedNotValidated:
		return "Evaluation"
	case RiskStageValidated:
		return "Evaluation done"
	case RiskStageTreating:
		return "Treatment"
	case RiskStageDone:
		return "Done"
	default:
		return fmt.Sprintf("RiskStage(%d)", int(s))
	}
}

// ParseRiskStage parses an integer into a RiskStage
func ParseRiskStage(v int) (RiskStage, error) {
	s := RiskStage(v)
	if !s.IsValid() {
		return RiskStageInactive, fmt.Errorf("invalid risk stage: %d", v)
	}
	return s, nil
}
