package types

import "fmt"

// RiskKind distinguishes threats from opportunities
type RiskKind string

const (
	RiskKindThreat      RiskKind = "T"
	RiskKindOpportunity RiskKind = "O"
)

// AllRiskKinds returns all valid risk kinds
func AllRiskKinds() []RiskKind {
	return []RiskKind{
		RiskKindThreat,
		RiskKindOpportunity,
	}
}

// IsValid checks if the risk kind is valid
func (k RiskKind) IsValid() bool {
	switch k {
	case RiskKindThreat, RiskKindOpportunity:
		return true
	default:
		return false
	}
}

// Label returns the display name of the risk kind
func (k RiskKind) Label() string {
	switch k {
	case RiskKindThreat:
		return "Threat"
	case RiskKindOpportunity:
		return "Opportunity"
	default:
		return ""
	}
}

// String returns the string representation of the risk kind
func (k RiskKind) String() string {
	return string(k)
}

// ParseRiskKind parses a string into a RiskKind
func ParseRiskKind(s string) (RiskKind, error) {
	kind := RiskKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid risk kind: %s", s)
	}
	return kind, nil
}

// Criterion names one of the three scoring criteria. A treatment subtask
// targets exactly one of them.
type Criterion string

const (
	CriterionDetectability Criterion = "D"
	CriterionOccurrence    Criterion = "O"
	CriterionSeverity      Criterion = "S"
)

// AllCriteria returns all valid criteria
func AllCriteria() []Criterion {
	return []Criterion{
		CriterionDetectability,
		CriterionOccurrence,
		CriterionSeverity,
	}
}

// IsValid checks if the criterion is valid
func (c Criterion) IsValid() bool {
	switch c {
	case CriterionDetectability, CriterionOccurrence, CriterionSeverity:
		return true
	default:
		return false
	}
}

// String returns the string representation of the criterion
func (c Criterion) String() string {
	return string(c)
}

// ParseCriterion parses a string into a Criterion
func ParseCriterion(s string) (Criterion, error) {
	c := Criterion(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid criterion: %s", s)
	}
	return c, nil
}
