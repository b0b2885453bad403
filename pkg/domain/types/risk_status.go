package types

import "fmt"

// RiskStatus is the acceptability of a risk, derived from its latest level
// and its threshold
type RiskStatus string

const (
	RiskStatusUnknown      RiskStatus = "U"
	RiskStatusAcceptable   RiskStatus = "A"
	RiskStatusUnacceptable RiskStatus = "N"
)

// AllRiskStatuses returns all valid risk statuses
func AllRiskStatuses() []RiskStatus {
	return []RiskStatus{
		RiskStatusUnknown,
		RiskStatusAcceptable,
		RiskStatusUnacceptable,
	}
}

// IsValid checks if the risk status is valid
func (s RiskStatus) IsValid() bool {
	switch s {
	case RiskStatusUnknown,
		RiskStatusAcceptable,
		RiskStatusUnacceptable:
		return true
	default:
		return false
	}
}

// Normalize treats empty as RiskStatusUnknown
func (s RiskStatus) Normalize() RiskStatus {
	if s == "" {
		return RiskStatusUnknown
	}
	return s
}

// Label returns the display name of the status
func (s RiskStatus) Label() string {
	switch s.Normalize() {
	case RiskStatusAcceptable:
		return "Acceptable"
	case RiskStatusUnacceptable:
		return "Unacceptable"
	default:
		return "Unknown"
	}
}

// String returns the string representation of the risk status
func (s RiskStatus) String() string {
	return string(s)
}

// ParseRiskStatus parses a string into a RiskStatus
func ParseRiskStatus(s string) (RiskStatus, error) {
	status := RiskStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid risk status: %s", s)
	}
	return status, nil
}
