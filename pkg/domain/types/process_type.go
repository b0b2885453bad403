package types

import "fmt"

// ProcessType classifies a process into a sequencing tier
type ProcessType string

const (
	ProcessTypeOperation         ProcessType = "O"
	ProcessTypeManagement        ProcessType = "M"
	ProcessTypeSupport           ProcessType = "S"
	ProcessTypeProjectManagement ProcessType = "P"
)

// AllProcessTypes returns all valid process types in tier order
func AllProcessTypes() []ProcessType {
	return []ProcessType{
		ProcessTypeOperation,
		ProcessTypeManagement,
		ProcessTypeSupport,
		ProcessTypeProjectManagement,
	}
}

// IsValid checks if the process type is valid
func (t ProcessType) IsValid() bool {
	switch t {
	case ProcessTypeOperation,
		ProcessTypeManagement,
		ProcessTypeSupport,
		ProcessTypeProjectManagement:
		return true
	default:
		return false
	}
}

// Label returns the display name of the process type
func (t ProcessType) Label() string {
	switch t {
	case ProcessTypeOperation:
		return "Operation"
	case ProcessTypeManagement:
		return "Management"
	case ProcessTypeSupport:
		return "Support"
	case ProcessTypeProjectManagement:
		return "Project management"
	default:
		return ""
	}
}

// String returns the string representation of the process type
func (t ProcessType) String() string {
	return string(t)
}

// ParseProcessType parses a string into a ProcessType
func ParseProcessType(s string) (ProcessType, error) {
	t := ProcessType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid process type: %s", s)
	}
	return t, nil
}

// Scope is the context family of a process or a risk occurrence
type Scope string

const (
	ScopeBusiness Scope = "business"
	ScopeProject  Scope = "project"
)

// AllScopes returns all valid scopes
func AllScopes() []Scope {
	return []Scope{ScopeBusiness, ScopeProject}
}

// IsValid checks if the scope is valid
func (s Scope) IsValid() bool {
	switch s {
	case ScopeBusiness, ScopeProject:
		return true
	default:
		return false
	}
}

// String returns the string representation of the scope
func (s Scope) String() string {
	return string(s)
}

// ParseScope parses a string into a Scope
func ParseScope(s string) (Scope, error) {
	scope := Scope(s)
	if !scope.IsValid() {
		return "", fmt.Errorf("invalid scope: %s", s)
	}
	return scope, nil
}
