package types

import "fmt"

// Role is a permission group a user belongs to
type Role string

const (
	RoleUser           Role = "user"
	RoleRiskManager    Role = "risk_manager"
	RoleProcessManager Role = "process_manager"
)

// AllRoles returns all valid roles
func AllRoles() []Role {
	return []Role{
		RoleUser,
		RoleRiskManager,
		RoleProcessManager,
	}
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleRiskManager, RoleProcessManager:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a string into a Role
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return role, nil
}
