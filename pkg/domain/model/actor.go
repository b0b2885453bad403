package model

import (
	"slices"

	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// Actor is the user an operation is performed for. It is passed explicitly
// to every mutating operation.
type Actor struct {
	UserID string
	Roles  []types.Role
}

// SystemActor is used by background jobs
var SystemActor = Actor{UserID: "system", Roles: []types.Role{types.RoleRiskManager, types.RoleProcessManager}}

// HasRole reports whether the actor has role
func (a Actor) HasRole(role types.Role) bool {
	return slices.Contains(a.Roles, role)
}

// IsRiskManager reports whether the actor manages risks
func (a Actor) IsRiskManager() bool {
	return a.HasRole(types.RoleRiskManager)
}

// CanEditRisk reports whether the actor may modify risk. Risk managers edit
// any risk. The reporter edits their own risk until it is confirmed.
func (a Actor) CanEditRisk(risk *Risk) bool {
	if a.IsRiskManager() {
		return true
	}
	return a.UserID != "" && !risk.Confirmed && risk.ReporterID == a.UserID
}

// CanManageRisks gates confirmation, threshold, evaluation and treatment
func (a Actor) CanManageRisks() bool {
	return a.IsRiskManager()
}

// CanEditProcesses gates the process catalog
func (a Actor) CanEditProcesses() bool {
	return a.HasRole(types.RoleProcessManager) || a.IsRiskManager()
}
