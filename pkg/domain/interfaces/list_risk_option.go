package interfaces

import (
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// ListRiskOption is a functional option for filtering risks in List
type ListRiskOption func(*listRiskConfig)

type listRiskConfig struct {
	scope          *types.Scope
	unitID         *types.UnitID
	projectID      *int64
	processID      *int64
	kind           *types.RiskKind
	infoID         *int64
	excludeArchive bool
}

// WithScope filters risks by context scope
func WithScope(scope types.Scope) ListRiskOption {
	return func(c *listRiskConfig) {
		c.scope = &scope
	}
}

// WithUnit filters business risks by unit
func WithUnit(unitID types.UnitID) ListRiskOption {
	return func(c *listRiskConfig) {
		c.unitID = &unitID
	}
}

// WithProject filters project risks by project
func WithProject(projectID int64) ListRiskOption {
	return func(c *listRiskConfig) {
		c.projectID = &projectID
	}
}

// WithProcess filters risks by process
func WithProcess(processID int64) ListRiskOption {
	return func(c *listRiskConfig) {
		c.processID = &processID
	}
}

// WithKind filters risks by kind
func WithKind(kind types.RiskKind) ListRiskOption {
	return func(c *listRiskConfig) {
		c.kind = &kind
	}
}

// WithInfo filters risks by risk info
func WithInfo(infoID int64) ListRiskOption {
	return func(c *listRiskConfig) {
		c.infoID = &infoID
	}
}

// WithoutArchived excludes archived risks
func WithoutArchived() ListRiskOption {
	return func(c *listRiskConfig) {
		c.excludeArchive = true
	}
}

// BuildListRiskConfig builds a listRiskConfig from options
func BuildListRiskConfig(opts ...ListRiskOption) *listRiskConfig {
	cfg := &listRiskConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Scope returns the scope filter value, or nil if not set
func (c *listRiskConfig) Scope() *types.Scope {
	return c.scope
}

// UnitID returns the unit filter value, or nil if not set
func (c *listRiskConfig) UnitID() *types.UnitID {
	return c.unitID
}

// ProjectID returns the project filter value, or nil if not set
func (c *listRiskConfig) ProjectID() *int64 {
	return c.projectID
}

// ProcessID returns the process filter value, or nil if not set
func (c *listRiskConfig) ProcessID() *int64 {
	return c.processID
}

// Kind returns the kind filter value, or nil if not set
func (c *listRiskConfig) Kind() *types.RiskKind {
	return c.kind
}

// InfoID returns the risk info filter value, or nil if not set
func (c *listRiskConfig) InfoID() *int64 {
	return c.infoID
}

// ExcludeArchived reports whether archived risks are filtered out
func (c *listRiskConfig) ExcludeArchived() bool {
	return c.excludeArchive
}

// Match reports whether risk passes every filter set in c
func (c *listRiskConfig) Match(risk *model.Risk) bool {
	if c.scope != nil && risk.Context.Scope != *c.scope {
		return false
	}
	if c.unitID != nil && risk.Context.UnitID != *c.unitID {
		return false
	}
	if c.projectID != nil && risk.Context.ProjectID != *c.projectID {
		return false
	}
	if c.processID != nil && risk.Context.ProcessID != *c.processID {
		return false
	}
	if c.kind != nil && risk.Kind != *c.kind {
		return false
	}
	if c.infoID != nil && risk.InfoID != *c.infoID {
		return false
	}
	if c.excludeArchive && risk.IsArchived() {
		return false
	}
	return true
}
