package model

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// RiskContext locates a risk occurrence. A business risk points at a
// business process of a unit; a project risk points at a project and
// optionally at one of its processes.
type RiskContext struct {
	Scope     types.Scope
	UnitID    types.UnitID
	ProcessID int64
	ProjectID int64
}

// BusinessContext builds the context of a business risk
func BusinessContext(unitID types.UnitID, processID int64) RiskContext {
	return RiskContext{
		Scope:     types.ScopeBusiness,
		UnitID:    unitID,
		ProcessID: processID,
	}
}

// ProjectContext builds the context of a project risk. processID may be 0.
func ProjectContext(projectID, processID int64) RiskContext {
	return RiskContext{
		Scope:     types.ScopeProject,
		ProjectID: projectID,
		ProcessID: processID,
	}
}

// Validate checks that exactly the fields of the context's scope are set
func (c RiskContext) Validate() error {
	switch c.Scope {
	case types.ScopeBusiness:
		if err := c.UnitID.Validate(); err != nil {
			return goerr.Wrap(ErrInvalidRiskContext, "business risk requires a unit", goerr.V("error", err.Error()))
		}
		if c.ProcessID <= 0 {
			return goerr.Wrap(ErrInvalidRiskContext, "business risk requires a process")
		}
		if c.ProjectID != 0 {
			return goerr.Wrap(ErrInvalidRiskContext, "business risk cannot reference a project")
		}
	case types.ScopeProject:
		if c.ProjectID <= 0 {
			return goerr.Wrap(ErrInvalidRiskContext, "project risk requires a project")
		}
		if c.UnitID != "" {
			return goerr.Wrap(ErrInvalidRiskContext, "project risk cannot reference a unit")
		}
	default:
		return goerr.Wrap(ErrInvalidRiskContext, "unknown scope", goerr.V("scope", c.Scope))
	}
	return nil
}

// String returns a stable textual form of the context
func (c RiskContext) String() string {
	switch c.Scope {
	case types.ScopeBusiness:
		return fmt.Sprintf("business/%s/process/%d", c.UnitID, c.ProcessID)
	case types.ScopeProject:
		return fmt.Sprintf("project/%d/process/%d", c.ProjectID, c.ProcessID)
	default:
		return "unknown"
	}
}

// RiskKey returns the uniqueness key of an occurrence: at most one row exists
// per (RiskInfo, context, kind).
func RiskKey(infoID int64, ctx RiskContext, kind types.RiskKind) string {
	return fmt.Sprintf("%d|%s|%s", infoID, ctx.String(), kind)
}

// Risk is one reported occurrence of a RiskInfo in a context. Fields below
// the derived marker are recomputed by the lifecycle after each write.
type Risk struct {
	ID         int64
	InfoID     int64
	Kind       types.RiskKind
	Context    RiskContext
	ReportDate time.Time
	ReporterID string
	Confirmed  bool
	OwnerID    string
	ReviewDate time.Time
	ArchivedAt *time.Time
	// Threshold criteria
	Threshold       Criteria
	Comment         string
	TreatmentTaskID int64
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// derived
	ThresholdValue int
	LatestLevel    int
	LatestEvalDate *time.Time
	Status         types.RiskStatus
	Stage          types.RiskStage
	Priority       int
}

// Key returns the uniqueness key of the risk
func (r *Risk) Key() string {
	return RiskKey(r.InfoID, r.Context, r.Kind)
}

// IsArchived reports whether the risk was archived
func (r *Risk) IsArchived() bool {
	return r.ArchivedAt != nil
}

// IsActive is true when the risk is not archived and today is before the
// review date
func (r *Risk) IsActive(now time.Time) bool {
	if r.ArchivedAt != nil {
		return false
	}
	return Day(now).Before(Day(r.ReviewDate))
}

// IsLapsed is true when the review window has passed without archival
func (r *Risk) IsLapsed(now time.Time) bool {
	return r.ArchivedAt == nil && !Day(now).Before(Day(r.ReviewDate))
}

// Validate enforces the write time invariants of a risk occurrence
func (r *Risk) Validate(createdAt time.Time) error {
	if !r.Kind.IsValid() {
		return goerr.Wrap(ErrInvalidRiskKind, "invalid risk kind", goerr.V("kind", r.Kind))
	}
	if r.InfoID <= 0 {
		return goerr.Wrap(ErrInvalidRiskContext, "risk info is required")
	}
	if err := r.Context.Validate(); err != nil {
		return err
	}
	if err := r.Threshold.Validate(); err != nil {
		return err
	}
	if Day(r.ReportDate).After(Day(createdAt)) {
		return goerr.Wrap(ErrReportAfterCreation, "invalid report date",
			goerr.V(ReportDateKey, r.ReportDate),
			goerr.V("created_at", createdAt))
	}
	if Day(r.ReviewDate).Before(Day(r.ReportDate)) {
		return goerr.Wrap(ErrReviewBeforeReport, "invalid review date",
			goerr.V(ReportDateKey, r.ReportDate),
			goerr.V(ReviewDateKey, r.ReviewDate))
	}
	return nil
}

// Day truncates t to midnight UTC
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}
