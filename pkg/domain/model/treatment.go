package model

import (
	"fmt"
	"time"

	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// Project is a unit of project work. Each business unit owns one risk
// treatment project that collects the treatment tasks of its business risks.
type Project struct {
	ID              int64
	Name            string
	UnitID          types.UnitID
	IsRiskTreatment bool
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TreatmentProjectName returns the name of the risk treatment project of unit
func TreatmentProjectName(unitName string) string {
	return fmt.Sprintf("Risk treatment - %s", unitName)
}

// Task is a work item. The root treatment task of a risk has ParentID 0 and
// RiskID set; its children are the treatment subtasks.
type Task struct {
	ID              int64
	ProjectID       int64
	ParentID        int64
	RiskID          int64
	Name            string
	Description     string
	TargetCriterion types.Criterion
	Closed          bool
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TreatmentTaskName returns the name of the root treatment task of a risk
func TreatmentTaskName(info *RiskInfo, kind types.RiskKind) string {
	return fmt.Sprintf("Treat %s: %s", kind.Label(), info.DisplayName())
}

// TreatmentProgress counts the active children of a treatment task
type TreatmentProgress struct {
	Open   int
	Closed int
}

// Total returns the number of children
func (p TreatmentProgress) Total() int {
	return p.Open + p.Closed
}

// Progress counts the open and closed active tasks in children
func Progress(children []*Task) TreatmentProgress {
	var p TreatmentProgress
	for _, c := range children {
		if !c.Active {
			continue
		}
		if c.Closed {
			p.Closed++
		} else {
			p.Open++
		}
	}
	return p
}
