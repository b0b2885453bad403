package model

import (
	"time"

	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// StageFacts are the facts the lifecycle stage is derived from
type StageFacts struct {
	Active    bool
	Confirmed bool
	// Latest is the most recent non-obsolete evaluation, nil if none
	Latest *Evaluation
	// Treatment is the active root treatment task, nil if none
	Treatment *Task
	Progress  TreatmentProgress
}

// DeriveStage computes the lifecycle stage. The stage of a risk whose latest
// evaluation is pending goes back to EvaluatedNotValidated even when a
// treatment exists; a treatment without subtasks keeps it Validated.
func DeriveStage(f StageFacts) types.RiskStage {
	switch {
	case !f.Active:
		return types.RiskStageInactive
	case !f.Confirmed:
		return types.RiskStageUnconfirmed
	case f.Latest == nil:
		return types.RiskStageConfirmedUnevaluated
	case !f.Latest.IsValid:
		return types.RiskStageEvaluatedNotValidated
	case f.Treatment == nil || f.Progress.Total() == 0:
		return types.RiskStageValidated
	case f.Progress.Open > 0:
		return types.RiskStageTreating
	default:
		return types.RiskStageDone
	}
}

// DeriveStatus compares the latest level with the threshold. Threats are
// acceptable up to and including the threshold; opportunities must meet or
// exceed it.
func DeriveStatus(kind types.RiskKind, active bool, level, threshold int) types.RiskStatus {
	if !active || level <= 0 || threshold <= 0 {
		return types.RiskStatusUnknown
	}
	switch kind {
	case types.RiskKindThreat:
		if level <= threshold {
			return types.RiskStatusAcceptable
		}
		return types.RiskStatusUnacceptable
	case types.RiskKindOpportunity:
		if level < threshold {
			return types.RiskStatusUnacceptable
		}
		return types.RiskStatusAcceptable
	default:
		return types.RiskStatusUnknown
	}
}

// TreatmentAction is the side effect the lifecycle asks for on the
// treatment task of a risk
type TreatmentAction int

const (
	TreatmentKeep TreatmentAction = iota
	TreatmentCreate
	TreatmentArchive
	TreatmentReactivate
)

func (a TreatmentAction) String() string {
	switch a {
	case TreatmentCreate:
		return "create"
	case TreatmentArchive:
		return "archive"
	case TreatmentReactivate:
		return "reactivate"
	default:
		return "keep"
	}
}

// DecideTreatment returns what to do with the treatment task of a risk.
// A task is created once the risk is unacceptable and validated. An
// existing task stays active while the risk is active and not acceptable,
// so an Unknown status (no current evaluation, e.g. all of them obsolete)
// keeps an active task and reactivates an archived one.
func DecideTreatment(active bool, status types.RiskStatus, stage types.RiskStage, task *Task) TreatmentAction {
	if task == nil {
		if active && status == types.RiskStatusUnacceptable && stage.AtLeast(types.RiskStageValidated) {
			return TreatmentCreate
		}
		return TreatmentKeep
	}

	want := active && status != types.RiskStatusAcceptable
	switch {
	case want && !task.Active:
		return TreatmentReactivate
	case !want && task.Active:
		return TreatmentArchive
	default:
		return TreatmentKeep
	}
}

// Derivation is the result of recomputing the derived fields of a risk
type Derivation struct {
	ThresholdValue int
	LatestLevel    int
	LatestEvalDate *time.Time
	Status         types.RiskStatus
	Stage          types.RiskStage
	Treatment      TreatmentAction
}

// Derive recomputes the derived fields of risk from its evaluations, its
// treatment task and the children of that task. task may be nil.
func Derive(risk *Risk, evals []*Evaluation, task *Task, children []*Task, policy types.ScoringPolicy, now time.Time) Derivation {
	active := risk.IsActive(now)

	threshold, _ := risk.Threshold.Score(risk.Kind, policy)

	var level int
	var evalDate *time.Time
	latest := LatestEvaluation(evals, now)
	if latest != nil {
		level = latest.Level(risk.Kind, policy)
		d := latest.EvalDate
		evalDate = &d
	}

	var activeTask *Task
	if task != nil && task.Active {
		activeTask = task
	}

	facts := StageFacts{
		Active:    active,
		Confirmed: risk.Confirmed,
		Latest:    latest,
		Treatment: activeTask,
		Progress:  Progress(children),
	}
	stage := DeriveStage(facts)
	status := DeriveStatus(risk.Kind, active, level, threshold)

	return Derivation{
		ThresholdValue: threshold,
		LatestLevel:    level,
		LatestEvalDate: evalDate,
		Status:         status,
		Stage:          stage,
		Treatment:      DecideTreatment(active, status, stage, task),
	}
}

// Apply copies the derived fields onto risk
func (d Derivation) Apply(risk *Risk) {
	risk.ThresholdValue = d.ThresholdValue
	risk.LatestLevel = d.LatestLevel
	risk.LatestEvalDate = d.LatestEvalDate
	risk.Status = d.Status
	risk.Stage = d.Stage
}
