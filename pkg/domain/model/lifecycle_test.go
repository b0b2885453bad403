package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

var baseDay = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newThreat(threshold model.Criteria) *model.Risk {
	return &model.Risk{
		ID:         1,
		InfoID:     1,
		Kind:       types.RiskKindThreat,
		Context:    model.BusinessContext("sales", 1),
		ReportDate: baseDay,
		ReviewDate: baseDay.AddDate(1, 0, 0),
		Threshold:  threshold,
	}
}

func TestDeriveStage(t *testing.T) {
	pending := &model.Evaluation{IsValid: false}
	valid := &model.Evaluation{IsValid: true}
	task := &model.Task{ID: 1, Active: true}

	tests := []struct {
		name  string
		facts model.StageFacts
		want  types.RiskStage
	}{
		{"inactive wins", model.StageFacts{Active: false, Confirmed: true, Latest: valid}, types.RiskStageInactive},
		{"unconfirmed", model.StageFacts{Active: true}, types.RiskStageUnconfirmed},
		{"confirmed without evaluation", model.StageFacts{Active: true, Confirmed: true}, types.RiskStageConfirmedUnevaluated},
		{"pending evaluation", model.StageFacts{Active: true, Confirmed: true, Latest: pending}, types.RiskStageEvaluatedNotValidated},
		{"validated", model.StageFacts{Active: true, Confirmed: true, Latest: valid}, types.RiskStageValidated},
		{"treatment without subtasks", model.StageFacts{Active: true, Confirmed: true, Latest: valid, Treatment: task}, types.RiskStageValidated},
		{"treating", model.StageFacts{Active: true, Confirmed: true, Latest: valid, Treatment: task, Progress: model.TreatmentProgress{Open: 1, Closed: 1}}, types.RiskStageTreating},
		{"done", model.StageFacts{Active: true, Confirmed: true, Latest: valid, Treatment: task, Progress: model.TreatmentProgress{Closed: 2}}, types.RiskStageDone},
		{"reassessment pending", model.StageFacts{Active: true, Confirmed: true, Latest: pending, Treatment: task, Progress: model.TreatmentProgress{Open: 1}}, types.RiskStageEvaluatedNotValidated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, model.DeriveStage(tt.facts)).Equal(tt.want)
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	t.Run("unknown when inactive or unscored", func(t *testing.T) {
		gt.Value(t, model.DeriveStatus(types.RiskKindThreat, false, 10, 20)).Equal(types.RiskStatusUnknown)
		gt.Value(t, model.DeriveStatus(types.RiskKindThreat, true, 0, 20)).Equal(types.RiskStatusUnknown)
		gt.Value(t, model.DeriveStatus(types.RiskKindThreat, true, 10, 0)).Equal(types.RiskStatusUnknown)
	})

	t.Run("boundary is acceptable for both kinds", func(t *testing.T) {
		gt.Value(t, model.DeriveStatus(types.RiskKindThreat, true, 36, 36)).Equal(types.RiskStatusAcceptable)
		gt.Value(t, model.DeriveStatus(types.RiskKindOpportunity, true, 36, 36)).Equal(types.RiskStatusAcceptable)
	})

	t.Run("one below threshold flips between kinds", func(t *testing.T) {
		gt.Value(t, model.DeriveStatus(types.RiskKindThreat, true, 35, 36)).Equal(types.RiskStatusAcceptable)
		gt.Value(t, model.DeriveStatus(types.RiskKindOpportunity, true, 35, 36)).Equal(types.RiskStatusUnacceptable)
	})

	t.Run("above threshold", func(t *testing.T) {
		gt.Value(t, model.DeriveStatus(types.RiskKindThreat, true, 45, 36)).Equal(types.RiskStatusUnacceptable)
		gt.Value(t, model.DeriveStatus(types.RiskKindOpportunity, true, 45, 36)).Equal(types.RiskStatusAcceptable)
	})
}

func TestDecideTreatment(t *testing.T) {
	active := &model.Task{ID: 1, Active: true}
	archived := &model.Task{ID: 1, Active: false}

	tests := []struct {
		name   string
		active bool
		status types.RiskStatus
		stage  types.RiskStage
		task   *model.Task
		want   model.TreatmentAction
	}{
		{"create when unacceptable and validated", true, types.RiskStatusUnacceptable, types.RiskStageValidated, nil, model.TreatmentCreate},
		{"wait for validation", true, types.RiskStatusUnacceptable, types.RiskStageEvaluatedNotValidated, nil, model.TreatmentKeep},
		{"nothing when acceptable", true, types.RiskStatusAcceptable, types.RiskStageValidated, nil, model.TreatmentKeep},
		{"nothing when inactive", false, types.RiskStatusUnknown, types.RiskStageInactive, nil, model.TreatmentKeep},
		{"archive on deactivation", false, types.RiskStatusUnknown, types.RiskStageInactive, active, model.TreatmentArchive},
		{"archive when acceptable again", true, types.RiskStatusAcceptable, types.RiskStageValidated, active, model.TreatmentArchive},
		{"reactivate when unacceptable again", true, types.RiskStatusUnacceptable, types.RiskStageValidated, archived, model.TreatmentReactivate},
		{"reactivate with risk", true, types.RiskStatusUnknown, types.RiskStageConfirmedUnevaluated, archived, model.TreatmentReactivate},
		{"keep archived while inactive", false, types.RiskStatusUnknown, types.RiskStageInactive, archived, model.TreatmentKeep},
		{"keep active while evaluations are obsolete", true, types.RiskStatusUnknown, types.RiskStageConfirmedUnevaluated, active, model.TreatmentKeep},
		{"keep active", true, types.RiskStatusUnacceptable, types.RiskStageTreating, active, model.TreatmentKeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, model.DecideTreatment(tt.active, tt.status, tt.stage, tt.task)).Equal(tt.want)
		})
	}
}

func TestDerive_Scenario(t *testing.T) {
	policy := types.ScoringPolicyStrict
	risk := newThreat(model.Criteria{Detectability: 3, Occurrence: 4, Severity: 3})

	d := model.Derive(risk, nil, nil, nil, policy, baseDay)
	gt.Number(t, d.ThresholdValue).Equal(36)
	gt.Value(t, d.Stage).Equal(types.RiskStageUnconfirmed)
	gt.Value(t, d.Status).Equal(types.RiskStatusUnknown)

	risk.Confirmed = true
	d = model.Derive(risk, nil, nil, nil, policy, baseDay)
	gt.Value(t, d.Stage).Equal(types.RiskStageConfirmedUnevaluated)

	first := model.NewEvaluation(risk.ID, model.Criteria{Detectability: 3, Occurrence: 3, Severity: 2}, baseDay, 30*24*time.Hour)
	first.ID = 1
	d = model.Derive(risk, []*model.Evaluation{first}, nil, nil, policy, baseDay)
	gt.Number(t, d.LatestLevel).Equal(18)
	gt.Value(t, d.Status).Equal(types.RiskStatusAcceptable)
	gt.Value(t, d.Stage).Equal(types.RiskStageEvaluatedNotValidated)

	first.IsValid = true
	d = model.Derive(risk, []*model.Evaluation{first}, nil, nil, policy, baseDay)
	gt.Value(t, d.Stage).Equal(types.RiskStageValidated)
	gt.Value(t, d.Treatment).Equal(model.TreatmentKeep)

	next := baseDay.AddDate(0, 0, 1)
	second := model.NewEvaluation(risk.ID, model.Criteria{Detectability: 3, Occurrence: 3, Severity: 5}, next, 30*24*time.Hour)
	second.ID = 2
	evals := []*model.Evaluation{first, second}
	d = model.Derive(risk, evals, nil, nil, policy, next)
	gt.Number(t, d.LatestLevel).Equal(45)
	gt.Value(t, d.Status).Equal(types.RiskStatusUnacceptable)
	gt.Value(t, d.Treatment).Equal(model.TreatmentKeep)

	second.IsValid = true
	d = model.Derive(risk, evals, nil, nil, policy, next)
	gt.Value(t, d.Stage).Equal(types.RiskStageValidated)
	gt.Value(t, d.Treatment).Equal(model.TreatmentCreate)

	task := &model.Task{ID: 10, RiskID: risk.ID, Active: true}
	children := []*model.Task{{ID: 11, ParentID: 10, Active: true}}
	d = model.Derive(risk, evals, task, children, policy, next)
	gt.Value(t, d.Stage).Equal(types.RiskStageTreating)

	children[0].Closed = true
	d = model.Derive(risk, evals, task, children, policy, next)
	gt.Value(t, d.Stage).Equal(types.RiskStageDone)
}

func TestDerive_ObsoleteEvaluationIgnored(t *testing.T) {
	risk := newThreat(model.Criteria{Detectability: 3, Occurrence: 4, Severity: 3})
	risk.Confirmed = true

	old := model.NewEvaluation(risk.ID, model.Criteria{Detectability: 5, Occurrence: 5, Severity: 5}, baseDay, 30*24*time.Hour)
	old.IsValid = true

	later := baseDay.AddDate(0, 0, 31)
	d := model.Derive(risk, []*model.Evaluation{old}, nil, nil, types.ScoringPolicyStrict, later)
	gt.Number(t, d.LatestLevel).Equal(0)
	gt.Value(t, d.LatestEvalDate).Nil()
	gt.Value(t, d.Status).Equal(types.RiskStatusUnknown)
	gt.Value(t, d.Stage).Equal(types.RiskStageConfirmedUnevaluated)
}

func TestDerivation_Apply(t *testing.T) {
	risk := newThreat(model.Criteria{Detectability: 1, Occurrence: 1, Severity: 2})
	model.Derive(risk, nil, nil, nil, types.ScoringPolicyStrict, baseDay).Apply(risk)
	gt.Number(t, risk.ThresholdValue).Equal(2)
	gt.Value(t, risk.Stage).Equal(types.RiskStageUnconfirmed)
	gt.Value(t, risk.Status).Equal(types.RiskStatusUnknown)
}
