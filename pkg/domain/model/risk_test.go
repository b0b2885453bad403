package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

func TestRisk_Validate(t *testing.T) {
	created := baseDay

	t.Run("valid risk", func(t *testing.T) {
		gt.NoError(t, newThreat(model.DefaultCriteria()).Validate(created))
	})

	t.Run("report date after creation", func(t *testing.T) {
		r := newThreat(model.DefaultCriteria())
		r.ReportDate = created.AddDate(0, 0, 1)
		r.ReviewDate = created.AddDate(0, 1, 0)
		err := r.Validate(created)
		gt.Bool(t, errors.Is(err, model.ErrReportAfterCreation)).True()
	})

	t.Run("same day report is allowed", func(t *testing.T) {
		r := newThreat(model.DefaultCriteria())
		r.ReportDate = created.Add(3 * time.Hour)
		gt.NoError(t, r.Validate(created))
	})

	t.Run("review date before report date", func(t *testing.T) {
		r := newThreat(model.DefaultCriteria())
		r.ReviewDate = r.ReportDate.AddDate(0, 0, -1)
		err := r.Validate(created)
		gt.Bool(t, errors.Is(err, model.ErrReviewBeforeReport)).True()
	})

	t.Run("invalid kind", func(t *testing.T) {
		r := newThreat(model.DefaultCriteria())
		r.Kind = "X"
		gt.Bool(t, errors.Is(r.Validate(created), model.ErrInvalidRiskKind)).True()
	})

	t.Run("invalid threshold rating", func(t *testing.T) {
		r := newThreat(model.Criteria{Detectability: 9})
		gt.Bool(t, errors.Is(r.Validate(created), model.ErrInvalidRating)).True()
	})
}

func TestRiskContext_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ctx     model.RiskContext
		wantErr bool
	}{
		{"business", model.BusinessContext("sales", 3), false},
		{"business without process", model.BusinessContext("sales", 0), true},
		{"business without unit", model.BusinessContext("", 3), true},
		{"business with project", model.RiskContext{Scope: types.ScopeBusiness, UnitID: "sales", ProcessID: 1, ProjectID: 2}, true},
		{"project", model.ProjectContext(4, 0), false},
		{"project with process", model.ProjectContext(4, 9), false},
		{"project without project", model.ProjectContext(0, 9), true},
		{"project with unit", model.RiskContext{Scope: types.ScopeProject, UnitID: "sales", ProjectID: 2}, true},
		{"no scope", model.RiskContext{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ctx.Validate()
			gt.Value(t, err != nil).Equal(tt.wantErr)
			if err != nil {
				gt.Bool(t, errors.Is(err, model.ErrInvalidRiskContext)).True()
			}
		})
	}
}

func TestRiskKey(t *testing.T) {
	a := model.RiskKey(1, model.BusinessContext("sales", 3), types.RiskKindThreat)
	b := model.RiskKey(1, model.BusinessContext("sales", 3), types.RiskKindOpportunity)
	c := model.RiskKey(1, model.ProjectContext(3, 0), types.RiskKindThreat)
	d := model.RiskKey(2, model.BusinessContext("sales", 3), types.RiskKindThreat)

	gt.String(t, a).NotEqual(b)
	gt.String(t, a).NotEqual(c)
	gt.String(t, a).NotEqual(d)
	gt.String(t, a).Equal(model.RiskKey(1, model.BusinessContext("sales", 3), types.RiskKindThreat))
}

func TestRisk_IsActive(t *testing.T) {
	r := newThreat(model.DefaultCriteria())
	r.ReviewDate = baseDay.AddDate(0, 0, 10)

	gt.Bool(t, r.IsActive(baseDay)).True()
	gt.Bool(t, r.IsActive(baseDay.AddDate(0, 0, 9))).True()
	gt.Bool(t, r.IsActive(baseDay.AddDate(0, 0, 10))).False()
	gt.Bool(t, r.IsLapsed(baseDay.AddDate(0, 0, 10))).True()

	archived := baseDay
	r.ArchivedAt = &archived
	gt.Bool(t, r.IsActive(baseDay)).False()
	gt.Bool(t, r.IsLapsed(baseDay.AddDate(0, 0, 10))).False()
	gt.Bool(t, r.IsArchived()).True()
}

func TestDay(t *testing.T) {
	tz := time.FixedZone("JST", 9*60*60)
	local := time.Date(2026, 3, 2, 1, 0, 0, 0, tz)
	gt.Value(t, model.Day(local)).Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	gt.Bool(t, model.SameDay(baseDay, baseDay.Add(10*time.Hour))).True()
	gt.Bool(t, model.SameDay(baseDay, baseDay.Add(15*time.Hour))).False()
}
