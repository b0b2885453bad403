package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/usecase"
)

func TestSweepReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	risk := treatedRisk(t, f)
	review := testDay.AddDate(0, 0, 10)
	_, err := f.uc.Risk.UpdateRisk(ctx, manager, risk.ID, usecase.RiskPatch{ReviewDate: &review})
	gt.NoError(t, err).Required()

	t.Run("nothing changes before the review date", func(t *testing.T) {
		result, err := f.uc.Review.SweepReviews(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, result.Checked).Equal(1)
		gt.Array(t, result.Archived).Length(0)
		gt.Array(t, result.Changed).Length(0)
	})

	t.Run("lapsed risk is archived", func(t *testing.T) {
		f.advance(10)
		result, err := f.uc.Review.SweepReviews(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, result.Archived).Length(1)
		gt.Value(t, result.Archived[0]).Equal(risk.ID)

		got, err := f.uc.Risk.GetRisk(ctx, risk.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ArchivedAt).NotNil()
		gt.Value(t, got.Stage).Equal(types.RiskStageInactive)
		gt.Value(t, got.Status).Equal(types.RiskStatusUnknown)
		gt.Number(t, got.Priority).Equal(0)
		gt.Array(t, openActivities(t, f, risk.ID)).Length(0)

		task, err := f.uc.Treatment.GetTreatment(ctx, risk.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, task.Active).False()
	})

	t.Run("archived risks are not swept again", func(t *testing.T) {
		result, err := f.uc.Review.SweepReviews(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, result.Checked).Equal(0)
	})
}

func TestSweepReviews_Many(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []int64
	for _, kind := range types.AllRiskKinds() {
		risk, err := f.uc.Risk.ReportRisk(ctx, reporter, usecase.ReportRiskInput{
			InfoID:     f.info.ID,
			Kind:       kind,
			Context:    model.BusinessContext("plant", f.process.ID),
			ReviewDate: testDay.AddDate(0, 0, 1),
		})
		gt.NoError(t, err).Required()
		ids = append(ids, risk.ID)
	}

	f.advance(1)
	result, err := f.uc.Review.SweepReviews(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, result.Archived).Equal(ids)
}

func TestSweepReviews_FailingRiskDoesNotStopOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	project, err := f.repo.Project().Create(ctx, &model.Project{Name: "ERP rollout", Active: true})
	gt.NoError(t, err).Required()
	stuck, err := f.uc.Risk.ReportRisk(ctx, reporter, usecase.ReportRiskInput{
		InfoID:  f.info.ID,
		Kind:    types.RiskKindThreat,
		Context: model.ProjectContext(project.ID, 0),
	})
	gt.NoError(t, err).Required()
	_, err = f.uc.Risk.ConfirmRisk(ctx, manager, stuck.ID)
	gt.NoError(t, err).Required()
	eval, err := f.uc.Evaluation.RecordEvaluation(ctx, manager, stuck.ID, criteria(5, 5, 5), time.Time{}, "")
	gt.NoError(t, err).Required()

	// validated behind the use case while the project is archived, so the
	// treatment task can no longer be created
	project.Active = false
	_, err = f.repo.Project().Update(ctx, project)
	gt.NoError(t, err).Required()
	eval.IsValid = true
	_, err = f.repo.Evaluation().Update(ctx, eval)
	gt.NoError(t, err).Required()

	lapsing, err := f.uc.Risk.ReportRisk(ctx, reporter, usecase.ReportRiskInput{
		InfoID:     f.info.ID,
		Kind:       types.RiskKindThreat,
		Context:    model.BusinessContext("plant", f.process.ID),
		ReviewDate: testDay.AddDate(0, 0, 1),
	})
	gt.NoError(t, err).Required()

	f.advance(1)
	result, err := f.uc.Review.SweepReviews(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, result.Checked).Equal(2)
	gt.Value(t, result.Failed).Equal([]int64{stuck.ID})
	gt.Value(t, result.Archived).Equal([]int64{lapsing.ID})

	got, err := f.uc.Risk.GetRisk(ctx, lapsing.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.ArchivedAt).NotNil()
}

func TestOverdueActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	risk := f.report(t)

	overdue, err := f.uc.Review.OverdueActivities(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, overdue).Length(0)

	// the verification is due within a week
	f.advance(8)
	overdue, err = f.uc.Review.OverdueActivities(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, overdue).Length(1)
	gt.Value(t, overdue[0].RiskID).Equal(risk.ID)
	gt.Value(t, overdue[0].Summary).Equal(model.ActivityVerify)
	gt.Value(t, overdue[0].Deadline).Equal(model.Day(testDay).Add(7 * 24 * time.Hour))

	// confirming closes the verification and opens the evaluation
	_, err = f.uc.Risk.ConfirmRisk(ctx, manager, risk.ID)
	gt.NoError(t, err).Required()
	overdue, err = f.uc.Review.OverdueActivities(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, overdue).Length(0)
}
