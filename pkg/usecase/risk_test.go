package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/model/config"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/usecase"
)

func TestRiskLifecycle_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	risk := f.report(t)
	gt.Number(t, risk.ThresholdValue).Equal(36)
	gt.Value(t, risk.Stage).Equal(types.RiskStageUnconfirmed)
	gt.Value(t, risk.Status).Equal(types.RiskStatusUnknown)
	gt.Value(t, risk.ReportDate).Equal(model.Day(testDay))
	gt.Value(t, risk.ReviewDate).Equal(model.Day(testDay).AddDate(1, 0, 0))
	gt.Number(t, risk.Priority).Equal(1)
	gt.Value(t, openActivities(t, f, risk.ID)).Equal([]string{model.ActivityVerify})

	risk, err := f.uc.Risk.ConfirmRisk(ctx, manager, risk.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, risk.Stage).Equal(types.RiskStageConfirmedUnevaluated)
	gt.Value(t, openActivities(t, f, risk.ID)).Equal([]string{model.ActivityEvaluate})

	first, err := f.uc.Evaluation.RecordEvaluation(ctx, manager, risk.ID, criteria(3, 3, 2), time.Time{}, "first look")
	gt.NoError(t, err).Required()
	gt.Bool(t, first.IsValid).False()

	risk, err = f.uc.Risk.GetRisk(ctx, risk.ID)
	gt.NoError(t, err).Required()
	gt.Number(t, risk.LatestLevel).Equal(18)
	gt.Value(t, risk.Status).Equal(types.RiskStatusAcceptable)
	gt.Value(t, risk.Stage).Equal(types.RiskStageEvaluatedNotValidated)

	risk, err = f.uc.Evaluation.ValidateEvaluation(ctx, manager, first.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, risk.Stage).Equal(types.RiskStageValidated)
	gt.Number(t, risk.TreatmentTaskID).Equal(int64(0))

	f.advance(1)
	second, err := f.uc.Evaluation.RecordEvaluation(ctx, manager, risk.ID, criteria(3, 3, 5), time.Time{}, "")
	gt.NoError(t, err).Required()

	risk, err = f.uc.Risk.GetRisk(ctx, risk.ID)
	gt.NoError(t, err).Required()
	gt.Number(t, risk.LatestLevel).Equal(45)
	gt.Value(t, risk.Status).Equal(types.RiskStatusUnacceptable)
	gt.Value(t, risk.Stage).Equal(types.RiskStageEvaluatedNotValidated)
	gt.Number(t, risk.TreatmentTaskID).Equal(int64(0))

	risk, err = f.uc.Evaluation.ValidateEvaluation(ctx, manager, second.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, risk.Stage).Equal(types.RiskStageValidated)
	gt.Number(t, risk.TreatmentTaskID).NotEqual(int64(0))

	task, err := f.uc.Treatment.GetTreatment(ctx, risk.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, task).NotNil()
	gt.Value(t, task.ID).Equal(risk.TreatmentTaskID)
	gt.Value(t, task.Name).Equal("Treat Threat: Supplier")
	gt.Value(t, task.Description).Equal("Qualify a second supplier")
	gt.Bool(t, task.Active).True()

	project, err := f.repo.Project().GetTreatmentProject(ctx, "plant")
	gt.NoError(t, err).Required()
	gt.Value(t, project.Name).Equal("Risk treatment - Plant")
	gt.Value(t, task.ProjectID).Equal(project.ID)

	gt.Value(t, openActivities(t, f, risk.ID)).Equal([]string{model.ActivityTreat})

	evals, err := f.uc.Evaluation.ListEvaluations(ctx, risk.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, evals).Length(2)
	gt.Value(t, evals[0].ID).Equal(second.ID)
}

func TestReportRisk(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := newFixture(t)
		risk, err := f.uc.Risk.ReportRisk(context.Background(), reporter, usecase.ReportRiskInput{
			InfoID:  f.info.ID,
			Kind:    types.RiskKindOpportunity,
			Context: model.BusinessContext("plant", f.process.ID),
		})
		gt.NoError(t, err).Required()
		gt.Value(t, risk.Threshold).Equal(model.DefaultCriteria())
		gt.Number(t, risk.ThresholdValue).Equal(27)
		gt.Value(t, risk.ReporterID).Equal(reporter.UserID)
		gt.Bool(t, risk.Confirmed).False()
	})

	t.Run("validation errors", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		tests := []struct {
			name  string
			input usecase.ReportRiskInput
			want  error
		}{
			{
				name:  "unknown info",
				input: usecase.ReportRiskInput{InfoID: 999, Kind: types.RiskKindThreat, Context: model.BusinessContext("plant", f.process.ID)},
				want:  usecase.ErrRiskInfoNotFound,
			},
			{
				name:  "unknown unit",
				input: usecase.ReportRiskInput{InfoID: f.info.ID, Kind: types.RiskKindThreat, Context: model.BusinessContext("hr", f.process.ID)},
				want:  model.ErrUnitNotFound,
			},
			{
				name:  "unknown process",
				input: usecase.ReportRiskInput{InfoID: f.info.ID, Kind: types.RiskKindThreat, Context: model.BusinessContext("plant", 999)},
				want:  usecase.ErrProcessNotFound,
			},
			{
				name:  "missing project",
				input: usecase.ReportRiskInput{InfoID: f.info.ID, Kind: types.RiskKindThreat, Context: model.ProjectContext(999, 0)},
				want:  usecase.ErrProjectNotFound,
			},
			{
				name:  "invalid kind",
				input: usecase.ReportRiskInput{InfoID: f.info.ID, Kind: "X", Context: model.BusinessContext("plant", f.process.ID)},
				want:  model.ErrInvalidRiskKind,
			},
			{
				name: "report in the future",
				input: usecase.ReportRiskInput{
					InfoID: f.info.ID, Kind: types.RiskKindThreat, Context: model.BusinessContext("plant", f.process.ID),
					ReportDate: testDay.AddDate(0, 0, 1),
				},
				want: model.ErrReportAfterCreation,
			},
			{
				name: "review before report",
				input: usecase.ReportRiskInput{
					InfoID: f.info.ID, Kind: types.RiskKindThreat, Context: model.BusinessContext("plant", f.process.ID),
					ReportDate: testDay, ReviewDate: testDay.AddDate(0, 0, -1),
				},
				want: model.ErrReviewBeforeReport,
			},
			{
				name: "rating out of range",
				input: usecase.ReportRiskInput{
					InfoID: f.info.ID, Kind: types.RiskKindThreat, Context: model.BusinessContext("plant", f.process.ID),
					Threshold: criteria(6, 1, 1),
				},
				want: model.ErrInvalidRating,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.uc.Risk.ReportRisk(ctx, reporter, tt.input)
				gt.Error(t, err).Is(tt.want)
			})
		}

		risks, err := f.uc.Risk.ListRisks(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, risks).Length(0)
	})

	t.Run("anonymous reporter is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Risk.ReportRisk(context.Background(), model.Actor{}, usecase.ReportRiskInput{
			InfoID:  f.info.ID,
			Kind:    types.RiskKindThreat,
			Context: model.BusinessContext("plant", f.process.ID),
		})
		gt.Error(t, err).Is(usecase.ErrAccessDenied)
	})

	t.Run("process of another owner", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		project, err := f.repo.Project().Create(ctx, &model.Project{Name: "ERP rollout", Active: true})
		gt.NoError(t, err).Required()

		_, err = f.uc.Risk.ReportRisk(ctx, reporter, usecase.ReportRiskInput{
			InfoID:  f.info.ID,
			Kind:    types.RiskKindThreat,
			Context: model.ProjectContext(project.ID, f.process.ID),
		})
		gt.Error(t, err).Is(model.ErrInvalidRiskContext)
	})
}

func TestReportRisk_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	risk := f.report(t)

	t.Run("active occurrence rejects the report", func(t *testing.T) {
		_, err := f.uc.Risk.ReportRisk(ctx, stranger, usecase.ReportRiskInput{
			InfoID:  f.info.ID,
			Kind:    types.RiskKindThreat,
			Context: model.BusinessContext("plant", f.process.ID),
		})
		gt.Error(t, err).Is(model.ErrDuplicateRisk)
	})

	t.Run("other kind is another occurrence", func(t *testing.T) {
		other, err := f.uc.Risk.ReportRisk(ctx, stranger, usecase.ReportRiskInput{
			InfoID:  f.info.ID,
			Kind:    types.RiskKindOpportunity,
			Context: model.BusinessContext("plant", f.process.ID),
		})
		gt.NoError(t, err).Required()
		gt.Value(t, other.ID).NotEqual(risk.ID)
	})

	t.Run("archived occurrence is reactivated", func(t *testing.T) {
		_, err := f.uc.Risk.ConfirmRisk(ctx, manager, risk.ID)
		gt.NoError(t, err).Required()
		archived, err := f.uc.Risk.DeactivateRisk(ctx, manager, risk.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, archived.Stage).Equal(types.RiskStageInactive)
		gt.Number(t, archived.Priority).Equal(0)
		gt.Array(t, openActivities(t, f, risk.ID)).Length(0)

		f.advance(3)
		again, err := f.uc.Risk.ReportRisk(ctx, stranger, usecase.ReportRiskInput{
			InfoID:  f.info.ID,
			Kind:    types.RiskKindThreat,
			Context: model.BusinessContext("plant", f.process.ID),
		})
		gt.NoError(t, err).Required()
		gt.Value(t, again.ID).Equal(risk.ID)
		gt.Value(t, again.ArchivedAt).Nil()
		gt.Bool(t, again.Confirmed).False()
		gt.Value(t, again.ReporterID).Equal(stranger.UserID)
		gt.Value(t, again.ReportDate).Equal(model.Day(testDay.AddDate(0, 0, 3)))
		gt.Value(t, again.Stage).Equal(types.RiskStageUnconfirmed)
		gt.Value(t, openActivities(t, f, risk.ID)).Equal([]string{model.ActivityVerify})
	})
}

func TestReportRisk_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Risk.ReportRisk(ctx, reporter, usecase.ReportRiskInput{
				InfoID:  f.info.ID,
				Kind:    types.RiskKindThreat,
				Context: model.BusinessContext("plant", f.process.ID),
			})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			gt.Error(t, err).Is(model.ErrDuplicateRisk)
			dup++
		}
	}
	gt.Number(t, ok).Equal(1)
	gt.Number(t, dup).Equal(n - 1)

	risks, err := f.uc.Risk.ListRisks(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, risks).Length(1)
}

func TestUpdateRisk_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	risk := f.report(t)
	comment := "seen twice this quarter"

	t.Run("stranger cannot edit", func(t *testing.T) {
		_, err := f.uc.Risk.UpdateRisk(ctx, stranger, risk.ID, usecase.RiskPatch{Comment: &comment})
		gt.Error(t, err).Is(usecase.ErrAccessDenied)

		got, err := f.uc.Risk.GetRisk(ctx, risk.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Comment).Equal("")
	})

	t.Run("reporter edits until confirmation", func(t *testing.T) {
		updated, err := f.uc.Risk.UpdateRisk(ctx, reporter, risk.ID, usecase.RiskPatch{Comment: &comment})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Comment).Equal(comment)

		_, err = f.uc.Risk.ConfirmRisk(ctx, reporter, risk.ID)
		gt.Error(t, err).Is(usecase.ErrAccessDenied)

		_, err = f.uc.Risk.ConfirmRisk(ctx, manager, risk.ID)
		gt.NoError(t, err).Required()

		_, err = f.uc.Risk.UpdateRisk(ctx, reporter, risk.ID, usecase.RiskPatch{Comment: &comment})
		gt.Error(t, err).Is(usecase.ErrAccessDenied)
		_, err = f.uc.Risk.SetThreshold(ctx, reporter, risk.ID, criteria(1, 1, 1))
		gt.Error(t, err).Is(usecase.ErrAccessDenied)
		gt.Error(t, f.uc.Risk.DeleteRisk(ctx, reporter, risk.ID)).Is(usecase.ErrAccessDenied)
	})

	t.Run("manager edits confirmed risk", func(t *testing.T) {
		review := testDay.AddDate(0, 6, 0)
		updated, err := f.uc.Risk.UpdateRisk(ctx, manager, risk.ID, usecase.RiskPatch{ReviewDate: &review})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.ReviewDate).Equal(model.Day(review))
	})

	t.Run("invalid patch leaves the risk untouched", func(t *testing.T) {
		review := testDay.AddDate(0, 0, -10)
		_, err := f.uc.Risk.UpdateRisk(ctx, manager, risk.ID, usecase.RiskPatch{ReviewDate: &review})
		gt.Error(t, err).Is(model.ErrReviewBeforeReport)

		got, err := f.uc.Risk.GetRisk(ctx, risk.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ReviewDate).Equal(model.Day(testDay.AddDate(0, 6, 0)))
	})
}

func TestUpdateRisk_KindChangeMovesKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	threat := f.report(t)

	opportunity, err := f.uc.Risk.ReportRisk(ctx, reporter, usecase.ReportRiskInput{
		InfoID:  f.info.ID,
		Kind:    types.RiskKindOpportunity,
		Context: model.BusinessContext("plant", f.process.ID),
	})
	gt.NoError(t, err).Required()

	kind := types.RiskKindOpportunity
	_, err = f.uc.Risk.UpdateRisk(ctx, reporter, threat.ID, usecase.RiskPatch{Kind: &kind})
	gt.Error(t, err).Is(model.ErrDuplicateRisk)

	gt.NoError(t, f.uc.Risk.DeleteRisk(ctx, reporter, opportunity.ID)).Required()

	moved, err := f.uc.Risk.UpdateRisk(ctx, reporter, threat.ID, usecase.RiskPatch{Kind: &kind})
	gt.NoError(t, err).Required()
	gt.Value(t, moved.Kind).Equal(types.RiskKindOpportunity)
	gt.Number(t, moved.ThresholdValue).Equal((6 - 3) * 4 * 3)
	gt.Number(t, moved.Priority).Equal(1)
}

func TestSetThreshold_Reprioritizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second, err := f.uc.Process.CreateProcess(ctx, processManager, &model.Process{
		Name:  "Shipping",
		Type:  types.ProcessTypeOperation,
		Owner: model.UnitOwner("plant"),
	})
	gt.NoError(t, err).Required()

	a := f.report(t)
	b, err := f.uc.Risk.ReportRisk(ctx, reporter, usecase.ReportRiskInput{
		InfoID:    f.info.ID,
		Kind:      types.RiskKindThreat,
		Context:   model.BusinessContext("plant", second.ID),
		Threshold: criteria(3, 4, 3),
	})
	gt.NoError(t, err).Required()

	for _, id := range []int64{a.ID, b.ID} {
		_, err := f.uc.Risk.ConfirmRisk(ctx, manager, id)
		gt.NoError(t, err).Required()
		f.evaluate(t, id, criteria(3, 3, 3))
	}

	// equal margins: earlier report then lower ID wins
	a, _ = f.uc.Risk.GetRisk(ctx, a.ID)
	b, _ = f.uc.Risk.GetRisk(ctx, b.ID)
	gt.Number(t, a.Priority).Equal(1)
	gt.Number(t, b.Priority).Equal(2)

	b, err = f.uc.Risk.SetThreshold(ctx, manager, b.ID, criteria(1, 1, 1))
	gt.NoError(t, err).Required()
	gt.Number(t, b.ThresholdValue).Equal(1)
	gt.Value(t, b.Status).Equal(types.RiskStatusUnacceptable)
	gt.Number(t, b.Priority).Equal(1)
	gt.Number(t, b.TreatmentTaskID).NotEqual(int64(0))

	a, _ = f.uc.Risk.GetRisk(ctx, a.ID)
	gt.Number(t, a.Priority).Equal(2)

	t.Run("incomplete threshold under strict policy", func(t *testing.T) {
		_, err := f.uc.Risk.SetThreshold(ctx, manager, a.ID, model.Criteria{Detectability: 3})
		gt.Error(t, err).Is(model.ErrIncompleteCriteria)
	})
}

func TestDeactivateAndReactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	risk := f.report(t)
	_, err := f.uc.Risk.ConfirmRisk(ctx, manager, risk.ID)
	gt.NoError(t, err).Required()
	risk = f.evaluate(t, risk.ID, criteria(5, 5, 5))
	gt.Value(t, risk.Status).Equal(types.RiskStatusUnacceptable)
	taskID := risk.TreatmentTaskID
	gt.Number(t, taskID).NotEqual(int64(0))

	_, err = f.uc.Risk.DeactivateRisk(ctx, reporter, risk.ID)
	gt.Error(t, err).Is(usecase.ErrAccessDenied)

	risk, err = f.uc.Risk.DeactivateRisk(ctx, manager, risk.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, risk.Stage).Equal(types.RiskStageInactive)
	gt.Value(t, risk.Status).Equal(types.RiskStatusUnknown)

	task, err := f.repo.Task().Get(ctx, taskID)
	gt.NoError(t, err).Required()
	gt.Bool(t, task.Active).False()

	_, err = f.uc.Evaluation.RecordEvaluation(ctx, manager, risk.ID, criteria(1, 1, 1), time.Time{}, "")
	gt.Error(t, err).Is(usecase.ErrRiskInactive)

	risk, err = f.uc.Risk.ReactivateRisk(ctx, manager, risk.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, risk.Stage).Equal(types.RiskStageValidated)
	gt.Value(t, risk.TreatmentTaskID).Equal(taskID)

	task, err = f.repo.Task().Get(ctx, taskID)
	gt.NoError(t, err).Required()
	gt.Bool(t, task.Active).True()
}

func TestReactivateRisk_LapsedReviewIsExtended(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	risk, err := f.uc.Risk.ReportRisk(ctx, reporter, usecase.ReportRiskInput{
		InfoID:     f.info.ID,
		Kind:       types.RiskKindThreat,
		Context:    model.BusinessContext("plant", f.process.ID),
		ReviewDate: testDay.AddDate(0, 0, 5),
	})
	gt.NoError(t, err).Required()

	f.advance(5)
	risk, err = f.uc.Risk.GetRisk(ctx, risk.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, risk.IsActive(f.clock())).False()

	risk, err = f.uc.Risk.ReactivateRisk(ctx, manager, risk.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, risk.IsActive(f.clock())).True()
	gt.Value(t, risk.ReviewDate).Equal(model.Day(f.clock()).AddDate(1, 0, 0))
}

func TestDeleteRisk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	risk := f.report(t)
	_, err := f.uc.Risk.ConfirmRisk(ctx, manager, risk.ID)
	gt.NoError(t, err).Required()
	risk = f.evaluate(t, risk.ID, criteria(5, 5, 5))
	taskID := risk.TreatmentTaskID

	gt.NoError(t, f.uc.Risk.DeleteRisk(ctx, manager, risk.ID)).Required()

	_, err = f.uc.Risk.GetRisk(ctx, risk.ID)
	gt.Error(t, err).Is(usecase.ErrRiskNotFound)

	evals, err := f.repo.Evaluation().ListByRisk(ctx, risk.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, evals).Length(0)

	activities, err := f.repo.Activity().ListByRisk(ctx, risk.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, activities).Length(0)

	task, err := f.repo.Task().Get(ctx, taskID)
	gt.NoError(t, err).Required()
	gt.Bool(t, task.Active).False()

	// the key is free again
	again := f.report(t)
	gt.Value(t, again.ID).NotEqual(risk.ID)
}

func TestRiskInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("creator and managers edit", func(t *testing.T) {
		info := *f.info
		info.Description = "Key supplier cannot deliver"
		_, err := f.uc.Risk.UpdateRiskInfo(ctx, stranger, &info)
		gt.Error(t, err).Is(usecase.ErrAccessDenied)

		updated, err := f.uc.Risk.UpdateRiskInfo(ctx, reporter, &info)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Description).Equal("Key supplier cannot deliver")
		gt.Value(t, updated.CreatedBy).Equal(reporter.UserID)

		info.Name = ""
		_, err = f.uc.Risk.UpdateRiskInfo(ctx, manager, &info)
		gt.Error(t, err).Is(model.ErrMissingName)
	})

	t.Run("in use info cannot be deleted", func(t *testing.T) {
		risk := f.report(t)
		gt.Error(t, f.uc.Risk.DeleteRiskInfo(ctx, manager, f.info.ID)).Is(usecase.ErrInUse)

		gt.NoError(t, f.uc.Risk.DeleteRisk(ctx, manager, risk.ID)).Required()
		gt.NoError(t, f.uc.Risk.DeleteRiskInfo(ctx, manager, f.info.ID)).Required()

		_, err := f.uc.Risk.GetRiskInfo(ctx, f.info.ID)
		gt.Error(t, err).Is(usecase.ErrRiskInfoNotFound)
	})
}

func TestRiskInfo_Category(t *testing.T) {
	f := newFixture(t, usecase.WithRiskConfig(&config.RiskConfig{
		Categories: []config.Category{{ID: "supply-chain", Name: "Supply chain"}},
	}))
	ctx := context.Background()

	_, err := f.uc.Risk.CreateRiskInfo(ctx, reporter, &model.RiskInfo{Name: "Strike", Category: "hr"})
	gt.Error(t, err).Is(usecase.ErrUnknownCategory)

	info, err := f.uc.Risk.CreateRiskInfo(ctx, reporter, &model.RiskInfo{Name: "Strike", Category: "supply-chain"})
	gt.NoError(t, err).Required()
	gt.Value(t, info.Category).Equal(types.CategoryID("supply-chain"))

	infos, err := f.uc.Risk.ListRiskInfos(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, infos).Length(2)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	risk := f.report(t)
	_, err := f.uc.Risk.ConfirmRisk(ctx, manager, risk.ID)
	gt.NoError(t, err).Required()
	f.evaluate(t, risk.ID, criteria(5, 5, 5))

	_, err = f.uc.Risk.ReportRisk(ctx, reporter, usecase.ReportRiskInput{
		InfoID:  f.info.ID,
		Kind:    types.RiskKindOpportunity,
		Context: model.BusinessContext("plant", f.process.ID),
	})
	gt.NoError(t, err).Required()

	p, err := f.uc.Risk.Profile(ctx, interfaces.WithUnit("plant"))
	gt.NoError(t, err).Required()
	gt.Number(t, p.All.Total()).Equal(2)
	gt.Number(t, p.Confirmed.Threats).Equal(1)
	gt.Number(t, p.Confirmed.Opportunities).Equal(0)
	gt.Number(t, p.Unacceptable.Threats).Equal(1)
	gt.Number(t, p.ByStage[types.RiskStageUnconfirmed]).Equal(1)

	p, err = f.uc.Risk.Profile(ctx, interfaces.WithUnit("sales"))
	gt.NoError(t, err).Required()
	gt.Number(t, p.All.Total()).Equal(0)
}
