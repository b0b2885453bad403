package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/usecase"
)

// treatedRisk reports, confirms and validates an unacceptable threat
func treatedRisk(t *testing.T, f *fixture) *model.Risk {
	t.Helper()
	risk := f.report(t)
	_, err := f.uc.Risk.ConfirmRisk(context.Background(), manager, risk.ID)
	gt.NoError(t, err).Required()
	risk = f.evaluate(t, risk.ID, criteria(5, 5, 5))
	gt.Value(t, risk.TreatmentTaskID).NotEqual(int64(0))
	return risk
}

func TestTreatment_Subtasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	risk := treatedRisk(t, f)
	owner := model.Actor{UserID: "U-owner", Roles: []types.Role{types.RoleUser}}

	stageOf := func(t *testing.T) types.RiskStage {
		t.Helper()
		got, err := f.uc.Risk.GetRisk(ctx, risk.ID)
		gt.NoError(t, err).Required()
		return got.Stage
	}

	sub, err := f.uc.Treatment.AddSubtask(ctx, owner, risk.ID, "Audit the backup supplier", types.CriterionOccurrence)
	gt.NoError(t, err).Required()
	gt.Value(t, sub.ParentID).Equal(risk.TreatmentTaskID)
	gt.Value(t, sub.TargetCriterion).Equal(types.CriterionOccurrence)
	gt.Value(t, stageOf(t)).Equal(types.RiskStageTreating)

	second, err := f.uc.Treatment.AddSubtask(ctx, manager, risk.ID, "Sign a framework contract", "")
	gt.NoError(t, err).Required()

	subtasks, err := f.uc.Treatment.ListSubtasks(ctx, risk.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, subtasks).Length(2)

	t.Run("done once every subtask is closed", func(t *testing.T) {
		_, err := f.uc.Treatment.CloseSubtask(ctx, owner, sub.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stageOf(t)).Equal(types.RiskStageTreating)

		closed, err := f.uc.Treatment.CloseSubtask(ctx, owner, second.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, closed.Closed).True()
		gt.Value(t, stageOf(t)).Equal(types.RiskStageDone)

		// closing again changes nothing
		_, err = f.uc.Treatment.CloseSubtask(ctx, owner, second.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stageOf(t)).Equal(types.RiskStageDone)
	})

	t.Run("reopening a subtask resumes the treatment", func(t *testing.T) {
		reopened, err := f.uc.Treatment.ReopenSubtask(ctx, owner, sub.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, reopened.Closed).False()
		gt.Value(t, stageOf(t)).Equal(types.RiskStageTreating)
	})

	t.Run("rejected changes", func(t *testing.T) {
		_, err := f.uc.Treatment.CloseSubtask(ctx, owner, risk.TreatmentTaskID)
		gt.Error(t, err).Is(usecase.ErrNotASubtask)

		_, err = f.uc.Treatment.CloseSubtask(ctx, stranger, sub.ID)
		gt.Error(t, err).Is(usecase.ErrAccessDenied)

		_, err = f.uc.Treatment.CloseSubtask(ctx, owner, 999)
		gt.Error(t, err).Is(usecase.ErrTaskNotFound)

		_, err = f.uc.Treatment.AddSubtask(ctx, owner, risk.ID, "", "")
		gt.Error(t, err).Is(model.ErrMissingName)

		_, err = f.uc.Treatment.AddSubtask(ctx, owner, risk.ID, "Tune", types.Criterion("impact"))
		gt.Error(t, err).Is(model.ErrInvalidTargetCriteria)

		_, err = f.uc.Treatment.AddSubtask(ctx, stranger, risk.ID, "Tune", "")
		gt.Error(t, err).Is(usecase.ErrAccessDenied)
	})
}

func TestTreatment_NotUnderTreatment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	risk := f.report(t)
	_, err := f.uc.Treatment.AddSubtask(ctx, manager, risk.ID, "Audit", "")
	gt.Error(t, err).Is(usecase.ErrTreatmentNotFound)

	task, err := f.uc.Treatment.GetTreatment(ctx, risk.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, task).Nil()

	subtasks, err := f.uc.Treatment.ListSubtasks(ctx, risk.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, subtasks).Length(0)
}

func TestTreatment_FollowsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	risk := treatedRisk(t, f)
	taskID := risk.TreatmentTaskID

	_, err := f.uc.Treatment.AddSubtask(ctx, manager, risk.ID, "Audit the backup supplier", "")
	gt.NoError(t, err).Required()

	t.Run("acceptable evaluation archives the treatment", func(t *testing.T) {
		f.advance(1)
		got := f.evaluate(t, risk.ID, criteria(1, 2, 3))
		gt.Value(t, got.Status).Equal(types.RiskStatusAcceptable)
		gt.Value(t, got.Stage).Equal(types.RiskStageValidated)
		gt.Value(t, got.TreatmentTaskID).Equal(taskID)

		task, err := f.uc.Treatment.GetTreatment(ctx, risk.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, task.Active).False()

		_, err = f.uc.Treatment.AddSubtask(ctx, manager, risk.ID, "Late idea", "")
		gt.Error(t, err).Is(usecase.ErrTreatmentNotFound)
	})

	t.Run("unacceptable evaluation reactivates the same treatment", func(t *testing.T) {
		f.advance(1)
		got := f.evaluate(t, risk.ID, criteria(4, 4, 4))
		gt.Value(t, got.Status).Equal(types.RiskStatusUnacceptable)
		gt.Value(t, got.Stage).Equal(types.RiskStageTreating)
		gt.Value(t, got.TreatmentTaskID).Equal(taskID)

		task, err := f.uc.Treatment.GetTreatment(ctx, risk.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, task.Active).True()
		gt.Value(t, task.ID).Equal(taskID)
	})

	t.Run("deactivation archives the treatment", func(t *testing.T) {
		got, err := f.uc.Risk.DeactivateRisk(ctx, manager, risk.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Stage).Equal(types.RiskStageInactive)

		task, err := f.uc.Treatment.GetTreatment(ctx, risk.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, task.Active).False()
	})
}
