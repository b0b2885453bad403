package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// TreatmentUseCase manages the subtasks of treatment tasks. Their progress
// drives the Treating and Done stages.
type TreatmentUseCase struct {
	repo   interfaces.Repository
	engine *lifecycle
}

func NewTreatmentUseCase(repo interfaces.Repository, engine *lifecycle) *TreatmentUseCase {
	return &TreatmentUseCase{
		repo:   repo,
		engine: engine,
	}
}

// GetTreatment returns the root treatment task of a risk, or nil when the
// risk was never treated
func (uc *TreatmentUseCase) GetTreatment(ctx context.Context, riskID int64) (*model.Task, error) {
	if _, err := getRisk(ctx, uc.repo, riskID); err != nil {
		return nil, err
	}
	task, err := uc.repo.Task().GetTreatment(ctx, riskID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get treatment task", goerr.V(RiskIDKey, riskID))
	}
	return task, nil
}

// AddSubtask adds a subtask to the active treatment of a risk. criterion may
// be empty.
func (uc *TreatmentUseCase) AddSubtask(ctx context.Context, actor model.Actor, riskID int64, name string, criterion types.Criterion) (*model.Task, error) {
	if name == "" {
		return nil, goerr.Wrap(model.ErrMissingName, "subtask name is required")
	}
	if criterion != "" && !criterion.IsValid() {
		return nil, goerr.Wrap(model.ErrInvalidTargetCriteria, "invalid criterion", goerr.V("criterion", criterion))
	}

	var created *model.Task
	err := uc.engine.locked(func() error {
		risk, err := getRisk(ctx, uc.repo, riskID)
		if err != nil {
			return err
		}
		if !canTreat(actor, risk) {
			return goerr.Wrap(ErrAccessDenied, "cannot treat risk",
				goerr.V(RiskIDKey, riskID),
				goerr.V(UserIDKey, actor.UserID))
		}

		root, err := uc.repo.Task().GetTreatment(ctx, riskID)
		if err != nil {
			return goerr.Wrap(err, "failed to get treatment task", goerr.V(RiskIDKey, riskID))
		}
		if root == nil || !root.Active {
			return goerr.Wrap(ErrTreatmentNotFound, "risk is not under treatment", goerr.V(RiskIDKey, riskID))
		}

		created, err = uc.repo.Task().Create(ctx, &model.Task{
			ProjectID:       root.ProjectID,
			ParentID:        root.ID,
			Name:            name,
			TargetCriterion: criterion,
			Active:          true,
		})
		if err != nil {
			return goerr.Wrap(err, "failed to create subtask", goerr.V(RiskIDKey, riskID))
		}

		_, err = uc.engine.reconcileLocked(ctx, riskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CloseSubtask folds a subtask. The risk reaches Done once every subtask is
// closed.
func (uc *TreatmentUseCase) CloseSubtask(ctx context.Context, actor model.Actor, taskID int64) (*model.Task, error) {
	return uc.setClosed(ctx, actor, taskID, true)
}

func (uc *TreatmentUseCase) ReopenSubtask(ctx context.Context, actor model.Actor, taskID int64) (*model.Task, error) {
	return uc.setClosed(ctx, actor, taskID, false)
}

// ListSubtasks returns the subtasks of the treatment of a risk
func (uc *TreatmentUseCase) ListSubtasks(ctx context.Context, riskID int64) ([]*model.Task, error) {
	root, err := uc.GetTreatment(ctx, riskID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}
	tasks, err := uc.repo.Task().ListByParent(ctx, root.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list subtasks", goerr.V(TaskIDKey, root.ID))
	}
	return tasks, nil
}

func (uc *TreatmentUseCase) setClosed(ctx context.Context, actor model.Actor, taskID int64, closed bool) (*model.Task, error) {
	var result *model.Task
	err := uc.engine.locked(func() error {
		task, err := uc.getTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task.ParentID == 0 {
			return goerr.Wrap(ErrNotASubtask, "root task cannot be folded", goerr.V(TaskIDKey, taskID))
		}

		root, err := uc.getTask(ctx, task.ParentID)
		if err != nil {
			return err
		}
		risk, err := getRisk(ctx, uc.repo, root.RiskID)
		if err != nil {
			return err
		}
		if !canTreat(actor, risk) {
			return goerr.Wrap(ErrAccessDenied, "cannot treat risk",
				goerr.V(RiskIDKey, risk.ID),
				goerr.V(UserIDKey, actor.UserID))
		}

		if task.Closed == closed {
			result = task
			return nil
		}
		task.Closed = closed
		result, err = uc.repo.Task().Update(ctx, task)
		if err != nil {
			return goerr.Wrap(err, "failed to update subtask", goerr.V(TaskIDKey, taskID))
		}

		_, err = uc.engine.reconcileLocked(ctx, risk.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *TreatmentUseCase) getTask(ctx context.Context, id int64) (*model.Task, error) {
	task, err := uc.repo.Task().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrTaskNotFound, "task not found", goerr.V(TaskIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get task", goerr.V(TaskIDKey, id))
	}
	return task, nil
}

func canTreat(actor model.Actor, risk *model.Risk) bool {
	if actor.CanManageRisks() {
		return true
	}
	return actor.UserID != "" && risk.OwnerID == actor.UserID
}
