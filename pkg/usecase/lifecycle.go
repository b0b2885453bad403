package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/model/config"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/utils/async"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
)

// lifecycle owns every write that changes the derived fields of a risk.
// Writes are serialized so that a re-derivation always sees the data it
// was triggered by and priority ranks are computed over a stable set.
type lifecycle struct {
	repo     interfaces.Repository
	cfg      *config.RiskConfig
	units    *model.UnitRegistry
	notifier interfaces.Notifier
	now      func() time.Time

	mu sync.Mutex
}

func newLifecycle(repo interfaces.Repository, cfg *config.RiskConfig, units *model.UnitRegistry, notifier interfaces.Notifier, now func() time.Time) *lifecycle {
	return &lifecycle{
		repo:     repo,
		cfg:      cfg,
		units:    units,
		notifier: notifier,
		now:      now,
	}
}

// locked runs fn while holding the lifecycle lock
func (l *lifecycle) locked(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

// update loads the risk, applies fn, stores it and re-derives it. Nothing is
// written when fn fails.
func (l *lifecycle) update(ctx context.Context, riskID int64, fn func(risk *model.Risk) error) (*model.Risk, error) {
	var result *model.Risk
	err := l.locked(func() error {
		risk, err := getRisk(ctx, l.repo, riskID)
		if err != nil {
			return err
		}
		oldKind := risk.Kind

		if err := fn(risk); err != nil {
			return err
		}
		if err := l.checkTreatment(ctx, risk, nil); err != nil {
			return err
		}
		if _, err := l.repo.Risk().Update(ctx, risk); err != nil {
			return goerr.Wrap(err, "failed to update risk", goerr.V(RiskIDKey, riskID))
		}

		result, err = l.reconcileLocked(ctx, riskID)
		if err != nil {
			return err
		}
		if oldKind != result.Kind {
			return l.rerank(ctx, oldKind)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reconcile re-derives the risk and applies the treatment side effects
func (l *lifecycle) reconcile(ctx context.Context, riskID int64) (*model.Risk, error) {
	var result *model.Risk
	err := l.locked(func() error {
		var err error
		result, err = l.reconcileLocked(ctx, riskID)
		return err
	})
	return result, err
}

// checkTreatment derives risk as it will be once pending is stored and fails
// when that state needs a treatment task that cannot be created. pending
// replaces the stored evaluation with the same ID, or the one of the same day
// when it has no ID yet; it may be nil. Callers run it before any write.
func (l *lifecycle) checkTreatment(ctx context.Context, risk *model.Risk, pending *model.Evaluation) error {
	evals, err := l.repo.Evaluation().ListByRisk(ctx, risk.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to list evaluations", goerr.V(RiskIDKey, risk.ID))
	}
	if pending != nil {
		evals = withEvaluation(evals, pending)
	}

	task, err := l.repo.Task().GetTreatment(ctx, risk.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to get treatment task", goerr.V(RiskIDKey, risk.ID))
	}
	children, err := l.children(ctx, task)
	if err != nil {
		return err
	}

	d := model.Derive(risk, evals, task, children, l.cfg.ScoringPolicy, l.now())
	if d.Treatment != model.TreatmentCreate {
		return nil
	}
	_, err = l.treatmentProject(ctx, risk)
	return err
}

func withEvaluation(evals []*model.Evaluation, pending *model.Evaluation) []*model.Evaluation {
	result := make([]*model.Evaluation, 0, len(evals)+1)
	replaced := false
	for _, e := range evals {
		same := e.ID == pending.ID
		if pending.ID == 0 {
			same = model.SameDay(e.EvalDate, pending.EvalDate)
		}
		if same && !replaced {
			result = append(result, pending)
			replaced = true
			continue
		}
		result = append(result, e)
	}
	if !replaced {
		result = append(result, pending)
	}
	return result
}

func (l *lifecycle) reconcileLocked(ctx context.Context, riskID int64) (*model.Risk, error) {
	now := l.now()
	policy := l.cfg.ScoringPolicy

	risk, err := getRisk(ctx, l.repo, riskID)
	if err != nil {
		return nil, err
	}

	evals, err := l.repo.Evaluation().ListByRisk(ctx, riskID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list evaluations", goerr.V(RiskIDKey, riskID))
	}

	task, err := l.repo.Task().GetTreatment(ctx, riskID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get treatment task", goerr.V(RiskIDKey, riskID))
	}
	children, err := l.children(ctx, task)
	if err != nil {
		return nil, err
	}

	d := model.Derive(risk, evals, task, children, policy, now)
	action := d.Treatment

	switch action {
	case model.TreatmentCreate:
		task, err = l.createTreatment(ctx, risk)
		if err != nil {
			return nil, err
		}
		risk.TreatmentTaskID = task.ID
		children = nil

	case model.TreatmentArchive, model.TreatmentReactivate:
		taskID := task.ID
		task.Active = action == model.TreatmentReactivate
		task, err = l.repo.Task().Update(ctx, task)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to update treatment task",
				goerr.V(RiskIDKey, riskID),
				goerr.V(TaskIDKey, taskID))
		}
	}

	if action != model.TreatmentKeep {
		logging.From(ctx).Info("treatment task changed",
			"risk_id", riskID,
			"task_id", task.ID,
			"action", action.String())
		d = model.Derive(risk, evals, task, children, policy, now)
	}

	prevStage := risk.Stage
	d.Apply(risk)
	if _, err := l.repo.Risk().Update(ctx, risk); err != nil {
		return nil, goerr.Wrap(err, "failed to store derived fields", goerr.V(RiskIDKey, riskID))
	}
	if prevStage != risk.Stage {
		logging.From(ctx).Debug("risk stage changed",
			"risk_id", riskID,
			"from", prevStage.String(),
			"to", risk.Stage.String())
	}

	if action == model.TreatmentCreate {
		if err := l.schedule(ctx, risk, model.ActivityTreat, risk.OwnerID, l.cfg.Activity.TreatDeadline); err != nil {
			return nil, err
		}
	}

	if err := l.rerank(ctx, risk.Kind); err != nil {
		return nil, err
	}

	return getRisk(ctx, l.repo, riskID)
}

func (l *lifecycle) children(ctx context.Context, task *model.Task) ([]*model.Task, error) {
	if task == nil {
		return nil, nil
	}
	children, err := l.repo.Task().ListByParent(ctx, task.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list treatment subtasks", goerr.V(TaskIDKey, task.ID))
	}
	return children, nil
}

// rerank recomputes the priority of every risk of kind and stores the ones
// that changed
func (l *lifecycle) rerank(ctx context.Context, kind types.RiskKind) error {
	risks, err := l.repo.Risk().List(ctx, interfaces.WithKind(kind))
	if err != nil {
		return goerr.Wrap(err, "failed to list risks", goerr.V("kind", kind))
	}

	ranks := model.RankRisks(risks, l.now())
	for _, r := range risks {
		p := ranks[r.ID]
		if r.Priority == p {
			continue
		}
		r.Priority = p
		if _, err := l.repo.Risk().Update(ctx, r); err != nil {
			return goerr.Wrap(err, "failed to update priority", goerr.V(RiskIDKey, r.ID))
		}
	}
	return nil
}

func (l *lifecycle) createTreatment(ctx context.Context, risk *model.Risk) (*model.Task, error) {
	project, err := l.treatmentProject(ctx, risk)
	if err != nil {
		return nil, err
	}

	info, err := getRiskInfo(ctx, l.repo, risk.InfoID)
	if err != nil {
		return nil, err
	}

	task, err := l.repo.Task().Create(ctx, &model.Task{
		ProjectID:   project.ID,
		RiskID:      risk.ID,
		Name:        model.TreatmentTaskName(info, risk.Kind),
		Description: info.Action,
		Active:      true,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create treatment task", goerr.V(RiskIDKey, risk.ID))
	}
	return task, nil
}

// treatmentProject returns the project the treatment task of risk belongs
// to. A business unit's treatment project is created on first use.
func (l *lifecycle) treatmentProject(ctx context.Context, risk *model.Risk) (*model.Project, error) {
	if risk.Context.Scope == types.ScopeProject {
		project, err := l.repo.Project().Get(ctx, risk.Context.ProjectID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, goerr.Wrap(ErrProjectNotFound, "project of risk not found",
					goerr.V(RiskIDKey, risk.ID),
					goerr.V(ProjectIDKey, risk.Context.ProjectID))
			}
			return nil, goerr.Wrap(err, "failed to get project", goerr.V(ProjectIDKey, risk.Context.ProjectID))
		}
		if !project.Active {
			return nil, goerr.Wrap(ErrProjectNotFound, "project of risk is archived",
				goerr.V(RiskIDKey, risk.ID),
				goerr.V(ProjectIDKey, project.ID))
		}
		return project, nil
	}

	unit, err := l.units.Get(risk.Context.UnitID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve unit of risk", goerr.V(RiskIDKey, risk.ID))
	}

	project, err := l.repo.Project().GetTreatmentProject(ctx, unit.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get treatment project", goerr.V("unit_id", unit.ID))
	}
	if project == nil {
		project, err = l.repo.Project().Create(ctx, &model.Project{
			Name:            model.TreatmentProjectName(unit.Name),
			UnitID:          unit.ID,
			IsRiskTreatment: true,
			Active:          true,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create treatment project", goerr.V("unit_id", unit.ID))
		}
		logging.From(ctx).Info("treatment project created", "unit_id", unit.ID, "project_id", project.ID)
	}
	if !project.Active {
		return nil, goerr.Wrap(ErrProjectNotFound, "treatment project is archived",
			goerr.V("unit_id", unit.ID),
			goerr.V(ProjectIDKey, project.ID))
	}
	return project, nil
}

// schedule closes the open activities of risk and plans the next one
func (l *lifecycle) schedule(ctx context.Context, risk *model.Risk, summary, assignee string, after time.Duration) error {
	if err := l.closeActivities(ctx, risk.ID); err != nil {
		return err
	}

	now := l.now()
	activity, err := l.repo.Activity().Create(ctx, &model.Activity{
		RiskID:     risk.ID,
		Summary:    summary,
		AssigneeID: assignee,
		Deadline:   model.Day(now).Add(after),
		CreatedAt:  now,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to schedule activity",
			goerr.V(RiskIDKey, risk.ID),
			goerr.V("summary", summary))
	}

	l.notify(ctx, risk, activity)
	return nil
}

// closeActivities marks the open activities of the risk done
func (l *lifecycle) closeActivities(ctx context.Context, riskID int64) error {
	activities, err := l.repo.Activity().ListByRisk(ctx, riskID)
	if err != nil {
		return goerr.Wrap(err, "failed to list activities", goerr.V(RiskIDKey, riskID))
	}

	now := l.now()
	for _, a := range activities {
		if a.Done {
			continue
		}
		a.Done = true
		a.DoneAt = &now
		if _, err := l.repo.Activity().Update(ctx, a); err != nil {
			return goerr.Wrap(err, "failed to close activity",
				goerr.V(RiskIDKey, riskID),
				goerr.V("activity_id", a.ID))
		}
	}
	return nil
}

func (l *lifecycle) notify(ctx context.Context, risk *model.Risk, activity *model.Activity) {
	if l.notifier == nil {
		return
	}

	r := *risk
	a := *activity
	async.Dispatch(ctx, "notify_activity", func(ctx context.Context) error {
		info, err := getRiskInfo(ctx, l.repo, r.InfoID)
		if err != nil {
			return err
		}
		if err := l.notifier.NotifyActivity(ctx, &r, info, &a); err != nil {
			return goerr.Wrap(err, "failed to notify activity",
				goerr.V(RiskIDKey, r.ID),
				goerr.V("activity_id", a.ID))
		}
		return nil
	})
}

func getRisk(ctx context.Context, repo interfaces.Repository, id int64) (*model.Risk, error) {
	risk, err := repo.Risk().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrRiskNotFound, "risk not found", goerr.V(RiskIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(RiskIDKey, id))
	}
	return risk, nil
}

func getRiskInfo(ctx context.Context, repo interfaces.Repository, id int64) (*model.RiskInfo, error) {
	info, err := repo.RiskInfo().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrRiskInfoNotFound, "risk info not found", goerr.V(RiskInfoIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get risk info", goerr.V(RiskInfoIDKey, id))
	}
	return info, nil
}
