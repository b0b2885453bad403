package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/model/config"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
)

type RiskUseCase struct {
	repo       interfaces.Repository
	riskConfig *config.RiskConfig
	engine     *lifecycle
}

func NewRiskUseCase(repo interfaces.Repository, cfg *config.RiskConfig, engine *lifecycle) *RiskUseCase {
	return &RiskUseCase{
		repo:       repo,
		riskConfig: cfg,
		engine:     engine,
	}
}

// ReportRiskInput holds the fields a reporter fills in. Zero dates and a zero
// threshold are replaced with defaults.
type ReportRiskInput struct {
	InfoID     int64
	Kind       types.RiskKind
	Context    model.RiskContext
	ReportDate time.Time
	ReviewDate time.Time
	OwnerID    string
	Threshold  model.Criteria
	Comment    string
}

// RiskPatch holds the editable fields of a risk. Nil fields are left as is.
type RiskPatch struct {
	Kind       *types.RiskKind
	Context    *model.RiskContext
	OwnerID    *string
	ReportDate *time.Time
	ReviewDate *time.Time
	Comment    *string
}

// ReportRisk records a new risk occurrence. While an active occurrence with
// the same info, context and kind exists the report is rejected with
// model.ErrDuplicateRisk; an archived or lapsed one is reactivated instead.
func (uc *RiskUseCase) ReportRisk(ctx context.Context, actor model.Actor, input ReportRiskInput) (*model.Risk, error) {
	if actor.UserID == "" {
		return nil, goerr.Wrap(ErrAccessDenied, "reporter is required")
	}
	if _, err := getRiskInfo(ctx, uc.repo, input.InfoID); err != nil {
		return nil, err
	}
	if err := uc.checkContext(ctx, input.Context); err != nil {
		return nil, err
	}

	now := uc.engine.now()
	risk := &model.Risk{
		InfoID:     input.InfoID,
		Kind:       input.Kind,
		Context:    input.Context,
		ReportDate: input.ReportDate,
		ReporterID: actor.UserID,
		OwnerID:    input.OwnerID,
		ReviewDate: input.ReviewDate,
		Threshold:  input.Threshold,
		Comment:    input.Comment,
	}
	if risk.ReportDate.IsZero() {
		risk.ReportDate = model.Day(now)
	}
	if risk.ReviewDate.IsZero() {
		risk.ReviewDate = model.Day(risk.ReportDate).Add(uc.riskConfig.ReviewMaxAge)
	}
	if risk.Threshold.IsZero() {
		risk.Threshold = model.DefaultCriteria()
	}
	if err := risk.Validate(now); err != nil {
		return nil, goerr.Wrap(err, "invalid risk")
	}

	var result *model.Risk
	err := uc.engine.locked(func() error {
		existing, err := uc.repo.Risk().GetByKey(ctx, risk.Key())
		if err != nil {
			return goerr.Wrap(err, "failed to look up risk key", goerr.V("key", risk.Key()))
		}

		var stored *model.Risk
		switch {
		case existing == nil:
			stored, err = uc.repo.Risk().Create(ctx, risk)
			if err != nil {
				return goerr.Wrap(err, "failed to create risk", goerr.V("key", risk.Key()))
			}
			logging.From(ctx).Info("risk reported",
				"risk_id", stored.ID,
				"key", stored.Key(),
				"reporter", actor.UserID)

		case existing.IsActive(now):
			return goerr.Wrap(model.ErrDuplicateRisk, "risk already reported",
				goerr.V(RiskIDKey, existing.ID),
				goerr.V("key", risk.Key()))

		default:
			existing.ArchivedAt = nil
			existing.Confirmed = false
			existing.ReporterID = actor.UserID
			existing.ReportDate = risk.ReportDate
			existing.ReviewDate = risk.ReviewDate
			existing.Threshold = risk.Threshold
			existing.Comment = risk.Comment
			if risk.OwnerID != "" {
				existing.OwnerID = risk.OwnerID
			}
			stored, err = uc.repo.Risk().Update(ctx, existing)
			if err != nil {
				return goerr.Wrap(err, "failed to reactivate risk", goerr.V(RiskIDKey, existing.ID))
			}
			logging.From(ctx).Info("archived risk reported again",
				"risk_id", stored.ID,
				"reporter", actor.UserID)
		}

		if err := uc.engine.schedule(ctx, stored, model.ActivityVerify, "", uc.riskConfig.Activity.VerifyDeadline); err != nil {
			return err
		}

		result, err = uc.engine.reconcileLocked(ctx, stored.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateRisk edits a risk. Risk managers edit any risk; the reporter edits
// their own risk until it is confirmed.
func (uc *RiskUseCase) UpdateRisk(ctx context.Context, actor model.Actor, id int64, patch RiskPatch) (*model.Risk, error) {
	return uc.engine.update(ctx, id, func(risk *model.Risk) error {
		if !actor.CanEditRisk(risk) {
			return goerr.Wrap(ErrAccessDenied, "cannot edit risk",
				goerr.V(RiskIDKey, id),
				goerr.V(UserIDKey, actor.UserID))
		}

		if patch.Kind != nil {
			risk.Kind = *patch.Kind
		}
		if patch.Context != nil {
			if err := uc.checkContext(ctx, *patch.Context); err != nil {
				return err
			}
			risk.Context = *patch.Context
		}
		if patch.OwnerID != nil {
			risk.OwnerID = *patch.OwnerID
		}
		if patch.ReportDate != nil {
			risk.ReportDate = model.Day(*patch.ReportDate)
		}
		if patch.ReviewDate != nil {
			risk.ReviewDate = model.Day(*patch.ReviewDate)
		}
		if patch.Comment != nil {
			risk.Comment = *patch.Comment
		}

		if err := risk.Validate(risk.CreatedAt); err != nil {
			return goerr.Wrap(err, "invalid risk", goerr.V(RiskIDKey, id))
		}
		return nil
	})
}

// SetThreshold writes the threshold criteria of a risk
func (uc *RiskUseCase) SetThreshold(ctx context.Context, actor model.Actor, id int64, threshold model.Criteria) (*model.Risk, error) {
	if err := threshold.Require(uc.riskConfig.ScoringPolicy); err != nil {
		return nil, goerr.Wrap(err, "invalid threshold", goerr.V(RiskIDKey, id))
	}

	return uc.engine.update(ctx, id, func(risk *model.Risk) error {
		if !actor.CanEditRisk(risk) {
			return goerr.Wrap(ErrAccessDenied, "cannot set threshold",
				goerr.V(RiskIDKey, id),
				goerr.V(UserIDKey, actor.UserID))
		}
		risk.Threshold = threshold
		return nil
	})
}

// ConfirmRisk marks a reported risk as a real one and asks its owner for an
// evaluation
func (uc *RiskUseCase) ConfirmRisk(ctx context.Context, actor model.Actor, id int64) (*model.Risk, error) {
	if !actor.CanManageRisks() {
		return nil, goerr.Wrap(ErrAccessDenied, "only risk managers confirm risks",
			goerr.V(RiskIDKey, id),
			goerr.V(UserIDKey, actor.UserID))
	}

	var confirmed bool
	risk, err := uc.engine.update(ctx, id, func(risk *model.Risk) error {
		if !risk.IsActive(uc.engine.now()) {
			return goerr.Wrap(ErrRiskInactive, "cannot confirm inactive risk", goerr.V(RiskIDKey, id))
		}
		confirmed = !risk.Confirmed
		risk.Confirmed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if confirmed {
		err := uc.engine.locked(func() error {
			return uc.engine.schedule(ctx, risk, model.ActivityEvaluate, risk.OwnerID, uc.riskConfig.Activity.EvaluateDeadline)
		})
		if err != nil {
			return nil, err
		}
	}
	return risk, nil
}

// DeactivateRisk archives a risk. Its treatment task is archived with it.
func (uc *RiskUseCase) DeactivateRisk(ctx context.Context, actor model.Actor, id int64) (*model.Risk, error) {
	if !actor.CanManageRisks() {
		return nil, goerr.Wrap(ErrAccessDenied, "only risk managers archive risks",
			goerr.V(RiskIDKey, id),
			goerr.V(UserIDKey, actor.UserID))
	}

	risk, err := uc.engine.update(ctx, id, func(risk *model.Risk) error {
		if risk.ArchivedAt == nil {
			now := uc.engine.now()
			risk.ArchivedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := uc.engine.locked(func() error { return uc.engine.closeActivities(ctx, id) }); err != nil {
		return nil, err
	}
	return risk, nil
}

// ReactivateRisk un-archives a risk. A lapsed review date is pushed forward
// by the review window.
func (uc *RiskUseCase) ReactivateRisk(ctx context.Context, actor model.Actor, id int64) (*model.Risk, error) {
	if !actor.CanManageRisks() {
		return nil, goerr.Wrap(ErrAccessDenied, "only risk managers reactivate risks",
			goerr.V(RiskIDKey, id),
			goerr.V(UserIDKey, actor.UserID))
	}

	return uc.engine.update(ctx, id, func(risk *model.Risk) error {
		risk.ArchivedAt = nil
		today := model.Day(uc.engine.now())
		if !today.Before(model.Day(risk.ReviewDate)) {
			risk.ReviewDate = today.Add(uc.riskConfig.ReviewMaxAge)
		}
		return nil
	})
}

// DeleteRisk removes a risk with its evaluations and activities. Its
// treatment task is archived, not deleted.
func (uc *RiskUseCase) DeleteRisk(ctx context.Context, actor model.Actor, id int64) error {
	return uc.engine.locked(func() error {
		risk, err := getRisk(ctx, uc.repo, id)
		if err != nil {
			return err
		}
		if !actor.CanEditRisk(risk) {
			return goerr.Wrap(ErrAccessDenied, "cannot delete risk",
				goerr.V(RiskIDKey, id),
				goerr.V(UserIDKey, actor.UserID))
		}

		if err := uc.repo.Evaluation().DeleteByRisk(ctx, id); err != nil {
			return goerr.Wrap(err, "failed to delete evaluations", goerr.V(RiskIDKey, id))
		}
		if err := uc.repo.Activity().DeleteByRisk(ctx, id); err != nil {
			return goerr.Wrap(err, "failed to delete activities", goerr.V(RiskIDKey, id))
		}

		task, err := uc.repo.Task().GetTreatment(ctx, id)
		if err != nil {
			return goerr.Wrap(err, "failed to get treatment task", goerr.V(RiskIDKey, id))
		}
		if task != nil && task.Active {
			task.Active = false
			if _, err := uc.repo.Task().Update(ctx, task); err != nil {
				return goerr.Wrap(err, "failed to archive treatment task",
					goerr.V(RiskIDKey, id),
					goerr.V(TaskIDKey, task.ID))
			}
		}

		if err := uc.repo.Risk().Delete(ctx, id); err != nil {
			return goerr.Wrap(err, "failed to delete risk", goerr.V(RiskIDKey, id))
		}
		logging.From(ctx).Info("risk deleted", "risk_id", id, "actor", actor.UserID)

		return uc.engine.rerank(ctx, risk.Kind)
	})
}

func (uc *RiskUseCase) GetRisk(ctx context.Context, id int64) (*model.Risk, error) {
	return getRisk(ctx, uc.repo, id)
}

func (uc *RiskUseCase) ListRisks(ctx context.Context, opts ...interfaces.ListRiskOption) ([]*model.Risk, error) {
	risks, err := uc.repo.Risk().List(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risks")
	}
	return risks, nil
}

// ListActivities returns the follow-up activities of a risk
func (uc *RiskUseCase) ListActivities(ctx context.Context, riskID int64) ([]*model.Activity, error) {
	if _, err := getRisk(ctx, uc.repo, riskID); err != nil {
		return nil, err
	}
	activities, err := uc.repo.Activity().ListByRisk(ctx, riskID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list activities", goerr.V(RiskIDKey, riskID))
	}
	return activities, nil
}

// Profile summarizes the active risks matching opts
func (uc *RiskUseCase) Profile(ctx context.Context, opts ...interfaces.ListRiskOption) (*model.RiskProfile, error) {
	risks, err := uc.ListRisks(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return model.BuildProfile(risks, uc.engine.now()), nil
}

// checkContext verifies that the unit, project and process of a context exist
// and belong together
func (uc *RiskUseCase) checkContext(ctx context.Context, c model.RiskContext) error {
	if err := c.Validate(); err != nil {
		return err
	}

	var owner model.Owner
	switch c.Scope {
	case types.ScopeBusiness:
		if _, err := uc.engine.units.Get(c.UnitID); err != nil {
			return err
		}
		owner = model.UnitOwner(c.UnitID)

	case types.ScopeProject:
		project, err := uc.repo.Project().Get(ctx, c.ProjectID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return goerr.Wrap(ErrProjectNotFound, "project not found", goerr.V(ProjectIDKey, c.ProjectID))
			}
			return goerr.Wrap(err, "failed to get project", goerr.V(ProjectIDKey, c.ProjectID))
		}
		if !project.Active {
			return goerr.Wrap(ErrProjectNotFound, "project is archived", goerr.V(ProjectIDKey, c.ProjectID))
		}
		owner = model.ProjectOwner(c.ProjectID)
	}

	if c.ProcessID == 0 {
		return nil
	}
	process, err := getProcess(ctx, uc.repo, c.ProcessID)
	if err != nil {
		return err
	}
	if process.Owner.Key() != owner.Key() {
		return goerr.Wrap(model.ErrInvalidRiskContext, "process belongs to another owner",
			goerr.V(ProcessIDKey, c.ProcessID),
			goerr.V(OwnerKey, owner.Key()))
	}
	return nil
}

func (uc *RiskUseCase) CreateRiskInfo(ctx context.Context, actor model.Actor, info *model.RiskInfo) (*model.RiskInfo, error) {
	if actor.UserID == "" {
		return nil, goerr.Wrap(ErrAccessDenied, "author is required")
	}
	if err := uc.validateRiskInfo(info); err != nil {
		return nil, err
	}

	info.CreatedBy = actor.UserID
	created, err := uc.repo.RiskInfo().Create(ctx, info)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create risk info")
	}
	return created, nil
}

// UpdateRiskInfo edits a risk info. Risk managers edit any; users edit the
// ones they created.
func (uc *RiskUseCase) UpdateRiskInfo(ctx context.Context, actor model.Actor, info *model.RiskInfo) (*model.RiskInfo, error) {
	existing, err := getRiskInfo(ctx, uc.repo, info.ID)
	if err != nil {
		return nil, err
	}
	if !canEditRiskInfo(actor, existing) {
		return nil, goerr.Wrap(ErrAccessDenied, "cannot edit risk info",
			goerr.V(RiskInfoIDKey, info.ID),
			goerr.V(UserIDKey, actor.UserID))
	}
	if err := uc.validateRiskInfo(info); err != nil {
		return nil, err
	}

	info.CreatedBy = existing.CreatedBy
	info.CreatedAt = existing.CreatedAt
	updated, err := uc.repo.RiskInfo().Update(ctx, info)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update risk info", goerr.V(RiskInfoIDKey, info.ID))
	}
	return updated, nil
}

// DeleteRiskInfo removes a risk info no risk refers to
func (uc *RiskUseCase) DeleteRiskInfo(ctx context.Context, actor model.Actor, id int64) error {
	existing, err := getRiskInfo(ctx, uc.repo, id)
	if err != nil {
		return err
	}
	if !canEditRiskInfo(actor, existing) {
		return goerr.Wrap(ErrAccessDenied, "cannot delete risk info",
			goerr.V(RiskInfoIDKey, id),
			goerr.V(UserIDKey, actor.UserID))
	}

	risks, err := uc.repo.Risk().List(ctx, interfaces.WithInfo(id))
	if err != nil {
		return goerr.Wrap(err, "failed to list risks", goerr.V(RiskInfoIDKey, id))
	}
	if len(risks) > 0 {
		return goerr.Wrap(ErrInUse, "risk info has occurrences",
			goerr.V(RiskInfoIDKey, id),
			goerr.V("risks", len(risks)))
	}

	if err := uc.repo.RiskInfo().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete risk info", goerr.V(RiskInfoIDKey, id))
	}
	return nil
}

func (uc *RiskUseCase) GetRiskInfo(ctx context.Context, id int64) (*model.RiskInfo, error) {
	return getRiskInfo(ctx, uc.repo, id)
}

func (uc *RiskUseCase) ListRiskInfos(ctx context.Context) ([]*model.RiskInfo, error) {
	infos, err := uc.repo.RiskInfo().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risk infos")
	}
	return infos, nil
}

func (uc *RiskUseCase) validateRiskInfo(info *model.RiskInfo) error {
	if err := info.Validate(); err != nil {
		return goerr.Wrap(err, "invalid risk info")
	}
	if info.Category != "" && !uc.riskConfig.HasCategory(info.Category) {
		return goerr.Wrap(ErrUnknownCategory, "unknown category", goerr.V("category", info.Category))
	}
	return nil
}

func canEditRiskInfo(actor model.Actor, info *model.RiskInfo) bool {
	return actor.IsRiskManager() || (actor.UserID != "" && actor.UserID == info.CreatedBy)
}
