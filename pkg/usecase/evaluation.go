package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/model/config"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
)

type EvaluationUseCase struct {
	repo       interfaces.Repository
	riskConfig *config.RiskConfig
	engine     *lifecycle
}

func NewEvaluationUseCase(repo interfaces.Repository, cfg *config.RiskConfig, engine *lifecycle) *EvaluationUseCase {
	return &EvaluationUseCase{
		repo:       repo,
		riskConfig: cfg,
		engine:     engine,
	}
}

// RecordEvaluation stores the evaluation of a risk for date, today when
// zero. A second evaluation on the same day replaces the first one and
// is pending validation again.
func (uc *EvaluationUseCase) RecordEvaluation(ctx context.Context, actor model.Actor, riskID int64, criteria model.Criteria, date time.Time, comment string) (*model.Evaluation, error) {
	if err := criteria.Require(uc.riskConfig.ScoringPolicy); err != nil {
		return nil, goerr.Wrap(err, "invalid evaluation", goerr.V(RiskIDKey, riskID))
	}

	now := uc.engine.now()
	if date.IsZero() {
		date = now
	}
	if model.Day(date).After(model.Day(now)) {
		return nil, goerr.Wrap(ErrEvaluationInFuture, "cannot evaluate ahead",
			goerr.V(RiskIDKey, riskID),
			goerr.V("eval_date", date))
	}

	var stored *model.Evaluation
	err := uc.engine.locked(func() error {
		risk, err := getRisk(ctx, uc.repo, riskID)
		if err != nil {
			return err
		}
		if !canEvaluate(actor, risk) {
			return goerr.Wrap(ErrAccessDenied, "cannot evaluate risk",
				goerr.V(RiskIDKey, riskID),
				goerr.V(UserIDKey, actor.UserID))
		}
		if !risk.IsActive(now) {
			return goerr.Wrap(ErrRiskInactive, "cannot evaluate inactive risk", goerr.V(RiskIDKey, riskID))
		}

		eval := model.NewEvaluation(riskID, criteria, date, uc.riskConfig.EvaluationMaxAge)
		eval.Comment = comment
		if err := uc.engine.checkTreatment(ctx, risk, eval); err != nil {
			return err
		}
		stored, err = uc.repo.Evaluation().Put(ctx, eval)
		if err != nil {
			return goerr.Wrap(err, "failed to store evaluation", goerr.V(RiskIDKey, riskID))
		}
		logging.From(ctx).Info("evaluation recorded",
			"risk_id", riskID,
			"evaluation_id", stored.ID,
			"eval_date", stored.EvalDate.Format(time.DateOnly),
			"actor", actor.UserID)

		_, err = uc.engine.reconcileLocked(ctx, riskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ValidateEvaluation approves an evaluation. Validating the evaluation of an
// unacceptable risk starts its treatment.
func (uc *EvaluationUseCase) ValidateEvaluation(ctx context.Context, actor model.Actor, evalID int64) (*model.Risk, error) {
	if !actor.CanManageRisks() {
		return nil, goerr.Wrap(ErrAccessDenied, "only risk managers validate evaluations",
			goerr.V(EvaluationIDKey, evalID),
			goerr.V(UserIDKey, actor.UserID))
	}

	var risk *model.Risk
	err := uc.engine.locked(func() error {
		eval, err := uc.getEvaluation(ctx, evalID)
		if err != nil {
			return err
		}
		if eval.IsObsolete(uc.engine.now()) {
			return goerr.Wrap(ErrEvaluationObsolete, "cannot validate obsolete evaluation",
				goerr.V(EvaluationIDKey, evalID),
				goerr.V("review_date", eval.ReviewDate))
		}

		if !eval.IsValid {
			current, err := getRisk(ctx, uc.repo, eval.RiskID)
			if err != nil {
				return err
			}
			validated := *eval
			validated.IsValid = true
			if err := uc.engine.checkTreatment(ctx, current, &validated); err != nil {
				return err
			}

			eval.IsValid = true
			if _, err := uc.repo.Evaluation().Update(ctx, eval); err != nil {
				return goerr.Wrap(err, "failed to validate evaluation", goerr.V(EvaluationIDKey, evalID))
			}
		}

		risk, err = uc.engine.reconcileLocked(ctx, eval.RiskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return risk, nil
}

func (uc *EvaluationUseCase) GetEvaluation(ctx context.Context, id int64) (*model.Evaluation, error) {
	return uc.getEvaluation(ctx, id)
}

// ListEvaluations returns the evaluation history of a risk, newest first
func (uc *EvaluationUseCase) ListEvaluations(ctx context.Context, riskID int64) ([]*model.Evaluation, error) {
	if _, err := getRisk(ctx, uc.repo, riskID); err != nil {
		return nil, err
	}
	evals, err := uc.repo.Evaluation().ListByRisk(ctx, riskID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list evaluations", goerr.V(RiskIDKey, riskID))
	}
	return evals, nil
}

func (uc *EvaluationUseCase) getEvaluation(ctx context.Context, id int64) (*model.Evaluation, error) {
	eval, err := uc.repo.Evaluation().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrEvaluationNotFound, "evaluation not found", goerr.V(EvaluationIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get evaluation", goerr.V(EvaluationIDKey, id))
	}
	return eval, nil
}

// canEvaluate allows risk managers and the owner of a confirmed risk
func canEvaluate(actor model.Actor, risk *model.Risk) bool {
	if actor.CanManageRisks() {
		return true
	}
	return actor.UserID != "" && risk.Confirmed && risk.OwnerID == actor.UserID
}
