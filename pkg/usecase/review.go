package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/utils/errutil"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// sweepConcurrency bounds the risks loaded in parallel by a sweep
const sweepConcurrency = 4

// ReviewUseCase runs the periodic review of risks. Evaluations become
// obsolete and review windows lapse with time alone, so derived fields are
// refreshed by a sweep rather than by a write.
type ReviewUseCase struct {
	repo   interfaces.Repository
	engine *lifecycle
}

func NewReviewUseCase(repo interfaces.Repository, engine *lifecycle) *ReviewUseCase {
	return &ReviewUseCase{
		repo:   repo,
		engine: engine,
	}
}

// SweepResult reports what a sweep changed. Failed lists the risks whose
// review returned an error; they are left as they were.
type SweepResult struct {
	Archived []int64
	Changed  []int64
	Failed   []int64
	Checked  int
}

// SweepReviews archives the risks whose review date has passed, together
// with their treatment tasks and open activities, and re-derives every other
// active risk. A risk that cannot be reviewed is logged and reported in
// Failed without stopping the others.
func (uc *ReviewUseCase) SweepReviews(ctx context.Context) (*SweepResult, error) {
	risks, err := uc.repo.Risk().List(ctx, interfaces.WithoutArchived())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risks")
	}

	var mu sync.Mutex
	result := &SweepResult{Checked: len(risks)}

	var eg errgroup.Group
	eg.SetLimit(sweepConcurrency)

	for _, risk := range risks {
		eg.Go(func() error {
			archived, changed, err := uc.review(ctx, risk)
			if err != nil {
				_ = errutil.Handle(ctx, goerr.Wrap(err, "review of risk failed", goerr.V(RiskIDKey, risk.ID)), "review sweep skipped a risk")
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, risk.ID)
				return nil
			}
			if archived {
				result.Archived = append(result.Archived, risk.ID)
			} else if changed {
				result.Changed = append(result.Changed, risk.ID)
			}
			return nil
		})
	}
	_ = eg.Wait()

	for _, ids := range [][]int64{result.Archived, result.Changed, result.Failed} {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	logging.From(ctx).Info("review sweep done",
		"checked", result.Checked,
		"archived", len(result.Archived),
		"changed", len(result.Changed),
		"failed", len(result.Failed))
	return result, nil
}

func (uc *ReviewUseCase) review(ctx context.Context, risk *model.Risk) (archived, changed bool, err error) {
	now := uc.engine.now()

	if !risk.IsLapsed(now) {
		updated, err := uc.engine.reconcile(ctx, risk.ID)
		if err != nil {
			return false, false, err
		}
		changed = updated.Stage != risk.Stage || updated.Status != risk.Status || updated.Priority != risk.Priority
		return false, changed, nil
	}

	err = uc.engine.locked(func() error {
		current, err := getRisk(ctx, uc.repo, risk.ID)
		if err != nil {
			return err
		}
		if !current.IsLapsed(now) {
			return nil
		}

		current.ArchivedAt = &now
		if _, err := uc.repo.Risk().Update(ctx, current); err != nil {
			return goerr.Wrap(err, "failed to archive lapsed risk", goerr.V(RiskIDKey, risk.ID))
		}
		if err := uc.engine.closeActivities(ctx, risk.ID); err != nil {
			return err
		}
		if _, err := uc.engine.reconcileLocked(ctx, risk.ID); err != nil {
			return err
		}

		archived = true
		logging.From(ctx).Info("lapsed risk archived",
			"risk_id", risk.ID,
			"review_date", current.ReviewDate)
		return nil
	})
	if err != nil {
		return false, false, err
	}
	return archived, false, nil
}

// OverdueActivities returns the open activities past their deadline
func (uc *ReviewUseCase) OverdueActivities(ctx context.Context) ([]*model.Activity, error) {
	open, err := uc.repo.Activity().ListOpen(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list open activities")
	}

	now := uc.engine.now()
	var overdue []*model.Activity
	for _, a := range open {
		if a.IsOverdue(now) {
			overdue = append(overdue, a)
		}
	}
	return overdue, nil
}
