package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/usecase"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
)

// ReviewSweeper runs one review cycle over the stored risks
type ReviewSweeper interface {
	SweepReviews(ctx context.Context) (*usecase.SweepResult, error)
	OverdueActivities(ctx context.Context) ([]*model.Activity, error)
}

// ReviewSweepWorker periodically archives lapsed risks and refreshes the
// time dependent fields of the others
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - A sweep is idempotent, so a cycle repeated by a second instance is harmless
type ReviewSweepWorker struct {
	sweeper  ReviewSweeper
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewReviewSweepWorker creates a new worker running a sweep every interval
func NewReviewSweepWorker(sweeper ReviewSweeper, interval time.Duration) *ReviewSweepWorker {
	return &ReviewSweepWorker{
		sweeper:  sweeper,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop
// - The first sweep runs in the background goroutine
// - Does not block server startup
func (w *ReviewSweepWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("sweep interval must be positive", goerr.V("interval", w.interval))
	}

	logging.Default().Info("Review sweep worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *ReviewSweepWorker) Stop() {
	logging.Default().Info("Review sweep worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Review sweep worker stopped")
}

func (w *ReviewSweepWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.sweep(ctx); err != nil {
		logging.Default().Error("Initial review sweep failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				logging.Default().Error("Review sweep failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("Review sweep worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Review sweep worker context cancelled")
			return
		}
	}
}

// sweep performs a single review cycle
func (w *ReviewSweepWorker) sweep(ctx context.Context) error {
	startTime := time.Now()

	result, err := w.sweeper.SweepReviews(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to sweep reviews")
	}

	overdue, err := w.sweeper.OverdueActivities(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list overdue activities")
	}
	for _, a := range overdue {
		logging.Default().Warn("Activity is overdue",
			"risk_id", a.RiskID,
			"activity_id", a.ID,
			"summary", a.Summary,
			"assignee_id", a.AssigneeID,
			"deadline", a.Deadline.Format(time.DateOnly))
	}

	logging.Default().Info("Review sweep completed",
		"checked", result.Checked,
		"archived", len(result.Archived),
		"changed", len(result.Changed),
		"failed", len(result.Failed),
		"overdue", len(overdue),
		"duration", time.Since(startTime).String())

	return nil
}
