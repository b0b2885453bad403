package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
)

type evaluationRepository struct {
	mu     sync.RWMutex
	evals  map[int64]*model.Evaluation
	byDay  map[string]int64
	nextID int64
}

func newEvaluationRepository() *evaluationRepository {
	return &evaluationRepository{
		evals:  make(map[int64]*model.Evaluation),
		byDay:  make(map[string]int64),
		nextID: 1,
	}
}

func evaluationDayKey(riskID int64, date time.Time) string {
	return fmt.Sprintf("%d_%s", riskID, model.Day(date).Format(time.DateOnly))
}

func copyEvaluation(e *model.Evaluation) *model.Evaluation {
	copied := *e
	return &copied
}

func (r *evaluationRepository) Put(ctx context.Context, eval *model.Evaluation) (*model.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyEvaluation(eval)
	stored.EvalDate = model.Day(eval.EvalDate)
	key := evaluationDayKey(stored.RiskID, stored.EvalDate)

	now := time.Now().UTC()
	if id, exists := r.byDay[key]; exists {
		stored.ID = id
		stored.CreatedAt = r.evals[id].CreatedAt
		stored.UpdatedAt = now
	} else {
		stored.ID = r.nextID
		r.nextID++
		stored.CreatedAt = now
		stored.UpdatedAt = now
		r.byDay[key] = stored.ID
	}

	r.evals[stored.ID] = stored
	return copyEvaluation(stored), nil
}

func (r *evaluationRepository) Get(ctx context.Context, id int64) (*model.Evaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eval, exists := r.evals[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "evaluation not found", goerr.V("id", id))
	}
	return copyEvaluation(eval), nil
}

func (r *evaluationRepository) ListByRisk(ctx context.Context, riskID int64) ([]*model.Evaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var evals []*model.Evaluation
	for _, e := range r.evals {
		if e.RiskID == riskID {
			evals = append(evals, copyEvaluation(e))
		}
	}
	sort.Slice(evals, func(i, j int) bool {
		if !evals[i].EvalDate.Equal(evals[j].EvalDate) {
			return evals[i].EvalDate.After(evals[j].EvalDate)
		}
		return evals[i].ID > evals[j].ID
	})
	return evals, nil
}

func (r *evaluationRepository) Update(ctx context.Context, eval *model.Evaluation) (*model.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.evals[eval.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "evaluation not found", goerr.V("id", eval.ID))
	}
	if existing.RiskID != eval.RiskID || !model.SameDay(existing.EvalDate, eval.EvalDate) {
		return nil, goerr.New("evaluation risk and date cannot change", goerr.V("id", eval.ID))
	}

	updated := copyEvaluation(eval)
	updated.EvalDate = existing.EvalDate
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.evals[updated.ID] = updated
	return copyEvaluation(updated), nil
}

func (r *evaluationRepository) DeleteByRisk(ctx context.Context, riskID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.evals {
		if e.RiskID == riskID {
			delete(r.byDay, evaluationDayKey(e.RiskID, e.EvalDate))
			delete(r.evals, id)
		}
	}
	return nil
}
