package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
)

type activityRepository struct {
	mu         sync.RWMutex
	activities map[model.ActivityID]*model.Activity
}

func newActivityRepository() *activityRepository {
	return &activityRepository{
		activities: make(map[model.ActivityID]*model.Activity),
	}
}

func copyActivity(a *model.Activity) *model.Activity {
	copied := *a
	if a.DoneAt != nil {
		t := *a.DoneAt
		copied.DoneAt = &t
	}
	return &copied
}

func sortActivities(activities []*model.Activity) {
	sort.Slice(activities, func(i, j int) bool {
		if !activities[i].CreatedAt.Equal(activities[j].CreatedAt) {
			return activities[i].CreatedAt.Before(activities[j].CreatedAt)
		}
		return activities[i].ID < activities[j].ID
	})
}

func (r *activityRepository) Create(ctx context.Context, activity *model.Activity) (*model.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyActivity(activity)
	if created.ID == "" {
		created.ID = model.NewActivityID()
	}
	updatedAt := created.CreatedAt
	stampCreate(&created.CreatedAt, &updatedAt)

	r.activities[created.ID] = created
	return copyActivity(created), nil
}

func (r *activityRepository) ListByRisk(ctx context.Context, riskID int64) ([]*model.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var activities []*model.Activity
	for _, a := range r.activities {
		if a.RiskID == riskID {
			activities = append(activities, copyActivity(a))
		}
	}
	sortActivities(activities)
	return activities, nil
}

func (r *activityRepository) ListOpen(ctx context.Context) ([]*model.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var activities []*model.Activity
	for _, a := range r.activities {
		if !a.Done {
			activities = append(activities, copyActivity(a))
		}
	}
	sortActivities(activities)
	return activities, nil
}

func (r *activityRepository) Update(ctx context.Context, activity *model.Activity) (*model.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.activities[activity.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "activity not found", goerr.V("id", activity.ID))
	}

	updated := copyActivity(activity)
	updated.RiskID = existing.RiskID
	updated.CreatedAt = existing.CreatedAt

	r.activities[updated.ID] = updated
	return copyActivity(updated), nil
}

func (r *activityRepository) DeleteByRisk(ctx context.Context, riskID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, a := range r.activities {
		if a.RiskID == riskID {
			delete(r.activities, id)
		}
	}
	return nil
}
