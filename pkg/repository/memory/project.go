package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

type projectRepository struct {
	mu       sync.RWMutex
	projects map[int64]*model.Project
	nextID   int64
}

func newProjectRepository() *projectRepository {
	return &projectRepository{
		projects: make(map[int64]*model.Project),
		nextID:   1,
	}
}

func copyProject(p *model.Project) *model.Project {
	copied := *p
	return &copied
}

func (r *projectRepository) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.IsRiskTreatment {
		for _, existing := range r.projects {
			if existing.IsRiskTreatment && existing.UnitID == p.UnitID {
				return copyProject(existing), nil
			}
		}
	}

	created := copyProject(p)
	created.ID = r.nextID
	r.nextID++
	stampCreate(&created.CreatedAt, &created.UpdatedAt)

	r.projects[created.ID] = created
	return copyProject(created), nil
}

func (r *projectRepository) Get(ctx context.Context, id int64) (*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.projects[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", id))
	}
	return copyProject(p), nil
}

func (r *projectRepository) List(ctx context.Context) ([]*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	projects := make([]*model.Project, 0, len(r.projects))
	for _, p := range r.projects {
		projects = append(projects, copyProject(p))
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func (r *projectRepository) GetTreatmentProject(ctx context.Context, unitID types.UnitID) (*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.projects {
		if p.IsRiskTreatment && p.UnitID == unitID {
			return copyProject(p), nil
		}
	}
	return nil, nil
}

func (r *projectRepository) Update(ctx context.Context, p *model.Project) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.projects[p.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", p.ID))
	}

	updated := copyProject(p)
	updated.UnitID = existing.UnitID
	updated.IsRiskTreatment = existing.IsRiskTreatment
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.projects[updated.ID] = updated
	return copyProject(updated), nil
}

type taskRepository struct {
	mu     sync.RWMutex
	tasks  map[int64]*model.Task
	nextID int64
}

func newTaskRepository() *taskRepository {
	return &taskRepository{
		tasks:  make(map[int64]*model.Task),
		nextID: 1,
	}
}

func copyTask(task *model.Task) *model.Task {
	copied := *task
	return &copied
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyTask(task)
	created.ID = r.nextID
	r.nextID++
	stampCreate(&created.CreatedAt, &created.UpdatedAt)

	r.tasks[created.ID] = created
	return copyTask(created), nil
}

func (r *taskRepository) Get(ctx context.Context, id int64) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, exists := r.tasks[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "task not found", goerr.V("id", id))
	}
	return copyTask(task), nil
}

func (r *taskRepository) GetTreatment(ctx context.Context, riskID int64) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, task := range r.tasks {
		if task.RiskID == riskID && task.ParentID == 0 {
			return copyTask(task), nil
		}
	}
	return nil, nil
}

func (r *taskRepository) ListByParent(ctx context.Context, parentID int64) ([]*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tasks []*model.Task
	for _, task := range r.tasks {
		if task.ParentID == parentID {
			tasks = append(tasks, copyTask(task))
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.tasks[task.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "task not found", goerr.V("id", task.ID))
	}

	updated := copyTask(task)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.tasks[updated.ID] = updated
	return copyTask(updated), nil
}
