package interfaces

import (
	"context"

	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

type ProjectRepository interface {
	// Create creates a new project with auto-generated ID. A unit has at
	// most one risk treatment project: creating another returns the existing one.
	Create(ctx context.Context, p *model.Project) (*model.Project, error)

	// Get retrieves a project by ID
	Get(ctx context.Context, id int64) (*model.Project, error)

	// List retrieves all projects
	List(ctx context.Context) ([]*model.Project, error)

	// GetTreatmentProject retrieves the risk treatment project of a unit.
	// Returns nil, nil if the unit has none.
	GetTreatmentProject(ctx context.Context, unitID types.UnitID) (*model.Project, error)

	// Update updates an existing project
	Update(ctx context.Context, p *model.Project) (*model.Project, error)
}

type TaskRepository interface {
	// Create creates a new task with auto-generated ID
	Create(ctx context.Context, task *model.Task) (*model.Task, error)

	// Get retrieves a task by ID
	Get(ctx context.Context, id int64) (*model.Task, error)

	// GetTreatment retrieves the root treatment task of a risk, archived or
	// not. Returns nil, nil if the risk has none.
	GetTreatment(ctx context.Context, riskID int64) (*model.Task, error)

	// ListByParent retrieves the children of a task
	ListByParent(ctx context.Context, parentID int64) ([]*model.Task, error)

	// Update updates an existing task
	Update(ctx context.Context, task *model.Task) (*model.Task, error)
}

type ActivityRepository interface {
	// Create stores a new activity. An empty ID is generated.
	Create(ctx context.Context, activity *model.Activity) (*model.Activity, error)

	// ListByRisk retrieves the activities of a risk ordered by creation
	ListByRisk(ctx context.Context, riskID int64) ([]*model.Activity, error)

	// ListOpen retrieves all activities not done yet
	ListOpen(ctx context.Context) ([]*model.Activity, error)

	// Update updates an existing activity
	Update(ctx context.Context, activity *model.Activity) (*model.Activity, error)

	// DeleteByRisk deletes all activities of a risk
	DeleteByRisk(ctx context.Context, riskID int64) error
}
