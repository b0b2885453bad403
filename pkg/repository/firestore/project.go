package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

type projectDocument struct {
	ID              int64     `firestore:"id"`
	Name            string    `firestore:"name"`
	UnitID          string    `firestore:"unit_id"`
	IsRiskTreatment bool      `firestore:"is_risk_treatment"`
	Active          bool      `firestore:"active"`
	CreatedAt       time.Time `firestore:"created_at"`
	UpdatedAt       time.Time `firestore:"updated_at"`
}

func projectToDoc(p *model.Project) *projectDocument {
	return &projectDocument{
		ID:              p.ID,
		Name:            p.Name,
		UnitID:          string(p.UnitID),
		IsRiskTreatment: p.IsRiskTreatment,
		Active:          p.Active,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func projectFromDoc(d *projectDocument) *model.Project {
	return &model.Project{
		ID:              d.ID,
		Name:            d.Name,
		UnitID:          types.UnitID(d.UnitID),
		IsRiskTreatment: d.IsRiskTreatment,
		Active:          d.Active,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type projectRepository struct {
	collection
}

func (r *projectRepository) treatmentQuery(unitID types.UnitID) firestore.Query {
	return r.ref(projectsCollection).
		Where("unit_id", "==", string(unitID)).
		Where("is_risk_treatment", "==", true).
		Limit(1)
}

func (r *projectRepository) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	doc := projectToDoc(p)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if p.IsRiskTreatment {
			snaps, err := tx.Documents(r.treatmentQuery(p.UnitID)).GetAll()
			if err != nil {
				return goerr.Wrap(err, "failed to query treatment project", goerr.V("unit_id", p.UnitID))
			}
			if len(snaps) > 0 {
				return snaps[0].DataTo(doc)
			}
		}

		id, err := r.allocateID(tx, "project_counter")
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		doc.ID = id
		doc.CreatedAt = now
		doc.UpdatedAt = now
		return tx.Set(r.doc(projectsCollection, id), doc)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create project")
	}

	return projectFromDoc(doc), nil
}

func (r *projectRepository) Get(ctx context.Context, id int64) (*model.Project, error) {
	var doc projectDocument
	if err := getDoc(ctx, r.doc(projectsCollection, id), &doc, "project"); err != nil {
		return nil, err
	}
	return projectFromDoc(&doc), nil
}

func (r *projectRepository) List(ctx context.Context) ([]*model.Project, error) {
	projects, err := listDocs(ctx, r.ref(projectsCollection).Query, "projects", projectFromDoc)
	if err != nil {
		return nil, err
	}
	sortByID(projects, func(p *model.Project) int64 { return p.ID })
	return projects, nil
}

func (r *projectRepository) GetTreatmentProject(ctx context.Context, unitID types.UnitID) (*model.Project, error) {
	projects, err := listDocs(ctx, r.treatmentQuery(unitID), "projects", projectFromDoc)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, nil
	}
	return projects[0], nil
}

func (r *projectRepository) Update(ctx context.Context, p *model.Project) (*model.Project, error) {
	var existing projectDocument
	ref := r.doc(projectsCollection, p.ID)
	if err := getDoc(ctx, ref, &existing, "project"); err != nil {
		return nil, err
	}

	doc := projectToDoc(p)
	doc.UnitID = existing.UnitID
	doc.IsRiskTreatment = existing.IsRiskTreatment
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = time.Now().UTC()

	if _, err := ref.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update project", goerr.V("id", p.ID))
	}
	return projectFromDoc(doc), nil
}

type taskDocument struct {
	ID              int64     `firestore:"id"`
	ProjectID       int64     `firestore:"project_id"`
	ParentID        int64     `firestore:"parent_id"`
	RiskID          int64     `firestore:"risk_id"`
	Name            string    `firestore:"name"`
	Description     string    `firestore:"description"`
	TargetCriterion string    `firestore:"target_criterion"`
	Closed          bool      `firestore:"closed"`
	Active          bool      `firestore:"active"`
	CreatedAt       time.Time `firestore:"created_at"`
	UpdatedAt       time.Time `firestore:"updated_at"`
}

func taskToDoc(t *model.Task) *taskDocument {
	return &taskDocument{
		ID:              t.ID,
		ProjectID:       t.ProjectID,
		ParentID:        t.ParentID,
		RiskID:          t.RiskID,
		Name:            t.Name,
		Description:     t.Description,
		TargetCriterion: string(t.TargetCriterion),
		Closed:          t.Closed,
		Active:          t.Active,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func taskFromDoc(d *taskDocument) *model.Task {
	return &model.Task{
		ID:              d.ID,
		ProjectID:       d.ProjectID,
		ParentID:        d.ParentID,
		RiskID:          d.RiskID,
		Name:            d.Name,
		Description:     d.Description,
		TargetCriterion: types.Criterion(d.TargetCriterion),
		Closed:          d.Closed,
		Active:          d.Active,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type taskRepository struct {
	collection
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	id, err := r.getNextID(ctx, "task_counter")
	if err != nil {
		return nil, err
	}

	doc := taskToDoc(task)
	doc.ID = id
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.doc(tasksCollection, id).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create task", goerr.V("id", id))
	}
	return taskFromDoc(doc), nil
}

func (r *taskRepository) Get(ctx context.Context, id int64) (*model.Task, error) {
	var doc taskDocument
	if err := getDoc(ctx, r.doc(tasksCollection, id), &doc, "task"); err != nil {
		return nil, err
	}
	return taskFromDoc(&doc), nil
}

func (r *taskRepository) GetTreatment(ctx context.Context, riskID int64) (*model.Task, error) {
	query := r.ref(tasksCollection).
		Where("risk_id", "==", riskID).
		Where("parent_id", "==", int64(0)).
		Limit(1)
	tasks, err := listDocs(ctx, query, "tasks", taskFromDoc)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return tasks[0], nil
}

func (r *taskRepository) ListByParent(ctx context.Context, parentID int64) ([]*model.Task, error) {
	query := r.ref(tasksCollection).Where("parent_id", "==", parentID)
	tasks, err := listDocs(ctx, query, "tasks", taskFromDoc)
	if err != nil {
		return nil, err
	}
	sortByID(tasks, func(t *model.Task) int64 { return t.ID })
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) (*model.Task, error) {
	var existing taskDocument
	ref := r.doc(tasksCollection, task.ID)
	if err := getDoc(ctx, ref, &existing, "task"); err != nil {
		return nil, err
	}

	doc := taskToDoc(task)
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = time.Now().UTC()

	if _, err := ref.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update task", goerr.V("id", task.ID))
	}
	return taskFromDoc(doc), nil
}
