package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
)

type activityDocument struct {
	ID         string     `firestore:"id"`
	RiskID     int64      `firestore:"risk_id"`
	Summary    string     `firestore:"summary"`
	Note       string     `firestore:"note"`
	AssigneeID string     `firestore:"assignee_id"`
	Deadline   time.Time  `firestore:"deadline"`
	Done       bool       `firestore:"done"`
	DoneAt     *time.Time `firestore:"done_at"`
	CreatedAt  time.Time  `firestore:"created_at"`
}

func activityToDoc(a *model.Activity) *activityDocument {
	return &activityDocument{
		ID:         a.ID.String(),
		RiskID:     a.RiskID,
		Summary:    a.Summary,
		Note:       a.Note,
		AssigneeID: a.AssigneeID,
		Deadline:   a.Deadline,
		Done:       a.Done,
		DoneAt:     a.DoneAt,
		CreatedAt:  a.CreatedAt,
	}
}

func activityFromDoc(d *activityDocument) *model.Activity {
	return &model.Activity{
		ID:         model.ActivityID(d.ID),
		RiskID:     d.RiskID,
		Summary:    d.Summary,
		Note:       d.Note,
		AssigneeID: d.AssigneeID,
		Deadline:   d.Deadline,
		Done:       d.Done,
		DoneAt:     d.DoneAt,
		CreatedAt:  d.CreatedAt,
	}
}

type activityRepository struct {
	collection
}

func (r *activityRepository) Create(ctx context.Context, activity *model.Activity) (*model.Activity, error) {
	doc := activityToDoc(activity)
	if doc.ID == "" {
		doc.ID = model.NewActivityID().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := r.ref(activitiesCollection).Doc(doc.ID).Create(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create activity", goerr.V("id", doc.ID))
	}
	return activityFromDoc(doc), nil
}

func (r *activityRepository) ListByRisk(ctx context.Context, riskID int64) ([]*model.Activity, error) {
	query := r.ref(activitiesCollection).
		Where("risk_id", "==", riskID).
		OrderBy("created_at", firestore.Asc)
	return listDocs(ctx, query, "activities", activityFromDoc)
}

func (r *activityRepository) ListOpen(ctx context.Context) ([]*model.Activity, error) {
	query := r.ref(activitiesCollection).
		Where("done", "==", false).
		OrderBy("created_at", firestore.Asc)
	return listDocs(ctx, query, "activities", activityFromDoc)
}

func (r *activityRepository) Update(ctx context.Context, activity *model.Activity) (*model.Activity, error) {
	ref := r.ref(activitiesCollection).Doc(activity.ID.String())

	var existing activityDocument
	if err := getDoc(ctx, ref, &existing, "activity"); err != nil {
		return nil, err
	}

	doc := activityToDoc(activity)
	doc.RiskID = existing.RiskID
	doc.CreatedAt = existing.CreatedAt

	if _, err := ref.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update activity", goerr.V("id", activity.ID))
	}
	return activityFromDoc(doc), nil
}

func (r *activityRepository) DeleteByRisk(ctx context.Context, riskID int64) error {
	query := r.ref(activitiesCollection).Where("risk_id", "==", riskID)
	if err := r.deleteWhere(ctx, query); err != nil {
		return goerr.Wrap(err, "failed to delete activities", goerr.V(model.RiskIDKey, riskID))
	}
	return nil
}
