package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type evaluationDocument struct {
	ID         int64            `firestore:"id"`
	RiskID     int64            `firestore:"risk_id"`
	EvalDate   time.Time        `firestore:"eval_date"`
	ReviewDate time.Time        `firestore:"review_date"`
	Criteria   criteriaDocument `firestore:"criteria"`
	IsValid    bool             `firestore:"is_valid"`
	Comment    string           `firestore:"comment"`
	CreatedAt  time.Time        `firestore:"created_at"`
	UpdatedAt  time.Time        `firestore:"updated_at"`
}

func evaluationToDoc(e *model.Evaluation) *evaluationDocument {
	return &evaluationDocument{
		ID:         e.ID,
		RiskID:     e.RiskID,
		EvalDate:   model.Day(e.EvalDate),
		ReviewDate: e.ReviewDate,
		Criteria:   criteriaToDoc(e.Criteria),
		IsValid:    e.IsValid,
		Comment:    e.Comment,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func evaluationFromDoc(d *evaluationDocument) *model.Evaluation {
	return &model.Evaluation{
		ID:         d.ID,
		RiskID:     d.RiskID,
		EvalDate:   d.EvalDate.UTC(),
		ReviewDate: d.ReviewDate.UTC(),
		Criteria:   criteriaFromDoc(d.Criteria),
		IsValid:    d.IsValid,
		Comment:    d.Comment,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// evaluationRepository keys documents by risk and day so that a second
// evaluation on the same day overwrites the first one.
type evaluationRepository struct {
	collection
}

func (r *evaluationRepository) dayRef(riskID int64, date time.Time) *firestore.DocumentRef {
	return r.ref(evaluationsCollection).Doc(fmt.Sprintf("%d_%s", riskID, model.Day(date).Format(time.DateOnly)))
}

func (r *evaluationRepository) Put(ctx context.Context, eval *model.Evaluation) (*model.Evaluation, error) {
	ref := r.dayRef(eval.RiskID, eval.EvalDate)
	doc := evaluationToDoc(eval)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		doc.UpdatedAt = now

		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			var existing evaluationDocument
			if err := snap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to unmarshal evaluation", goerr.V("ref", ref.ID))
			}
			doc.ID = existing.ID
			doc.CreatedAt = existing.CreatedAt

		case status.Code(err) == codes.NotFound:
			id, err := r.allocateID(tx, "evaluation_counter")
			if err != nil {
				return err
			}
			doc.ID = id
			doc.CreatedAt = now

		default:
			return goerr.Wrap(err, "failed to get evaluation", goerr.V("ref", ref.ID))
		}

		return tx.Set(ref, doc)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put evaluation",
			goerr.V(model.RiskIDKey, eval.RiskID),
			goerr.V("eval_date", eval.EvalDate))
	}

	return evaluationFromDoc(doc), nil
}

func (r *evaluationRepository) find(ctx context.Context, id int64) (*firestore.DocumentSnapshot, error) {
	iter := r.ref(evaluationsCollection).Where("id", "==", id).Limit(1).Documents(ctx)
	defer iter.Stop()

	snaps, err := iter.GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query evaluation", goerr.V("id", id))
	}
	if len(snaps) == 0 {
		return nil, goerr.Wrap(ErrNotFound, "evaluation not found", goerr.V("id", id))
	}
	return snaps[0], nil
}

func (r *evaluationRepository) Get(ctx context.Context, id int64) (*model.Evaluation, error) {
	snap, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}

	var doc evaluationDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal evaluation", goerr.V("id", id))
	}
	return evaluationFromDoc(&doc), nil
}

func (r *evaluationRepository) ListByRisk(ctx context.Context, riskID int64) ([]*model.Evaluation, error) {
	query := r.ref(evaluationsCollection).
		Where("risk_id", "==", riskID).
		OrderBy("eval_date", firestore.Desc)
	return listDocs(ctx, query, "evaluations", evaluationFromDoc)
}

func (r *evaluationRepository) Update(ctx context.Context, eval *model.Evaluation) (*model.Evaluation, error) {
	snap, err := r.find(ctx, eval.ID)
	if err != nil {
		return nil, err
	}

	var existing evaluationDocument
	if err := snap.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal evaluation", goerr.V("id", eval.ID))
	}
	if existing.RiskID != eval.RiskID || !model.SameDay(existing.EvalDate, eval.EvalDate) {
		return nil, goerr.New("evaluation risk and date cannot change", goerr.V("id", eval.ID))
	}

	doc := evaluationToDoc(eval)
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = time.Now().UTC()

	if _, err := snap.Ref.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update evaluation", goerr.V("id", eval.ID))
	}
	return evaluationFromDoc(doc), nil
}

func (r *evaluationRepository) DeleteByRisk(ctx context.Context, riskID int64) error {
	query := r.ref(evaluationsCollection).Where("risk_id", "==", riskID)
	if err := r.deleteWhere(ctx, query); err != nil {
		return goerr.Wrap(err, "failed to delete evaluations", goerr.V(model.RiskIDKey, riskID))
	}
	return nil
}
