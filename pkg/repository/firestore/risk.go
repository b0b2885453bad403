package firestore

import (
	"context"
	"net/url"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type riskInfoDocument struct {
	ID          int64     `firestore:"id"`
	Name        string    `firestore:"name"`
	ShortName   string    `firestore:"short_name"`
	Category    string    `firestore:"category"`
	Subcategory string    `firestore:"subcategory"`
	Description string    `firestore:"description"`
	Cause       string    `firestore:"cause"`
	Consequence string    `firestore:"consequence"`
	Control     string    `firestore:"control"`
	Action      string    `firestore:"action"`
	CreatedBy   string    `firestore:"created_by"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func riskInfoToDoc(info *model.RiskInfo) *riskInfoDocument {
	return &riskInfoDocument{
		ID:          info.ID,
		Name:        info.Name,
		ShortName:   info.ShortName,
		Category:    string(info.Category),
		Subcategory: info.Subcategory,
		Description: info.Description,
		Cause:       info.Cause,
		Consequence: info.Consequence,
		Control:     info.Control,
		Action:      info.Action,
		CreatedBy:   info.CreatedBy,
		CreatedAt:   info.CreatedAt,
		UpdatedAt:   info.UpdatedAt,
	}
}

func riskInfoFromDoc(d *riskInfoDocument) *model.RiskInfo {
	return &model.RiskInfo{
		ID:          d.ID,
		Name:        d.Name,
		ShortName:   d.ShortName,
		Category:    types.CategoryID(d.Category),
		Subcategory: d.Subcategory,
		Description: d.Description,
		Cause:       d.Cause,
		Consequence: d.Consequence,
		Control:     d.Control,
		Action:      d.Action,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type riskInfoRepository struct {
	collection
}

func (r *riskInfoRepository) Create(ctx context.Context, info *model.RiskInfo) (*model.RiskInfo, error) {
	id, err := r.getNextID(ctx, "risk_info_counter")
	if err != nil {
		return nil, err
	}

	doc := riskInfoToDoc(info)
	doc.ID = id
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.doc(riskInfosCollection, id).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create risk info", goerr.V("id", id))
	}
	return riskInfoFromDoc(doc), nil
}

func (r *riskInfoRepository) Get(ctx context.Context, id int64) (*model.RiskInfo, error) {
	var doc riskInfoDocument
	if err := getDoc(ctx, r.doc(riskInfosCollection, id), &doc, "risk info"); err != nil {
		return nil, err
	}
	return riskInfoFromDoc(&doc), nil
}

func (r *riskInfoRepository) List(ctx context.Context) ([]*model.RiskInfo, error) {
	query := r.ref(riskInfosCollection).OrderBy("id", firestore.Asc)
	return listDocs(ctx, query, "risk infos", riskInfoFromDoc)
}

func (r *riskInfoRepository) Update(ctx context.Context, info *model.RiskInfo) (*model.RiskInfo, error) {
	var existing riskInfoDocument
	ref := r.doc(riskInfosCollection, info.ID)
	if err := getDoc(ctx, ref, &existing, "risk info"); err != nil {
		return nil, err
	}

	doc := riskInfoToDoc(info)
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = time.Now().UTC()

	if _, err := ref.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update risk info", goerr.V("id", info.ID))
	}
	return riskInfoFromDoc(doc), nil
}

func (r *riskInfoRepository) Delete(ctx context.Context, id int64) error {
	var existing riskInfoDocument
	ref := r.doc(riskInfosCollection, id)
	if err := getDoc(ctx, ref, &existing, "risk info"); err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete risk info", goerr.V("id", id))
	}
	return nil
}

type criteriaDocument struct {
	Detectability int `firestore:"detectability"`
	Occurrence    int `firestore:"occurrence"`
	Severity      int `firestore:"severity"`
}

func criteriaToDoc(c model.Criteria) criteriaDocument {
	return criteriaDocument{
		Detectability: int(c.Detectability),
		Occurrence:    int(c.Occurrence),
		Severity:      int(c.Severity),
	}
}

func criteriaFromDoc(d criteriaDocument) model.Criteria {
	return model.Criteria{
		Detectability: types.Rating(d.Detectability),
		Occurrence:    types.Rating(d.Occurrence),
		Severity:      types.Rating(d.Severity),
	}
}

type riskDocument struct {
	ID              int64            `firestore:"id"`
	Key             string           `firestore:"key"`
	InfoID          int64            `firestore:"info_id"`
	Kind            string           `firestore:"kind"`
	Scope           string           `firestore:"scope"`
	UnitID          string           `firestore:"unit_id"`
	ProcessID       int64            `firestore:"process_id"`
	ProjectID       int64            `firestore:"project_id"`
	ReportDate      time.Time        `firestore:"report_date"`
	ReporterID      string           `firestore:"reporter_id"`
	Confirmed       bool             `firestore:"confirmed"`
	OwnerID         string           `firestore:"owner_id"`
	ReviewDate      time.Time        `firestore:"review_date"`
	ArchivedAt      *time.Time       `firestore:"archived_at"`
	Threshold       criteriaDocument `firestore:"threshold"`
	Comment         string           `firestore:"comment"`
	TreatmentTaskID int64            `firestore:"treatment_task_id"`
	CreatedAt       time.Time        `firestore:"created_at"`
	UpdatedAt       time.Time        `firestore:"updated_at"`

	ThresholdValue int        `firestore:"threshold_value"`
	LatestLevel    int        `firestore:"latest_level"`
	LatestEvalDate *time.Time `firestore:"latest_eval_date"`
	Status         string     `firestore:"status"`
	Stage          int        `firestore:"stage"`
	Priority       int        `firestore:"priority"`
}

func riskToDoc(risk *model.Risk) *riskDocument {
	return &riskDocument{
		ID:              risk.ID,
		Key:             risk.Key(),
		InfoID:          risk.InfoID,
		Kind:            string(risk.Kind),
		Scope:           string(risk.Context.Scope),
		UnitID:          string(risk.Context.UnitID),
		ProcessID:       risk.Context.ProcessID,
		ProjectID:       risk.Context.ProjectID,
		ReportDate:      risk.ReportDate,
		ReporterID:      risk.ReporterID,
		Confirmed:       risk.Confirmed,
		OwnerID:         risk.OwnerID,
		ReviewDate:      risk.ReviewDate,
		ArchivedAt:      risk.ArchivedAt,
		Threshold:       criteriaToDoc(risk.Threshold),
		Comment:         risk.Comment,
		TreatmentTaskID: risk.TreatmentTaskID,
		CreatedAt:       risk.CreatedAt,
		UpdatedAt:       risk.UpdatedAt,
		ThresholdValue:  risk.ThresholdValue,
		LatestLevel:     risk.LatestLevel,
		LatestEvalDate:  risk.LatestEvalDate,
		Status:          string(risk.Status),
		Stage:           int(risk.Stage),
		Priority:        risk.Priority,
	}
}

func riskFromDoc(d *riskDocument) *model.Risk {
	return &model.Risk{
		ID:     d.ID,
		InfoID: d.InfoID,
		Kind:   types.RiskKind(d.Kind),
		Context: model.RiskContext{
			Scope:     types.Scope(d.Scope),
			UnitID:    types.UnitID(d.UnitID),
			ProcessID: d.ProcessID,
			ProjectID: d.ProjectID,
		},
		ReportDate:      d.ReportDate,
		ReporterID:      d.ReporterID,
		Confirmed:       d.Confirmed,
		OwnerID:         d.OwnerID,
		ReviewDate:      d.ReviewDate,
		ArchivedAt:      d.ArchivedAt,
		Threshold:       criteriaFromDoc(d.Threshold),
		Comment:         d.Comment,
		TreatmentTaskID: d.TreatmentTaskID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		ThresholdValue:  d.ThresholdValue,
		LatestLevel:     d.LatestLevel,
		LatestEvalDate:  d.LatestEvalDate,
		Status:          types.RiskStatus(d.Status).Normalize(),
		Stage:           types.RiskStage(d.Stage),
		Priority:        d.Priority,
	}
}

// riskKeyDocument reserves a risk key. Its document ID is the escaped key.
type riskKeyDocument struct {
	Key    string `firestore:"key"`
	RiskID int64  `firestore:"risk_id"`
}

type riskRepository struct {
	collection
}

func (r *riskRepository) keyRef(key string) *firestore.DocumentRef {
	return r.ref(riskKeysCollection).Doc(url.PathEscape(key))
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	id, err := r.getNextID(ctx, "risk_counter")
	if err != nil {
		return nil, err
	}

	doc := riskToDoc(risk)
	doc.ID = id
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = doc.CreatedAt

	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(r.keyRef(doc.Key), &riskKeyDocument{Key: doc.Key, RiskID: id}); err != nil {
			return err
		}
		return tx.Set(r.doc(risksCollection, id), doc)
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(model.ErrDuplicateRisk, "risk already reported", goerr.V("key", doc.Key))
		}
		return nil, goerr.Wrap(err, "failed to create risk", goerr.V("id", id))
	}

	return riskFromDoc(doc), nil
}

func (r *riskRepository) Get(ctx context.Context, id int64) (*model.Risk, error) {
	var doc riskDocument
	if err := getDoc(ctx, r.doc(risksCollection, id), &doc, "risk"); err != nil {
		return nil, err
	}
	return riskFromDoc(&doc), nil
}

func (r *riskRepository) GetByKey(ctx context.Context, key string) (*model.Risk, error) {
	snap, err := r.keyRef(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get risk key", goerr.V("key", key))
	}

	var keyDoc riskKeyDocument
	if err := snap.DataTo(&keyDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal risk key", goerr.V("key", key))
	}
	return r.Get(ctx, keyDoc.RiskID)
}

func (r *riskRepository) List(ctx context.Context, opts ...interfaces.ListRiskOption) ([]*model.Risk, error) {
	cfg := interfaces.BuildListRiskConfig(opts...)

	// Only one equality filter is pushed down so no composite index is needed;
	// the remaining filters are applied in memory.
	query := r.ref(risksCollection).Query
	switch {
	case cfg.ProjectID() != nil:
		query = query.Where("project_id", "==", *cfg.ProjectID())
	case cfg.UnitID() != nil:
		query = query.Where("unit_id", "==", string(*cfg.UnitID()))
	case cfg.InfoID() != nil:
		query = query.Where("info_id", "==", *cfg.InfoID())
	}

	risks, err := listDocs(ctx, query, "risks", riskFromDoc)
	if err != nil {
		return nil, err
	}

	result := make([]*model.Risk, 0, len(risks))
	for _, risk := range risks {
		if cfg.Match(risk) {
			result = append(result, risk)
		}
	}
	sortByID(result, func(r *model.Risk) int64 { return r.ID })
	return result, nil
}

func (r *riskRepository) Update(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	ref := r.doc(risksCollection, risk.ID)
	doc := riskToDoc(risk)
	newKeyRef := r.keyRef(doc.Key)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", risk.ID))
			}
			return goerr.Wrap(err, "failed to get risk", goerr.V("id", risk.ID))
		}

		var existing riskDocument
		if err := snap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to unmarshal risk", goerr.V("id", risk.ID))
		}

		rekey := existing.Key != doc.Key
		if rekey {
			_, err := tx.Get(newKeyRef)
			switch {
			case err == nil:
				return goerr.Wrap(model.ErrDuplicateRisk, "risk already reported", goerr.V("key", doc.Key))
			case status.Code(err) != codes.NotFound:
				return goerr.Wrap(err, "failed to get risk key", goerr.V("key", doc.Key))
			}
		}

		doc.CreatedAt = existing.CreatedAt
		doc.UpdatedAt = time.Now().UTC()

		if rekey {
			if err := tx.Delete(r.keyRef(existing.Key)); err != nil {
				return err
			}
			if err := tx.Create(newKeyRef, &riskKeyDocument{Key: doc.Key, RiskID: risk.ID}); err != nil {
				return err
			}
		}
		return tx.Set(ref, doc)
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(model.ErrDuplicateRisk, "risk already reported", goerr.V("key", doc.Key))
		}
		return nil, goerr.Wrap(err, "failed to update risk", goerr.V("id", risk.ID))
	}

	return riskFromDoc(doc), nil
}

func (r *riskRepository) Delete(ctx context.Context, id int64) error {
	ref := r.doc(risksCollection, id)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get risk", goerr.V("id", id))
		}

		var existing riskDocument
		if err := snap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to unmarshal risk", goerr.V("id", id))
		}

		if err := tx.Delete(r.keyRef(existing.Key)); err != nil {
			return err
		}
		return tx.Delete(ref)
	})
}
