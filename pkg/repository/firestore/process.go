package firestore

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

type ownerDocument struct {
	Key       string `firestore:"key"`
	Scope     string `firestore:"scope"`
	UnitID    string `firestore:"unit_id"`
	ProjectID int64  `firestore:"project_id"`
}

func ownerToDoc(o model.Owner) ownerDocument {
	return ownerDocument{
		Key:       o.Key(),
		Scope:     string(o.Scope),
		UnitID:    string(o.UnitID),
		ProjectID: o.ProjectID,
	}
}

func ownerFromDoc(d ownerDocument) model.Owner {
	return model.Owner{
		Scope:     types.Scope(d.Scope),
		UnitID:    types.UnitID(d.UnitID),
		ProjectID: d.ProjectID,
	}
}

type processDocument struct {
	ID            int64         `firestore:"id"`
	Name          string        `firestore:"name"`
	Type          string        `firestore:"type"`
	Description   string        `firestore:"description"`
	ResponsibleID string        `firestore:"responsible_id"`
	Owner         ownerDocument `firestore:"owner"`
	StaffIDs      []string      `firestore:"staff_ids"`
	Sequence      int           `firestore:"sequence"`
	IsCore        bool          `firestore:"is_core"`
	CreatedAt     time.Time     `firestore:"created_at"`
	UpdatedAt     time.Time     `firestore:"updated_at"`
}

func processToDoc(p *model.Process) *processDocument {
	return &processDocument{
		ID:            p.ID,
		Name:          p.Name,
		Type:          string(p.Type),
		Description:   p.Description,
		ResponsibleID: p.ResponsibleID,
		Owner:         ownerToDoc(p.Owner),
		StaffIDs:      p.StaffIDs,
		Sequence:      p.Sequence,
		IsCore:        p.IsCore,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func processFromDoc(d *processDocument) *model.Process {
	return &model.Process{
		ID:            d.ID,
		Name:          d.Name,
		Type:          types.ProcessType(d.Type),
		Description:   d.Description,
		ResponsibleID: d.ResponsibleID,
		Owner:         ownerFromDoc(d.Owner),
		StaffIDs:      d.StaffIDs,
		Sequence:      d.Sequence,
		IsCore:        d.IsCore,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type processRepository struct {
	collection
}

func (r *processRepository) Create(ctx context.Context, p *model.Process) (*model.Process, error) {
	id, err := r.getNextID(ctx, "process_counter")
	if err != nil {
		return nil, err
	}

	doc := processToDoc(p)
	doc.ID = id
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.doc(processesCollection, id).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create process", goerr.V("id", id))
	}
	return processFromDoc(doc), nil
}

func (r *processRepository) Get(ctx context.Context, id int64) (*model.Process, error) {
	var doc processDocument
	if err := getDoc(ctx, r.doc(processesCollection, id), &doc, "process"); err != nil {
		return nil, err
	}
	return processFromDoc(&doc), nil
}

func (r *processRepository) ListByOwner(ctx context.Context, owner model.Owner) ([]*model.Process, error) {
	query := r.ref(processesCollection).Where("owner.key", "==", owner.Key())
	processes, err := listDocs(ctx, query, "processes", processFromDoc)
	if err != nil {
		return nil, err
	}
	sortByID(processes, func(p *model.Process) int64 { return p.ID })
	return processes, nil
}

func (r *processRepository) Update(ctx context.Context, p *model.Process) (*model.Process, error) {
	var existing processDocument
	ref := r.doc(processesCollection, p.ID)
	if err := getDoc(ctx, ref, &existing, "process"); err != nil {
		return nil, err
	}

	doc := processToDoc(p)
	doc.Owner = existing.Owner
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = time.Now().UTC()

	if _, err := ref.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update process", goerr.V("id", p.ID))
	}
	return processFromDoc(doc), nil
}

func (r *processRepository) Delete(ctx context.Context, id int64) error {
	var existing processDocument
	ref := r.doc(processesCollection, id)
	if err := getDoc(ctx, ref, &existing, "process"); err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete process", goerr.V("id", id))
	}
	return nil
}

type processDataDocument struct {
	ID                 int64         `firestore:"id"`
	Name               string        `firestore:"name"`
	Description        string        `firestore:"description"`
	Owner              ownerDocument `firestore:"owner"`
	ProviderProcessID  int64         `firestore:"provider_process_id"`
	ProviderPartnerID  int64         `firestore:"provider_partner_id"`
	ConsumerProcessIDs []int64       `firestore:"consumer_process_ids"`
	ConsumerPartnerIDs []int64       `firestore:"consumer_partner_ids"`
	IsCustomerVoice    bool          `firestore:"is_customer_voice"`
	CreatedAt          time.Time     `firestore:"created_at"`
	UpdatedAt          time.Time     `firestore:"updated_at"`
}

func processDataToDoc(d *model.ProcessData) *processDataDocument {
	return &processDataDocument{
		ID:                 d.ID,
		Name:               d.Name,
		Description:        d.Description,
		Owner:              ownerToDoc(d.Owner),
		ProviderProcessID:  d.ProviderProcessID,
		ProviderPartnerID:  d.ProviderPartnerID,
		ConsumerProcessIDs: d.ConsumerProcessIDs,
		ConsumerPartnerIDs: d.ConsumerPartnerIDs,
		IsCustomerVoice:    d.IsCustomerVoice,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func processDataFromDoc(d *processDataDocument) *model.ProcessData {
	return &model.ProcessData{
		ID:                 d.ID,
		Name:               d.Name,
		Description:        d.Description,
		Owner:              ownerFromDoc(d.Owner),
		ProviderProcessID:  d.ProviderProcessID,
		ProviderPartnerID:  d.ProviderPartnerID,
		ConsumerProcessIDs: d.ConsumerProcessIDs,
		ConsumerPartnerIDs: d.ConsumerPartnerIDs,
		IsCustomerVoice:    d.IsCustomerVoice,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

type processDataRepository struct {
	collection
}

func (r *processDataRepository) Create(ctx context.Context, d *model.ProcessData) (*model.ProcessData, error) {
	id, err := r.getNextID(ctx, "process_data_counter")
	if err != nil {
		return nil, err
	}

	doc := processDataToDoc(d)
	doc.ID = id
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.doc(processDataCollection, id).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create process data", goerr.V("id", id))
	}
	return processDataFromDoc(doc), nil
}

func (r *processDataRepository) Get(ctx context.Context, id int64) (*model.ProcessData, error) {
	var doc processDataDocument
	if err := getDoc(ctx, r.doc(processDataCollection, id), &doc, "process data"); err != nil {
		return nil, err
	}
	return processDataFromDoc(&doc), nil
}

func (r *processDataRepository) List(ctx context.Context) ([]*model.ProcessData, error) {
	data, err := listDocs(ctx, r.ref(processDataCollection).Query, "process data", processDataFromDoc)
	if err != nil {
		return nil, err
	}
	sortByID(data, func(d *model.ProcessData) int64 { return d.ID })
	return data, nil
}

func (r *processDataRepository) ListByOwner(ctx context.Context, owner model.Owner) ([]*model.ProcessData, error) {
	query := r.ref(processDataCollection).Where("owner.key", "==", owner.Key())
	data, err := listDocs(ctx, query, "process data", processDataFromDoc)
	if err != nil {
		return nil, err
	}
	sortByID(data, func(d *model.ProcessData) int64 { return d.ID })
	return data, nil
}

func (r *processDataRepository) Update(ctx context.Context, d *model.ProcessData) (*model.ProcessData, error) {
	var existing processDataDocument
	ref := r.doc(processDataCollection, d.ID)
	if err := getDoc(ctx, ref, &existing, "process data"); err != nil {
		return nil, err
	}

	doc := processDataToDoc(d)
	doc.Owner = existing.Owner
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = time.Now().UTC()

	if _, err := ref.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update process data", goerr.V("id", d.ID))
	}
	return processDataFromDoc(doc), nil
}

func (r *processDataRepository) Delete(ctx context.Context, id int64) error {
	var existing processDataDocument
	ref := r.doc(processDataCollection, id)
	if err := getDoc(ctx, ref, &existing, "process data"); err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete process data", goerr.V("id", id))
	}
	return nil
}

type partnerDocument struct {
	ID         int64     `firestore:"id"`
	Name       string    `firestore:"name"`
	IsCustomer bool      `firestore:"is_customer"`
	CreatedAt  time.Time `firestore:"created_at"`
	UpdatedAt  time.Time `firestore:"updated_at"`
}

func partnerFromDoc(d *partnerDocument) *model.PartnerCategory {
	return &model.PartnerCategory{
		ID:         d.ID,
		Name:       d.Name,
		IsCustomer: d.IsCustomer,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type partnerRepository struct {
	collection
}

func (r *partnerRepository) Create(ctx context.Context, p *model.PartnerCategory) (*model.PartnerCategory, error) {
	id, err := r.getNextID(ctx, "partner_counter")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := &partnerDocument{
		ID:         id,
		Name:       p.Name,
		IsCustomer: p.IsCustomer,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := r.doc(partnersCollection, id).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create partner category", goerr.V("id", id))
	}
	return partnerFromDoc(doc), nil
}

func (r *partnerRepository) Get(ctx context.Context, id int64) (*model.PartnerCategory, error) {
	var doc partnerDocument
	if err := getDoc(ctx, r.doc(partnersCollection, id), &doc, "partner category"); err != nil {
		return nil, err
	}
	return partnerFromDoc(&doc), nil
}

func (r *partnerRepository) List(ctx context.Context) ([]*model.PartnerCategory, error) {
	partners, err := listDocs(ctx, r.ref(partnersCollection).Query, "partner categories", partnerFromDoc)
	if err != nil {
		return nil, err
	}
	sortByID(partners, func(p *model.PartnerCategory) int64 { return p.ID })
	return partners, nil
}

func (r *partnerRepository) Update(ctx context.Context, p *model.PartnerCategory) (*model.PartnerCategory, error) {
	var existing partnerDocument
	ref := r.doc(partnersCollection, p.ID)
	if err := getDoc(ctx, ref, &existing, "partner category"); err != nil {
		return nil, err
	}

	doc := &partnerDocument{
		ID:         existing.ID,
		Name:       p.Name,
		IsCustomer: p.IsCustomer,
		CreatedAt:  existing.CreatedAt,
		UpdatedAt:  time.Now().UTC(),
	}

	if _, err := ref.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update partner category", goerr.V("id", p.ID))
	}
	return partnerFromDoc(doc), nil
}

func (r *partnerRepository) Delete(ctx context.Context, id int64) error {
	var existing partnerDocument
	ref := r.doc(partnersCollection, id)
	if err := getDoc(ctx, ref, &existing, "partner category"); err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete partner category", goerr.V("id", id))
	}
	return nil
}
