package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
)

type processRepository struct {
	mu        sync.RWMutex
	processes map[int64]*model.Process
	nextID    int64
}

func newProcessRepository() *processRepository {
	return &processRepository{
		processes: make(map[int64]*model.Process),
		nextID:    1,
	}
}

func copyProcess(p *model.Process) *model.Process {
	copied := *p
	copied.StaffIDs = slices.Clone(p.StaffIDs)
	return &copied
}

func (r *processRepository) Create(ctx context.Context, p *model.Process) (*model.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyProcess(p)
	created.ID = r.nextID
	r.nextID++
	stampCreate(&created.CreatedAt, &created.UpdatedAt)

	r.processes[created.ID] = created
	return copyProcess(created), nil
}

func (r *processRepository) Get(ctx context.Context, id int64) (*model.Process, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.processes[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "process not found", goerr.V("id", id))
	}
	return copyProcess(p), nil
}

func (r *processRepository) ListByOwner(ctx context.Context, owner model.Owner) ([]*model.Process, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var processes []*model.Process
	for _, p := range r.processes {
		if p.Owner.Key() == owner.Key() {
			processes = append(processes, copyProcess(p))
		}
	}
	sort.Slice(processes, func(i, j int) bool { return processes[i].ID < processes[j].ID })
	return processes, nil
}

func (r *processRepository) Update(ctx context.Context, p *model.Process) (*model.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.processes[p.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "process not found", goerr.V("id", p.ID))
	}

	updated := copyProcess(p)
	updated.Owner = existing.Owner
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.processes[updated.ID] = updated
	return copyProcess(updated), nil
}

func (r *processRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.processes[id]; !exists {
		return goerr.Wrap(ErrNotFound, "process not found", goerr.V("id", id))
	}
	delete(r.processes, id)
	return nil
}

type processDataRepository struct {
	mu     sync.RWMutex
	data   map[int64]*model.ProcessData
	nextID int64
}

func newProcessDataRepository() *processDataRepository {
	return &processDataRepository{
		data:   make(map[int64]*model.ProcessData),
		nextID: 1,
	}
}

func copyProcessData(d *model.ProcessData) *model.ProcessData {
	copied := *d
	copied.ConsumerProcessIDs = slices.Clone(d.ConsumerProcessIDs)
	copied.ConsumerPartnerIDs = slices.Clone(d.ConsumerPartnerIDs)
	return &copied
}

func (r *processDataRepository) Create(ctx context.Context, d *model.ProcessData) (*model.ProcessData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyProcessData(d)
	created.ID = r.nextID
	r.nextID++
	stampCreate(&created.CreatedAt, &created.UpdatedAt)

	r.data[created.ID] = created
	return copyProcessData(created), nil
}

func (r *processDataRepository) Get(ctx context.Context, id int64) (*model.ProcessData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.data[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "process data not found", goerr.V("id", id))
	}
	return copyProcessData(d), nil
}

func (r *processDataRepository) List(ctx context.Context) ([]*model.ProcessData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := make([]*model.ProcessData, 0, len(r.data))
	for _, d := range r.data {
		data = append(data, copyProcessData(d))
	}
	sort.Slice(data, func(i, j int) bool { return data[i].ID < data[j].ID })
	return data, nil
}

func (r *processDataRepository) ListByOwner(ctx context.Context, owner model.Owner) ([]*model.ProcessData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var data []*model.ProcessData
	for _, d := range r.data {
		if d.Owner.Key() == owner.Key() {
			data = append(data, copyProcessData(d))
		}
	}
	sort.Slice(data, func(i, j int) bool { return data[i].ID < data[j].ID })
	return data, nil
}

func (r *processDataRepository) Update(ctx context.Context, d *model.ProcessData) (*model.ProcessData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.data[d.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "process data not found", goerr.V("id", d.ID))
	}

	updated := copyProcessData(d)
	updated.Owner = existing.Owner
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.data[updated.ID] = updated
	return copyProcessData(updated), nil
}

func (r *processDataRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[id]; !exists {
		return goerr.Wrap(ErrNotFound, "process data not found", goerr.V("id", id))
	}
	delete(r.data, id)
	return nil
}

type partnerRepository struct {
	mu       sync.RWMutex
	partners map[int64]*model.PartnerCategory
	nextID   int64
}

func newPartnerRepository() *partnerRepository {
	return &partnerRepository{
		partners: make(map[int64]*model.PartnerCategory),
		nextID:   1,
	}
}

func copyPartner(p *model.PartnerCategory) *model.PartnerCategory {
	copied := *p
	return &copied
}

func (r *partnerRepository) Create(ctx context.Context, p *model.PartnerCategory) (*model.PartnerCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyPartner(p)
	created.ID = r.nextID
	r.nextID++
	stampCreate(&created.CreatedAt, &created.UpdatedAt)

	r.partners[created.ID] = created
	return copyPartner(created), nil
}

func (r *partnerRepository) Get(ctx context.Context, id int64) (*model.PartnerCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.partners[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "partner category not found", goerr.V("id", id))
	}
	return copyPartner(p), nil
}

func (r *partnerRepository) List(ctx context.Context) ([]*model.PartnerCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	partners := make([]*model.PartnerCategory, 0, len(r.partners))
	for _, p := range r.partners {
		partners = append(partners, copyPartner(p))
	}
	sort.Slice(partners, func(i, j int) bool { return partners[i].ID < partners[j].ID })
	return partners, nil
}

func (r *partnerRepository) Update(ctx context.Context, p *model.PartnerCategory) (*model.PartnerCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.partners[p.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "partner category not found", goerr.V("id", p.ID))
	}

	updated := copyPartner(p)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.partners[updated.ID] = updated
	return copyPartner(updated), nil
}

func (r *partnerRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.partners[id]; !exists {
		return goerr.Wrap(ErrNotFound, "partner category not found", goerr.V("id", id))
	}
	delete(r.partners, id)
	return nil
}
