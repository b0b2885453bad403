package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
)

type riskInfoRepository struct {
	mu     sync.RWMutex
	infos  map[int64]*model.RiskInfo
	nextID int64
}

func newRiskInfoRepository() *riskInfoRepository {
	return &riskInfoRepository{
		infos:  make(map[int64]*model.RiskInfo),
		nextID: 1,
	}
}

func copyRiskInfo(info *model.RiskInfo) *model.RiskInfo {
	copied := *info
	return &copied
}

func (r *riskInfoRepository) Create(ctx context.Context, info *model.RiskInfo) (*model.RiskInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyRiskInfo(info)
	created.ID = r.nextID
	r.nextID++
	stampCreate(&created.CreatedAt, &created.UpdatedAt)

	r.infos[created.ID] = created
	return copyRiskInfo(created), nil
}

func (r *riskInfoRepository) Get(ctx context.Context, id int64) (*model.RiskInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.infos[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk info not found", goerr.V("id", id))
	}
	return copyRiskInfo(info), nil
}

func (r *riskInfoRepository) List(ctx context.Context) ([]*model.RiskInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]*model.RiskInfo, 0, len(r.infos))
	for _, info := range r.infos {
		infos = append(infos, copyRiskInfo(info))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

func (r *riskInfoRepository) Update(ctx context.Context, info *model.RiskInfo) (*model.RiskInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.infos[info.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk info not found", goerr.V("id", info.ID))
	}

	updated := copyRiskInfo(info)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.infos[updated.ID] = updated
	return copyRiskInfo(updated), nil
}

func (r *riskInfoRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.infos[id]; !exists {
		return goerr.Wrap(ErrNotFound, "risk info not found", goerr.V("id", id))
	}
	delete(r.infos, id)
	return nil
}

type riskRepository struct {
	mu     sync.RWMutex
	risks  map[int64]*model.Risk
	keys   map[string]int64
	nextID int64
}

func newRiskRepository() *riskRepository {
	return &riskRepository{
		risks:  make(map[int64]*model.Risk),
		keys:   make(map[string]int64),
		nextID: 1,
	}
}

func copyRisk(risk *model.Risk) *model.Risk {
	copied := *risk
	if risk.ArchivedAt != nil {
		t := *risk.ArchivedAt
		copied.ArchivedAt = &t
	}
	if risk.LatestEvalDate != nil {
		t := *risk.LatestEvalDate
		copied.LatestEvalDate = &t
	}
	return &copied
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := risk.Key()
	if id, exists := r.keys[key]; exists {
		return nil, goerr.Wrap(model.ErrDuplicateRisk, "risk already reported",
			goerr.V("key", key), goerr.V(model.RiskIDKey, id))
	}

	created := copyRisk(risk)
	created.ID = r.nextID
	r.nextID++
	stampCreate(&created.CreatedAt, &created.UpdatedAt)

	r.risks[created.ID] = created
	r.keys[key] = created.ID
	return copyRisk(created), nil
}

func (r *riskRepository) Get(ctx context.Context, id int64) (*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risk, exists := r.risks[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", id))
	}
	return copyRisk(risk), nil
}

func (r *riskRepository) GetByKey(ctx context.Context, key string) (*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.keys[key]
	if !exists {
		return nil, nil
	}
	return copyRisk(r.risks[id]), nil
}

func (r *riskRepository) List(ctx context.Context, opts ...interfaces.ListRiskOption) ([]*model.Risk, error) {
	cfg := interfaces.BuildListRiskConfig(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	risks := make([]*model.Risk, 0, len(r.risks))
	for _, risk := range r.risks {
		if !cfg.Match(risk) {
			continue
		}
		risks = append(risks, copyRisk(risk))
	}
	sort.Slice(risks, func(i, j int) bool { return risks[i].ID < risks[j].ID })
	return risks, nil
}

func (r *riskRepository) Update(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.risks[risk.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", risk.ID))
	}
	if oldKey, newKey := existing.Key(), risk.Key(); oldKey != newKey {
		if id, taken := r.keys[newKey]; taken {
			return nil, goerr.Wrap(model.ErrDuplicateRisk, "risk already reported",
				goerr.V("key", newKey), goerr.V(model.RiskIDKey, id))
		}
		delete(r.keys, oldKey)
		r.keys[newKey] = risk.ID
	}

	updated := copyRisk(risk)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.risks[updated.ID] = updated
	return copyRisk(updated), nil
}

func (r *riskRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	risk, exists := r.risks[id]
	if !exists {
		return goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", id))
	}
	delete(r.keys, risk.Key())
	delete(r.risks, id)
	return nil
}

// stampCreate fills zero timestamps of a new record
func stampCreate(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}
