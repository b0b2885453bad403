package usecase

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/model/config"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
)

// ProcessUseCase maintains the process catalog. Every write rebuilds the
// data graph of the affected owner and stores the new sequence and core flag
// of its processes.
type ProcessUseCase struct {
	repo       interfaces.Repository
	riskConfig *config.RiskConfig
	units      *model.UnitRegistry

	mu sync.Mutex
}

func NewProcessUseCase(repo interfaces.Repository, cfg *config.RiskConfig, units *model.UnitRegistry) *ProcessUseCase {
	return &ProcessUseCase{
		repo:       repo,
		riskConfig: cfg,
		units:      units,
	}
}

func (uc *ProcessUseCase) CreateProcess(ctx context.Context, actor model.Actor, p *model.Process) (*model.Process, error) {
	if err := requireProcessEditor(actor); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid process")
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.checkOwner(ctx, p.Owner); err != nil {
		return nil, err
	}
	if err := uc.checkProcessName(ctx, p); err != nil {
		return nil, err
	}

	p.Sequence, p.IsCore = 0, false
	created, err := uc.repo.Process().Create(ctx, p)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create process")
	}
	logging.From(ctx).Info("process created",
		"process_id", created.ID,
		"owner", created.Owner.Key())

	if err := uc.rerankLocked(ctx, created.Owner); err != nil {
		return nil, err
	}
	return getProcess(ctx, uc.repo, created.ID)
}

// UpdateProcess edits a process. The owner of a process never changes.
func (uc *ProcessUseCase) UpdateProcess(ctx context.Context, actor model.Actor, p *model.Process) (*model.Process, error) {
	if err := requireProcessEditor(actor); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	existing, err := getProcess(ctx, uc.repo, p.ID)
	if err != nil {
		return nil, err
	}
	p.Owner = existing.Owner
	if err := p.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid process", goerr.V(ProcessIDKey, p.ID))
	}
	if err := uc.checkProcessName(ctx, p); err != nil {
		return nil, err
	}

	if _, err := uc.repo.Process().Update(ctx, p); err != nil {
		return nil, goerr.Wrap(err, "failed to update process", goerr.V(ProcessIDKey, p.ID))
	}
	if err := uc.rerankLocked(ctx, existing.Owner); err != nil {
		return nil, err
	}
	return getProcess(ctx, uc.repo, p.ID)
}

// DeleteProcess removes a process that neither provides data nor locates a
// risk. It is dropped from the consumers of its inputs.
func (uc *ProcessUseCase) DeleteProcess(ctx context.Context, actor model.Actor, id int64) error {
	if err := requireProcessEditor(actor); err != nil {
		return err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	process, err := getProcess(ctx, uc.repo, id)
	if err != nil {
		return err
	}

	risks, err := uc.repo.Risk().List(ctx, interfaces.WithProcess(id))
	if err != nil {
		return goerr.Wrap(err, "failed to list risks", goerr.V(ProcessIDKey, id))
	}
	if len(risks) > 0 {
		return goerr.Wrap(ErrInUse, "process locates risks",
			goerr.V(ProcessIDKey, id),
			goerr.V("risks", len(risks)))
	}

	data, err := uc.repo.ProcessData().ListByOwner(ctx, process.Owner)
	if err != nil {
		return goerr.Wrap(err, "failed to list process data", goerr.V(OwnerKey, process.Owner.Key()))
	}
	for _, d := range data {
		if d.ProviderProcessID == id {
			return goerr.Wrap(ErrInUse, "process provides data",
				goerr.V(ProcessIDKey, id),
				goerr.V(DataIDKey, d.ID))
		}
	}
	for _, d := range data {
		if !slices.Contains(d.ConsumerProcessIDs, id) {
			continue
		}
		d.ConsumerProcessIDs = slices.DeleteFunc(d.ConsumerProcessIDs, func(c int64) bool { return c == id })
		if _, err := uc.repo.ProcessData().Update(ctx, d); err != nil {
			return goerr.Wrap(err, "failed to detach consumer",
				goerr.V(ProcessIDKey, id),
				goerr.V(DataIDKey, d.ID))
		}
	}

	if err := uc.repo.Process().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete process", goerr.V(ProcessIDKey, id))
	}
	return uc.rerankLocked(ctx, process.Owner)
}

func (uc *ProcessUseCase) GetProcess(ctx context.Context, id int64) (*model.Process, error) {
	return getProcess(ctx, uc.repo, id)
}

// ListProcesses returns the processes of owner in sequence order
func (uc *ProcessUseCase) ListProcesses(ctx context.Context, owner model.Owner) ([]*model.Process, error) {
	processes, err := uc.repo.Process().ListByOwner(ctx, owner)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list processes", goerr.V(OwnerKey, owner.Key()))
	}
	sort.SliceStable(processes, func(i, j int) bool {
		if processes[i].Sequence != processes[j].Sequence {
			return processes[i].Sequence < processes[j].Sequence
		}
		return processes[i].ID < processes[j].ID
	})
	return processes, nil
}

// EnsureProcessZero returns the default process of owner, creating it when
// missing
func (uc *ProcessUseCase) EnsureProcessZero(ctx context.Context, owner model.Owner) (*model.Process, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.checkOwner(ctx, owner); err != nil {
		return nil, err
	}

	processes, err := uc.repo.Process().ListByOwner(ctx, owner)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list processes", goerr.V(OwnerKey, owner.Key()))
	}
	for _, p := range processes {
		if p.Name == model.ProcessZeroName {
			return p, nil
		}
	}

	pt := types.ProcessTypeManagement
	if owner.Scope == types.ScopeProject {
		pt = types.ProcessTypeProjectManagement
	}
	created, err := uc.repo.Process().Create(ctx, &model.Process{
		Name:  model.ProcessZeroName,
		Type:  pt,
		Owner: owner,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create process zero", goerr.V(OwnerKey, owner.Key()))
	}
	if err := uc.rerankLocked(ctx, owner); err != nil {
		return nil, err
	}
	return getProcess(ctx, uc.repo, created.ID)
}

func (uc *ProcessUseCase) CreatePartner(ctx context.Context, actor model.Actor, p *model.PartnerCategory) (*model.PartnerCategory, error) {
	if err := requireProcessEditor(actor); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, goerr.Wrap(model.ErrMissingName, "partner category name is required")
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.checkPartnerName(ctx, p); err != nil {
		return nil, err
	}
	created, err := uc.repo.Partner().Create(ctx, p)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create partner category")
	}
	return created, nil
}

// UpdatePartner edits a partner category. Toggling IsCustomer changes the
// core flags of every owner using it.
func (uc *ProcessUseCase) UpdatePartner(ctx context.Context, actor model.Actor, p *model.PartnerCategory) (*model.PartnerCategory, error) {
	if err := requireProcessEditor(actor); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, goerr.Wrap(model.ErrMissingName, "partner category name is required")
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, err := uc.getPartner(ctx, p.ID); err != nil {
		return nil, err
	}
	if err := uc.checkPartnerName(ctx, p); err != nil {
		return nil, err
	}
	updated, err := uc.repo.Partner().Update(ctx, p)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update partner category", goerr.V(PartnerIDKey, p.ID))
	}

	owners, err := uc.partnerOwners(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	for _, owner := range owners {
		if err := uc.rerankLocked(ctx, owner); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// DeletePartner removes a partner category no data item refers to
func (uc *ProcessUseCase) DeletePartner(ctx context.Context, actor model.Actor, id int64) error {
	if err := requireProcessEditor(actor); err != nil {
		return err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, err := uc.getPartner(ctx, id); err != nil {
		return err
	}
	owners, err := uc.partnerOwners(ctx, id)
	if err != nil {
		return err
	}
	if len(owners) > 0 {
		return goerr.Wrap(ErrInUse, "partner category is used by process data", goerr.V(PartnerIDKey, id))
	}

	if err := uc.repo.Partner().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete partner category", goerr.V(PartnerIDKey, id))
	}
	return nil
}

func (uc *ProcessUseCase) ListPartners(ctx context.Context) ([]*model.PartnerCategory, error) {
	partners, err := uc.repo.Partner().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list partner categories")
	}
	return partners, nil
}

func (uc *ProcessUseCase) CreateData(ctx context.Context, actor model.Actor, d *model.ProcessData) (*model.ProcessData, error) {
	if err := requireProcessEditor(actor); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid process data")
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.checkOwner(ctx, d.Owner); err != nil {
		return nil, err
	}
	if err := uc.checkDataRefs(ctx, d); err != nil {
		return nil, err
	}

	created, err := uc.repo.ProcessData().Create(ctx, d)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create process data")
	}
	if err := uc.rerankLocked(ctx, created.Owner); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateData edits a data item. The owner of a data item never changes.
func (uc *ProcessUseCase) UpdateData(ctx context.Context, actor model.Actor, d *model.ProcessData) (*model.ProcessData, error) {
	if err := requireProcessEditor(actor); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	existing, err := uc.getData(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.Owner = existing.Owner
	if err := d.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid process data", goerr.V(DataIDKey, d.ID))
	}
	if err := uc.checkDataRefs(ctx, d); err != nil {
		return nil, err
	}

	updated, err := uc.repo.ProcessData().Update(ctx, d)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update process data", goerr.V(DataIDKey, d.ID))
	}
	if err := uc.rerankLocked(ctx, updated.Owner); err != nil {
		return nil, err
	}
	return updated, nil
}

func (uc *ProcessUseCase) DeleteData(ctx context.Context, actor model.Actor, id int64) error {
	if err := requireProcessEditor(actor); err != nil {
		return err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	existing, err := uc.getData(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.ProcessData().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete process data", goerr.V(DataIDKey, id))
	}
	return uc.rerankLocked(ctx, existing.Owner)
}

func (uc *ProcessUseCase) ListData(ctx context.Context, owner model.Owner) ([]*model.ProcessData, error) {
	data, err := uc.repo.ProcessData().ListByOwner(ctx, owner)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list process data", goerr.V(OwnerKey, owner.Key()))
	}
	return data, nil
}

// AddInput makes process a consumer of data. A process never consumes its
// own output.
func (uc *ProcessUseCase) AddInput(ctx context.Context, actor model.Actor, processID, dataID int64) (*model.ProcessData, error) {
	return uc.editInput(ctx, actor, processID, dataID, func(d *model.ProcessData) error {
		if err := model.CheckInput(processID, d); err != nil {
			return err
		}
		if !slices.Contains(d.ConsumerProcessIDs, processID) {
			d.ConsumerProcessIDs = append(d.ConsumerProcessIDs, processID)
		}
		return nil
	})
}

func (uc *ProcessUseCase) RemoveInput(ctx context.Context, actor model.Actor, processID, dataID int64) (*model.ProcessData, error) {
	return uc.editInput(ctx, actor, processID, dataID, func(d *model.ProcessData) error {
		d.ConsumerProcessIDs = slices.DeleteFunc(d.ConsumerProcessIDs, func(c int64) bool { return c == processID })
		return nil
	})
}

func (uc *ProcessUseCase) editInput(ctx context.Context, actor model.Actor, processID, dataID int64, edit func(d *model.ProcessData) error) (*model.ProcessData, error) {
	if err := requireProcessEditor(actor); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	process, err := getProcess(ctx, uc.repo, processID)
	if err != nil {
		return nil, err
	}
	data, err := uc.getData(ctx, dataID)
	if err != nil {
		return nil, err
	}
	if process.Owner.Key() != data.Owner.Key() {
		return nil, goerr.Wrap(model.ErrInvalidOwner, "process and data belong to different owners",
			goerr.V(ProcessIDKey, processID),
			goerr.V(DataIDKey, dataID))
	}

	if err := edit(data); err != nil {
		return nil, err
	}
	updated, err := uc.repo.ProcessData().Update(ctx, data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update process data", goerr.V(DataIDKey, dataID))
	}
	if err := uc.rerankLocked(ctx, data.Owner); err != nil {
		return nil, err
	}
	return updated, nil
}

// Graph builds the data graph of owner
func (uc *ProcessUseCase) Graph(ctx context.Context, owner model.Owner) (*model.ProcessGraph, []*model.Process, error) {
	processes, err := uc.repo.Process().ListByOwner(ctx, owner)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to list processes", goerr.V(OwnerKey, owner.Key()))
	}
	data, err := uc.repo.ProcessData().ListByOwner(ctx, owner)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to list process data", goerr.V(OwnerKey, owner.Key()))
	}
	partners, err := uc.repo.Partner().List(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to list partner categories")
	}
	return model.NewProcessGraph(processes, data, partners), processes, nil
}

// Rerank recomputes and stores the sequence and core flag of the processes
// of owner
func (uc *ProcessUseCase) Rerank(ctx context.Context, owner model.Owner) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.rerankLocked(ctx, owner)
}

func (uc *ProcessUseCase) rerankLocked(ctx context.Context, owner model.Owner) error {
	graph, processes, err := uc.Graph(ctx, owner)
	if err != nil {
		return err
	}

	ranks := graph.Rank(uc.riskConfig.Sequence)
	var changed int
	for _, p := range processes {
		rank := ranks[p.ID]
		if p.Sequence == rank.Sequence && p.IsCore == rank.IsCore {
			continue
		}
		p.Sequence = rank.Sequence
		p.IsCore = rank.IsCore
		if _, err := uc.repo.Process().Update(ctx, p); err != nil {
			return goerr.Wrap(err, "failed to store process rank", goerr.V(ProcessIDKey, p.ID))
		}
		changed++
	}

	if changed > 0 {
		logging.From(ctx).Debug("process ranks updated", "owner", owner.Key(), "changed", changed)
	}
	return nil
}

func (uc *ProcessUseCase) checkOwner(ctx context.Context, owner model.Owner) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	if owner.Scope == types.ScopeBusiness {
		_, err := uc.units.Get(owner.UnitID)
		return err
	}

	project, err := uc.repo.Project().Get(ctx, owner.ProjectID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrProjectNotFound, "project not found", goerr.V(ProjectIDKey, owner.ProjectID))
		}
		return goerr.Wrap(err, "failed to get project", goerr.V(ProjectIDKey, owner.ProjectID))
	}
	if !project.Active {
		return goerr.Wrap(ErrProjectNotFound, "project is archived", goerr.V(ProjectIDKey, owner.ProjectID))
	}
	return nil
}

func (uc *ProcessUseCase) checkProcessName(ctx context.Context, p *model.Process) error {
	processes, err := uc.repo.Process().ListByOwner(ctx, p.Owner)
	if err != nil {
		return goerr.Wrap(err, "failed to list processes", goerr.V(OwnerKey, p.Owner.Key()))
	}
	for _, other := range processes {
		if other.ID != p.ID && other.Name == p.Name {
			return goerr.Wrap(ErrDuplicateName, "process name already used",
				goerr.V("name", p.Name),
				goerr.V(OwnerKey, p.Owner.Key()))
		}
	}
	return nil
}

func (uc *ProcessUseCase) checkPartnerName(ctx context.Context, p *model.PartnerCategory) error {
	partners, err := uc.repo.Partner().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list partner categories")
	}
	for _, other := range partners {
		if other.ID != p.ID && other.Name == p.Name {
			return goerr.Wrap(ErrDuplicateName, "partner category name already used", goerr.V("name", p.Name))
		}
	}
	return nil
}

// checkDataRefs verifies the provider and consumers of d and the uniqueness
// of its name per provider
func (uc *ProcessUseCase) checkDataRefs(ctx context.Context, d *model.ProcessData) error {
	processIDs := d.ConsumerProcessIDs
	if d.ProviderProcessID != 0 {
		processIDs = append([]int64{d.ProviderProcessID}, processIDs...)
	}
	for _, id := range processIDs {
		p, err := getProcess(ctx, uc.repo, id)
		if err != nil {
			return err
		}
		if p.Owner.Key() != d.Owner.Key() {
			return goerr.Wrap(model.ErrInvalidOwner, "process belongs to another owner",
				goerr.V(ProcessIDKey, id),
				goerr.V(OwnerKey, d.Owner.Key()))
		}
	}

	partnerIDs := d.ConsumerPartnerIDs
	if d.ProviderPartnerID != 0 {
		partnerIDs = append([]int64{d.ProviderPartnerID}, partnerIDs...)
	}
	for _, id := range partnerIDs {
		if _, err := uc.getPartner(ctx, id); err != nil {
			return err
		}
	}

	siblings, err := uc.repo.ProcessData().ListByOwner(ctx, d.Owner)
	if err != nil {
		return goerr.Wrap(err, "failed to list process data", goerr.V(OwnerKey, d.Owner.Key()))
	}
	for _, other := range siblings {
		if other.ID == d.ID || other.Name != d.Name {
			continue
		}
		if other.ProviderProcessID == d.ProviderProcessID && other.ProviderPartnerID == d.ProviderPartnerID {
			return goerr.Wrap(ErrDuplicateName, "provider already has data with this name",
				goerr.V("name", d.Name),
				goerr.V(DataIDKey, other.ID))
		}
	}
	return nil
}

// partnerOwners returns the owners whose data refers to the partner category
func (uc *ProcessUseCase) partnerOwners(ctx context.Context, partnerID int64) ([]model.Owner, error) {
	data, err := uc.repo.ProcessData().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list process data")
	}

	seen := make(map[string]bool)
	var owners []model.Owner
	for _, d := range data {
		if d.ProviderPartnerID != partnerID && !slices.Contains(d.ConsumerPartnerIDs, partnerID) {
			continue
		}
		if seen[d.Owner.Key()] {
			continue
		}
		seen[d.Owner.Key()] = true
		owners = append(owners, d.Owner)
	}
	return owners, nil
}

func (uc *ProcessUseCase) getData(ctx context.Context, id int64) (*model.ProcessData, error) {
	d, err := uc.repo.ProcessData().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrDataNotFound, "process data not found", goerr.V(DataIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get process data", goerr.V(DataIDKey, id))
	}
	return d, nil
}

func (uc *ProcessUseCase) getPartner(ctx context.Context, id int64) (*model.PartnerCategory, error) {
	p, err := uc.repo.Partner().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrPartnerNotFound, "partner category not found", goerr.V(PartnerIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get partner category", goerr.V(PartnerIDKey, id))
	}
	return p, nil
}

func getProcess(ctx context.Context, repo interfaces.Repository, id int64) (*model.Process, error) {
	p, err := repo.Process().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrProcessNotFound, "process not found", goerr.V(ProcessIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get process", goerr.V(ProcessIDKey, id))
	}
	return p, nil
}

func requireProcessEditor(actor model.Actor) error {
	if !actor.CanEditProcesses() {
		return goerr.Wrap(ErrAccessDenied, "cannot edit the process catalog", goerr.V(UserIDKey, actor.UserID))
	}
	return nil
}
