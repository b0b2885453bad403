package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// Owner is the business unit or the project a process belongs to
type Owner struct {
	Scope     types.Scope
	UnitID    types.UnitID
	ProjectID int64
}

// UnitOwner returns the owner for a business unit
func UnitOwner(unitID types.UnitID) Owner {
	return Owner{Scope: types.ScopeBusiness, UnitID: unitID}
}

// ProjectOwner returns the owner for a project
func ProjectOwner(projectID int64) Owner {
	return Owner{Scope: types.ScopeProject, ProjectID: projectID}
}

// Validate checks that exactly the field of the owner's scope is set
func (o Owner) Validate() error {
	switch o.Scope {
	case types.ScopeBusiness:
		if err := o.UnitID.Validate(); err != nil {
			return goerr.Wrap(ErrInvalidOwner, "business owner requires a unit", goerr.V("error", err.Error()))
		}
		if o.ProjectID != 0 {
			return goerr.Wrap(ErrInvalidOwner, "business owner cannot reference a project")
		}
	case types.ScopeProject:
		if o.ProjectID <= 0 {
			return goerr.Wrap(ErrInvalidOwner, "project owner requires a project")
		}
		if o.UnitID != "" {
			return goerr.Wrap(ErrInvalidOwner, "project owner cannot reference a unit")
		}
	default:
		return goerr.Wrap(ErrInvalidOwner, "unknown scope", goerr.V("scope", o.Scope))
	}
	return nil
}

// Key returns a stable string form of the owner
func (o Owner) Key() string {
	if o.Scope == types.ScopeProject {
		return fmt.Sprintf("project/%d", o.ProjectID)
	}
	return fmt.Sprintf("business/%s", o.UnitID)
}

// ProcessZeroName is the name of the default process every owner has
const ProcessZeroName = "Process Zero"

// Process is a named unit of work. Sequence and IsCore are derived from the
// data graph of its owner.
type Process struct {
	ID            int64
	Name          string
	Type          types.ProcessType
	Description   string
	ResponsibleID string
	Owner         Owner
	StaffIDs      []string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// derived
	Sequence int
	IsCore   bool
}

// Validate checks the required fields of a process
func (p *Process) Validate() error {
	if p.Name == "" {
		return ErrMissingName
	}
	if !p.Type.IsValid() {
		return goerr.Wrap(ErrInvalidProcessType, "invalid process type", goerr.V("type", p.Type))
	}
	return p.Owner.Validate()
}

// PartnerCategory is an external party processes exchange data with
type PartnerCategory struct {
	ID         int64
	Name       string
	IsCustomer bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProcessData is an artifact provided by exactly one process or partner
// category and consumed by any number of processes and partner categories
type ProcessData struct {
	ID                 int64
	Name               string
	Description        string
	Owner              Owner
	ProviderProcessID  int64
	ProviderPartnerID  int64
	ConsumerProcessIDs []int64
	ConsumerPartnerIDs []int64
	IsCustomerVoice    bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsExternal reports whether the data comes from a partner category
func (d *ProcessData) IsExternal() bool {
	return d.ProviderPartnerID != 0
}

// Validate enforces the single provider rule and the provider/consumer
// separation
func (d *ProcessData) Validate() error {
	if d.Name == "" {
		return ErrMissingName
	}
	if err := d.Owner.Validate(); err != nil {
		return err
	}
	hasProcess := d.ProviderProcessID != 0
	hasPartner := d.ProviderPartnerID != 0
	if hasProcess == hasPartner {
		return goerr.Wrap(ErrInvalidProvider, "data needs one provider",
			goerr.V(DataIDKey, d.ID),
			goerr.V("provider_process_id", d.ProviderProcessID),
			goerr.V("provider_partner_id", d.ProviderPartnerID))
	}
	if hasProcess && slices.Contains(d.ConsumerProcessIDs, d.ProviderProcessID) {
		return goerr.Wrap(ErrProviderIsConsumer, "provider listed as consumer",
			goerr.V(DataIDKey, d.ID),
			goerr.V(ProcessIDKey, d.ProviderProcessID))
	}
	if hasPartner && slices.Contains(d.ConsumerPartnerIDs, d.ProviderPartnerID) {
		return goerr.Wrap(ErrProviderIsConsumer, "provider listed as consumer",
			goerr.V(DataIDKey, d.ID),
			goerr.V("partner_id", d.ProviderPartnerID))
	}
	return nil
}

// CheckInput returns ErrSelfConsumption when process would consume one of
// its own outputs
func CheckInput(processID int64, data *ProcessData) error {
	if data.ProviderProcessID == processID {
		return goerr.Wrap(ErrSelfConsumption, "process cannot consume its own output",
			goerr.V(ProcessIDKey, processID),
			goerr.V(DataIDKey, data.ID))
	}
	return nil
}
