package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// Unit is a business unit
type Unit struct {
	ID   types.UnitID
	Name string
}

// UnitRegistry holds the configured business units.
// An empty registry accepts any valid unit ID.
type UnitRegistry struct {
	entries map[types.UnitID]*Unit
	order   []types.UnitID // preserves registration order
}

// NewUnitRegistry creates a new empty UnitRegistry
func NewUnitRegistry() *UnitRegistry {
	return &UnitRegistry{
		entries: make(map[types.UnitID]*Unit),
	}
}

// Register adds a unit to the registry
func (r *UnitRegistry) Register(unit *Unit) {
	if _, exists := r.entries[unit.ID]; !exists {
		r.order = append(r.order, unit.ID)
	}
	r.entries[unit.ID] = unit
}

// Get retrieves a unit by ID. Unknown IDs resolve to a unit named after the
// ID when the registry is empty.
func (r *UnitRegistry) Get(id types.UnitID) (*Unit, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(ErrUnitNotFound, "invalid unit ID", goerr.V(UnitIDKey, id))
	}
	if unit, ok := r.entries[id]; ok {
		return unit, nil
	}
	if len(r.entries) == 0 {
		return &Unit{ID: id, Name: id.String()}, nil
	}
	return nil, goerr.Wrap(ErrUnitNotFound, "unit not found", goerr.V(UnitIDKey, id))
}

// List returns all registered units in registration order
func (r *UnitRegistry) List() []*Unit {
	result := make([]*Unit, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.entries[id])
	}
	return result
}
