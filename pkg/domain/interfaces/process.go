package interfaces

import (
	"context"

	"github.com/secmon-lab/procrisk/pkg/domain/model"
)

type ProcessRepository interface {
	// Create creates a new process with auto-generated ID
	Create(ctx context.Context, p *model.Process) (*model.Process, error)

	// Get retrieves a process by ID
	Get(ctx context.Context, id int64) (*model.Process, error)

	// ListByOwner retrieves all processes of an owner ordered by ID
	ListByOwner(ctx context.Context, owner model.Owner) ([]*model.Process, error)

	// Update updates an existing process
	Update(ctx context.Context, p *model.Process) (*model.Process, error)

	// Delete deletes a process by ID
	Delete(ctx context.Context, id int64) error
}

type ProcessDataRepository interface {
	// Create creates a new data item with auto-generated ID
	Create(ctx context.Context, d *model.ProcessData) (*model.ProcessData, error)

	// Get retrieves a data item by ID
	Get(ctx context.Context, id int64) (*model.ProcessData, error)

	// List retrieves the data items of every owner ordered by ID
	List(ctx context.Context) ([]*model.ProcessData, error)

	// ListByOwner retrieves all data items of an owner ordered by ID
	ListByOwner(ctx context.Context, owner model.Owner) ([]*model.ProcessData, error)

	// Update updates an existing data item
	Update(ctx context.Context, d *model.ProcessData) (*model.ProcessData, error)

	// Delete deletes a data item by ID
	Delete(ctx context.Context, id int64) error
}

type PartnerRepository interface {
	// Create creates a new partner category with auto-generated ID
	Create(ctx context.Context, p *model.PartnerCategory) (*model.PartnerCategory, error)

	// Get retrieves a partner category by ID
	Get(ctx context.Context, id int64) (*model.PartnerCategory, error)

	// List retrieves all partner categories
	List(ctx context.Context) ([]*model.PartnerCategory, error)

	// Update updates an existing partner category
	Update(ctx context.Context, p *model.PartnerCategory) (*model.PartnerCategory, error)

	// Delete deletes a partner category by ID
	Delete(ctx context.Context, id int64) error
}
