package interfaces

import (
	"context"

	"github.com/secmon-lab/procrisk/pkg/domain/model"
)

type RiskInfoRepository interface {
	// Create creates a new risk info with auto-generated ID
	Create(ctx context.Context, info *model.RiskInfo) (*model.RiskInfo, error)

	// Get retrieves a risk info by ID
	Get(ctx context.Context, id int64) (*model.RiskInfo, error)

	// List retrieves all risk infos
	List(ctx context.Context) ([]*model.RiskInfo, error)

	// Update updates an existing risk info
	Update(ctx context.Context, info *model.RiskInfo) (*model.RiskInfo, error)

	// Delete deletes a risk info by ID
	Delete(ctx context.Context, id int64) error
}

// RiskRepository stores risk occurrences. The storage enforces that at most
// one occurrence exists per Risk.Key(): Create returns an error wrapping
// model.ErrDuplicateRisk when the key is taken.
type RiskRepository interface {
	// Create creates a new risk with auto-generated ID
	Create(ctx context.Context, risk *model.Risk) (*model.Risk, error)

	// Get retrieves a risk by ID
	Get(ctx context.Context, id int64) (*model.Risk, error)

	// GetByKey retrieves the risk holding key.
	// Returns nil, nil if no risk holds it.
	GetByKey(ctx context.Context, key string) (*model.Risk, error)

	// List retrieves risks with optional filtering
	List(ctx context.Context, opts ...ListRiskOption) ([]*model.Risk, error)

	// Update updates an existing risk. Moving it onto a key held by another
	// risk returns an error wrapping model.ErrDuplicateRisk.
	Update(ctx context.Context, risk *model.Risk) (*model.Risk, error)

	// Delete deletes a risk by ID and releases its key
	Delete(ctx context.Context, id int64) error
}

// EvaluationRepository stores evaluations. At most one evaluation exists per
// risk and calendar day.
type EvaluationRepository interface {
	// Put inserts the evaluation, or overwrites the evaluation of the same
	// risk and day keeping its ID and creation time
	Put(ctx context.Context, eval *model.Evaluation) (*model.Evaluation, error)

	// Get retrieves an evaluation by ID
	Get(ctx context.Context, id int64) (*model.Evaluation, error)

	// ListByRisk retrieves all evaluations of a risk, newest first
	ListByRisk(ctx context.Context, riskID int64) ([]*model.Evaluation, error)

	// Update updates an existing evaluation
	Update(ctx context.Context, eval *model.Evaluation) (*model.Evaluation, error)

	// DeleteByRisk deletes all evaluations of a risk
	DeleteByRisk(ctx context.Context, riskID int64) error
}
