package model

import (
	"time"

	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// RiskInfo is the reusable description of a kind of risk. Many occurrences
// point to one RiskInfo.
type RiskInfo struct {
	ID          int64
	Name        string
	ShortName   string
	Category    types.CategoryID
	Subcategory string
	Description string
	Cause       string
	Consequence string
	Control     string
	Action      string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the required fields of a RiskInfo
func (r *RiskInfo) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}
	if r.Category != "" {
		if err := r.Category.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DisplayName prefers the short name
func (r *RiskInfo) DisplayName() string {
	if r.ShortName != "" {
		return r.ShortName
	}
	return r.Name
}
