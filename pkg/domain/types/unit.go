package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// Configured identifiers (categories, units) are lowercase slugs
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func validateSlug(kind, id string) error {
	if id == "" {
		return goerr.New(kind+" ID cannot be empty")
	}
	if !slugPattern.MatchString(id) {
		return goerr.New(kind+" ID must be lowercase alphanumeric with hyphens", goerr.V("id", id))
	}
	return nil
}

// UnitID identifies a business unit. Business processes and business risks
// belong to exactly one unit.
type UnitID string

func (u UnitID) Validate() error { return validateSlug("unit", string(u)) }

func (u UnitID) String() string { return string(u) }

// CategoryID identifies a risk category of the catalog. Every RiskInfo
// belongs to one configured category.
type CategoryID string

func (c CategoryID) Validate() error { return validateSlug("category", string(c)) }

func (c CategoryID) String() string { return string(c) }
