package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// Criteria holds the three ordinal ratings of a risk
type Criteria struct {
	Detectability types.Rating
	Occurrence    types.Rating
	Severity      types.Rating
}

// DefaultCriteria is proposed to a reporter for a new risk
func DefaultCriteria() Criteria {
	return Criteria{
		Detectability: types.RatingDefault,
		Occurrence:    types.RatingDefault,
		Severity:      types.RatingDefault,
	}
}

// Validate rejects ratings outside 0..5
func (c Criteria) Validate() error {
	for _, r := range []struct {
		criterion types.Criterion
		rating    types.Rating
	}{
		{types.CriterionDetectability, c.Detectability},
		{types.CriterionOccurrence, c.Occurrence},
		{types.CriterionSeverity, c.Severity},
	} {
		if !r.rating.IsValid() {
			return goerr.Wrap(ErrInvalidRating, "invalid rating",
				goerr.V(CriterionKey, r.criterion),
				goerr.V(RatingKey, int(r.rating)))
		}
	}
	return nil
}

// IsComplete reports whether all three ratings are set
func (c Criteria) IsComplete() bool {
	return c.Detectability.IsSet() && c.Occurrence.IsSet() && c.Severity.IsSet()
}

// IsZero reports whether no rating is set
func (c Criteria) IsZero() bool {
	return !c.Detectability.IsSet() && !c.Occurrence.IsSet() && !c.Severity.IsSet()
}

// Get returns the rating of one criterion
func (c Criteria) Get(criterion types.Criterion) types.Rating {
	switch criterion {
	case types.CriterionDetectability:
		return c.Detectability
	case types.CriterionOccurrence:
		return c.Occurrence
	case types.CriterionSeverity:
		return c.Severity
	default:
		return types.RatingUnset
	}
}

func (c Criteria) resolve(policy types.ScoringPolicy) (d, o, s int, ok bool) {
	d, o, s = int(c.Detectability), int(c.Occurrence), int(c.Severity)
	if c.IsComplete() {
		return d, o, s, true
	}
	if policy != types.ScoringPolicyNeutral {
		return 0, 0, 0, false
	}
	if d == 0 {
		d = 1
	}
	if o == 0 {
		o = 1
	}
	if s == 0 {
		s = 1
	}
	return d, o, s, true
}

// ThreatValue returns d*o*s. ok is false when the policy refuses to score.
func (c Criteria) ThreatValue(policy types.ScoringPolicy) (int, bool) {
	d, o, s, ok := c.resolve(policy)
	if !ok {
		return 0, false
	}
	return d * o * s, true
}

// OpportunityValue returns (6-d)*o*s. ok is false when the policy refuses to
// score.
func (c Criteria) OpportunityValue(policy types.ScoringPolicy) (int, bool) {
	d, o, s, ok := c.resolve(policy)
	if !ok {
		return 0, false
	}
	return (int(types.RatingMax) + 1 - d) * o * s, true
}

// Score returns the value of the criteria for the given kind, in [1, 125]
func (c Criteria) Score(kind types.RiskKind, policy types.ScoringPolicy) (int, bool) {
	switch kind {
	case types.RiskKindThreat:
		return c.ThreatValue(policy)
	case types.RiskKindOpportunity:
		return c.OpportunityValue(policy)
	default:
		return 0, false
	}
}

// Require returns ErrIncompleteCriteria unless the criteria can be scored
// under policy
func (c Criteria) Require(policy types.ScoringPolicy) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, _, _, ok := c.resolve(policy); !ok {
		return goerr.Wrap(ErrIncompleteCriteria, "all criteria must be rated",
			goerr.V("policy", policy))
	}
	return nil
}
