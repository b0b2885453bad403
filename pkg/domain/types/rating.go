package types

import "fmt"

// Rating is an ordinal 1-5 score on one criterion. Zero means unset.
type Rating int

const (
	RatingUnset Rating = 0
	RatingMin   Rating = 1
	RatingMax   Rating = 5

	// RatingDefault is the value proposed for a freshly reported risk
	RatingDefault Rating = 3
)

var (
	detectabilityLabels = [...]string{"Continuous", "High", "Average", "Low", "Minimal"}
	occurrenceLabels    = [...]string{"Almost impossible", "Unlikely", "Probable", "Very probable", "Almost certain"}
	severityLabels      = [...]string{"Low", "Average", "High", "Very High", "Maximal"}
)

// IsSet reports whether the rating carries a value
func (r Rating) IsSet() bool {
	return r != RatingUnset
}

// IsValid accepts unset and 1..5
func (r Rating) IsValid() bool {
	return r == RatingUnset || (r >= RatingMin && r <= RatingMax)
}

// Label returns the textual label of the rating for the given criterion.
// Unset and out of range ratings have no label.
func (r Rating) Label(c Criterion) string {
	if r < RatingMin || r > RatingMax {
		return ""
	}
	switch c {
	case CriterionDetectability:
		return detectabilityLabels[r-1]
	case CriterionOccurrence:
		return occurrenceLabels[r-1]
	case CriterionSeverity:
		return severityLabels[r-1]
	default:
		return ""
	}
}

// ParseRating parses an integer into a Rating
func ParseRating(v int) (Rating, error) {
	r := Rating(v)
	if !r.IsValid() {
		return RatingUnset, fmt.Errorf("invalid rating: %d", v)
	}
	return r, nil
}

// ScoringPolicy decides how unset ratings are scored
type ScoringPolicy string

const (
	// ScoringPolicyStrict refuses to score until all three ratings are set
	ScoringPolicyStrict ScoringPolicy = "strict"
	// ScoringPolicyNeutral scores an unset rating as 1
	ScoringPolicyNeutral ScoringPolicy = "neutral"
)

// IsValid checks if the scoring policy is valid
func (p ScoringPolicy) IsValid() bool {
	switch p {
	case ScoringPolicyStrict, ScoringPolicyNeutral:
		return true
	default:
		return false
	}
}

// String returns the string representation of the scoring policy
func (p ScoringPolicy) String() string {
	return string(p)
}

// ParseScoringPolicy parses a string into a ScoringPolicy
func ParseScoringPolicy(s string) (ScoringPolicy, error) {
	p := ScoringPolicy(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid scoring policy: %s", s)
	}
	return p, nil
}
