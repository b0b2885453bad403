package model

import (
	"sort"
	"time"

	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// Evaluation is a dated scoring snapshot of a risk. At most one exists per
// risk and calendar day.
type Evaluation struct {
	ID         int64
	RiskID     int64
	EvalDate   time.Time
	ReviewDate time.Time
	Criteria   Criteria
	IsValid    bool
	Comment    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewEvaluation builds a pending evaluation for date. The review date is
// date + maxAge.
func NewEvaluation(riskID int64, criteria Criteria, date time.Time, maxAge time.Duration) *Evaluation {
	day := Day(date)
	return &Evaluation{
		RiskID:     riskID,
		EvalDate:   day,
		ReviewDate: day.Add(maxAge),
		Criteria:   criteria,
	}
}

// IsObsolete is true once the review date has passed
func (e *Evaluation) IsObsolete(now time.Time) bool {
	return Day(e.ReviewDate).Before(Day(now))
}

// Level returns the score of the evaluation for kind
func (e *Evaluation) Level(kind types.RiskKind, policy types.ScoringPolicy) int {
	v, ok := e.Criteria.Score(kind, policy)
	if !ok {
		return 0
	}
	return v
}

// LatestEvaluation returns the most recent non-obsolete evaluation, or nil
func LatestEvaluation(evals []*Evaluation, now time.Time) *Evaluation {
	current := CurrentEvaluations(evals, now)
	if len(current) == 0 {
		return nil
	}
	return current[0]
}

// CurrentEvaluations returns the non-obsolete evaluations, newest first
func CurrentEvaluations(evals []*Evaluation, now time.Time) []*Evaluation {
	result := make([]*Evaluation, 0, len(evals))
	for _, e := range evals {
		if !e.IsObsolete(now) {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].EvalDate.Equal(result[j].EvalDate) {
			return result[i].EvalDate.After(result[j].EvalDate)
		}
		return result[i].ID > result[j].ID
	})
	return result
}
