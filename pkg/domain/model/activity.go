package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityID is a unique identifier of a follow-up activity
type ActivityID string

// NewActivityID generates a new UUID v4 ActivityID
func NewActivityID() ActivityID {
	return ActivityID(uuid.New().String())
}

// String returns the string representation of ActivityID
func (id ActivityID) String() string {
	return string(id)
}

// Activity is a follow-up reminder scheduled on a risk
type Activity struct {
	ID         ActivityID
	RiskID     int64
	Summary    string
	Note       string
	AssigneeID string
	Deadline   time.Time
	Done       bool
	DoneAt     *time.Time
	CreatedAt  time.Time
}

// Activity summaries scheduled by the lifecycle
const (
	ActivityVerify   = "Verify risk"
	ActivityEvaluate = "Evaluate risk"
	ActivityTreat    = "Treat risk"
)

// IsOverdue reports whether an open activity passed its deadline
func (a *Activity) IsOverdue(now time.Time) bool {
	return !a.Done && Day(a.Deadline).Before(Day(now))
}
