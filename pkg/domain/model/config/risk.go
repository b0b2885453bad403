package config

import (
	"time"

	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

const (
	DefaultEvaluationMaxAge = 30 * 24 * time.Hour
	DefaultReviewMaxAge     = 365 * 24 * time.Hour

	DefaultSequenceBase       = 10
	DefaultSequenceOutputStep = 2
	DefaultSequenceOutputCap  = 5

	DefaultVerifyDeadline   = 7 * 24 * time.Hour
	DefaultEvaluateDeadline = 14 * 24 * time.Hour
	DefaultTreatDeadline    = 30 * 24 * time.Hour
)

// Category represents a risk category configuration
type Category struct {
	ID          string
	Name        string
	Description string
}

// Unit represents a business unit configuration
type Unit struct {
	ID   string
	Name string
}

// SequenceConfig holds the constants of the process sequencing heuristic.
// Management, support and project management tiers are offset by
// OutputStep * max(0, OutputCap - outputs).
type SequenceConfig struct {
	Base       int
	OutputStep int
	OutputCap  int
}

// OutputOffset returns the offset contributed by the number of outputs
func (s SequenceConfig) OutputOffset(outputs int) int {
	n := s.OutputCap - outputs
	if n < 0 {
		n = 0
	}
	return s.OutputStep * n
}

// ActivityConfig holds the deadlines of scheduled follow-up activities
type ActivityConfig struct {
	VerifyDeadline   time.Duration
	EvaluateDeadline time.Duration
	TreatDeadline    time.Duration
	// SlackChannelID receives reminder messages. Empty disables delivery.
	SlackChannelID string
}

// RiskConfig holds all risk-related configuration
type RiskConfig struct {
	Categories       []Category
	Units            []Unit
	ScoringPolicy    types.ScoringPolicy
	EvaluationMaxAge time.Duration
	ReviewMaxAge     time.Duration
	Sequence         SequenceConfig
	Activity         ActivityConfig
}

// DefaultRiskConfig returns the configuration used when no file is given
func DefaultRiskConfig() *RiskConfig {
	return &RiskConfig{
		ScoringPolicy:    types.ScoringPolicyStrict,
		EvaluationMaxAge: DefaultEvaluationMaxAge,
		ReviewMaxAge:     DefaultReviewMaxAge,
		Sequence: SequenceConfig{
			Base:       DefaultSequenceBase,
			OutputStep: DefaultSequenceOutputStep,
			OutputCap:  DefaultSequenceOutputCap,
		},
		Activity: ActivityConfig{
			VerifyDeadline:   DefaultVerifyDeadline,
			EvaluateDeadline: DefaultEvaluateDeadline,
			TreatDeadline:    DefaultTreatDeadline,
		},
	}
}

// WithDefaults fills zero values with defaults and returns the receiver
func (c *RiskConfig) WithDefaults() *RiskConfig {
	def := DefaultRiskConfig()
	if c.ScoringPolicy == "" {
		c.ScoringPolicy = def.ScoringPolicy
	}
	if c.EvaluationMaxAge == 0 {
		c.EvaluationMaxAge = def.EvaluationMaxAge
	}
	if c.ReviewMaxAge == 0 {
		c.ReviewMaxAge = def.ReviewMaxAge
	}
	if c.Sequence.Base == 0 {
		c.Sequence.Base = def.Sequence.Base
	}
	if c.Sequence.OutputStep == 0 && c.Sequence.OutputCap == 0 {
		c.Sequence.OutputStep = def.Sequence.OutputStep
		c.Sequence.OutputCap = def.Sequence.OutputCap
	}
	if c.Activity.VerifyDeadline == 0 {
		c.Activity.VerifyDeadline = def.Activity.VerifyDeadline
	}
	if c.Activity.EvaluateDeadline == 0 {
		c.Activity.EvaluateDeadline = def.Activity.EvaluateDeadline
	}
	if c.Activity.TreatDeadline == 0 {
		c.Activity.TreatDeadline = def.Activity.TreatDeadline
	}
	return c
}

// HasCategory reports whether the category is configured. An empty category
// list accepts everything.
func (c *RiskConfig) HasCategory(id types.CategoryID) bool {
	if len(c.Categories) == 0 {
		return true
	}
	for _, cat := range c.Categories {
		if types.CategoryID(cat.ID) == id {
			return true
		}
	}
	return false
}
