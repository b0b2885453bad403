package usecase

import (
	"time"

	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/model/config"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

type UseCases struct {
	repo       interfaces.Repository
	riskConfig *config.RiskConfig
	units      *model.UnitRegistry
	notifier   interfaces.Notifier
	clock      func() time.Time

	Risk       *RiskUseCase
	Evaluation *EvaluationUseCase
	Treatment  *TreatmentUseCase
	Process    *ProcessUseCase
	Review     *ReviewUseCase
}

type Option func(*UseCases)

func WithRiskConfig(cfg *config.RiskConfig) Option {
	return func(uc *UseCases) {
		uc.riskConfig = cfg
	}
}

func WithUnits(units *model.UnitRegistry) Option {
	return func(uc *UseCases) {
		uc.units = units
	}
}

// WithNotifier sets the delivery channel of scheduled activities
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

// WithClock overrides the current time. Used by tests and by the sweep
// command to replay a given day.
func WithClock(clock func() time.Time) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:  repo,
		clock: time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.riskConfig == nil {
		uc.riskConfig = config.DefaultRiskConfig()
	}
	uc.riskConfig.WithDefaults()
	if uc.units == nil {
		uc.units = unitsFromConfig(uc.riskConfig)
	}

	engine := newLifecycle(repo, uc.riskConfig, uc.units, uc.notifier, uc.clock)
	uc.Risk = NewRiskUseCase(repo, uc.riskConfig, engine)
	uc.Evaluation = NewEvaluationUseCase(repo, uc.riskConfig, engine)
	uc.Treatment = NewTreatmentUseCase(repo, engine)
	uc.Process = NewProcessUseCase(repo, uc.riskConfig, uc.units)
	uc.Review = NewReviewUseCase(repo, engine)

	return uc
}

// RiskConfig returns the effective risk configuration
func (uc *UseCases) RiskConfig() *config.RiskConfig {
	return uc.riskConfig
}

// Units returns the business unit registry
func (uc *UseCases) Units() *model.UnitRegistry {
	return uc.units
}

func unitsFromConfig(cfg *config.RiskConfig) *model.UnitRegistry {
	reg := model.NewUnitRegistry()
	for _, u := range cfg.Units {
		name := u.Name
		if name == "" {
			name = u.ID
		}
		reg.Register(&model.Unit{ID: types.UnitID(u.ID), Name: name})
	}
	return reg
}
