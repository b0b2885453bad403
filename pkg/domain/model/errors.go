package model

import "github.com/m-mizutani/goerr/v2"

// Validation errors. All of them are user correctable and reject the write.
var (
	ErrInvalidRating         = goerr.New("rating must be between 1 and 5")
	ErrIncompleteCriteria    = goerr.New("criteria are incomplete")
	ErrReviewBeforeReport    = goerr.New("review date must not be before report date")
	ErrReportAfterCreation   = goerr.New("report date must not be after creation date")
	ErrInvalidRiskContext    = goerr.New("invalid risk context")
	ErrInvalidRiskKind       = goerr.New("invalid risk kind")
	ErrMissingName           = goerr.New("name is required")
	ErrSelfConsumption       = goerr.New("process cannot consume its own output")
	ErrProviderIsConsumer    = goerr.New("data provider cannot be one of its consumers")
	ErrInvalidProvider       = goerr.New("data must have exactly one provider")
	ErrInvalidProcessType    = goerr.New("invalid process type")
	ErrInvalidOwner          = goerr.New("invalid owner")
	ErrDuplicateRisk         = goerr.New("an active risk already exists for this context")
	ErrUnitNotFound          = goerr.New("business unit not found")
	ErrInvalidTargetCriteria = goerr.New("invalid target criterion")
)

// Context keys for error values
const (
	RiskIDKey       = "risk_id"
	RiskInfoIDKey   = "risk_info_id"
	EvaluationIDKey = "evaluation_id"
	ProcessIDKey    = "process_id"
	DataIDKey       = "data_id"
	ProjectIDKey    = "project_id"
	UnitIDKey       = "unit_id"
	CriterionKey    = "criterion"
	RatingKey       = "rating"
	ReportDateKey   = "report_date"
	ReviewDateKey   = "review_date"
)
