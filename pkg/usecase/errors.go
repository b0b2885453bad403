package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrRiskNotFound       = errors.New("risk not found")
	ErrRiskInfoNotFound   = errors.New("risk info not found")
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrProcessNotFound    = errors.New("process not found")
	ErrDataNotFound       = errors.New("process data not found")
	ErrPartnerNotFound    = errors.New("partner category not found")
	ErrProjectNotFound    = errors.New("project not found or archived")
	ErrTaskNotFound       = errors.New("task not found")
	ErrTreatmentNotFound  = errors.New("risk has no active treatment task")

	// State errors
	ErrRiskInactive       = errors.New("risk is inactive")
	ErrEvaluationObsolete = errors.New("evaluation is obsolete")
	ErrEvaluationInFuture = errors.New("evaluation date is in the future")
	ErrNotASubtask        = errors.New("task is not a treatment subtask")
	ErrInUse              = errors.New("record is still referenced")
	ErrDuplicateName      = errors.New("name already used")
	ErrUnknownCategory    = errors.New("unknown risk category")

	// Access control errors
	ErrAccessDenied = errors.New("access denied")
)

// Context keys for error values
const (
	RiskIDKey       = "risk_id"
	RiskInfoIDKey   = "risk_info_id"
	EvaluationIDKey = "evaluation_id"
	ProcessIDKey    = "process_id"
	DataIDKey       = "data_id"
	PartnerIDKey    = "partner_id"
	ProjectIDKey    = "project_id"
	TaskIDKey       = "task_id"
	UserIDKey       = "user_id"
	OwnerKey        = "owner"
)
