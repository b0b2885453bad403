package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/usecase"
)

type sweepResponse struct {
	Archived []int64 `json:"archived"`
	Changed  []int64 `json:"changed"`
	Failed   []int64 `json:"failed"`
	Checked  int     `json:"checked"`
}

type validationIssueJSON struct {
	RiskID    int64  `json:"risk_id,omitempty"`
	ProcessID int64  `json:"process_id,omitempty"`
	Field     string `json:"field"`
	Message   string `json:"message"`
	Expected  string `json:"expected"`
	Actual    string `json:"actual"`
}

func toValidationIssueJSON(i usecase.ValidationIssue) validationIssueJSON {
	return validationIssueJSON{
		RiskID:    i.RiskID,
		ProcessID: i.ProcessID,
		Field:     i.Field,
		Message:   i.Message,
		Expected:  i.Expected,
		Actual:    i.Actual,
	}
}

// sweepReviews runs the review sweep on demand. Risk managers only.
func (s *Server) sweepReviews(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r.Context()).CanManageRisks() {
		handleError(w, r, goerr.Wrap(usecase.ErrAccessDenied, "only risk managers can sweep reviews"))
		return
	}
	result, err := s.uc.Review.SweepReviews(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, sweepResponse{
		Archived: nonNil(result.Archived),
		Changed:  nonNil(result.Changed),
		Failed:   nonNil(result.Failed),
		Checked:  result.Checked,
	})
}

func (s *Server) overdueActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := s.uc.Review.OverdueActivities(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, mapSlice(activities, toActivityResponse))
}

func (s *Server) validateDB(w http.ResponseWriter, r *http.Request) {
	result, err := s.uc.ValidateDB(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, mapSlice(result.Issues, toValidationIssueJSON))
}
