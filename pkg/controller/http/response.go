package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/usecase"
	"github.com/secmon-lab/procrisk/pkg/utils/errutil"
	"github.com/secmon-lab/procrisk/pkg/utils/safe"
)

var errInvalidRequest = errors.New("invalid request")

var (
	badRequestErrors = []error{
		errInvalidRequest,
		model.ErrInvalidRating,
		model.ErrIncompleteCriteria,
		model.ErrReviewBeforeReport,
		model.ErrReportAfterCreation,
		model.ErrInvalidRiskContext,
		model.ErrInvalidRiskKind,
		model.ErrMissingName,
		model.ErrSelfConsumption,
		model.ErrProviderIsConsumer,
		model.ErrInvalidProvider,
		model.ErrInvalidProcessType,
		model.ErrInvalidOwner,
		model.ErrUnitNotFound,
		model.ErrInvalidTargetCriteria,
		usecase.ErrEvaluationInFuture,
		usecase.ErrUnknownCategory,
	}
	forbiddenErrors = []error{
		usecase.ErrAccessDenied,
	}
	notFoundErrors = []error{
		usecase.ErrRiskNotFound,
		usecase.ErrRiskInfoNotFound,
		usecase.ErrEvaluationNotFound,
		usecase.ErrProcessNotFound,
		usecase.ErrDataNotFound,
		usecase.ErrPartnerNotFound,
		usecase.ErrProjectNotFound,
		usecase.ErrTaskNotFound,
		usecase.ErrTreatmentNotFound,
	}
	conflictErrors = []error{
		model.ErrDuplicateRisk,
		usecase.ErrDuplicateName,
		usecase.ErrInUse,
		usecase.ErrRiskInactive,
		usecase.ErrEvaluationObsolete,
		usecase.ErrNotASubtask,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusOf maps an error of the use case layer to an HTTP status code
func statusOf(err error) int {
	switch {
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	case isAny(err, forbiddenErrors):
		return http.StatusForbidden
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, conflictErrors):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return goerr.Wrap(errInvalidRequest, "failed to decode request body", goerr.V("error", err.Error()))
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerr.Wrap(errInvalidRequest, "invalid ID in path", goerr.V(name, raw))
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, goerr.Wrap(errInvalidRequest, "invalid ID in query", goerr.V(name, raw))
	}
	return id, true, nil
}

func mapSlice[T, R any](items []T, f func(T) R) []R {
	result := make([]R, 0, len(items))
	for _, item := range items {
		result = append(result, f(item))
	}
	return result
}
