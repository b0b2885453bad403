package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/usecase"
)

func (s *Server) listRiskInfos(w http.ResponseWriter, r *http.Request) {
	infos, err := s.uc.Risk.ListRiskInfos(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, mapSlice(infos, toRiskInfoJSON))
}

func (s *Server) createRiskInfo(w http.ResponseWriter, r *http.Request) {
	var req riskInfoJSON
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	info, err := s.uc.Risk.CreateRiskInfo(r.Context(), actorFrom(r.Context()), req.toModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, toRiskInfoJSON(info))
}

func (s *Server) getRiskInfo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "infoID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	info, err := s.uc.Risk.GetRiskInfo(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toRiskInfoJSON(info))
}

func (s *Server) updateRiskInfo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "infoID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req riskInfoJSON
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	req.ID = id
	info, err := s.uc.Risk.UpdateRiskInfo(r.Context(), actorFrom(r.Context()), req.toModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toRiskInfoJSON(info))
}

func (s *Server) deleteRiskInfo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "infoID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.uc.Risk.DeleteRiskInfo(r.Context(), actorFrom(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// riskFilters reads the list filters of the query string: unit, project,
// process, kind, info and active.
func riskFilters(r *http.Request) ([]interfaces.ListRiskOption, error) {
	q := r.URL.Query()
	var opts []interfaces.ListRiskOption

	if unit := q.Get("unit"); unit != "" {
		opts = append(opts, interfaces.WithScope(types.ScopeBusiness), interfaces.WithUnit(types.UnitID(unit)))
	}
	if id, ok, err := queryID(r, "project"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, interfaces.WithScope(types.ScopeProject), interfaces.WithProject(id))
	}
	if id, ok, err := queryID(r, "process"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, interfaces.WithProcess(id))
	}
	if id, ok, err := queryID(r, "info"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, interfaces.WithInfo(id))
	}
	if raw := q.Get("kind"); raw != "" {
		kind, err := types.ParseRiskKind(raw)
		if err != nil {
			return nil, goerr.Wrap(errInvalidRequest, "invalid kind", goerr.V("kind", raw))
		}
		opts = append(opts, interfaces.WithKind(kind))
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, goerr.Wrap(errInvalidRequest, "invalid active flag", goerr.V("active", raw))
		}
		if active {
			opts = append(opts, interfaces.WithoutArchived())
		}
	}
	return opts, nil
}

func (s *Server) listRisks(w http.ResponseWriter, r *http.Request) {
	opts, err := riskFilters(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	risks, err := s.uc.Risk.ListRisks(r.Context(), opts...)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, mapSlice(risks, toRiskResponse))
}

func (s *Server) reportRisk(w http.ResponseWriter, r *http.Request) {
	var req reportRiskRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	input := usecase.ReportRiskInput{
		InfoID:     req.InfoID,
		Kind:       types.RiskKind(req.Kind),
		Context:    req.Context.toModel(),
		ReportDate: req.ReportDate.value(),
		ReviewDate: req.ReviewDate.value(),
		OwnerID:    req.OwnerID,
		Comment:    req.Comment,
	}
	if req.Threshold != nil {
		input.Threshold = req.Threshold.toModel()
	}

	risk, err := s.uc.Risk.ReportRisk(r.Context(), actorFrom(r.Context()), input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, toRiskResponse(risk))
}

func (s *Server) getRisk(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "riskID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	risk, err := s.uc.Risk.GetRisk(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toRiskResponse(risk))
}

func (s *Server) updateRisk(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "riskID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req updateRiskRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	patch := usecase.RiskPatch{
		OwnerID:    req.OwnerID,
		ReportDate: req.ReportDate.ptr(),
		ReviewDate: req.ReviewDate.ptr(),
		Comment:    req.Comment,
	}
	if req.Kind != nil {
		kind := types.RiskKind(*req.Kind)
		patch.Kind = &kind
	}
	if req.Context != nil {
		c := req.Context.toModel()
		patch.Context = &c
	}

	risk, err := s.uc.Risk.UpdateRisk(r.Context(), actorFrom(r.Context()), id, patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toRiskResponse(risk))
}

func (s *Server) deleteRisk(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "riskID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.uc.Risk.DeleteRisk(r.Context(), actorFrom(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setThreshold(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "riskID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req criteriaJSON
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	risk, err := s.uc.Risk.SetThreshold(r.Context(), actorFrom(r.Context()), id, req.toModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toRiskResponse(risk))
}

type riskAction func(ctx context.Context, actor model.Actor, id int64) (*model.Risk, error)

// riskActionHandler serves the POST actions on a risk that take no body
func (s *Server) riskActionHandler(action riskAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "riskID")
		if err != nil {
			handleError(w, r, err)
			return
		}
		risk, err := action(r.Context(), actorFrom(r.Context()), id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toRiskResponse(risk))
	}
}

func (s *Server) confirmRisk(w http.ResponseWriter, r *http.Request) {
	s.riskActionHandler(s.uc.Risk.ConfirmRisk)(w, r)
}

func (s *Server) deactivateRisk(w http.ResponseWriter, r *http.Request) {
	s.riskActionHandler(s.uc.Risk.DeactivateRisk)(w, r)
}

func (s *Server) reactivateRisk(w http.ResponseWriter, r *http.Request) {
	s.riskActionHandler(s.uc.Risk.ReactivateRisk)(w, r)
}

func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "riskID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	activities, err := s.uc.Risk.ListActivities(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, mapSlice(activities, toActivityResponse))
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	opts, err := riskFilters(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	p, err := s.uc.Risk.Profile(r.Context(), opts...)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toProfileResponse(p))
}

func (s *Server) listEvaluations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "riskID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	evals, err := s.uc.Evaluation.ListEvaluations(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, mapSlice(evals, toEvaluationResponse))
}

func (s *Server) recordEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "riskID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req evaluationRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	eval, err := s.uc.Evaluation.RecordEvaluation(r.Context(), actorFrom(r.Context()), id,
		req.Criteria.toModel(), req.Date.value(), req.Comment)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, toEvaluationResponse(eval))
}

func (s *Server) getEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "evalID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	eval, err := s.uc.Evaluation.GetEvaluation(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toEvaluationResponse(eval))
}

func (s *Server) validateEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "evalID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	risk, err := s.uc.Evaluation.ValidateEvaluation(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toRiskResponse(risk))
}

func (s *Server) getTreatment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "riskID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	task, err := s.uc.Treatment.GetTreatment(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if task == nil {
		handleError(w, r, goerr.Wrap(usecase.ErrTreatmentNotFound, "risk has no treatment", goerr.V("risk_id", id)))
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toTaskResponse(task))
}

func (s *Server) listSubtasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "riskID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	tasks, err := s.uc.Treatment.ListSubtasks(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, mapSlice(tasks, toTaskResponse))
}

func (s *Server) addSubtask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "riskID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req subtaskRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	task, err := s.uc.Treatment.AddSubtask(r.Context(), actorFrom(r.Context()), id, req.Name, types.Criterion(req.Criterion))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, toTaskResponse(task))
}

func (s *Server) closeSubtask(w http.ResponseWriter, r *http.Request) {
	s.subtaskAction(w, r, s.uc.Treatment.CloseSubtask)
}

func (s *Server) reopenSubtask(w http.ResponseWriter, r *http.Request) {
	s.subtaskAction(w, r, s.uc.Treatment.ReopenSubtask)
}

func (s *Server) subtaskAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, actor model.Actor, id int64) (*model.Task, error)) {
	id, err := pathID(r, "taskID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	task, err := action(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toTaskResponse(task))
}
