package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/usecase"
)

// ownerQuery reads the catalog owner from ?unit= or ?project=
func ownerQuery(r *http.Request) (model.Owner, error) {
	id, ok, err := queryID(r, "project")
	if err != nil {
		return model.Owner{}, err
	}
	if ok {
		return model.ProjectOwner(id), nil
	}
	unit := r.URL.Query().Get("unit")
	if unit == "" {
		return model.Owner{}, goerr.Wrap(errInvalidRequest, "unit or project is required")
	}
	return model.UnitOwner(types.UnitID(unit)), nil
}

type graphNodeJSON struct {
	Process   processJSON `json:"process"`
	Providers []int64     `json:"providers"`
	Consumers []int64     `json:"consumers"`
}

func (s *Server) listProcesses(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerQuery(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	processes, err := s.uc.Process.ListProcesses(r.Context(), owner)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, mapSlice(processes, toProcessJSON))
}

func (s *Server) createProcess(w http.ResponseWriter, r *http.Request) {
	var req processJSON
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	p, err := s.uc.Process.CreateProcess(r.Context(), actorFrom(r.Context()), req.toModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, toProcessJSON(p))
}

func (s *Server) ensureProcessZero(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerQuery(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !actorFrom(r.Context()).CanEditProcesses() {
		handleError(w, r, goerr.Wrap(usecase.ErrAccessDenied, "cannot edit processes"))
		return
	}
	p, err := s.uc.Process.EnsureProcessZero(r.Context(), owner)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toProcessJSON(p))
}

// rerankProcesses recomputes sequence and core flags, e.g. after the
// sequence constants of the configuration changed
func (s *Server) rerankProcesses(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerQuery(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !actorFrom(r.Context()).CanEditProcesses() {
		handleError(w, r, goerr.Wrap(usecase.ErrAccessDenied, "cannot edit processes"))
		return
	}
	if err := s.uc.Process.Rerank(r.Context(), owner); err != nil {
		handleError(w, r, err)
		return
	}
	processes, err := s.uc.Process.ListProcesses(r.Context(), owner)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, mapSlice(processes, toProcessJSON))
}

func (s *Server) processGraph(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerQuery(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	graph, processes, err := s.uc.Process.Graph(r.Context(), owner)
	if err != nil {
		handleError(w, r, err)
		return
	}
	nodes := make([]graphNodeJSON, 0, len(processes))
	for _, p := range processes {
		nodes = append(nodes, graphNodeJSON{
			Process:   toProcessJSON(p),
			Providers: nonNil(graph.Providers(p.ID)),
			Consumers: nonNil(graph.Consumers(p.ID)),
		})
	}
	writeJSON(r.Context(), w, http.StatusOK, nodes)
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func (s *Server) getProcess(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "processID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	p, err := s.uc.Process.GetProcess(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toProcessJSON(p))
}

func (s *Server) updateProcess(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "processID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req processJSON
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	req.ID = id
	p, err := s.uc.Process.UpdateProcess(r.Context(), actorFrom(r.Context()), req.toModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toProcessJSON(p))
}

func (s *Server) deleteProcess(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "processID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.uc.Process.DeleteProcess(r.Context(), actorFrom(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addInput(w http.ResponseWriter, r *http.Request) {
	s.editInput(w, r, true)
}

func (s *Server) removeInput(w http.ResponseWriter, r *http.Request) {
	s.editInput(w, r, false)
}

func (s *Server) editInput(w http.ResponseWriter, r *http.Request, add bool) {
	processID, err := pathID(r, "processID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	dataID, err := pathID(r, "dataID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	actor := actorFrom(r.Context())
	var data *model.ProcessData
	if add {
		data, err = s.uc.Process.AddInput(r.Context(), actor, processID, dataID)
	} else {
		data, err = s.uc.Process.RemoveInput(r.Context(), actor, processID, dataID)
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toDataJSON(data))
}

func (s *Server) listPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := s.uc.Process.ListPartners(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, mapSlice(partners, toPartnerJSON))
}

func (s *Server) createPartner(w http.ResponseWriter, r *http.Request) {
	var req partnerJSON
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	p, err := s.uc.Process.CreatePartner(r.Context(), actorFrom(r.Context()), req.toModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, toPartnerJSON(p))
}

func (s *Server) updatePartner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "partnerID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req partnerJSON
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	req.ID = id
	p, err := s.uc.Process.UpdatePartner(r.Context(), actorFrom(r.Context()), req.toModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toPartnerJSON(p))
}

func (s *Server) deletePartner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "partnerID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.uc.Process.DeletePartner(r.Context(), actorFrom(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listData(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerQuery(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	data, err := s.uc.Process.ListData(r.Context(), owner)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, mapSlice(data, toDataJSON))
}

func (s *Server) createData(w http.ResponseWriter, r *http.Request) {
	var req dataJSON
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	d, err := s.uc.Process.CreateData(r.Context(), actorFrom(r.Context()), req.toModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, toDataJSON(d))
}

func (s *Server) updateData(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "dataID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req dataJSON
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	req.ID = id
	d, err := s.uc.Process.UpdateData(r.Context(), actorFrom(r.Context()), req.toModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toDataJSON(d))
}

func (s *Server) deleteData(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "dataID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.uc.Process.DeleteData(r.Context(), actorFrom(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
