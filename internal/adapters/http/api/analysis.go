package api

import (
	"net/http"
	"strconv"

	service "github.com/okian/meetscore/internal/app"
	"github.com/okian/meetscore/internal/domain/reconcile"
)

// handleSensitivity handles POST /meets/{id}/sensitivity/{team}. An empty
// body uses the team's stored roster selection.
func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	const op = "api.sensitivity"
	var req service.SensitivityRequest
	if err := s.decodeJSON(w, r, &req, true); err != nil {
		s.fail(w, r, op, err)
		return
	}
	out, err := s.deps.Sensitivity(r.Context(), r.PathValue("id"), r.PathValue("team"), req)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type reconcileRequest struct {
	Rows []reconcile.Row `json:"rows"`
}

// handleReconcile handles POST /meets/{id}/reconcile?apply=.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	const op = "api.reconcile"
	apply := false
	if raw := r.URL.Query().Get("apply"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			s.fail(w, r, op, badRequest("apply must be a boolean"))
			return
		}
		apply = v
	}
	var req reconcileRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		s.fail(w, r, op, err)
		return
	}
	report, err := s.deps.Reconcile(r.Context(), r.PathValue("id"), req.Rows, apply)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
