package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/meetscore/internal/domain/model"
)

type recomputeRequest struct {
	RequestID string `json:"request_id"`
}

type meetResponse struct {
	Version uint64     `json:"version"`
	Meet    model.Meet `json:"meet"`
}

// handleCreateMeet handles POST /meets.
func (s *Server) handleCreateMeet(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_meet"
	var m model.Meet
	if err := s.decodeJSON(w, r, &m, false); err != nil {
		s.fail(w, r, op, err)
		return
	}
	created, err := s.deps.CreateMeet(r.Context(), m)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, meetResponse{Version: 1, Meet: created})
}

// handleGetMeet handles GET /meets/{id}.
func (s *Server) handleGetMeet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_meet"
	m, version, err := s.deps.GetMeet(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, meetResponse{Version: version, Meet: m})
}

// handleRecompute handles POST /meets/{id}/recompute. The request ID comes
// from the body or the Idempotency-Key header.
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	const op = "api.recompute"
	var req recomputeRequest
	if err := s.decodeJSON(w, r, &req, true); err != nil {
		s.fail(w, r, op, err)
		return
	}
	if req.RequestID == "" {
		req.RequestID = strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	}
	ack, err := s.deps.Recompute(r.Context(), r.PathValue("id"), req.RequestID)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	status := http.StatusAccepted
	if ack.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, ack)
}

// handleStandings handles GET /meets/{id}/standings.
func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.standings"
	v, err := s.deps.Standings(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleProgression handles GET /meets/{id}/progression?cumulative=.
func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	const op = "api.progression"
	cumulative := true
	if raw := r.URL.Query().Get("cumulative"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			s.fail(w, r, op, badRequest("cumulative must be a boolean"))
			return
		}
		cumulative = v
	}
	steps, err := s.deps.Progression(r.Context(), r.PathValue("id"), cumulative)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}
