package api

import (
	"net/http"

	"github.com/okian/meetscore/internal/domain/model"
)

// handleSaveRoster handles PUT /meets/{id}/rosters/{team}.
func (s *Server) handleSaveRoster(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_roster"
	var sel model.RosterSelection
	if err := s.decodeJSON(w, r, &sel, false); err != nil {
		s.fail(w, r, op, err)
		return
	}
	version, err := s.deps.SaveRoster(r.Context(), r.PathValue("id"), r.PathValue("team"), sel)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{Version: version})
}

// handleSaveRelays handles PUT /meets/{id}/relays/{team}. The body replaces
// every relay entry of the team.
func (s *Server) handleSaveRelays(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_relays"
	var relays []model.RelayEntry
	if err := s.decodeJSON(w, r, &relays, false); err != nil {
		s.fail(w, r, op, err)
		return
	}
	version, err := s.deps.SaveRelays(r.Context(), r.PathValue("id"), r.PathValue("team"), relays)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{Version: version})
}
