package api

import (
	"net/http"
	"strconv"
)

// handleScoringTable handles GET /scoring-table?places=&start=&multiplier=.
// Missing parameters take the championship defaults.
func (s *Server) handleScoringTable(w http.ResponseWriter, r *http.Request) {
	const op = "api.scoring_table"
	q := r.URL.Query()
	places, start, mult := 16, 20, 2.0
	var err error
	if raw := q.Get("places"); raw != "" {
		if places, err = strconv.Atoi(raw); err != nil {
			s.fail(w, r, op, badRequest("places must be an integer"))
			return
		}
	}
	if raw := q.Get("start"); raw != "" {
		if start, err = strconv.Atoi(raw); err != nil {
			s.fail(w, r, op, badRequest("start must be an integer"))
			return
		}
	}
	if raw := q.Get("multiplier"); raw != "" {
		if mult, err = strconv.ParseFloat(raw, 64); err != nil {
			s.fail(w, r, op, badRequest("multiplier must be a number"))
			return
		}
	}
	table, err := s.deps.ScoringTable(places, start, mult)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}
