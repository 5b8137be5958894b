package handler

import (
	"net/http"
	"strconv"
)

// ListAudit handles GET /audit with an optional ?limit= parameter.
// A missing, malformed, or non-positive limit falls back to the default of 50
// inside the audit repo — the trail view should always render something.
func (s *Server) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := s.queries.RecentAudit(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, events)
}
