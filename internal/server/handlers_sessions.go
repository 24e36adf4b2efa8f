package server

import (
	"net/http"

	"github.com/jonathan/hired/internal/observability"
	"github.com/jonathan/hired/internal/results"
)

// handleListSessions returns the caller's past interviews, newest first.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context(), userID(r))
	if err != nil {
		failure(w, r, err)
		return
	}

	views := results.History(sessions)
	jsonResponse(w, http.StatusOK, map[string]any{
		"sessions": views,
		"count":    len(views),
	})
}

// handleClearSessions deletes every past interview of the caller.
func (s *Server) handleClearSessions(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearAll(r.Context(), userID(r)); err != nil {
		failure(w, r, err)
		return
	}
	observability.LoggerFromContext(r.Context()).Info("interview history cleared", "user_id", userID(r))
	w.WriteHeader(http.StatusNoContent)
}
