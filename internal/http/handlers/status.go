package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bannergen/internal/domain"
)

// Status returns the current snapshot of a task for polling clients.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	if taskID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "task_id required")
		return
	}

	snap, err := a.Hub.Snapshot(r.Context(), taskID)
	switch {
	case errors.Is(err, domain.ErrExpired):
		a.error(w, http.StatusNotFound, "expired", "task result has expired")
		return
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "task not found")
		return
	case err != nil:
		a.Logger.Error().Err(err).Str("task_id", taskID).Msg("status lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load task")
		return
	}

	a.json(w, http.StatusOK, snap)
}
