package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"bannergen/internal/domain"
	"bannergen/pkg/zip"
)

// Media serves a generated artifact by filename. Artifact names are opaque
// and flat; the store rejects anything that looks like a path.
func (a *App) Media(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if name == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "filename required")
		return
	}

	data, err := a.Store.Read(r.Context(), name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			a.error(w, http.StatusNotFound, "not_found", "artifact not found")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid artifact name")
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(name))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Archive bundles every artifact of a finished task into one zip download.
func (a *App) Archive(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	if taskID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "task_id required")
		return
	}

	task, err := a.Repo.GetByID(r.Context(), taskID)
	switch {
	case errors.Is(err, domain.ErrExpired):
		a.error(w, http.StatusNotFound, "expired", "task result has expired")
		return
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "task not found")
		return
	case err != nil:
		a.error(w, http.StatusInternalServerError, "internal", "failed to load task")
		return
	}
	if task.State != domain.TaskStateSucceeded {
		a.error(w, http.StatusConflict, "not_ready", "task has not succeeded")
		return
	}

	var entries []zip.Entry
	for _, v := range task.Variants {
		name := artifactName(v.ImageRef)
		if name == "" {
			continue
		}
		data, err := a.Store.Read(r.Context(), name)
		if err != nil {
			continue
		}
		entries = append(entries, zip.Entry{Name: name, Data: data})
	}
	if len(entries) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no artifacts available")
		return
	}

	archive := zip.Archive(entries)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=task-%s.zip", taskID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// artifactName extracts the flat filename from a variant's media reference.
func artifactName(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	return path.Base(ref)
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
