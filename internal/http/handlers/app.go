package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"bannergen/internal/domain"
	"bannergen/internal/infra"
	"bannergen/internal/messaging"
	"bannergen/internal/notify"
	"bannergen/internal/storage"
)

// App bundles the handler dependencies. Queue may be nil when no broker is
// configured; the worker then discovers tasks by polling.
type App struct {
	Repo   domain.TaskRepository
	Queue  messaging.Publisher
	Hub    *notify.Hub
	Store  *storage.FileStore
	Config *infra.Config
	Logger zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
