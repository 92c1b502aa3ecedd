package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"bannergen/internal/domain"
	"bannergen/internal/messaging"
)

type generateResponse struct {
	Status string `json:"status"`
	TaskID string `json:"task_id"`
}

// generateRequest is the wire payload. VariantCount is a pointer so an
// absent field defaults to one variant while an explicit zero stays zero and
// fails validation.
type generateRequest struct {
	Prompt       string             `json:"prompt"`
	Style        domain.Style       `json:"style"`
	AspectRatio  domain.AspectRatio `json:"aspect_ratio"`
	VariantCount *int               `json:"variant_count"`
}

// Generate accepts a banner generation request, persists a pending task and
// returns its id. All generation work happens in the worker.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	count := 1
	if req.VariantCount != nil {
		count = *req.VariantCount
	}
	a.enqueue(w, r, domain.TaskKindBanner, domain.GenerationRequest{
		Prompt:       req.Prompt,
		Style:        req.Style,
		AspectRatio:  req.AspectRatio,
		VariantCount: count,
	})
}

type titleRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateTitle accepts a text-only task producing marketing copy without an
// image.
func (a *App) GenerateTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	a.enqueue(w, r, domain.TaskKindTitle, domain.GenerationRequest{Prompt: req.Prompt, VariantCount: 1})
}

func (a *App) enqueue(w http.ResponseWriter, r *http.Request, kind domain.TaskKind, req domain.GenerationRequest) {
	req.Normalize()
	if err := req.Validate(a.Config.MaxVariants); err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "validation failed")
		return
	}

	task := domain.NewTask(uuid.NewString(), kind, req, a.Config.ResultTTL)
	if err := a.Repo.Create(r.Context(), task); err != nil {
		a.Logger.Error().Err(err).Msg("task create failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue task")
		return
	}

	if a.Queue != nil {
		if err := a.Queue.PublishGenerateTask(r.Context(), messaging.TaskMessage{TaskID: task.ID}); err != nil {
			// The worker's poll loop picks the task up regardless.
			a.Logger.Warn().Err(err).Str("task_id", task.ID).Msg("broker publish failed")
		}
	}

	a.json(w, http.StatusAccepted, generateResponse{Status: "processing", TaskID: task.ID})
}
