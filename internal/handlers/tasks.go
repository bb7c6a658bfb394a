package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
	"github.com/sixnames/next-marketplace-sub004/internal/platform/httpx"
	"github.com/sixnames/next-marketplace-sub004/internal/services"
)

// TaskHandlers exposes the moderation workflow endpoints.
type TaskHandlers struct {
	moderation services.ModerationService
}

// NewTaskHandlers constructs handlers over the moderation service.
func NewTaskHandlers(moderation services.ModerationService) *TaskHandlers {
	return &TaskHandlers{moderation: moderation}
}

// Routes wires the /tasks endpoints onto the provided router.
func (h *TaskHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createTask)
	r.Post("/{taskID}/drafts", h.saveDraft)
}

type createTaskRequest struct {
	ProductID string `json:"productId"`
}

type taskLogEntryPayload struct {
	ID        string    `json:"id"`
	HasDraft  bool      `json:"hasDraft"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type taskPayload struct {
	ID        string                `json:"id"`
	ProductID string                `json:"productId"`
	State     string                `json:"state"`
	Log       []taskLogEntryPayload `json:"log,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

func buildTaskPayload(task domain.Task) taskPayload {
	payload := taskPayload{
		ID:        task.ID,
		ProductID: task.ProductID,
		State:     string(task.State),
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
	for _, entry := range task.Log {
		payload.Log = append(payload.Log, taskLogEntryPayload{
			ID:        entry.ID,
			HasDraft:  entry.Draft != nil,
			CreatedBy: entry.CreatedBy,
			CreatedAt: entry.CreatedAt,
		})
	}
	return payload
}

func (h *TaskHandlers) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload createTaskRequest
	if err := decodeBody(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	task, err := h.moderation.CreateTask(ctx, services.CreateTaskCommand{ProductID: payload.ProductID})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, buildTaskPayload(task))
}

type saveDraftRequest struct {
	Locale           string                    `json:"locale,omitempty"`
	CreatedBy        string                    `json:"createdBy,omitempty"`
	CardTitleI18n    map[string]string         `json:"cardTitleI18n,omitempty"`
	SnippetTitleI18n map[string]string         `json:"snippetTitleI18n,omitempty"`
	Attributes       []productAttributePayload `json:"attributes,omitempty"`
}

func (h *TaskHandlers) saveDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload saveDraftRequest
	if err := decodeBody(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	task, err := h.moderation.SaveDraft(ctx, services.SaveDraftCommand{
		TaskID:    chi.URLParam(r, "taskID"),
		Locale:    payload.Locale,
		CreatedBy: payload.CreatedBy,
		Edit: services.DraftEdit{
			CardTitleI18n:    payload.CardTitleI18n,
			SnippetTitleI18n: payload.SnippetTitleI18n,
			Attributes:       attributesToDomain(payload.Attributes),
		},
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildTaskPayload(task))
}
