package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taskflow-api/internal/application/task"
	"github.com/taskflow-api/internal/domain"
	"github.com/taskflow-api/internal/transport/http/middleware"
)

// TaskHandler handles task endpoints for directors and contractors.
type TaskHandler struct {
	svc task.Service
}

func NewTaskHandler(svc task.Service) *TaskHandler { return &TaskHandler{svc: svc} }

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// ListMine returns the caller's tasks ordered by due date.
func (h *TaskHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	views, err := h.svc.ListMine(r.Context(), actor.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	v, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	v, changes, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	if changes == nil {
		changes = []domain.TaskChange{}
	}
	writeJSON(w, http.StatusOK, TaskEnvelope{Task: v, Changes: changes})
}

func (h *TaskHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Accept)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Complete)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transitionFunc func(ctx context.Context, taskID, contractorID string) (*domain.TaskView, error)

func (h *TaskHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	v, err := fn(r.Context(), chi.URLParam(r, "id"), actor.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
