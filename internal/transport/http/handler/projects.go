package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taskflow-api/internal/application/project"
	"github.com/taskflow-api/internal/domain"
)

// ProjectHandler handles project CRUD endpoints.
type ProjectHandler struct {
	svc project.Service
}

func NewProjectHandler(svc project.Service) *ProjectHandler { return &ProjectHandler{svc: svc} }

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.ProjectInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.ProjectInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
