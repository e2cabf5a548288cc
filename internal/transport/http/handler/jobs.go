package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taratrabaho/jobboard-api/internal/application/job"
	"github.com/taratrabaho/jobboard-api/internal/domain"
)

// JobHandler handles job listing endpoints.
type JobHandler struct {
	svc job.Service
}

func NewJobHandler(svc job.Service) *JobHandler { return &JobHandler{svc: svc} }

type jobEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Job     *domain.Job `json:"job"`
}

func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}
	j, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jobEnvelope{Success: true, Message: "Job added successfully.", Job: j})
}

func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}
	j, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobEnvelope{Success: true, Message: "Job updated successfully", Job: j})
}

func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, "Job deleted successfully")
}
