package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taratrabaho/jobboard-api/internal/application/apply"
	"github.com/taratrabaho/jobboard-api/internal/domain"
)

// ApplicationHandler handles job applications.
type ApplicationHandler struct {
	svc apply.Service
}

func NewApplicationHandler(svc apply.Service) *ApplicationHandler {
	return &ApplicationHandler{svc: svc}
}

type appliedEnvelope struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ApplicationID string `json:"applicationId"`
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := parseMultipart(w, r); err != nil {
		httpError(w, err)
		return
	}
	upload, err := formFile(r, "resume")
	if err != nil {
		httpError(w, err)
		return
	}
	res, err := h.svc.Apply(r.Context(), a, apply.Input{
		JobID:        r.FormValue("jobId"),
		FullName:     r.FormValue("fullName"),
		Email:        r.FormValue("email"),
		Phone:        r.FormValue("phone"),
		CoverLetter:  r.FormValue("coverLetter"),
		ResumeSource: r.FormValue("resumeSource"),
		ResumeID:     r.FormValue("resumeId"),
		Upload:       upload,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appliedEnvelope{
		Success:       true,
		Message:       res.Message,
		ApplicationID: res.Application.ApplicationID,
	})
}

func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	apps, err := h.svc.ListMine(r.Context(), a)
	h.list(w, apps, err)
}

func (h *ApplicationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.ListAll(r.Context())
	h.list(w, apps, err)
}

func (h *ApplicationHandler) list(w http.ResponseWriter, apps []domain.Application, err error) {
	if err != nil {
		httpError(w, err)
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateApplicationStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	app, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}
