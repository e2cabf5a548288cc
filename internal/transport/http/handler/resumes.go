package handler

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/taratrabaho/jobboard-api/internal/application/resume"
	"github.com/taratrabaho/jobboard-api/internal/domain"
)

// ResumeHandler handles resume upload, listing and download.
type ResumeHandler struct {
	svc resume.Service
}

func NewResumeHandler(svc resume.Service) *ResumeHandler { return &ResumeHandler{svc: svc} }

type resumeSavedEnvelope struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	ResumeID string `json:"resumeId"`
	Filename string `json:"filename"`
}

func (h *ResumeHandler) Save(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := parseMultipart(w, r); err != nil {
		httpError(w, err)
		return
	}
	in, err := formFile(r, "resume")
	if err != nil {
		httpError(w, err)
		return
	}
	if in == nil {
		in = &resume.UploadInput{}
	}
	saved, err := h.svc.Save(r.Context(), a, *in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resumeSavedEnvelope{
		Success:  true,
		Message:  "Resume saved successfully",
		ResumeID: saved.ResumeID,
		Filename: saved.Filename,
	})
}

func (h *ResumeHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	resumes, err := h.svc.List(r.Context(), a, chi.URLParam(r, "userId"))
	if err != nil {
		httpError(w, err)
		return
	}
	if resumes == nil {
		resumes = []domain.Resume{}
	}
	writeJSON(w, http.StatusOK, resumes)
}

func (h *ResumeHandler) Download(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	meta, data, err := h.svc.Download(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": meta.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ResumeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), a, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, "Resume deleted successfully")
}
