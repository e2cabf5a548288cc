package handler

import (
	"net/http"

	"github.com/taratrabaho/jobboard-api/internal/application/recommend"
)

// RecommendHandler serves AI job matching and the prompt passthrough.
type RecommendHandler struct {
	svc recommend.Service
}

func NewRecommendHandler(svc recommend.Service) *RecommendHandler {
	return &RecommendHandler{svc: svc}
}

type recommendEnvelope struct {
	Success bool `json:"success"`
	*recommend.Result
}

func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Recommend(r.Context(), a)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendEnvelope{Success: true, Result: res})
}

func (h *RecommendHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := h.svc.Generate(r.Context(), req.Prompt)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"output": out})
}
