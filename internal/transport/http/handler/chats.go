package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taratrabaho/jobboard-api/internal/application/chat"
	"github.com/taratrabaho/jobboard-api/internal/domain"
)

// ChatHandler handles resume-builder chat history.
type ChatHandler struct {
	svc chat.Service
}

func NewChatHandler(svc chat.Service) *ChatHandler { return &ChatHandler{svc: svc} }

type chatSavedEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ChatID  string `json:"chatId"`
}

func (h *ChatHandler) Save(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.ChatInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.svc.Save(r.Context(), a, in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatSavedEnvelope{Success: true, Message: "Chat history saved successfully", ChatID: c.ChatID})
}

func (h *ChatHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.ChatInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.svc.Update(r.Context(), a, chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatSavedEnvelope{Success: true, Message: "Chat history updated successfully", ChatID: c.ChatID})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	chats, err := h.svc.History(r.Context(), a, chi.URLParam(r, "userId"))
	if err != nil {
		httpError(w, err)
		return
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Data: chats})
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), a, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, "Chat history deleted successfully")
}
