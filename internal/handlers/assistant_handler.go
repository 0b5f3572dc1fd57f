package handlers

import (
	"errors"
	"net/http"

	"littlesteps/internal/assistant"
)

// AssistantHandler serves the floating chat panel
type AssistantHandler struct {
	*Base
}

// NewAssistantHandler creates an assistant handler
func NewAssistantHandler(base *Base) *AssistantHandler {
	return &AssistantHandler{Base: base}
}

// Show renders the conversation. ?partial=1 returns only the message list
// so the panel can poll for the pending reply.
func (h *AssistantHandler) Show(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("partial") != "" {
		h.showMessages(w, r)
		return
	}

	st, ok := h.store(w, r)
	if !ok {
		return
	}
	h.render(w, http.StatusOK, "assistant", h.pageData(w, r, st, "AI Assistant", "", nil))
}

func (h *AssistantHandler) showMessages(w http.ResponseWriter, r *http.Request) {
	conv, err := h.conversations.For(GetDeviceFromContext(r.Context()))
	if err != nil {
		respondWithError(w, h.logger, http.StatusServiceUnavailable, "Assistant unavailable", "Failed to open conversation", err)
		return
	}

	view := AssistantView{Messages: conv.Messages(), Pending: conv.Pending()}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.RenderPartial(w, "assistant", "assistant_messages", view); err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Failed to render assistant", err)
	}
}

// Send posts a question. Blank messages are ignored.
func (h *AssistantHandler) Send(w http.ResponseWriter, r *http.Request) {
	conv, err := h.conversations.For(GetDeviceFromContext(r.Context()))
	if err != nil {
		respondWithError(w, h.logger, http.StatusServiceUnavailable, "Assistant unavailable", "Failed to open conversation", err)
		return
	}

	if _, err := conv.Send(r.PostFormValue("message")); err != nil && !errors.Is(err, assistant.ErrEmptyMessage) {
		respondWithError(w, h.logger, http.StatusServiceUnavailable, "Assistant unavailable", "Failed to send message", err)
		return
	}

	redirect(w, r, localPath(r.PostFormValue("return_to"), "/")+"#assistant")
}
