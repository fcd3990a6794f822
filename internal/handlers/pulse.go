package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"gymmate-backend/internal/logger"
	"gymmate-backend/internal/middleware"
	"gymmate-backend/internal/models"
	"gymmate-backend/internal/services"
)

const pulseUnavailable = "Pulse is temporarily unavailable."

type pulseBackend interface {
	Configured() bool
	Chat(ctx context.Context, messages []models.ChatMessage) (string, error)
	ChatStream(ctx context.Context, messages []models.ChatMessage, onChunk func(string) error) error
}

type PulseHandler struct {
	ai           pulseBackend
	maxBodyBytes int64
}

func NewPulseHandler(ai pulseBackend, maxBodyBytes int64) *PulseHandler {
	return &PulseHandler{ai: ai, maxBodyBytes: maxBodyBytes}
}

// Chat answers POST /api/pulse-chat, streamed or whole depending on the request.
func (h *PulseHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Missing messages array",
			map[string]string{"messages": "must contain at least one message"}, r))
		return
	}
	if strings.TrimSpace(req.Messages[len(req.Messages)-1].Content) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Last message content is empty",
			map[string]string{"messages": "last message must have content"}, r))
		return
	}

	if !h.ai.Configured() {
		handleServiceError(w, r, services.ErrMissingCredential, pulseUnavailable)
		return
	}
	if !middleware.ChargeQuota(w, r) {
		return
	}

	if req.Stream {
		h.stream(w, r, req.Messages)
		return
	}

	text, err := h.ai.Chat(r.Context(), req.Messages)
	if err != nil {
		handleServiceError(w, r, err, pulseUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Text: text})
}

func (h *PulseHandler) stream(w http.ResponseWriter, r *http.Request, messages []models.ChatMessage) {
	sse := newSSEWriter(w)

	err := h.ai.ChatStream(r.Context(), messages, sse.Text)
	switch {
	case err == nil:
		sse.Event(models.StreamEvent{Done: true})
	case sse.Broken():
		slog.InfoContext(r.Context(), "pulse stream aborted by client", logger.Err(err))
	case !sse.Started():
		handleServiceError(w, r, err, pulseUnavailable)
	default:
		// Already-sent chunks stay with the client; it gets an error marker instead of done.
		slog.ErrorContext(r.Context(), "pulse stream failed mid-response", logger.Err(err))
		sse.Event(models.StreamEvent{Error: pulseUnavailable})
	}
}
