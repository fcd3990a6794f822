package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"gymmate-backend/internal/middleware"
	"gymmate-backend/internal/models"
)

const (
	defaultPulseHistory = 50
	maxPulseHistory     = 200
)

type pulseChatRepository interface {
	Save(ctx context.Context, c *models.PulseChat) error
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PulseChat, error)
}

// PulseChatHandler stores and replays a user's Pulse conversation.
type PulseChatHandler struct {
	repo pulseChatRepository
}

func NewPulseChatHandler(repo pulseChatRepository) *PulseChatHandler {
	return &PulseChatHandler{repo: repo}
}

func (h *PulseChatHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.SavePulseChatRequest
	if err := decodeJSON(w, r, 0, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	fields := map[string]string{}
	if req.Role != models.RoleUser && req.Role != models.RoleAssistant {
		fields["role"] = "must be user or assistant"
	}
	if strings.TrimSpace(req.Content) == "" {
		fields["content"] = "required"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	chat := &models.PulseChat{
		UserID:  middleware.GetUserID(r.Context()),
		Role:    req.Role,
		Content: req.Content,
	}
	if err := h.repo.Save(r.Context(), chat); err != nil {
		handleServiceError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusCreated, chat)
}

func (h *PulseChatHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultPulseHistory
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Invalid limit",
				map[string]string{"limit": "must be a positive integer"}, r))
			return
		}
		limit = min(n, maxPulseHistory)
	}

	chats, err := h.repo.ListRecent(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		handleServiceError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": chats})
}
