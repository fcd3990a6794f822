package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gymmate-backend/internal/logger"
	"gymmate-backend/internal/middleware"
	"gymmate-backend/internal/models"
	"gymmate-backend/internal/repository"
	"gymmate-backend/internal/services"
)

const maxMessageLength = 4000

type messageRepository interface {
	GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
	Create(ctx context.Context, msg *models.Message) error
	ListByMatch(ctx context.Context, matchID uuid.UUID) ([]*models.Message, error)
}

type messagePublisher interface {
	PublishMessage(ctx context.Context, msg *models.Message) error
}

type MessageHandler struct {
	repo      messageRepository
	publisher messagePublisher
}

// NewMessageHandler builds the match chat handler. publisher may be nil when Redis is not configured.
func NewMessageHandler(repo messageRepository, publisher messagePublisher) *MessageHandler {
	return &MessageHandler{repo: repo, publisher: publisher}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	match, ok := h.authorizedMatch(w, r)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := decodeJSON(w, r, 0, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" || len(content) > maxMessageLength {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"content": "must be between 1 and 4000 characters"}, r))
		return
	}

	msg := &models.Message{
		MatchID:  match.ID,
		SenderID: middleware.GetUserID(r.Context()),
		Content:  content,
	}
	if err := h.repo.Create(r.Context(), msg); err != nil {
		handleServiceError(w, r, err, "")
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishMessage(r.Context(), msg); err != nil {
			// The message is stored; realtime delivery is best effort.
			slog.WarnContext(r.Context(), "publish message failed", "match_id", match.ID, logger.Err(err))
		}
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	match, ok := h.authorizedMatch(w, r)
	if !ok {
		return
	}

	msgs, err := h.repo.ListByMatch(r.Context(), match.ID)
	if err != nil {
		handleServiceError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

func (h *MessageHandler) authorizedMatch(w http.ResponseWriter, r *http.Request) (*models.Match, bool) {
	matchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid match ID", r))
		return nil, false
	}

	match, err := h.repo.GetMatch(r.Context(), matchID)
	if errors.Is(err, repository.ErrMatchNotFound) {
		handleServiceError(w, r, &services.NotFoundError{Message: "Match not found"}, "")
		return nil, false
	}
	if err != nil {
		handleServiceError(w, r, err, "")
		return nil, false
	}

	if !match.HasParticipant(middleware.GetUserID(r.Context())) {
		handleServiceError(w, r, &services.ForbiddenError{Message: "Access denied"}, "")
		return nil, false
	}
	return match, true
}
