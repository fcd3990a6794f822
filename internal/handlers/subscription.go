package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"gymmate-backend/internal/middleware"
	"gymmate-backend/internal/models"
	"gymmate-backend/internal/services"
)

type subscriptionRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

type SubscriptionHandler struct {
	repo subscriptionRepository
}

func NewSubscriptionHandler(repo subscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{repo: repo}
}

// Get returns the caller's plan with its daily limits (-1 means unlimited) and
// the features it unlocks.
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.repo.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err, "")
		return
	}

	plan := services.NormalizePlan(sub.Plan)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"plan":         plan,
		"status":       sub.Status,
		"updated_at":   sub.UpdatedAt,
		"limits":       services.PlanLimits(plan),
		"capabilities": services.Capabilities(plan),
	})
}
