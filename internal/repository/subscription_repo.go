package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymmate-backend/internal/models"
)

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

// Get returns the user's active subscription, or a free one when none exists.
func (r *SubscriptionRepo) Get(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	s := &models.Subscription{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT plan, status, updated_at
		FROM subscriptions
		WHERE user_id = $1 AND status IN ('active', 'trialing')
		ORDER BY updated_at DESC
		LIMIT 1
	`, userID).Scan(&s.Plan, &s.Status, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.Subscription{UserID: userID, Plan: "free", Status: "active", UpdatedAt: time.Now().UTC()}, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetPlan satisfies services.PlanSource.
func (r *SubscriptionRepo) GetPlan(ctx context.Context, userID uuid.UUID) (string, error) {
	s, err := r.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.Plan, nil
}
