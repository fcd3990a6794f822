package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymmate-backend/internal/models"
)

type stubSubscriptionRepo struct {
	sub *models.Subscription
	err error
}

func (s stubSubscriptionRepo) Get(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	return s.sub, s.err
}

func TestSubscriptionHandler_Get(t *testing.T) {
	h := NewSubscriptionHandler(stubSubscriptionRepo{sub: &models.Subscription{Plan: "Free", Status: "active"}})

	rr := httptest.NewRecorder()
	h.Get(rr, authed(httptest.NewRequest(http.MethodGet, "/api/v1/subscription", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Plan         string         `json:"plan"`
		Limits       map[string]int `json:"limits"`
		Capabilities []string       `json:"capabilities"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "free", resp.Plan)
	assert.Equal(t, 5, resp.Limits["ai_chats_per_day"])
	assert.Equal(t, 3, resp.Limits["scans_per_day"])
	assert.Equal(t, 10, resp.Limits["swipes_per_day"])
	assert.Empty(t, resp.Capabilities)
}

func TestSubscriptionHandler_EliteCapabilities(t *testing.T) {
	h := NewSubscriptionHandler(stubSubscriptionRepo{sub: &models.Subscription{Plan: "elite", Status: "active"}})

	rr := httptest.NewRecorder()
	h.Get(rr, authed(httptest.NewRequest(http.MethodGet, "/api/v1/subscription", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Limits       map[string]int `json:"limits"`
		Capabilities []string       `json:"capabilities"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, -1, resp.Limits["swipes_per_day"])
	assert.Contains(t, resp.Capabilities, "profile_boost")
	assert.Contains(t, resp.Capabilities, "trainer_chat")
}

func TestSubscriptionHandler_RepoError(t *testing.T) {
	h := NewSubscriptionHandler(stubSubscriptionRepo{err: errors.New("connection reset")})

	rr := httptest.NewRecorder()
	h.Get(rr, authed(httptest.NewRequest(http.MethodGet, "/api/v1/subscription", nil)))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rr).Code)
}
