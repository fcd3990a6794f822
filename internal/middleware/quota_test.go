package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"gymmate-backend/internal/services"
)

type stubUsage struct {
	usage *services.Usage
	err   error
	calls int
}

func (s *stubUsage) Consume(ctx context.Context, userID uuid.UUID, limit services.Limit) (*services.Usage, error) {
	s.calls++
	return s.usage, s.err
}

func serveQuota(usage UsageConsumer, userID uuid.UUID) (*httptest.ResponseRecorder, bool) {
	reached := false
	h := Quota(usage, services.LimitAIChats)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ChargeQuota(w, r) {
			return
		}
		reached = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/pulse-chat", nil)
	if userID != uuid.Nil {
		req = req.WithContext(WithUserID(req.Context(), userID))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, reached
}

func TestQuota_AnonymousPassesUncounted(t *testing.T) {
	usage := &stubUsage{}
	_, reached := serveQuota(usage, uuid.Nil)

	assert.True(t, reached)
	assert.Zero(t, usage.calls)
}

func TestQuota_Exceeded(t *testing.T) {
	usage := &stubUsage{err: &services.QuotaError{Message: "Daily limit of 5 reached on the free plan"}}
	rr, reached := serveQuota(usage, uuid.New())

	assert.False(t, reached)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "RATE_LIMITED")
}

func TestQuota_RemainingHeader(t *testing.T) {
	usage := &stubUsage{usage: &services.Usage{Limit: 5, Used: 2, Remaining: 3}}
	rr, reached := serveQuota(usage, uuid.New())

	assert.True(t, reached)
	assert.Equal(t, "3", rr.Header().Get("X-Quota-Remaining"))
}

func TestQuota_CounterFailureLetsRequestThrough(t *testing.T) {
	usage := &stubUsage{err: errors.New("redis: connection refused")}
	_, reached := serveQuota(usage, uuid.New())

	assert.True(t, reached)
}

func TestQuota_NothingChargedUntilHandlerAsks(t *testing.T) {
	usage := &stubUsage{usage: &services.Usage{Limit: 5, Used: 1, Remaining: 4}}
	h := Quota(usage, services.LimitScans)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/food-scan", nil)
	req = req.WithContext(WithUserID(req.Context(), uuid.New()))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, usage.calls)
}

func TestChargeQuota_WithoutQuotaPasses(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-image", nil)

	assert.True(t, ChargeQuota(rr, req))
	assert.Equal(t, http.StatusOK, rr.Code)
}
