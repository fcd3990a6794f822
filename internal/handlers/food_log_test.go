package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymmate-backend/internal/middleware"
	"gymmate-backend/internal/models"
)

type stubFoodLogRepo struct {
	logs     []*models.FoodLog
	lastDate string
}

func (s *stubFoodLogRepo) Create(ctx context.Context, log *models.FoodLog) error {
	log.ID = uuid.New()
	s.logs = append(s.logs, log)
	return nil
}

func (s *stubFoodLogRepo) ListByDate(ctx context.Context, userID uuid.UUID, date string) ([]*models.FoodLog, error) {
	s.lastDate = date
	return s.logs, nil
}

func newFoodLogHandler(repo *stubFoodLogRepo) *FoodLogHandler {
	h := NewFoodLogHandler(repo)
	h.now = func() time.Time { return time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC) }
	return h
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.New()))
}

func TestFoodLogHandler_CreateDefaultsToToday(t *testing.T) {
	repo := &stubFoodLogRepo{}
	h := newFoodLogHandler(repo)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/food-logs",
		strings.NewReader(`{"food_name":"Salad","calories":250,"protein":10,"carbs":20,"fats":8}`)))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, "2026-05-02", repo.logs[0].ScanDate)
	assert.Equal(t, 250.0, repo.logs[0].Calories)
}

func TestFoodLogHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"calories":250}`, "food_name"},
		{"negative calories", `{"food_name":"x","calories":-5}`, "calories"},
		{"bad date", `{"food_name":"x","scan_date":"02/05/2026"}`, "scan_date"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubFoodLogRepo{}
			rr := httptest.NewRecorder()
			newFoodLogHandler(repo).Create(rr, authed(httptest.NewRequest(http.MethodPost, "/api/v1/food-logs",
				strings.NewReader(tc.body))))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, decodeError(t, rr).Fields, tc.field)
			assert.Empty(t, repo.logs)
		})
	}
}

func TestFoodLogHandler_ListTotals(t *testing.T) {
	repo := &stubFoodLogRepo{logs: []*models.FoodLog{
		{FoodName: "Oats", Calories: 300, Protein: 10, Carbs: 50, Fats: 5},
		{FoodName: "Chicken", Calories: 250, Protein: 40, Carbs: 0, Fats: 8},
	}}

	rr := httptest.NewRecorder()
	newFoodLogHandler(repo).List(rr, authed(httptest.NewRequest(http.MethodGet, "/api/v1/food-logs?date=2026-04-30", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2026-04-30", repo.lastDate)

	var resp struct {
		Totals map[string]float64 `json:"totals"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 550.0, resp.Totals["calories"])
	assert.Equal(t, 50.0, resp.Totals["protein"])
}

func TestFoodLogHandler_ListRejectsBadDate(t *testing.T) {
	rr := httptest.NewRecorder()
	newFoodLogHandler(&stubFoodLogRepo{}).List(rr, authed(httptest.NewRequest(http.MethodGet, "/api/v1/food-logs?date=yesterday", nil)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
