package handlers

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"gymmate-backend/internal/middleware"
	"gymmate-backend/internal/models"
)

const dateLayout = "2006-01-02"

type foodLogRepository interface {
	Create(ctx context.Context, log *models.FoodLog) error
	ListByDate(ctx context.Context, userID uuid.UUID, date string) ([]*models.FoodLog, error)
}

type FoodLogHandler struct {
	repo foodLogRepository
	now  func() time.Time
}

func NewFoodLogHandler(repo foodLogRepository) *FoodLogHandler {
	return &FoodLogHandler{repo: repo, now: time.Now}
}

func (h *FoodLogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFoodLogRequest
	if err := decodeJSON(w, r, 0, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.FoodName) == "" {
		fields["food_name"] = "required"
	}
	for name, v := range map[string]float64{
		"calories": req.Calories, "protein": req.Protein, "carbs": req.Carbs, "fats": req.Fats,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			fields[name] = "must be a non-negative number"
		}
	}
	if req.ScanDate == "" {
		req.ScanDate = h.now().UTC().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, req.ScanDate); err != nil {
		fields["scan_date"] = "must be YYYY-MM-DD"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	log := &models.FoodLog{
		UserID:   middleware.GetUserID(r.Context()),
		FoodName: strings.TrimSpace(req.FoodName),
		Calories: req.Calories,
		Protein:  req.Protein,
		Carbs:    req.Carbs,
		Fats:     req.Fats,
		ScanDate: req.ScanDate,
	}
	if err := h.repo.Create(r.Context(), log); err != nil {
		handleServiceError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusCreated, log)
}

// List returns the caller's logs for ?date= (default today, UTC) with day totals.
func (h *FoodLogHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.now().UTC().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Invalid date",
			map[string]string{"date": "must be YYYY-MM-DD"}, r))
		return
	}

	logs, err := h.repo.ListByDate(r.Context(), middleware.GetUserID(r.Context()), date)
	if err != nil {
		handleServiceError(w, r, err, "")
		return
	}

	var totals models.NutritionRecord
	for _, l := range logs {
		totals.Calories += l.Calories
		totals.Protein += l.Protein
		totals.Carbs += l.Carbs
		totals.Fats += l.Fats
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date": date,
		"logs": logs,
		"totals": map[string]float64{
			"calories": totals.Calories,
			"protein":  totals.Protein,
			"carbs":    totals.Carbs,
			"fats":     totals.Fats,
		},
	})
}
