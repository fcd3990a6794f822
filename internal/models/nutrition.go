package models

import (
	"time"

	"github.com/google/uuid"
)

// NutritionRecord is the structured result of a food scan.
type NutritionRecord struct {
	FoodName string  `json:"food_name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

type FoodScanResponse struct {
	Data NutritionRecord `json:"data"`
}

// FoodLog is a saved scan result for one user and day.
type FoodLog struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FoodName  string    `json:"food_name"`
	Calories  float64   `json:"calories"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fats      float64   `json:"fats"`
	ScanDate  string    `json:"scan_date"` // YYYY-MM-DD
	CreatedAt time.Time `json:"created_at"`
}

type CreateFoodLogRequest struct {
	NutritionRecord
	ScanDate string `json:"scan_date"`
}
