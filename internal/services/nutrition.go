package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"gymmate-backend/internal/models"
)

const foodScanPrompt = `Identify the food items in this image and estimate nutritional values.
Return a single JSON object with exactly these keys and nothing else:
- food_name (string)
- calories (number, kcal)
- protein (number, grams)
- carbs (number, grams)
- fats (number, grams)
Do not add commentary, markdown or extra keys.`

// nutritionSchema constrains structured output to the five NutritionRecord fields.
var nutritionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"food_name": {Type: genai.TypeString, Description: "Name of the dish or food items"},
		"calories":  {Type: genai.TypeNumber, Description: "Estimated energy in kcal"},
		"protein":   {Type: genai.TypeNumber, Description: "Protein in grams"},
		"carbs":     {Type: genai.TypeNumber, Description: "Carbohydrates in grams"},
		"fats":      {Type: genai.TypeNumber, Description: "Fat in grams"},
	},
	Required: []string{"food_name", "calories", "protein", "carbs", "fats"},
}

// ParseNutrition turns model output into a NutritionRecord. The whole text is tried first;
// if that fails, the first balanced {...} span is extracted (fenced or chatty replies) and tried.
// Values are taken as-is. On failure the raw text is returned inside a *ParseError.
func ParseNutrition(raw string) (*models.NutritionRecord, error) {
	rec, err := decodeNutrition(strings.TrimSpace(raw))
	if err == nil {
		return rec, nil
	}

	if span, ok := firstJSONObject(raw); ok {
		rec, spanErr := decodeNutrition(span)
		if spanErr == nil {
			return rec, nil
		}
		err = spanErr
	}

	return nil, &ParseError{Raw: raw, Err: err}
}

func decodeNutrition(text string) (*models.NutritionRecord, error) {
	var fields struct {
		FoodName *string  `json:"food_name"`
		Calories *float64 `json:"calories"`
		Protein  *float64 `json:"protein"`
		Carbs    *float64 `json:"carbs"`
		Fats     *float64 `json:"fats"`
	}

	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON object")
	}

	var missing []string
	if fields.FoodName == nil {
		missing = append(missing, "food_name")
	}
	if fields.Calories == nil {
		missing = append(missing, "calories")
	}
	if fields.Protein == nil {
		missing = append(missing, "protein")
	}
	if fields.Carbs == nil {
		missing = append(missing, "carbs")
	}
	if fields.Fats == nil {
		missing = append(missing, "fats")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	return &models.NutritionRecord{
		FoodName: *fields.FoodName,
		Calories: *fields.Calories,
		Protein:  *fields.Protein,
		Carbs:    *fields.Carbs,
		Fats:     *fields.Fats,
	}, nil
}

// firstJSONObject returns the balanced {...} span starting at the first '{' in s.
// Braces inside JSON string literals are ignored.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
