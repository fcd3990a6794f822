package handlers

import (
	"context"
	"net/http"
	"strings"

	"gymmate-backend/internal/middleware"
	"gymmate-backend/internal/models"
	"gymmate-backend/internal/services"
)

const (
	imageAnalysisFailed = "Image analysis failed"
	foodScanFailed      = "Food scan failed"
)

type visionBackend interface {
	Configured() bool
	AnalyzeImage(ctx context.Context, img models.ImagePayload, prompt string) (string, error)
	ScanFood(ctx context.Context, img models.ImagePayload) (*models.NutritionRecord, error)
}

type VisionHandler struct {
	ai           visionBackend
	maxBodyBytes int64
}

func NewVisionHandler(ai visionBackend, maxBodyBytes int64) *VisionHandler {
	return &VisionHandler{ai: ai, maxBodyBytes: maxBodyBytes}
}

// AnalyzeImage answers POST /api/analyze-image.
func (h *VisionHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeImageRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	img, ok := h.image(w, r, req.Base64Image)
	if !ok {
		return
	}

	text, err := h.ai.AnalyzeImage(r.Context(), img, req.Prompt)
	if err != nil {
		handleServiceError(w, r, err, imageAnalysisFailed)
		return
	}

	writeJSON(w, http.StatusOK, models.AnalyzeImageResponse{Text: text})
}

// FoodScan answers POST /api/food-scan. A prompt in the body is ignored.
func (h *VisionHandler) FoodScan(w http.ResponseWriter, r *http.Request) {
	var req models.FoodScanRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	img, ok := h.image(w, r, req.Base64Image)
	if !ok {
		return
	}

	rec, err := h.ai.ScanFood(r.Context(), img)
	if err != nil {
		handleServiceError(w, r, err, foodScanFailed)
		return
	}

	writeJSON(w, http.StatusOK, models.FoodScanResponse{Data: *rec})
}

// image validates the payload, then the credential, then charges any quota. It writes the error response itself.
func (h *VisionHandler) image(w http.ResponseWriter, r *http.Request, raw string) (models.ImagePayload, bool) {
	if strings.TrimSpace(raw) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Missing base64Image",
			map[string]string{"base64Image": "required"}, r))
		return models.ImagePayload{}, false
	}

	img := models.ParseImagePayload(raw)
	if data, err := img.Bytes(); err != nil || len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Invalid image data",
			map[string]string{"base64Image": "must be valid base64"}, r))
		return models.ImagePayload{}, false
	}

	if !h.ai.Configured() {
		handleServiceError(w, r, services.ErrMissingCredential, imageAnalysisFailed)
		return models.ImagePayload{}, false
	}
	if !middleware.ChargeQuota(w, r) {
		return models.ImagePayload{}, false
	}
	return img, true
}
