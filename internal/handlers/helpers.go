package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"gymmate-backend/internal/logger"
	"gymmate-backend/internal/models"
	"gymmate-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	resp := errorResp(code, message, r)
	resp.Error.Fields = fields
	return resp
}

// decodeJSON reads at most limit bytes of JSON into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst interface{}) error {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeDecodeError answers 413 for oversized bodies and 400 for everything else.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("PAYLOAD_TOO_LARGE", "Request body is too large", r))
		return
	}
	writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Invalid request body",
		map[string]string{"body": err.Error()}, r))
}

// MethodNotAllowed keeps 405s in the JSON error envelope.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResp("METHOD_NOT_ALLOWED", "Method not allowed", r))
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Route not found", r))
}

// handleServiceError maps service errors onto the error envelope.
// aiMessage is what the caller sees when the AI backend fails.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, aiMessage string) {
	var (
		valErr       *services.ValidationError
		cfgErr       *services.ConfigError
		backendErr   *services.BackendError
		parseErr     *services.ParseError
		notFoundErr  *services.NotFoundError
		forbiddenErr *services.ForbiddenError
		quotaErr     *services.QuotaError
	)

	switch {
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", valErr.Error(), valErr.Fields, r))
	case errors.As(err, &cfgErr):
		slog.ErrorContext(r.Context(), "server misconfigured", logger.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("CONFIG_ERROR", cfgErr.Message, r))
	case errors.As(err, &parseErr):
		slog.WarnContext(r.Context(), "model output not parseable", logger.Err(err))
		resp := errorResp("PARSE_ERROR", "Could not parse nutrition data", r)
		resp.Error.Raw = parseErr.Raw
		writeJSON(w, http.StatusInternalServerError, resp)
	case errors.As(err, &backendErr):
		slog.ErrorContext(r.Context(), "gemini call failed", "op", backendErr.Op, logger.Err(backendErr.Err))
		writeJSON(w, http.StatusInternalServerError, errorResp("AI_ERROR", aiMessage, r))
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", notFoundErr.Message, r))
	case errors.As(err, &forbiddenErr):
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", forbiddenErr.Message, r))
	case errors.As(err, &quotaErr):
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", quotaErr.Message, r))
	default:
		slog.ErrorContext(r.Context(), "request failed", logger.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
