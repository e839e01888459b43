package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"noisemap/backend/libs/laeq"
	"noisemap/backend/services/laeq-service/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_, _ = w.Write(body)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// writeServiceError maps service and core errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var upErr *models.UpstreamError
	switch {
	case errors.Is(err, laeq.ErrInvalidWindow), errors.Is(err, models.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, laeq.ErrNoData):
		writeError(w, http.StatusNotFound, "no data for window")
	case errors.Is(err, models.ErrCellNotFound):
		writeError(w, http.StatusNotFound, "no hex cell at location")
	case errors.Is(err, models.ErrAIDisabled):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error(), Code: models.CodeConnection})
	case errors.As(err, &upErr):
		logger.Warn("upstream failure", zap.String("service", upErr.Service), zap.String("code", upErr.Code), zap.Error(err))
		writeJSON(w, upstreamStatus(upErr), errorBody{
			Error:   upErr.Service + " request failed",
			Code:    upErr.Code,
			Details: upErr.Err.Error(),
		})
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func upstreamStatus(e *models.UpstreamError) int {
	switch e.Code {
	case models.CodeTimeout:
		return http.StatusGatewayTimeout
	case models.CodeConnection:
		return http.StatusServiceUnavailable
	case models.CodeNotFound:
		if e.Service == "ai" {
			return http.StatusNotFound
		}
	}
	return http.StatusBadGateway
}
