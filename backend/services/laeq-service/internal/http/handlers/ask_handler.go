package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"noisemap/backend/services/laeq-service/internal/http/middleware"
	"noisemap/backend/services/laeq-service/internal/models"
	"noisemap/backend/services/laeq-service/internal/service"
)

// AskHandler serves POST /api/ask.
type AskHandler struct {
	service *service.AskService
	logger  *zap.Logger
}

// NewAskHandler returns handler.
func NewAskHandler(svc *service.AskService, logger *zap.Logger) *AskHandler {
	return &AskHandler{service: svc, logger: logger}
}

func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	resp, err := h.service.Ask(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	caller, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		caller = "anonymous"
	}
	h.logger.Info("question answered",
		zap.String("session_id", resp.SessionID),
		zap.String("caller", caller),
		zap.String("window", req.Window),
	)
	w.Header().Set("X-Session-ID", resp.SessionID)
	writeRaw(w, http.StatusOK, resp.Body)
}
