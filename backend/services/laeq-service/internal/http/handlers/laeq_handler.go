package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"noisemap/backend/services/laeq-service/internal/models"
	"noisemap/backend/services/laeq-service/internal/service"
)

// LAeqHandler serves /api/laeq.
type LAeqHandler struct {
	service *service.LAeqService
	logger  *zap.Logger
}

// NewLAeqHandler returns handler.
func NewLAeqHandler(svc *service.LAeqService, logger *zap.Logger) *LAeqHandler {
	return &LAeqHandler{service: svc, logger: logger}
}

// ServeHTTP accepts a JSON body on POST or query parameters on GET.
func (h *LAeqHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.LAeqRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	} else {
		q := r.URL.Query()
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
		if errLat != nil || errLng != nil {
			writeError(w, http.StatusBadRequest, "lat and lng are required")
			return
		}
		req = models.LAeqRequest{Lat: lat, Lng: lng, Window: q.Get("type"), Date: q.Get("date")}
	}

	report, err := h.service.Compute(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
