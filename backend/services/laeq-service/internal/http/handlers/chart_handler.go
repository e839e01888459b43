package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"noisemap/backend/services/laeq-service/internal/service"
)

// ChartHandler serves GET /api/chart.
type ChartHandler struct {
	service *service.LAeqService
	logger  *zap.Logger
}

// NewChartHandler returns handler.
func NewChartHandler(svc *service.LAeqService, logger *zap.Logger) *ChartHandler {
	return &ChartHandler{service: svc, logger: logger}
}

// ServeHTTP reads lat, lng, from, to (RFC3339, or YYYY-MM-DDTHH:MM in the service zone) and
// an optional maxPoints.
func (h *ChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	loc := h.service.Location()
	from, errFrom := parseInstant(q.Get("from"), loc)
	to, errTo := parseInstant(q.Get("to"), loc)
	if errFrom != nil || errTo != nil {
		writeError(w, http.StatusBadRequest, "from and to must be RFC3339 timestamps")
		return
	}
	maxPoints := 0
	if raw := q.Get("maxPoints"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "maxPoints must be a positive integer")
			return
		}
		maxPoints = n
	}

	chart, err := h.service.Chart(r.Context(), service.ChartRequest{Lat: lat, Lng: lng, From: from, To: to, MaxPoints: maxPoints})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func parseInstant(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04", raw, loc)
}
